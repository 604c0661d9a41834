package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/visualizer/internal/service"
)

const (
	chatCookieName   = "visualizer_chat"
	chatCookieMaxAge = 7 * 24 * 60 * 60
)

type chatRequest struct {
	Message string `json:"message"`
}

// ShowChat 返回当前访客的对话记录。
func (a *API) ShowChat(c *gin.Context) {
	if !a.chatEnabled(c) {
		return
	}
	conv := a.services.Chat.Conversation(a.ensureChatID(c))
	c.JSON(http.StatusOK, gin.H{
		"turns":      conv.Turns(),
		"generating": conv.Generating(),
	})
}

// SendChat 追加一条访客消息并返回助手回复；同一对话已有生成中的请求时返回 409。
func (a *API) SendChat(c *gin.Context) {
	if !a.chatEnabled(c) {
		return
	}

	var payload chatRequest
	if !bindJSON(c, &payload, "invalid chat message") {
		return
	}

	conv := a.services.Chat.Conversation(a.ensureChatID(c))
	reply, err := conv.Send(c.Request.Context(), payload.Message)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrChatBusy):
			respondError(c, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrChatEmptyMessage):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			c.Error(err)
			respondError(c, http.StatusInternalServerError, service.ChatFallback)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reply": reply,
		"turns": conv.Turns(),
	})
}

func (a *API) chatEnabled(c *gin.Context) bool {
	if a.siteSettings(c).ChatEnabled {
		return true
	}
	respondError(c, http.StatusNotFound, "chat is disabled")
	return false
}

func (a *API) ensureChatID(c *gin.Context) string {
	if id, err := c.Cookie(chatCookieName); err == nil {
		if _, parseErr := uuid.Parse(strings.TrimSpace(id)); parseErr == nil {
			return id
		}
	}

	chatID := uuid.NewString()
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     chatCookieName,
		Value:    chatID,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Request.TLS != nil,
		MaxAge:   chatCookieMaxAge,
		SameSite: http.SameSiteLaxMode,
	})
	return chatID
}
