package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/visualizer/internal/store"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

func parsePositiveInt(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

// respondStoreError 按错误类别选择状态码，消息取原始错误文本。
func respondStoreError(c *gin.Context, err error) {
	message := rootMessage(err)
	switch store.KindOf(err) {
	case store.KindInvalid:
		respondError(c, http.StatusBadRequest, message)
	case store.KindNotFound:
		respondError(c, http.StatusNotFound, message)
	case store.KindConflict:
		respondError(c, http.StatusConflict, message)
	default:
		c.Error(err)
		respondError(c, http.StatusInternalServerError, err.Error())
	}
}

func rootMessage(err error) string {
	var storeErr *store.Error
	if errors.As(err, &storeErr) && storeErr.Err != nil {
		return storeErr.Err.Error()
	}
	return err.Error()
}

func confirmed(c *gin.Context) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(c.Query("confirm")))
	return err == nil && value
}
