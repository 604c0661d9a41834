package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// ChatGreeting 是每段对话的第一条机器人消息。
	ChatGreeting = "Meow! I'm Hai's creative assistant. How can I help you today?"
	// ChatFallback 在生成失败或未配置密钥时展示。
	ChatFallback = "I'm having a little nap right now. Purr... please try again or contact my boss via WhatsApp!"
	// ChatEmptyReply 在模型返回空文本时展示。
	ChatEmptyReply = "Sorry, I'm feeling a bit sleepy."
	// DefaultChatModel 为 Gemini 默认模型。
	DefaultChatModel = "gemini-3-flash-preview"
	// DefaultChatTemperature 为默认采样温度。
	DefaultChatTemperature = 0.7

	maxChatMessageRunes = 1000
)

var (
	// ErrChatBusy 表示同一对话已有请求在生成中。
	ErrChatBusy = errors.New("a reply is already being generated")
	// ErrChatEmptyMessage 表示用户消息为空。
	ErrChatEmptyMessage = errors.New("message is empty")
)

// ChatRole 区分对话中的发言方。
type ChatRole string

const (
	ChatRoleUser ChatRole = "user"
	ChatRoleBot  ChatRole = "bot"
)

// ChatTurn 是对话中的一条消息。
type ChatTurn struct {
	Role ChatRole `json:"role"`
	Text string   `json:"text"`
}

// KnowledgeSource 提供构造提示词所需的实时内容。
type KnowledgeSource interface {
	Knowledge(ctx context.Context) Knowledge
}

// Assistant 组合知识库与生成接口，任何失败都以固定文案回复。
type Assistant struct {
	generator   Generator
	source      KnowledgeSource
	temperature float64
	logger      *zap.Logger
}

// NewAssistant 构造 Assistant；generator 为 nil 表示未配置密钥。
func NewAssistant(generator Generator, source KnowledgeSource, temperature float64, logger *zap.Logger) *Assistant {
	if temperature <= 0 {
		temperature = DefaultChatTemperature
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{generator: generator, source: source, temperature: temperature, logger: logger}
}

// Reply 生成对用户消息的回复，从不返回错误。
func (a *Assistant) Reply(ctx context.Context, message string) string {
	if a.generator == nil {
		return ChatFallback
	}

	var knowledge Knowledge
	if a.source != nil {
		knowledge = a.source.Knowledge(ctx)
	} else {
		knowledge.Config = DefaultSiteConfig()
	}
	req := GenerateRequest{
		SystemPrompt: BuildGroundingPrompt(knowledge),
		UserPrompt:   message,
		Temperature:  a.temperature,
	}
	logAIExchange(a.logger, "chat", "request", message)

	reply, err := a.generator.Generate(ctx, req)
	if err != nil {
		a.logger.Warn("chat generation failed", zap.Error(err))
		return ChatFallback
	}
	logAIExchange(a.logger, "chat", "response", reply)

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return ChatEmptyReply
	}
	return reply
}

// Conversation 是一段只保存在内存中的对话，同一时间只允许一次生成。
type Conversation struct {
	assistant *Assistant

	mu         sync.Mutex
	turns      []ChatTurn
	generating bool
	lastActive time.Time
}

// NewConversation 创建以问候语开头的对话。
func NewConversation(assistant *Assistant) *Conversation {
	return &Conversation{
		assistant:  assistant,
		turns:      []ChatTurn{{Role: ChatRoleBot, Text: ChatGreeting}},
		lastActive: time.Now(),
	}
}

// Turns 返回当前消息列表的副本。
func (c *Conversation) Turns() []ChatTurn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ChatTurn(nil), c.turns...)
}

// Generating 报告是否有生成中的请求。
func (c *Conversation) Generating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generating
}

// Send 追加用户消息并等待回复，成功时恰好追加一条机器人消息。
func (c *Conversation) Send(ctx context.Context, message string) (ChatTurn, error) {
	message = truncateRunes(strings.TrimSpace(message), maxChatMessageRunes)
	if message == "" {
		return ChatTurn{}, ErrChatEmptyMessage
	}

	c.mu.Lock()
	if c.generating {
		c.mu.Unlock()
		return ChatTurn{}, ErrChatBusy
	}
	c.generating = true
	c.turns = append(c.turns, ChatTurn{Role: ChatRoleUser, Text: message})
	c.lastActive = time.Now()
	c.mu.Unlock()

	// 生成过程 panic 时同样要释放占用标记
	defer func() {
		c.mu.Lock()
		c.generating = false
		c.lastActive = time.Now()
		c.mu.Unlock()
	}()

	turn := ChatTurn{Role: ChatRoleBot, Text: c.assistant.Reply(ctx, message)}
	c.mu.Lock()
	c.turns = append(c.turns, turn)
	c.mu.Unlock()
	return turn, nil
}

func (c *Conversation) idleSince(cutoff time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.generating && c.lastActive.Before(cutoff)
}

// ChatHub 按访客会话保存对话，进程重启后丢失。
type ChatHub struct {
	assistant *Assistant

	mu            sync.Mutex
	conversations map[string]*Conversation
}

// NewChatHub 构造 ChatHub。
func NewChatHub(assistant *Assistant) *ChatHub {
	return &ChatHub{assistant: assistant, conversations: make(map[string]*Conversation)}
}

// Conversation 返回 id 对应的对话，不存在时新建。
func (h *ChatHub) Conversation(id string) *Conversation {
	h.mu.Lock()
	defer h.mu.Unlock()
	conv, ok := h.conversations[id]
	if !ok {
		conv = NewConversation(h.assistant)
		h.conversations[id] = conv
	}
	return conv
}

// Sweep 清理空闲超过 idle 的对话，返回清理数量。
func (h *ChatHub) Sweep(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)
	h.mu.Lock()
	defer h.mu.Unlock()
	removed := 0
	for id, conv := range h.conversations {
		if conv.idleSince(cutoff) {
			delete(h.conversations, id)
			removed++
		}
	}
	return removed
}

// Len 返回当前保存的对话数。
func (h *ChatHub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conversations)
}
