package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/visualizer/internal/notify"
)

// GenerateRequest 是一次文本生成调用的输入。
type GenerateRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
}

// Generator 调用外部文本生成接口。
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// ContactNotifier 在新咨询写入后发送通知。
type ContactNotifier interface {
	NotifyContact(ctx context.Context, event notify.ContactEvent) error
}
