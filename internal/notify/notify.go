// Package notify 在收到新的咨询时通知站长。
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ContactEvent 是一条新咨询的通知内容。
type ContactEvent struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	Client    string    `json:"client"`
	CreatedAt time.Time `json:"created_at"`
}

// Log 仅把通知写入日志。
type Log struct {
	logger *zap.Logger
}

// NewLog 构造日志通知器。
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger}
}

func (l *Log) NotifyContact(_ context.Context, event ContactEvent) error {
	l.logger.Info("new contact submission",
		zap.Uint("id", event.ID),
		zap.String("name", event.Name),
		zap.String("email", event.Email),
		zap.String("client", event.Client),
	)
	return nil
}

func (l *Log) Close() error {
	return nil
}
