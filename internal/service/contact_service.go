package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/mileusna/useragent"
	"github.com/visualizer/internal/db"
	"github.com/visualizer/internal/notify"
	"github.com/visualizer/internal/store"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrContactNameRequired    = errors.New("name is required")
	ErrContactEmailInvalid    = errors.New("email is invalid")
	ErrContactMessageRequired = errors.New("message is required")
)

const (
	maxContactNameLength    = 120
	maxContactMessageLength = 5000
)

// ContactInput 为前台联系表单字段，UserAgent 用于记录访客终端。
type ContactInput struct {
	Name      string
	Email     string
	Message   string
	UserAgent string
}

// ContactService 负责写入联系咨询并通知站长。咨询只新增、不修改。
type ContactService struct {
	table    *store.Table[db.ContactSubmission]
	notifier ContactNotifier
	logger   *zap.Logger
}

// NewContactService 构造 ContactService；notifier 为 nil 时不发送通知。
func NewContactService(gdb *gorm.DB, notifier ContactNotifier, logger *zap.Logger) *ContactService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactService{
		table:    store.NewTable[db.ContactSubmission](gdb, "contacts"),
		notifier: notifier,
		logger:   logger,
	}
}

// Submit 校验并保存一条咨询，通知失败只记录日志。
func (s *ContactService) Submit(ctx context.Context, input ContactInput) (db.ContactSubmission, error) {
	row, err := normalizeContact(input)
	if err != nil {
		return db.ContactSubmission{}, fmt.Errorf("submit contact: %w", err)
	}
	if err := s.table.Insert(ctx, &row); err != nil {
		return db.ContactSubmission{}, fmt.Errorf("submit contact: %w", err)
	}

	if s.notifier != nil {
		event := notify.ContactEvent{
			ID:        row.ID,
			Name:      row.Name,
			Email:     row.Email,
			Message:   row.Message,
			Client:    row.Client,
			CreatedAt: row.CreatedAt,
		}
		if err := s.notifier.NotifyContact(ctx, event); err != nil {
			s.logger.Warn("notify contact failed", zap.Uint("contact_id", row.ID), zap.Error(err))
		}
	}
	return row, nil
}

// List 返回全部咨询，最新在前。
func (s *ContactService) List(ctx context.Context) ([]db.ContactSubmission, error) {
	return s.table.Select(ctx, store.OrderBy("created_at", false))
}

func normalizeContact(input ContactInput) (db.ContactSubmission, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return db.ContactSubmission{}, store.Invalid("insert", "contacts", ErrContactNameRequired)
	}
	if runes := []rune(name); len(runes) > maxContactNameLength {
		name = string(runes[:maxContactNameLength])
	}

	email := strings.TrimSpace(input.Email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return db.ContactSubmission{}, store.Invalid("insert", "contacts", ErrContactEmailInvalid)
	}

	message := strings.TrimSpace(input.Message)
	if message == "" {
		return db.ContactSubmission{}, store.Invalid("insert", "contacts", ErrContactMessageRequired)
	}
	if runes := []rune(message); len(runes) > maxContactMessageLength {
		message = string(runes[:maxContactMessageLength])
	}

	return db.ContactSubmission{
		Name:    name,
		Email:   email,
		Message: message,
		Client:  describeClient(input.UserAgent),
	}, nil
}

// describeClient 把 User-Agent 归纳为 "浏览器 / 系统 / 设备" 摘要。
func describeClient(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	ua := useragent.Parse(raw)
	device := "desktop"
	switch {
	case ua.Bot:
		device = "bot"
	case ua.Tablet:
		device = "tablet"
	case ua.Mobile:
		device = "mobile"
	}

	parts := make([]string, 0, 3)
	if ua.Name != "" {
		parts = append(parts, ua.Name)
	}
	if ua.OS != "" {
		parts = append(parts, ua.OS)
	}
	parts = append(parts, device)
	summary := strings.Join(parts, " / ")
	if len(summary) > 120 {
		summary = summary[:120]
	}
	return summary
}
