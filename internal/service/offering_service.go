package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/visualizer/internal/db"
	"github.com/visualizer/internal/store"
	"gorm.io/gorm"
)

var (
	ErrOfferingNotFound      = errors.New("service not found")
	ErrOfferingTitleRequired = errors.New("service title is required")
)

// OfferingInput 为后台提交的服务字段，Features 已按逗号拆分。
type OfferingInput struct {
	Title       string
	Description string
	Price       string
	Features    []string
}

// OfferingService 管理对外提供的服务（services 表）。
type OfferingService struct {
	*entity[db.Service, OfferingInput]
}

// NewOfferingService 构造 OfferingService。
func NewOfferingService(gdb *gorm.DB) *OfferingService {
	e := newEntity[db.Service, OfferingInput](gdb, "services", ErrOfferingNotFound)
	e.order = []store.Option{store.OrderBy("created_at", true)}
	e.validate = func(in OfferingInput) (OfferingInput, error) {
		in.Title = strings.TrimSpace(in.Title)
		if in.Title == "" {
			return in, store.Invalid("save", "services", ErrOfferingTitleRequired)
		}
		in.Description = strings.TrimSpace(in.Description)
		in.Price = strings.TrimSpace(in.Price)
		in.Features = cleanList(in.Features)
		return in, nil
	}
	e.apply = func(row *db.Service, in OfferingInput) {
		row.Title = in.Title
		row.Description = in.Description
		row.Price = in.Price
		row.Features = in.Features
	}
	return &OfferingService{entity: e}
}

// List 按创建时间正序返回全部服务。
func (s *OfferingService) List(ctx context.Context) ([]db.Service, error) {
	return s.list(ctx)
}

// Get 读取单个服务。
func (s *OfferingService) Get(ctx context.Context, id uint) (db.Service, error) {
	return s.get(ctx, id)
}

// Save 新增（id 为 0）或更新服务。
func (s *OfferingService) Save(ctx context.Context, id uint, input OfferingInput) (db.Service, error) {
	row, err := s.save(ctx, id, input)
	if err != nil {
		return row, fmt.Errorf("save service: %w", err)
	}
	return row, nil
}

// Delete 删除服务。
func (s *OfferingService) Delete(ctx context.Context, id uint) error {
	return s.delete(ctx, id)
}
