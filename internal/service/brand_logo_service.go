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
	ErrBrandLogoNotFound      = errors.New("brand logo not found")
	ErrBrandLogoNameRequired  = errors.New("brand name is required")
	ErrBrandLogoImageRequired = errors.New("brand logo image is required")
)

// BrandLogoInput 为后台提交的品牌字段。
type BrandLogoInput struct {
	Name     string
	ImageURL string
}

// BrandLogoService 管理合作品牌 Logo。
type BrandLogoService struct {
	*entity[db.BrandLogo, BrandLogoInput]
}

func NewBrandLogoService(gdb *gorm.DB) *BrandLogoService {
	e := newEntity[db.BrandLogo, BrandLogoInput](gdb, "brand_logos", ErrBrandLogoNotFound)
	e.order = []store.Option{store.OrderBy("created_at", false)}
	e.validate = func(in BrandLogoInput) (BrandLogoInput, error) {
		in.Name = strings.TrimSpace(in.Name)
		in.ImageURL = strings.TrimSpace(in.ImageURL)
		if in.Name == "" {
			return in, store.Invalid("save", "brand_logos", ErrBrandLogoNameRequired)
		}
		if in.ImageURL == "" {
			return in, store.Invalid("save", "brand_logos", ErrBrandLogoImageRequired)
		}
		return in, nil
	}
	e.apply = func(row *db.BrandLogo, in BrandLogoInput) {
		row.Name = in.Name
		row.ImageURL = in.ImageURL
	}
	return &BrandLogoService{entity: e}
}

func (s *BrandLogoService) List(ctx context.Context) ([]db.BrandLogo, error) {
	return s.list(ctx)
}

func (s *BrandLogoService) Get(ctx context.Context, id uint) (db.BrandLogo, error) {
	return s.get(ctx, id)
}

func (s *BrandLogoService) Save(ctx context.Context, id uint, input BrandLogoInput) (db.BrandLogo, error) {
	row, err := s.save(ctx, id, input)
	if err != nil {
		return row, fmt.Errorf("save brand logo: %w", err)
	}
	return row, nil
}

func (s *BrandLogoService) Delete(ctx context.Context, id uint) error {
	return s.delete(ctx, id)
}
