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
	ErrPricingPlanNotFound      = errors.New("pricing plan not found")
	ErrPricingPlanTitleRequired = errors.New("pricing plan title is required")
)

// DefaultPlanButtonText 为未填写按钮文案时的默认值。
const DefaultPlanButtonText = "Get Started"

// PricingPlanInput 为后台提交的套餐字段。
type PricingPlanInput struct {
	Title       string
	Price       string
	Description string
	Features    []string
	IsPopular   bool
	ButtonText  string
}

// PricingPlanService 管理定价套餐。
type PricingPlanService struct {
	*entity[db.PricingPlan, PricingPlanInput]
}

// NewPricingPlanService 构造 PricingPlanService。
func NewPricingPlanService(gdb *gorm.DB) *PricingPlanService {
	e := newEntity[db.PricingPlan, PricingPlanInput](gdb, "pricing_plans", ErrPricingPlanNotFound)
	e.order = []store.Option{store.OrderBy("created_at", true)}
	e.validate = func(in PricingPlanInput) (PricingPlanInput, error) {
		in.Title = strings.TrimSpace(in.Title)
		if in.Title == "" {
			return in, store.Invalid("save", "pricing_plans", ErrPricingPlanTitleRequired)
		}
		in.Price = strings.TrimSpace(in.Price)
		in.Description = strings.TrimSpace(in.Description)
		in.Features = cleanList(in.Features)
		in.ButtonText = strings.TrimSpace(in.ButtonText)
		if in.ButtonText == "" {
			in.ButtonText = DefaultPlanButtonText
		}
		return in, nil
	}
	e.apply = func(row *db.PricingPlan, in PricingPlanInput) {
		row.Title = in.Title
		row.Price = in.Price
		row.Description = in.Description
		row.Features = in.Features
		row.IsPopular = in.IsPopular
		row.ButtonText = in.ButtonText
	}
	return &PricingPlanService{entity: e}
}

// List 按创建时间正序返回全部套餐。
func (s *PricingPlanService) List(ctx context.Context) ([]db.PricingPlan, error) {
	return s.list(ctx)
}

func (s *PricingPlanService) Get(ctx context.Context, id uint) (db.PricingPlan, error) {
	return s.get(ctx, id)
}

func (s *PricingPlanService) Save(ctx context.Context, id uint, input PricingPlanInput) (db.PricingPlan, error) {
	row, err := s.save(ctx, id, input)
	if err != nil {
		return row, fmt.Errorf("save pricing plan: %w", err)
	}
	return row, nil
}

func (s *PricingPlanService) Delete(ctx context.Context, id uint) error {
	return s.delete(ctx, id)
}
