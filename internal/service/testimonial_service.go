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
	ErrTestimonialNotFound      = errors.New("testimonial not found")
	ErrTestimonialNameRequired  = errors.New("testimonial name is required")
	ErrTestimonialInvalidRating = errors.New("rating must be between 1 and 5")
)

// TestimonialInput 为后台提交的评价字段。
type TestimonialInput struct {
	Name     string
	Role     string
	Feedback string
	ImageURL string
	Rating   int
}

// TestimonialService 管理客户评价。
type TestimonialService struct {
	*entity[db.Testimonial, TestimonialInput]
}

func NewTestimonialService(gdb *gorm.DB) *TestimonialService {
	e := newEntity[db.Testimonial, TestimonialInput](gdb, "testimonials", ErrTestimonialNotFound)
	e.order = []store.Option{store.OrderBy("created_at", false)}
	e.validate = func(in TestimonialInput) (TestimonialInput, error) {
		in.Name = strings.TrimSpace(in.Name)
		if in.Name == "" {
			return in, store.Invalid("save", "testimonials", ErrTestimonialNameRequired)
		}
		if in.Rating == 0 {
			in.Rating = 5
		}
		if in.Rating < 1 || in.Rating > 5 {
			return in, store.Invalid("save", "testimonials", ErrTestimonialInvalidRating)
		}
		in.Role = strings.TrimSpace(in.Role)
		in.Feedback = strings.TrimSpace(in.Feedback)
		in.ImageURL = strings.TrimSpace(in.ImageURL)
		return in, nil
	}
	e.apply = func(row *db.Testimonial, in TestimonialInput) {
		row.Name = in.Name
		row.Role = in.Role
		row.Feedback = in.Feedback
		row.ImageURL = in.ImageURL
		row.Rating = in.Rating
	}
	return &TestimonialService{entity: e}
}

func (s *TestimonialService) List(ctx context.Context) ([]db.Testimonial, error) {
	return s.list(ctx)
}

func (s *TestimonialService) Get(ctx context.Context, id uint) (db.Testimonial, error) {
	return s.get(ctx, id)
}

func (s *TestimonialService) Save(ctx context.Context, id uint, input TestimonialInput) (db.Testimonial, error) {
	row, err := s.save(ctx, id, input)
	if err != nil {
		return row, fmt.Errorf("save testimonial: %w", err)
	}
	return row, nil
}

func (s *TestimonialService) Delete(ctx context.Context, id uint) error {
	return s.delete(ctx, id)
}
