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
	ErrProjectNotFound        = errors.New("project not found")
	ErrProjectTitleRequired   = errors.New("project title is required")
	ErrProjectInvalidCategory = errors.New("project category is invalid")
	ErrProjectInvalidType     = errors.New("project type must be image or video")
)

// CategoryAll 是作品集页面“全部”筛选项。
const CategoryAll = "All"

// ProjectInput 为后台提交的作品字段。
type ProjectInput struct {
	Title        string
	Description  string
	Category     string
	Type         string
	MediaURL     string
	ThumbnailURL string
	MediaGallery []string
	IsFeatured   bool
}

// ProjectFilter 描述作品列表的筛选条件。
type ProjectFilter struct {
	Category     string
	FeaturedOnly bool
	Limit        int
}

// ProjectService 管理作品集。
type ProjectService struct {
	*entity[db.Project, ProjectInput]
}

// NewProjectService 构造 ProjectService。
func NewProjectService(gdb *gorm.DB) *ProjectService {
	e := newEntity[db.Project, ProjectInput](gdb, "projects", ErrProjectNotFound)
	e.order = []store.Option{store.OrderBy("created_at", false)}
	e.validate = validateProjectInput
	e.apply = func(row *db.Project, in ProjectInput) {
		row.Title = in.Title
		row.Description = in.Description
		row.Category = in.Category
		row.Type = in.Type
		row.MediaURL = in.MediaURL
		row.ThumbnailURL = in.ThumbnailURL
		row.MediaGallery = in.MediaGallery
		row.IsFeatured = in.IsFeatured
	}
	return &ProjectService{entity: e}
}

func validateProjectInput(in ProjectInput) (ProjectInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return in, store.Invalid("save", "projects", ErrProjectTitleRequired)
	}
	in.Category = strings.TrimSpace(in.Category)
	if !db.IsProjectCategory(in.Category) {
		return in, store.Invalid("save", "projects", fmt.Errorf("%w: %q", ErrProjectInvalidCategory, in.Category))
	}
	in.Type = strings.ToLower(strings.TrimSpace(in.Type))
	switch in.Type {
	case "":
		in.Type = db.ProjectTypeImage
	case db.ProjectTypeImage, db.ProjectTypeVideo:
	default:
		return in, store.Invalid("save", "projects", ErrProjectInvalidType)
	}
	in.Description = strings.TrimSpace(in.Description)
	in.MediaURL = strings.TrimSpace(in.MediaURL)
	in.ThumbnailURL = strings.TrimSpace(in.ThumbnailURL)
	in.MediaGallery = cleanList(in.MediaGallery)
	return in, nil
}

// NormalizeCategoryFilter 把查询参数归一化为合法分类或 CategoryAll。
func NormalizeCategoryFilter(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if db.IsProjectCategory(trimmed) {
		return trimmed
	}
	return CategoryAll
}

// List 按创建时间倒序返回作品，支持分类与精选筛选。
func (s *ProjectService) List(ctx context.Context, filter ProjectFilter) ([]db.Project, error) {
	var opts []store.Option
	if category := NormalizeCategoryFilter(filter.Category); category != CategoryAll {
		opts = append(opts, store.Where("category = ?", category))
	}
	if filter.FeaturedOnly {
		opts = append(opts, store.Where("is_featured = ?", true))
	}
	opts = append(opts, store.Limit(filter.Limit))
	return s.list(ctx, opts...)
}

// ListFeatured 返回首页展示的精选作品。
func (s *ProjectService) ListFeatured(ctx context.Context) ([]db.Project, error) {
	return s.List(ctx, ProjectFilter{FeaturedOnly: true})
}

func (s *ProjectService) Get(ctx context.Context, id uint) (db.Project, error) {
	return s.get(ctx, id)
}

func (s *ProjectService) Save(ctx context.Context, id uint, input ProjectInput) (db.Project, error) {
	row, err := s.save(ctx, id, input)
	if err != nil {
		return row, fmt.Errorf("save project: %w", err)
	}
	return row, nil
}

func (s *ProjectService) Delete(ctx context.Context, id uint) error {
	return s.delete(ctx, id)
}

// ProjectGroup 是按分类分组后的作品。
type ProjectGroup struct {
	Category string
	Projects []db.Project
}

// GroupProjectsByCategory 按固定分类顺序分组，忽略空分组。
func GroupProjectsByCategory(projects []db.Project) []ProjectGroup {
	groups := make([]ProjectGroup, 0, len(db.ProjectCategories()))
	for _, category := range db.ProjectCategories() {
		var items []db.Project
		for _, project := range projects {
			if project.Category == category {
				items = append(items, project)
			}
		}
		if len(items) > 0 {
			groups = append(groups, ProjectGroup{Category: category, Projects: items})
		}
	}
	return groups
}
