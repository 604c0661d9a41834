package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
	"github.com/visualizer/internal/db"
	"github.com/visualizer/internal/store"
	"gorm.io/gorm"
)

var (
	ErrBlogPostNotFound      = errors.New("blog post not found")
	ErrBlogPostTitleRequired = errors.New("blog post title is required")
	ErrBlogPostSlugInvalid   = errors.New("blog post slug is invalid")
)

const maxSlugLength = 120

var slugInvalidChars = regexp.MustCompile(`[^a-z0-9]+`)

// BlogPostInput 为后台提交的文章字段，Slug 留空时根据标题生成。
type BlogPostInput struct {
	Title    string
	Slug     string
	Category string
	Content  string
	ImageURL string
}

// BlogPostService 管理博客文章。
type BlogPostService struct {
	*entity[db.BlogPost, BlogPostInput]
}

func NewBlogPostService(gdb *gorm.DB) *BlogPostService {
	e := newEntity[db.BlogPost, BlogPostInput](gdb, "blog_posts", ErrBlogPostNotFound)
	e.order = []store.Option{store.OrderBy("created_at", false)}
	e.validate = func(in BlogPostInput) (BlogPostInput, error) {
		in.Title = strings.TrimSpace(in.Title)
		if in.Title == "" {
			return in, store.Invalid("save", "blog_posts", ErrBlogPostTitleRequired)
		}
		source := in.Slug
		if strings.TrimSpace(source) == "" {
			source = in.Title
		}
		in.Slug = Slugify(source)
		if in.Slug == "" {
			return in, store.Invalid("save", "blog_posts", ErrBlogPostSlugInvalid)
		}
		in.Category = strings.TrimSpace(in.Category)
		in.ImageURL = strings.TrimSpace(in.ImageURL)
		return in, nil
	}
	e.apply = func(row *db.BlogPost, in BlogPostInput) {
		row.Title = in.Title
		row.Slug = in.Slug
		row.Category = in.Category
		row.Content = in.Content
		row.ImageURL = in.ImageURL
	}
	return &BlogPostService{entity: e}
}

// Slugify 把任意文字转写为 ASCII 并以连字符连接。
func Slugify(value string) string {
	ascii := strings.ToLower(unidecode.Unidecode(strings.TrimSpace(value)))
	slug := strings.Trim(slugInvalidChars.ReplaceAllString(ascii, "-"), "-")
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}
	return slug
}

// List 按创建时间倒序返回全部文章。
func (s *BlogPostService) List(ctx context.Context) ([]db.BlogPost, error) {
	return s.list(ctx)
}

// GetBySlug 读取前台文章详情。
func (s *BlogPostService) GetBySlug(ctx context.Context, slug string) (db.BlogPost, error) {
	row, err := s.table.First(ctx, store.Where("slug = ?", strings.TrimSpace(slug)))
	if err != nil {
		return row, s.mapNotFound(err)
	}
	return row, nil
}

func (s *BlogPostService) Get(ctx context.Context, id uint) (db.BlogPost, error) {
	return s.get(ctx, id)
}

// Save 新增或更新文章；slug 与其他文章冲突时自动追加序号。
func (s *BlogPostService) Save(ctx context.Context, id uint, input BlogPostInput) (db.BlogPost, error) {
	normalized, err := s.validate(input)
	if err != nil {
		return db.BlogPost{}, fmt.Errorf("save blog post: %w", err)
	}
	slug, err := s.uniqueSlug(ctx, normalized.Slug, id)
	if err != nil {
		return db.BlogPost{}, fmt.Errorf("save blog post: %w", err)
	}
	normalized.Slug = slug

	row, err := s.save(ctx, id, normalized)
	if err != nil {
		return row, fmt.Errorf("save blog post: %w", err)
	}
	return row, nil
}

func (s *BlogPostService) Delete(ctx context.Context, id uint) error {
	return s.delete(ctx, id)
}

func (s *BlogPostService) uniqueSlug(ctx context.Context, base string, selfID uint) (string, error) {
	candidate := base
	for i := 2; i < 1000; i++ {
		count, err := s.table.Count(ctx, store.Where("slug = ? AND id <> ?", candidate, selfID))
		if err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", store.Invalid("save", "blog_posts", ErrBlogPostSlugInvalid)
}
