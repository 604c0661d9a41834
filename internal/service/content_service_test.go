package service

import (
	"context"
	"testing"
	"time"

	"github.com/visualizer/internal/cache"
	"github.com/visualizer/internal/db"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestContentHomeSlicesServicesAndGroupsFeatured(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svcs := New(gdb, Dependencies{})
	ctx := context.Background()

	for _, title := range []string{"One", "Two", "Three", "Four", "Five"} {
		if _, err := svcs.Offerings.Save(ctx, 0, OfferingInput{Title: title}); err != nil {
			t.Fatalf("save service failed: %v", err)
		}
	}
	for _, in := range []ProjectInput{
		{Title: "A", Category: db.ProjectCategoryCGIAds, IsFeatured: true},
		{Title: "B", Category: db.ProjectCategoryGraphicDesign, IsFeatured: true},
		{Title: "C", Category: db.ProjectCategoryGraphicDesign},
	} {
		if _, err := svcs.Projects.Save(ctx, 0, in); err != nil {
			t.Fatalf("save project failed: %v", err)
		}
	}

	home := svcs.Content.Home(ctx)
	if len(home.Services) != 4 || home.Services[0].Title != "One" {
		t.Fatalf("expected first four services in creation order, got %+v", home.Services)
	}
	if len(home.Featured) != 2 {
		t.Fatalf("expected 2 featured projects, got %d", len(home.Featured))
	}
	if len(home.FeaturedGroups) != 2 || home.FeaturedGroups[0].Category != db.ProjectCategoryGraphicDesign {
		t.Fatalf("unexpected groups: %+v", home.FeaturedGroups)
	}
	if home.Config.Bio != DefaultBio {
		t.Fatalf("expected default config when none saved, got %q", home.Config.Bio)
	}
}

func TestContentCacheInvalidatedOnWrite(t *testing.T) {
	gdb := setupServiceTestDB(t)
	mem := cache.NewMemory(time.Minute)
	svcs := New(gdb, Dependencies{Cache: mem, CacheTTL: time.Minute})
	ctx := context.Background()

	if got := len(svcs.Content.Services(ctx).Services); got != 0 {
		t.Fatalf("expected no services, got %d", got)
	}
	if mem.Len() == 0 {
		t.Fatal("expected services page to be cached")
	}

	if _, err := svcs.Offerings.Save(ctx, 0, OfferingInput{Title: "Editing"}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if mem.Len() != 0 {
		t.Fatal("expected cache cleared after write")
	}
	if got := len(svcs.Content.Services(ctx).Services); got != 1 {
		t.Fatalf("expected fresh read with 1 service, got %d", got)
	}
}

// racingCache 在第一次写入前执行 beforeSet，模拟读取完成后才提交的后台写入。
type racingCache struct {
	*cache.Memory
	beforeSet func()
}

func (c *racingCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if hook := c.beforeSet; hook != nil {
		c.beforeSet = nil
		hook()
	}
	return c.Memory.Set(ctx, key, value, ttl)
}

func TestContentWriteDuringReadDoesNotLeaveStalePage(t *testing.T) {
	gdb := setupServiceTestDB(t)
	racing := &racingCache{Memory: cache.NewMemory(time.Minute)}
	svcs := New(gdb, Dependencies{Cache: racing, CacheTTL: time.Minute})
	ctx := context.Background()

	racing.beforeSet = func() {
		if _, err := svcs.Offerings.Save(ctx, 0, OfferingInput{Title: "Late"}); err != nil {
			t.Errorf("save failed: %v", err)
		}
	}

	if got := len(svcs.Content.Services(ctx).Services); got != 0 {
		t.Fatalf("expected the in-flight read to see 0 services, got %d", got)
	}
	if racing.Len() != 0 {
		t.Fatal("expected the pre-write page to be dropped from cache")
	}
	if got := len(svcs.Content.Services(ctx).Services); got != 1 {
		t.Fatalf("expected saved service on next read, got %d", got)
	}
}

func TestContentFailedReadDegradesToEmptyList(t *testing.T) {
	gdb := setupServiceTestDB(t)
	core, logs := observer.New(zap.WarnLevel)
	mem := cache.NewMemory(time.Minute)
	svcs := New(gdb, Dependencies{Cache: mem, CacheTTL: time.Minute, Logger: zap.New(core)})
	ctx := context.Background()

	if err := gdb.Migrator().DropTable(&db.Testimonial{}); err != nil {
		t.Fatalf("drop table failed: %v", err)
	}

	home := svcs.Content.Home(ctx)
	if home.Testimonials == nil || len(home.Testimonials) != 0 {
		t.Fatalf("expected empty testimonials, got %+v", home.Testimonials)
	}
	if logs.FilterMessage("content read failed").Len() == 0 {
		t.Fatal("expected failed read to be logged")
	}
	if mem.Len() != 0 {
		t.Fatal("expected partial page not to be cached")
	}
}

func TestContentPortfolioNormalizesCategory(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svcs := New(gdb, Dependencies{})

	page := svcs.Content.Portfolio(context.Background(), "Unknown")
	if page.Category != CategoryAll {
		t.Fatalf("expected All, got %q", page.Category)
	}
	if len(page.Categories) != 5 || page.Categories[0] != CategoryAll {
		t.Fatalf("unexpected categories %v", page.Categories)
	}
}

func TestContentAboutFallsBackToDefaultTools(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svcs := New(gdb, Dependencies{})

	about := svcs.Content.About(context.Background())
	if len(about.Tools) != 6 || about.Tools[0].Name != "After Effects" {
		t.Fatalf("unexpected default tools %+v", about.Tools)
	}
}
