package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/visualizer/internal/db"
	"github.com/visualizer/internal/store"
)

func TestProjectListFeaturedOnlyReturnsFlagged(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewProjectService(gdb)
	ctx := context.Background()

	inputs := []ProjectInput{
		{Title: "Reel", Category: db.ProjectCategoryVideoEditing, Type: "video", IsFeatured: true},
		{Title: "Poster", Category: db.ProjectCategoryGraphicDesign},
		{Title: "Ad", Category: db.ProjectCategoryCGIAds, IsFeatured: true},
	}
	for _, in := range inputs {
		if _, err := svc.Save(ctx, 0, in); err != nil {
			t.Fatalf("save %q failed: %v", in.Title, err)
		}
	}

	featured, err := svc.ListFeatured(ctx)
	if err != nil {
		t.Fatalf("ListFeatured failed: %v", err)
	}
	if len(featured) != 2 {
		t.Fatalf("expected 2 featured projects, got %d", len(featured))
	}
	for _, p := range featured {
		if !p.IsFeatured {
			t.Fatalf("non-featured project %q returned", p.Title)
		}
	}
	if featured[0].Title != "Ad" {
		t.Fatalf("expected newest first, got %q", featured[0].Title)
	}
}

func TestProjectSaveRejectsUnknownCategory(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewProjectService(gdb)

	_, err := svc.Save(context.Background(), 0, ProjectInput{Title: "X", Category: "Photography"})
	if !errors.Is(err, ErrProjectInvalidCategory) {
		t.Fatalf("expected ErrProjectInvalidCategory, got %v", err)
	}
	if store.KindOf(err) != store.KindInvalid {
		t.Fatalf("expected invalid kind, got %q", store.KindOf(err))
	}

	var count int64
	gdb.Model(&db.Project{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected nothing stored, got %d rows", count)
	}
}

func TestProjectCategoriesAreFixed(t *testing.T) {
	want := []string{"Graphic Design", "Motion Graphics", "Video Editing", "CGI Ads"}
	if diff := cmp.Diff(want, db.ProjectCategories()); diff != "" {
		t.Fatalf("categories mismatch (-want +got):\n%s", diff)
	}
	if got := NormalizeCategoryFilter("Wedding"); got != CategoryAll {
		t.Fatalf("expected unknown filter to map to All, got %q", got)
	}
}

func TestProjectListFiltersByCategory(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewProjectService(gdb)
	ctx := context.Background()

	for _, in := range []ProjectInput{
		{Title: "Logo", Category: db.ProjectCategoryGraphicDesign, MediaGallery: []string{" a.png ", "", "b.png"}},
		{Title: "Intro", Category: db.ProjectCategoryMotionGraphics},
	} {
		if _, err := svc.Save(ctx, 0, in); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	rows, err := svc.List(ctx, ProjectFilter{Category: db.ProjectCategoryGraphicDesign})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Title != "Logo" {
		t.Fatalf("unexpected filter result: %+v", rows)
	}
	if diff := cmp.Diff([]string{"a.png", "b.png"}, rows[0].MediaGallery); diff != "" {
		t.Fatalf("gallery mismatch (-want +got):\n%s", diff)
	}
	if rows[0].Type != db.ProjectTypeImage {
		t.Fatalf("expected default image type, got %q", rows[0].Type)
	}
}

func TestProjectDeleteMissingReturnsNotFound(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewProjectService(gdb)

	if err := svc.Delete(context.Background(), 42); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}
