package db

import "gorm.io/gorm"

// 作品分类只允许以下四个取值。
const (
	ProjectCategoryGraphicDesign  = "Graphic Design"
	ProjectCategoryMotionGraphics = "Motion Graphics"
	ProjectCategoryVideoEditing   = "Video Editing"
	ProjectCategoryCGIAds         = "CGI Ads"
)

// 作品媒体类型。
const (
	ProjectTypeImage = "image"
	ProjectTypeVideo = "video"
)

// ProjectCategories 返回全部合法分类，顺序即后台下拉框顺序。
func ProjectCategories() []string {
	return []string{
		ProjectCategoryGraphicDesign,
		ProjectCategoryMotionGraphics,
		ProjectCategoryVideoEditing,
		ProjectCategoryCGIAds,
	}
}

// IsProjectCategory 判断 value 是否为合法分类（大小写敏感）。
func IsProjectCategory(value string) bool {
	for _, category := range ProjectCategories() {
		if category == value {
			return true
		}
	}
	return false
}

// Project 是一件作品集作品。
type Project struct {
	gorm.Model
	Title        string   `gorm:"not null" json:"title"`
	Description  string   `gorm:"type:text" json:"description"`
	Category     string   `gorm:"size:32;index;not null" json:"category"`
	Type         string   `gorm:"size:8;not null;default:image" json:"type"`
	MediaURL     string   `json:"media_url"`
	ThumbnailURL string   `json:"thumbnail_url"`
	MediaGallery []string `gorm:"serializer:json" json:"media_gallery"`
	IsFeatured   bool     `gorm:"index" json:"is_featured"`
}

// TableName 返回作品表名。
func (Project) TableName() string {
	return "projects"
}
