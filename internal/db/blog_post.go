package db

import "gorm.io/gorm"

// BlogPost 是一篇博客文章，Content 为 Markdown。
type BlogPost struct {
	gorm.Model
	Title    string `gorm:"not null" json:"title"`
	Slug     string `gorm:"size:160;uniqueIndex;not null" json:"slug"`
	Category string `gorm:"size:64" json:"category"`
	Content  string `gorm:"type:text" json:"content"`
	ImageURL string `json:"image_url"`
}

// TableName 返回博客表名。
func (BlogPost) TableName() string {
	return "blog_posts"
}
