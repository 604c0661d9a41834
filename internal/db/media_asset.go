package db

import (
	"time"

	"gorm.io/gorm"
)

// MediaAsset 记录每次上传到存储桶的对象，替换图片时旧对象保留。
type MediaAsset struct {
	gorm.Model
	Bucket   string     `gorm:"size:64;index;not null" json:"bucket"`
	Name     string     `gorm:"size:255;uniqueIndex;not null" json:"name"`
	URL      string     `gorm:"not null" json:"url"`
	MimeType string     `gorm:"size:100" json:"mime_type"`
	Size     int64      `json:"size"`
	Width    int        `json:"width"`
	Height   int        `json:"height"`
	TakenAt  *time.Time `json:"taken_at"`
}

// TableName 返回媒体表名。
func (MediaAsset) TableName() string {
	return "media_assets"
}
