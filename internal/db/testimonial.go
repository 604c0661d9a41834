package db

import "gorm.io/gorm"

// Testimonial 为客户评价，Rating 取值 1-5。
type Testimonial struct {
	gorm.Model
	Name     string `gorm:"not null" json:"name"`
	Role     string `json:"role"`
	Feedback string `gorm:"type:text" json:"feedback"`
	ImageURL string `json:"image_url"`
	Rating   int    `gorm:"default:5" json:"rating"`
}

// TableName 返回评价表名。
func (Testimonial) TableName() string {
	return "testimonials"
}

// BrandLogo 为合作品牌 Logo。
type BrandLogo struct {
	gorm.Model
	Name     string `gorm:"not null" json:"name"`
	ImageURL string `gorm:"not null" json:"image_url"`
}

// TableName 返回品牌表名。
func (BrandLogo) TableName() string {
	return "brand_logos"
}
