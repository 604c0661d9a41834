package db

import "gorm.io/gorm"

// SiteConfigKey 是站点配置单行记录的固定键，所有写入都落在这一行上。
const SiteConfigKey = "main"

// Skill 是关于页展示的技能条目，Level 取值 0-100。
type Skill struct {
	Name  string `json:"name" yaml:"name"`
	Level int    `json:"level" yaml:"level"`
}

// TimelineItem 是经历时间线中的一项。
type TimelineItem struct {
	Year        string `json:"year" yaml:"year"`
	Title       string `json:"title" yaml:"title"`
	Company     string `json:"company" yaml:"company"`
	Description string `json:"description" yaml:"description"`
}

// Tool 是常用软件工具。
type Tool struct {
	Name    string `json:"name" yaml:"name"`
	IconURL string `json:"icon_url" yaml:"icon_url"`
}

// SiteConfig 保存首页文案、媒体、联系方式以及聊天知识库，只允许存在一行。
type SiteConfig struct {
	gorm.Model
	SingletonKey string `gorm:"size:16;uniqueIndex;not null" json:"-"`

	HeroTitle    string `json:"hero_title"`
	HeroRole     string `json:"hero_role"`
	HeroSubtitle string `json:"hero_subtitle"`
	HeroImageURL string `json:"hero_image_url"`
	HeroVideoURL string `json:"hero_video_url"`

	Bio             string `gorm:"type:text" json:"bio"`
	ExperienceYears int    `json:"experience_years"`
	ProfilePicURL   string `json:"profile_pic_url"`
	AboutVideoURL   string `json:"about_video_url"`

	WhatsApp string `json:"whatsapp"`
	Email    string `json:"email"`

	Skills             []Skill        `gorm:"serializer:json" json:"skills"`
	ExperienceTimeline []TimelineItem `gorm:"serializer:json" json:"experience_timeline"`
	Tools              []Tool         `gorm:"serializer:json" json:"tools"`

	ChatbotKnowledge string `gorm:"type:text" json:"chatbot_knowledge"`
}

// TableName 返回站点配置表名。
func (SiteConfig) TableName() string {
	return "site_config"
}
