package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/visualizer/internal/db"
	"github.com/visualizer/internal/store"
	"gorm.io/gorm"
)

// DefaultBio 在站点配置未填写简介时展示。
const DefaultBio = "Professional creative expert"

var defaultTools = []db.Tool{
	{Name: "After Effects"},
	{Name: "Premiere Pro"},
	{Name: "Photoshop"},
	{Name: "Illustrator"},
	{Name: "Blender"},
	{Name: "Cinema 4D"},
}

// DefaultTools 返回关于页在未配置工具时展示的软件列表。
func DefaultTools() []db.Tool {
	return append([]db.Tool(nil), defaultTools...)
}

// DefaultSiteConfig 是数据库中尚无配置行时使用的默认值。
func DefaultSiteConfig() db.SiteConfig {
	return db.SiteConfig{
		SingletonKey:       db.SiteConfigKey,
		HeroTitle:          "Md Abdul Hai",
		HeroRole:           "Visualizer & Creative Artist",
		HeroSubtitle:       "Graphic design, motion graphics and video editing that make brands move.",
		ExperienceYears:    5,
		Bio:                DefaultBio,
		WhatsApp:           "+8801779672765",
		Email:              "mdabdulhai2506@gmail.com",
		Skills:             []db.Skill{},
		ExperienceTimeline: []db.TimelineItem{},
		Tools:              []db.Tool{},
	}
}

// SiteConfigInput 为后台提交的站点配置，整行覆盖。
type SiteConfigInput struct {
	HeroTitle          string
	HeroRole           string
	HeroSubtitle       string
	HeroImageURL       string
	HeroVideoURL       string
	Bio                string
	ExperienceYears    int
	ProfilePicURL      string
	AboutVideoURL      string
	WhatsApp           string
	Email              string
	Skills             []db.Skill
	ExperienceTimeline []db.TimelineItem
	Tools              []db.Tool
	ChatbotKnowledge   string
}

// SiteConfigService 读写站点配置单行记录。
type SiteConfigService struct {
	table    *store.Table[db.SiteConfig]
	onChange func(context.Context)
}

// NewSiteConfigService 构造 SiteConfigService。
func NewSiteConfigService(gdb *gorm.DB) *SiteConfigService {
	return &SiteConfigService{table: store.NewTable[db.SiteConfig](gdb, "site_config")}
}

// Get 返回唯一的配置行；尚未保存过时返回默认值而非错误。
func (s *SiteConfigService) Get(ctx context.Context) (db.SiteConfig, error) {
	row, err := s.table.First(ctx, store.Where("singleton_key = ?", db.SiteConfigKey))
	if err != nil {
		if store.KindOf(err) == store.KindNotFound {
			return DefaultSiteConfig(), nil
		}
		return DefaultSiteConfig(), err
	}
	return row, nil
}

// Save 以固定键 upsert 配置，重复保存始终只有一行，后写覆盖先写。
func (s *SiteConfigService) Save(ctx context.Context, input SiteConfigInput) (db.SiteConfig, error) {
	row := siteConfigFromInput(input)
	if err := s.table.Upsert(ctx, &row, []string{"singleton_key"}, siteConfigColumns); err != nil {
		return db.SiteConfig{}, fmt.Errorf("save site config: %w", err)
	}
	if s.onChange != nil {
		s.onChange(ctx)
	}
	return s.Get(ctx)
}

var siteConfigColumns = []string{
	"hero_title", "hero_role", "hero_subtitle", "hero_image_url", "hero_video_url",
	"bio", "experience_years", "profile_pic_url", "about_video_url",
	"whats_app", "email", "skills", "experience_timeline", "tools", "chatbot_knowledge",
}

func siteConfigFromInput(in SiteConfigInput) db.SiteConfig {
	years := in.ExperienceYears
	if years < 0 {
		years = 0
	}
	skills := make([]db.Skill, 0, len(in.Skills))
	for _, skill := range in.Skills {
		name := strings.TrimSpace(skill.Name)
		if name == "" {
			continue
		}
		level := skill.Level
		if level < 0 {
			level = 0
		}
		if level > 100 {
			level = 100
		}
		skills = append(skills, db.Skill{Name: name, Level: level})
	}
	timeline := make([]db.TimelineItem, 0, len(in.ExperienceTimeline))
	for _, item := range in.ExperienceTimeline {
		if strings.TrimSpace(item.Title) == "" && strings.TrimSpace(item.Year) == "" {
			continue
		}
		timeline = append(timeline, db.TimelineItem{
			Year:        strings.TrimSpace(item.Year),
			Title:       strings.TrimSpace(item.Title),
			Company:     strings.TrimSpace(item.Company),
			Description: strings.TrimSpace(item.Description),
		})
	}
	tools := make([]db.Tool, 0, len(in.Tools))
	for _, tool := range in.Tools {
		if name := strings.TrimSpace(tool.Name); name != "" {
			tools = append(tools, db.Tool{Name: name, IconURL: strings.TrimSpace(tool.IconURL)})
		}
	}

	return db.SiteConfig{
		SingletonKey:       db.SiteConfigKey,
		HeroTitle:          strings.TrimSpace(in.HeroTitle),
		HeroRole:           strings.TrimSpace(in.HeroRole),
		HeroSubtitle:       strings.TrimSpace(in.HeroSubtitle),
		HeroImageURL:       strings.TrimSpace(in.HeroImageURL),
		HeroVideoURL:       strings.TrimSpace(in.HeroVideoURL),
		Bio:                strings.TrimSpace(in.Bio),
		ExperienceYears:    years,
		ProfilePicURL:      strings.TrimSpace(in.ProfilePicURL),
		AboutVideoURL:      strings.TrimSpace(in.AboutVideoURL),
		WhatsApp:           strings.TrimSpace(in.WhatsApp),
		Email:              strings.TrimSpace(in.Email),
		Skills:             skills,
		ExperienceTimeline: timeline,
		Tools:              tools,
		ChatbotKnowledge:   in.ChatbotKnowledge,
	}
}
