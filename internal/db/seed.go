package db

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// SeedData 对应种子 YAML 文件的结构。
type SeedData struct {
	SiteConfig   *SeedSiteConfig   `yaml:"site_config"`
	Services     []SeedService     `yaml:"services"`
	PricingPlans []SeedPricingPlan `yaml:"pricing_plans"`
	Projects     []SeedProject     `yaml:"projects"`
	Testimonials []SeedTestimonial `yaml:"testimonials"`
	BrandLogos   []SeedBrandLogo   `yaml:"brand_logos"`
	BlogPosts    []SeedBlogPost    `yaml:"blog_posts"`
}

type SeedSiteConfig struct {
	HeroTitle          string         `yaml:"hero_title"`
	HeroRole           string         `yaml:"hero_role"`
	HeroSubtitle       string         `yaml:"hero_subtitle"`
	HeroImageURL       string         `yaml:"hero_image_url"`
	HeroVideoURL       string         `yaml:"hero_video_url"`
	Bio                string         `yaml:"bio"`
	ExperienceYears    int            `yaml:"experience_years"`
	ProfilePicURL      string         `yaml:"profile_pic_url"`
	AboutVideoURL      string         `yaml:"about_video_url"`
	WhatsApp           string         `yaml:"whatsapp"`
	Email              string         `yaml:"email"`
	Skills             []Skill        `yaml:"skills"`
	ExperienceTimeline []TimelineItem `yaml:"experience_timeline"`
	Tools              []Tool         `yaml:"tools"`
	ChatbotKnowledge   string         `yaml:"chatbot_knowledge"`
}

type SeedService struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Price       string   `yaml:"price"`
	Features    []string `yaml:"features"`
}

type SeedPricingPlan struct {
	Title       string   `yaml:"title"`
	Price       string   `yaml:"price"`
	Description string   `yaml:"description"`
	Features    []string `yaml:"features"`
	IsPopular   bool     `yaml:"is_popular"`
	ButtonText  string   `yaml:"button_text"`
}

type SeedProject struct {
	Title        string   `yaml:"title"`
	Description  string   `yaml:"description"`
	Category     string   `yaml:"category"`
	Type         string   `yaml:"type"`
	MediaURL     string   `yaml:"media_url"`
	ThumbnailURL string   `yaml:"thumbnail_url"`
	MediaGallery []string `yaml:"media_gallery"`
	IsFeatured   bool     `yaml:"is_featured"`
}

type SeedTestimonial struct {
	Name     string `yaml:"name"`
	Role     string `yaml:"role"`
	Feedback string `yaml:"feedback"`
	ImageURL string `yaml:"image_url"`
	Rating   int    `yaml:"rating"`
}

type SeedBrandLogo struct {
	Name     string `yaml:"name"`
	ImageURL string `yaml:"image_url"`
}

type SeedBlogPost struct {
	Title    string `yaml:"title"`
	Slug     string `yaml:"slug"`
	Category string `yaml:"category"`
	Content  string `yaml:"content"`
	ImageURL string `yaml:"image_url"`
}

// SeedReport 统计每张表写入的行数。
type SeedReport map[string]int

// ParseSeed 解析 YAML 种子内容。
func ParseSeed(r io.Reader) (SeedData, error) {
	var data SeedData
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&data); err != nil {
		if errors.Is(err, io.EOF) {
			return SeedData{}, nil
		}
		return SeedData{}, fmt.Errorf("parse seed: %w", err)
	}
	for i, project := range data.Projects {
		if !IsProjectCategory(project.Category) {
			return SeedData{}, fmt.Errorf("parse seed: project %d has invalid category %q", i, project.Category)
		}
	}
	for i, post := range data.BlogPosts {
		if strings.TrimSpace(post.Slug) == "" {
			return SeedData{}, fmt.Errorf("parse seed: blog post %d is missing a slug", i)
		}
	}
	return data, nil
}

// SeedFromFile 读取种子文件并写入空表；文件不存在时静默跳过。
func SeedFromFile(gdb *gorm.DB, path string) (SeedReport, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return SeedReport{}, nil
		}
		return nil, err
	}
	defer file.Close()

	data, err := ParseSeed(file)
	if err != nil {
		return nil, err
	}
	return Seed(gdb, data)
}

// Seed 仅向仍为空的表写入种子数据，重复执行不会产生重复行。
func Seed(gdb *gorm.DB, data SeedData) (SeedReport, error) {
	report := SeedReport{}
	err := gdb.Transaction(func(tx *gorm.DB) error {
		if data.SiteConfig != nil {
			cfg := data.SiteConfig
			n, err := seedIfEmpty(tx, &SiteConfig{}, []SiteConfig{{
				SingletonKey:       SiteConfigKey,
				HeroTitle:          cfg.HeroTitle,
				HeroRole:           cfg.HeroRole,
				HeroSubtitle:       cfg.HeroSubtitle,
				HeroImageURL:       cfg.HeroImageURL,
				HeroVideoURL:       cfg.HeroVideoURL,
				Bio:                cfg.Bio,
				ExperienceYears:    cfg.ExperienceYears,
				ProfilePicURL:      cfg.ProfilePicURL,
				AboutVideoURL:      cfg.AboutVideoURL,
				WhatsApp:           cfg.WhatsApp,
				Email:              cfg.Email,
				Skills:             cfg.Skills,
				ExperienceTimeline: cfg.ExperienceTimeline,
				Tools:              cfg.Tools,
				ChatbotKnowledge:   cfg.ChatbotKnowledge,
			}})
			if err != nil {
				return err
			}
			report["site_config"] = n
		}

		services := make([]Service, 0, len(data.Services))
		for _, s := range data.Services {
			services = append(services, Service{Title: s.Title, Description: s.Description, Price: s.Price, Features: s.Features})
		}
		n, err := seedIfEmpty(tx, &Service{}, services)
		if err != nil {
			return err
		}
		report["services"] = n

		plans := make([]PricingPlan, 0, len(data.PricingPlans))
		for _, p := range data.PricingPlans {
			plans = append(plans, PricingPlan{
				Title: p.Title, Price: p.Price, Description: p.Description,
				Features: p.Features, IsPopular: p.IsPopular, ButtonText: p.ButtonText,
			})
		}
		if n, err = seedIfEmpty(tx, &PricingPlan{}, plans); err != nil {
			return err
		}
		report["pricing_plans"] = n

		projects := make([]Project, 0, len(data.Projects))
		for _, p := range data.Projects {
			kind := p.Type
			if kind != ProjectTypeVideo {
				kind = ProjectTypeImage
			}
			projects = append(projects, Project{
				Title: p.Title, Description: p.Description, Category: p.Category, Type: kind,
				MediaURL: p.MediaURL, ThumbnailURL: p.ThumbnailURL, MediaGallery: p.MediaGallery,
				IsFeatured: p.IsFeatured,
			})
		}
		if n, err = seedIfEmpty(tx, &Project{}, projects); err != nil {
			return err
		}
		report["projects"] = n

		testimonials := make([]Testimonial, 0, len(data.Testimonials))
		for _, t := range data.Testimonials {
			testimonials = append(testimonials, Testimonial{Name: t.Name, Role: t.Role, Feedback: t.Feedback, ImageURL: t.ImageURL, Rating: t.Rating})
		}
		if n, err = seedIfEmpty(tx, &Testimonial{}, testimonials); err != nil {
			return err
		}
		report["testimonials"] = n

		logos := make([]BrandLogo, 0, len(data.BrandLogos))
		for _, l := range data.BrandLogos {
			logos = append(logos, BrandLogo{Name: l.Name, ImageURL: l.ImageURL})
		}
		if n, err = seedIfEmpty(tx, &BrandLogo{}, logos); err != nil {
			return err
		}
		report["brand_logos"] = n

		posts := make([]BlogPost, 0, len(data.BlogPosts))
		for _, p := range data.BlogPosts {
			posts = append(posts, BlogPost{Title: p.Title, Slug: p.Slug, Category: p.Category, Content: p.Content, ImageURL: p.ImageURL})
		}
		if n, err = seedIfEmpty(tx, &BlogPost{}, posts); err != nil {
			return err
		}
		report["blog_posts"] = n

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	return report, nil
}

func seedIfEmpty[T any](tx *gorm.DB, model *T, rows []T) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	var count int64
	if err := tx.Model(model).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}
	if err := tx.Create(&rows).Error; err != nil {
		return 0, err
	}
	return len(rows), nil
}
