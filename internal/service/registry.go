package service

import (
	"context"
	"time"

	"github.com/visualizer/internal/cache"
	"github.com/visualizer/internal/store"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dependencies 是构造服务集合时注入的外部协作者，均可为空。
type Dependencies struct {
	Cache         cache.Cache
	CacheTTL      time.Duration
	Storage       *store.LocalStorage
	DefaultBucket string
	Generator     Generator
	ChatTemp      float64
	Notifier      ContactNotifier
	Logger        *zap.Logger
}

// Services 汇总应用使用的全部服务，由 main 创建后向下传递。
type Services struct {
	Auth         *AuthService
	SiteConfig   *SiteConfigService
	Offerings    *OfferingService
	Plans        *PricingPlanService
	Projects     *ProjectService
	Testimonials *TestimonialService
	Logos        *BrandLogoService
	Posts        *BlogPostService
	Contacts     *ContactService
	Settings     *SystemSettingService
	Media        *MediaService
	Content      *ContentService
	Assistant    *Assistant
	Chat         *ChatHub
}

// New 构造服务集合，并让所有内容写入使页面缓存失效。
func New(gdb *gorm.DB, deps Dependencies) *Services {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	storage := deps.Storage
	if storage == nil {
		storage = store.NewLocalStorage("web/static/uploads", "/static/uploads")
	}

	s := &Services{
		Auth:         NewAuthService(gdb),
		SiteConfig:   NewSiteConfigService(gdb),
		Offerings:    NewOfferingService(gdb),
		Plans:        NewPricingPlanService(gdb),
		Projects:     NewProjectService(gdb),
		Testimonials: NewTestimonialService(gdb),
		Logos:        NewBrandLogoService(gdb),
		Posts:        NewBlogPostService(gdb),
		Contacts:     NewContactService(gdb, deps.Notifier, logger.Named("contact")),
		Settings:     NewSystemSettingService(gdb, deps.DefaultBucket),
	}
	s.Media = NewMediaService(gdb, storage, s.Settings)
	s.Content = NewContentService(ContentSources{
		Config:       s.SiteConfig,
		Offerings:    s.Offerings,
		Plans:        s.Plans,
		Projects:     s.Projects,
		Testimonials: s.Testimonials,
		Logos:        s.Logos,
		Posts:        s.Posts,
	}, deps.Cache, deps.CacheTTL, logger.Named("content"))

	invalidate := func(ctx context.Context) { s.Content.Invalidate(ctx) }
	s.SiteConfig.onChange = invalidate
	s.Offerings.onChange = invalidate
	s.Plans.onChange = invalidate
	s.Projects.onChange = invalidate
	s.Testimonials.onChange = invalidate
	s.Logos.onChange = invalidate
	s.Posts.onChange = invalidate

	s.Assistant = NewAssistant(deps.Generator, s.Content, deps.ChatTemp, logger.Named("chat"))
	s.Chat = NewChatHub(s.Assistant)
	return s
}
