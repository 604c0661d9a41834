package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/visualizer/internal/cache"
	"github.com/visualizer/internal/db"
	"github.com/visualizer/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const homeServiceLimit = 4

// HomePage 是首页所需的全部数据。
type HomePage struct {
	Config         db.SiteConfig    `json:"config"`
	Services       []db.Service     `json:"services"`
	Plans          []db.PricingPlan `json:"plans"`
	Featured       []db.Project     `json:"featured"`
	FeaturedGroups []ProjectGroup   `json:"featured_groups"`
	Logos          []db.BrandLogo   `json:"logos"`
	Testimonials   []db.Testimonial `json:"testimonials"`
}

// AboutPage 是关于页数据，Tools 在未配置时回退到默认工具列表。
type AboutPage struct {
	Config db.SiteConfig `json:"config"`
	Tools  []db.Tool     `json:"tools"`
}

// ServicesPage 是服务与报价页数据。
type ServicesPage struct {
	Config   db.SiteConfig    `json:"config"`
	Services []db.Service     `json:"services"`
	Plans    []db.PricingPlan `json:"plans"`
}

// PortfolioPage 是作品集页数据。
type PortfolioPage struct {
	Config     db.SiteConfig `json:"config"`
	Category   string        `json:"category"`
	Categories []string      `json:"categories"`
	Projects   []db.Project  `json:"projects"`
}

// BlogPage 是博客列表页数据。
type BlogPage struct {
	Config db.SiteConfig `json:"config"`
	Posts  []db.BlogPost `json:"posts"`
}

// Knowledge 是构造聊天提示词时读取的实时内容。
type Knowledge struct {
	Config       db.SiteConfig
	Services     []db.Service
	Plans        []db.PricingPlan
	Projects     []db.Project
	Testimonials []db.Testimonial
}

// ContentService 并发读取各页面所需的记录。读取失败的集合记录日志后按空列表展示，
// 完整读取成功的结果写入缓存，后台任意写入后整体失效。
type ContentService struct {
	config       *SiteConfigService
	offerings    *OfferingService
	plans        *PricingPlanService
	projects     *ProjectService
	testimonials *TestimonialService
	logos        *BrandLogoService
	posts        *BlogPostService

	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger

	// 每次失效递增；读取期间发生过写入的结果不留在缓存里
	generation atomic.Uint64
}

// ContentSources 汇总 ContentService 读取的各类服务。
type ContentSources struct {
	Config       *SiteConfigService
	Offerings    *OfferingService
	Plans        *PricingPlanService
	Projects     *ProjectService
	Testimonials *TestimonialService
	Logos        *BrandLogoService
	Posts        *BlogPostService
}

// NewContentService 构造 ContentService；c 为 nil 时不缓存。
func NewContentService(src ContentSources, c cache.Cache, ttl time.Duration, logger *zap.Logger) *ContentService {
	if c == nil {
		c = cache.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentService{
		config:       src.Config,
		offerings:    src.Offerings,
		plans:        src.Plans,
		projects:     src.Projects,
		testimonials: src.Testimonials,
		logos:        src.Logos,
		posts:        src.Posts,
		cache:        c,
		ttl:          ttl,
		logger:       logger,
	}
}

// Home 读取首页数据。
func (s *ContentService) Home(ctx context.Context) HomePage {
	return cached(ctx, s, "page:home", func(ctx context.Context) (HomePage, bool) {
		var (
			cfg          store.Result[db.SiteConfig]
			services     store.Result[[]db.Service]
			plans        store.Result[[]db.PricingPlan]
			featured     store.Result[[]db.Project]
			logos        store.Result[[]db.BrandLogo]
			testimonials store.Result[[]db.Testimonial]
		)
		var g errgroup.Group
		g.Go(func() error { cfg = store.Capture(s.config.Get(ctx)); return nil })
		g.Go(func() error { services = store.Capture(s.offerings.List(ctx)); return nil })
		g.Go(func() error { plans = store.Capture(s.plans.List(ctx)); return nil })
		g.Go(func() error { featured = store.Capture(s.projects.ListFeatured(ctx)); return nil })
		g.Go(func() error { logos = store.Capture(s.logos.List(ctx)); return nil })
		g.Go(func() error { testimonials = store.Capture(s.testimonials.List(ctx)); return nil })
		_ = g.Wait()

		page := HomePage{
			Config:       settle(s, "site_config", cfg, DefaultSiteConfig()),
			Services:     settle(s, "services", services, []db.Service{}),
			Plans:        settle(s, "pricing_plans", plans, []db.PricingPlan{}),
			Featured:     settle(s, "projects", featured, []db.Project{}),
			Logos:        settle(s, "brand_logos", logos, []db.BrandLogo{}),
			Testimonials: settle(s, "testimonials", testimonials, []db.Testimonial{}),
		}
		if len(page.Services) > homeServiceLimit {
			page.Services = page.Services[:homeServiceLimit]
		}
		page.FeaturedGroups = GroupProjectsByCategory(page.Featured)
		return page, allOK(cfg.Err, services.Err, plans.Err, featured.Err, logos.Err, testimonials.Err)
	})
}

// About 读取关于页数据。
func (s *ContentService) About(ctx context.Context) AboutPage {
	return cached(ctx, s, "page:about", func(ctx context.Context) (AboutPage, bool) {
		cfg := store.Capture(s.config.Get(ctx))
		page := AboutPage{Config: settle(s, "site_config", cfg, DefaultSiteConfig())}
		if page.Config.Bio == "" {
			page.Config.Bio = DefaultBio
		}
		page.Tools = page.Config.Tools
		if len(page.Tools) == 0 {
			page.Tools = DefaultTools()
		}
		return page, cfg.OK()
	})
}

// Services 读取服务与报价页数据。
func (s *ContentService) Services(ctx context.Context) ServicesPage {
	return cached(ctx, s, "page:services", func(ctx context.Context) (ServicesPage, bool) {
		var (
			cfg      store.Result[db.SiteConfig]
			services store.Result[[]db.Service]
			plans    store.Result[[]db.PricingPlan]
		)
		var g errgroup.Group
		g.Go(func() error { cfg = store.Capture(s.config.Get(ctx)); return nil })
		g.Go(func() error { services = store.Capture(s.offerings.List(ctx)); return nil })
		g.Go(func() error { plans = store.Capture(s.plans.List(ctx)); return nil })
		_ = g.Wait()

		return ServicesPage{
			Config:   settle(s, "site_config", cfg, DefaultSiteConfig()),
			Services: settle(s, "services", services, []db.Service{}),
			Plans:    settle(s, "pricing_plans", plans, []db.PricingPlan{}),
		}, allOK(cfg.Err, services.Err, plans.Err)
	})
}

// Portfolio 读取作品集页数据，未知分类按“全部”处理。
func (s *ContentService) Portfolio(ctx context.Context, category string) PortfolioPage {
	category = NormalizeCategoryFilter(category)
	return cached(ctx, s, "page:portfolio:"+category, func(ctx context.Context) (PortfolioPage, bool) {
		var (
			cfg      store.Result[db.SiteConfig]
			projects store.Result[[]db.Project]
		)
		var g errgroup.Group
		g.Go(func() error { cfg = store.Capture(s.config.Get(ctx)); return nil })
		g.Go(func() error {
			projects = store.Capture(s.projects.List(ctx, ProjectFilter{Category: category}))
			return nil
		})
		_ = g.Wait()

		return PortfolioPage{
			Config:     settle(s, "site_config", cfg, DefaultSiteConfig()),
			Category:   category,
			Categories: append([]string{CategoryAll}, db.ProjectCategories()...),
			Projects:   settle(s, "projects", projects, []db.Project{}),
		}, allOK(cfg.Err, projects.Err)
	})
}

// Blog 读取博客列表页数据。
func (s *ContentService) Blog(ctx context.Context) BlogPage {
	return cached(ctx, s, "page:blog", func(ctx context.Context) (BlogPage, bool) {
		var (
			cfg   store.Result[db.SiteConfig]
			posts store.Result[[]db.BlogPost]
		)
		var g errgroup.Group
		g.Go(func() error { cfg = store.Capture(s.config.Get(ctx)); return nil })
		g.Go(func() error { posts = store.Capture(s.posts.List(ctx)); return nil })
		_ = g.Wait()

		return BlogPage{
			Config: settle(s, "site_config", cfg, DefaultSiteConfig()),
			Posts:  settle(s, "blog_posts", posts, []db.BlogPost{}),
		}, allOK(cfg.Err, posts.Err)
	})
}

// Post 读取单篇文章，不存在时返回 ErrBlogPostNotFound。
func (s *ContentService) Post(ctx context.Context, slug string) (db.SiteConfig, db.BlogPost, error) {
	var (
		cfg  store.Result[db.SiteConfig]
		post store.Result[db.BlogPost]
	)
	var g errgroup.Group
	g.Go(func() error { cfg = store.Capture(s.config.Get(ctx)); return nil })
	g.Go(func() error { post = store.Capture(s.posts.GetBySlug(ctx, slug)); return nil })
	_ = g.Wait()

	return settle(s, "site_config", cfg, DefaultSiteConfig()), post.Value, post.Err
}

// Config 读取站点配置，失败时回退默认值。
func (s *ContentService) Config(ctx context.Context) db.SiteConfig {
	return cached(ctx, s, "page:config", func(ctx context.Context) (db.SiteConfig, bool) {
		cfg := store.Capture(s.config.Get(ctx))
		return settle(s, "site_config", cfg, DefaultSiteConfig()), cfg.OK()
	})
}

// Knowledge 为聊天实时读取内容，不经过缓存。
func (s *ContentService) Knowledge(ctx context.Context) Knowledge {
	var (
		cfg          store.Result[db.SiteConfig]
		services     store.Result[[]db.Service]
		plans        store.Result[[]db.PricingPlan]
		projects     store.Result[[]db.Project]
		testimonials store.Result[[]db.Testimonial]
	)
	var g errgroup.Group
	g.Go(func() error { cfg = store.Capture(s.config.Get(ctx)); return nil })
	g.Go(func() error { services = store.Capture(s.offerings.List(ctx)); return nil })
	g.Go(func() error { plans = store.Capture(s.plans.List(ctx)); return nil })
	g.Go(func() error {
		projects = store.Capture(s.projects.List(ctx, ProjectFilter{Limit: knowledgeProjectLimit}))
		return nil
	})
	g.Go(func() error { testimonials = store.Capture(s.testimonials.List(ctx)); return nil })
	_ = g.Wait()

	return Knowledge{
		Config:       settle(s, "site_config", cfg, DefaultSiteConfig()),
		Services:     settle(s, "services", services, []db.Service{}),
		Plans:        settle(s, "pricing_plans", plans, []db.PricingPlan{}),
		Projects:     settle(s, "projects", projects, []db.Project{}),
		Testimonials: settle(s, "testimonials", testimonials, []db.Testimonial{}),
	}
}

// Invalidate 清空页面缓存，供后台写入后调用。
func (s *ContentService) Invalidate(ctx context.Context) {
	s.generation.Add(1)
	if err := s.cache.Clear(ctx); err != nil {
		s.logger.Warn("clear content cache failed", zap.Error(err))
	}
}

func cached[T any](ctx context.Context, s *ContentService, key string, build func(context.Context) (T, bool)) T {
	if value, err := cache.GetJSON[T](ctx, s.cache, key); err == nil {
		return value
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Debug("content cache read failed", zap.String("key", key), zap.Error(err))
	}

	gen := s.generation.Load()
	value, complete := build(ctx)
	if !complete || s.generation.Load() != gen {
		return value
	}
	if err := cache.SetJSON(ctx, s.cache, key, value, s.ttl); err != nil {
		s.logger.Debug("content cache write failed", zap.String("key", key), zap.Error(err))
		return value
	}
	// 写入与失效交错时撤回刚写入的旧数据
	if s.generation.Load() != gen {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.Warn("drop stale content cache failed", zap.String("key", key), zap.Error(err))
		}
	}
	return value
}

func settle[T any](s *ContentService, name string, r store.Result[T], fallback T) T {
	if r.OK() {
		return r.Value
	}
	s.logger.Warn("content read failed",
		zap.String("table", name),
		zap.String("kind", string(r.Kind())),
		zap.Error(r.Err),
	)
	return fallback
}

func allOK(errs ...error) bool {
	for _, err := range errs {
		if err != nil {
			return false
		}
	}
	return true
}
