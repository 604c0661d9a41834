package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/visualizer/internal/imaging"
	"github.com/visualizer/internal/service"
	"github.com/visualizer/internal/store"
	"github.com/visualizer/internal/view"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db        *gorm.DB
	services  *service.Services
	storage   *store.LocalStorage
	processor *imaging.Processor
	logger    *zap.Logger
	now       func() time.Time
}

// Options 是构造 API 时的可选依赖。
type Options struct {
	Storage   *store.LocalStorage
	Processor *imaging.Processor
	Logger    *zap.Logger
}

type siteViewModel struct {
	Name        string
	Profession  string
	Nav         []view.NavItem
	Social      []view.SocialLink
	WhatsAppURL string
	Email       string
	ChatEnabled bool
}

const siteSettingsContextKey = "__site_settings"

// NewAPI constructs a handler set with shared services.
func NewAPI(db *gorm.DB, services *service.Services, opts Options) *API {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	storage := opts.Storage
	if storage == nil {
		storage = store.NewLocalStorage("web/static/uploads", "/static/uploads")
	}
	return &API{
		db:        db,
		services:  services,
		storage:   storage,
		processor: opts.Processor,
		logger:    logger,
		now:       time.Now,
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}

func (a *API) siteSettings(c *gin.Context) siteViewModel {
	if cached, exists := c.Get(siteSettingsContextKey); exists {
		if vm, ok := cached.(siteViewModel); ok {
			return vm
		}
	}

	cfg := a.services.Content.Config(c.Request.Context())
	chatEnabled := true
	if settings, err := a.services.Settings.GetSettings(c.Request.Context()); err != nil {
		c.Error(err)
	} else {
		chatEnabled = settings.ChatEnabled
	}

	vm := siteViewModel{
		Name:        view.AppName,
		Profession:  view.Profession,
		Nav:         view.NavItems(),
		Social:      view.SocialLinks(cfg.WhatsApp, cfg.Email),
		WhatsAppURL: view.WhatsAppURL(cfg.WhatsApp),
		Email:       cfg.Email,
		ChatEnabled: chatEnabled,
	}

	c.Set(siteSettingsContextKey, vm)
	return vm
}

func (a *API) renderHTML(c *gin.Context, status int, template string, data gin.H) {
	vm := a.siteSettings(c)

	payload := gin.H{}
	for key, value := range data {
		payload[key] = value
	}

	if _, exists := payload["site"]; !exists {
		payload["site"] = gin.H{
			"name":        vm.Name,
			"profession":  vm.Profession,
			"nav":         vm.Nav,
			"social":      vm.Social,
			"whatsappUrl": vm.WhatsAppURL,
			"email":       vm.Email,
			"chatEnabled": vm.ChatEnabled,
		}
	}
	if _, exists := payload["currentPath"]; !exists {
		payload["currentPath"] = c.Request.URL.Path
	}
	if _, exists := payload["year"]; !exists {
		payload["year"] = a.now().Year()
	}

	c.HTML(status, template, payload)
}
