package router

import (
	"crypto/sha256"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	csrf "filippo.io/csrf/gorilla"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/visualizer/internal/handler"
	"github.com/visualizer/internal/logging"
	"github.com/visualizer/internal/service"
	"github.com/visualizer/internal/store"
	"github.com/visualizer/internal/view"
	"github.com/visualizer/web"
	"go.uber.org/zap"
)

// SessionName 是后台会话 cookie 的名称。
const SessionName = "visualizer_session"

// Limits 是各个写接口每分钟允许的请求数，<= 0 表示不限。
type Limits struct {
	Contact int
	Chat    int
	Login   int
}

// Options 配置路由所需的外部参数。
type Options struct {
	SessionSecret  string
	UploadURLPath  string
	TrustedOrigins []string
	Limits         Limits
	Logger         *zap.Logger
}

// Server 持有 Gin 引擎以及需要定期清理的限流器。
type Server struct {
	Engine   *gin.Engine
	Limiters []*handler.RateLimiter

	logger         *zap.Logger
	csrfKey        []byte
	trustedOrigins []string
}

// TemplateFuncs 返回页面模板使用的函数集合。
func TemplateFuncs(uploadURLPath string) template.FuncMap {
	uploadPrefix := strings.TrimRight(uploadURLPath, "/") + "/"
	return template.FuncMap{
		"isActiveNav":  view.IsActiveNav,
		"videoEmbed":   handler.PlayerEmbedURL,
		"hasPrefix":    strings.HasPrefix,
		"joinFeatures": service.JoinFeatures,
		// 只有本站上传的图片才能按宽度与质量生成副本
		"optimizedImage": func(rawURL string, width, quality int) string {
			if !strings.HasPrefix(rawURL, uploadPrefix) {
				return rawURL
			}
			return store.OptimizedURL(rawURL, width, quality)
		},
		"stars": func(rating int) []int {
			rating = max(0, min(rating, 5))
			return make([]int, rating)
		},
		"dict": func(pairs ...interface{}) (map[string]interface{}, error) {
			if len(pairs)%2 != 0 {
				return nil, fmt.Errorf("dict expects key/value pairs")
			}
			out := make(map[string]interface{}, len(pairs)/2)
			for i := 0; i < len(pairs); i += 2 {
				key, ok := pairs[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict key %v is not a string", pairs[i])
				}
				out[key] = pairs[i+1]
			}
			return out, nil
		},
	}
}

// LoadTemplates 解析内嵌的全部页面模板。
func LoadTemplates(uploadURLPath string) (*template.Template, error) {
	return template.New("").Funcs(TemplateFuncs(uploadURLPath)).ParseFS(web.Templates(), web.TemplatePatterns...)
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	uploadURLPath := "/" + strings.Trim(opts.UploadURLPath, "/")
	if uploadURLPath == "/" {
		uploadURLPath = "/static/uploads"
	}

	r := gin.New()
	r.Use(logging.GinMiddleware(logger.Named("http")), gin.Recovery())

	// 配置会话中间件
	sessionStore := cookie.NewStore([]byte(opts.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(SessionName, sessionStore))

	tmpl, err := LoadTemplates(uploadURLPath)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	// 静态文件服务
	r.StaticFS("/assets", http.FS(web.Static()))
	r.GET(uploadURLPath+"/*filepath", api.ServeUpload)
	r.HEAD(uploadURLPath+"/*filepath", api.ServeUpload)

	contactLimiter := handler.NewRateLimiter("contact", opts.Limits.Contact, logger)
	chatLimiter := handler.NewRateLimiter("chat", opts.Limits.Chat, logger)
	loginLimiter := handler.NewRateLimiter("login", opts.Limits.Login, logger)

	r.GET("/healthz", api.HealthCheck)

	// 前台页面
	r.GET("/", api.ShowHome)
	r.GET("/about", api.ShowAbout)
	r.GET("/services", api.ShowServices)
	r.GET("/portfolio", api.ShowPortfolio)
	r.GET("/blog", api.ShowBlog)
	r.GET("/blog/:slug", api.ShowBlogPost)
	r.GET("/contact", api.ShowContact)

	public := r.Group("/api")
	{
		public.POST("/contact", contactLimiter.Middleware(), api.SubmitContact)
		public.GET("/chat", api.ShowChat)
		public.POST("/chat", chatLimiter.Middleware(), api.SendChat)
	}

	// 后台管理路由
	admin := r.Group("/admin")
	{
		admin.GET("/login", api.ShowLoginPage)
		admin.POST("/login", loginLimiter.Middleware(), api.Login)
		admin.GET("/logout", api.Logout)

		// 需要认证的后台路由
		auth := admin.Group("")
		auth.Use(handler.AuthRequired())
		{
			auth.GET("", api.ShowDashboard)

			// API路由
			apiGroup := auth.Group("/api")
			{
				apiGroup.GET("/config", api.GetSiteConfig)
				apiGroup.PUT("/config", api.SaveSiteConfig)

				apiGroup.GET("/services", api.ListServices)
				apiGroup.POST("/services", api.SaveService)
				apiGroup.PUT("/services/:id", api.SaveService)
				apiGroup.DELETE("/services/:id", api.DeleteService)

				apiGroup.GET("/plans", api.ListPricingPlans)
				apiGroup.POST("/plans", api.SavePricingPlan)
				apiGroup.PUT("/plans/:id", api.SavePricingPlan)
				apiGroup.DELETE("/plans/:id", api.DeletePricingPlan)

				apiGroup.GET("/projects", api.ListProjects)
				apiGroup.POST("/projects", api.SaveProject)
				apiGroup.PUT("/projects/:id", api.SaveProject)
				apiGroup.DELETE("/projects/:id", api.DeleteProject)

				apiGroup.GET("/testimonials", api.ListTestimonials)
				apiGroup.POST("/testimonials", api.SaveTestimonial)
				apiGroup.PUT("/testimonials/:id", api.SaveTestimonial)
				apiGroup.DELETE("/testimonials/:id", api.DeleteTestimonial)

				apiGroup.GET("/logos", api.ListBrandLogos)
				apiGroup.POST("/logos", api.SaveBrandLogo)
				apiGroup.PUT("/logos/:id", api.SaveBrandLogo)
				apiGroup.DELETE("/logos/:id", api.DeleteBrandLogo)

				apiGroup.GET("/posts", api.ListBlogPosts)
				apiGroup.POST("/posts", api.SaveBlogPost)
				apiGroup.PUT("/posts/:id", api.SaveBlogPost)
				apiGroup.DELETE("/posts/:id", api.DeleteBlogPost)

				apiGroup.GET("/contacts", api.ListContacts)

				apiGroup.GET("/settings", api.GetSystemSettings)
				apiGroup.PUT("/settings", api.UpdateSystemSettings)

				apiGroup.POST("/upload", api.UploadMedia)
				apiGroup.GET("/media", api.ListMedia)
			}
		}
	}

	r.NoRoute(api.NotFound)

	key := sha256.Sum256([]byte(opts.SessionSecret))
	return &Server{
		Engine:         r,
		Limiters:       []*handler.RateLimiter{contactLimiter, chatLimiter, loginLimiter},
		logger:         logger,
		csrfKey:        key[:],
		trustedOrigins: opts.TrustedOrigins,
	}, nil
}

// Handler 返回带跨站请求校验的 http.Handler。
// 校验基于 Fetch metadata 与 Origin 头，非浏览器请求直接放行。
func (s *Server) Handler() http.Handler {
	options := []csrf.Option{csrf.ErrorHandler(http.HandlerFunc(s.csrfFailed))}
	if len(s.trustedOrigins) > 0 {
		options = append(options, csrf.TrustedOrigins(s.trustedOrigins))
	}
	return csrf.Protect(s.csrfKey, options...)(s.Engine)
}

// SweepLimiters 清理过大的限流表，返回被清空的限流器数量。
func (s *Server) SweepLimiters() int {
	swept := 0
	for _, limiter := range s.Limiters {
		if limiter.Sweep() {
			swept++
		}
	}
	return swept
}

func (s *Server) csrfFailed(w http.ResponseWriter, r *http.Request) {
	reason := "unknown"
	if err := csrf.FailureReason(r); err != nil {
		reason = err.Error()
	}
	s.logger.Warn("csrf validation failed",
		zap.String("reason", reason),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("origin", r.Header.Get("Origin")),
		zap.String("sec_fetch_site", r.Header.Get("Sec-Fetch-Site")),
	)
	if strings.HasPrefix(r.URL.Path, "/api/") || strings.HasPrefix(r.URL.Path, "/admin/api/") {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"cross-site request rejected"}`))
		return
	}
	http.Error(w, "Forbidden - CSRF validation failed", http.StatusForbidden)
}
