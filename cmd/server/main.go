package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/visualizer/internal/cache"
	"github.com/visualizer/internal/config"
	"github.com/visualizer/internal/db"
	"github.com/visualizer/internal/handler"
	"github.com/visualizer/internal/imaging"
	"github.com/visualizer/internal/logging"
	"github.com/visualizer/internal/notify"
	"github.com/visualizer/internal/router"
	"github.com/visualizer/internal/service"
	"github.com/visualizer/internal/store"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	chatIdleTimeout      = 30 * time.Minute
	imageCacheMaxAge     = 7 * 24 * time.Hour
	shutdownTimeout      = 10 * time.Second
	readHeaderTimeout    = 10 * time.Second
	defaultRedisCacheTTL = 60 * time.Second
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "visualizer",
		Short:         "Portfolio site for a visual artist with an admin panel and chat assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	var seedFile string
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Load starter content into empty tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(seedFile)
		},
	}
	seedCmd.Flags().StringVar(&seedFile, "file", "", "seed YAML file (defaults to SEED_FILE)")

	var username, password string
	initUserCmd := &cobra.Command{
		Use:   "init-user",
		Short: "Create the admin account or reset its password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInitUser(cmd, username, password)
		},
	}
	initUserCmd.Flags().StringVar(&username, "username", "", "admin username (defaults to ADMIN_USERNAME)")
	initUserCmd.Flags().StringVar(&password, "password", "", "new password; a random one is generated when empty")

	root.AddCommand(serveCmd, seedCmd, initUserCmd)
	return root
}

// bootstrap 读取配置并打开日志与数据库，供各子命令共用。
func bootstrap() (config.AppConfig, *zap.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.GinMode)
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	gdb, err := db.Open(cfg.DatabasePath, gormLogLevel(cfg.LogLevel))
	if err != nil {
		return cfg, logger, nil, fmt.Errorf("open database: %w", err)
	}
	return cfg, logger, gdb, nil
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return gormlogger.Info
	case "info", "warn":
		return gormlogger.Warn
	default:
		return gormlogger.Error
	}
}

func runSeed(file string) error {
	cfg, logger, gdb, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if strings.TrimSpace(file) == "" {
		file = cfg.SeedFile
	}
	report, err := db.SeedFromFile(gdb, file)
	if err != nil {
		return fmt.Errorf("seed %s: %w", file, err)
	}
	logger.Info("seed finished", zap.String("file", file), zap.Any("rows", report))
	return nil
}

func runInitUser(cmd *cobra.Command, username, password string) error {
	cfg, logger, gdb, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if strings.TrimSpace(username) == "" {
		username = cfg.AdminUsername
	}
	generated := false
	if strings.TrimSpace(password) == "" {
		password = strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
		generated = true
	}
	if err := db.SetUserPassword(gdb, username, password); err != nil {
		return fmt.Errorf("init user: %w", err)
	}

	logger.Info("admin account ready", zap.String("username", username))
	if generated {
		fmt.Fprintf(cmd.OutOrStdout(), "用户名: %s\n密码: %s\n", username, password)
	}
	return nil
}

func runServe(ctx context.Context) error {
	cfg, logger, gdb, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()
	gin.SetMode(cfg.GinMode)

	if report, err := db.SeedFromFile(gdb, cfg.SeedFile); err != nil {
		logger.Warn("seed skipped", zap.String("file", cfg.SeedFile), zap.Error(err))
	} else {
		logger.Debug("seed checked", zap.Any("rows", report))
	}
	if created, err := db.EnsureUser(gdb, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return fmt.Errorf("ensure admin user: %w", err)
	} else if created {
		logger.Info("admin account created", zap.String("username", cfg.AdminUsername))
	}

	pageCache, cacheTTL := newCache(ctx, cfg, logger)
	defer pageCache.Close()
	notifier := newNotifier(cfg, logger)
	defer notifier.Close()

	storage := store.NewLocalStorage(cfg.UploadDir, cfg.UploadURLPath)
	processor := imaging.NewProcessor(filepath.Join(filepath.Dir(cfg.DatabasePath), "image-cache"))

	services := service.New(gdb, service.Dependencies{
		Cache:         pageCache,
		CacheTTL:      cacheTTL,
		Storage:       storage,
		DefaultBucket: cfg.MediaBucket,
		Generator:     newGenerator(ctx, cfg, logger),
		ChatTemp:      cfg.ChatTemp,
		Notifier:      notifier,
		Logger:        logger,
	})
	services.Auth.OnChange(func(event service.AuthEvent) {
		logger.Info("admin session changed", zap.String("username", event.Username), zap.Bool("signed_in", event.SignedIn))
	})

	api := handler.NewAPI(gdb, services, handler.Options{
		Storage:   storage,
		Processor: processor,
		Logger:    logger.Named("handler"),
	})
	server, err := router.SetupRouter(api, router.Options{
		SessionSecret:  cfg.SessionSecret,
		UploadURLPath:  cfg.UploadURLPath,
		TrustedOrigins: cfg.TrustedOrigins,
		Limits: router.Limits{
			Contact: cfg.ContactRatePerMin,
			Chat:    cfg.ChatRatePerMin,
			Login:   cfg.LoginRatePerMin,
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}

	jobs, err := startJobs(services.Chat, processor, server, logger.Named("cron"))
	if err != nil {
		return err
	}
	defer func() {
		<-jobs.Stop().Done()
	}()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.ListenAddr), zap.String("site", cfg.SiteBaseURL))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("run server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newCache 默认不缓存，每次请求都重新读取。
// 配置了 REDIS_URL 或 CACHE_TTL > 0 时才启用页面缓存，Redis 连接失败则退回进程内缓存。
func newCache(ctx context.Context, cfg config.AppConfig, logger *zap.Logger) (cache.Cache, time.Duration) {
	useRedis := strings.TrimSpace(cfg.RedisURL) != ""
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		if !useRedis {
			return cache.Noop{}, 0
		}
		ttl = defaultRedisCacheTTL
	}
	if useRedis {
		redisCache, err := cache.NewRedis(ctx, cfg.RedisURL, cfg.CachePrefix, ttl)
		if err == nil {
			logger.Info("page cache backed by redis", zap.Duration("ttl", ttl))
			return redisCache, ttl
		}
		logger.Warn("redis unavailable, using memory cache", zap.Error(err))
	}
	logger.Info("page cache in memory", zap.Duration("ttl", ttl))
	return cache.NewMemory(ttl), ttl
}

type closingNotifier interface {
	service.ContactNotifier
	Close() error
}

// newNotifier 配置了 AMQP_URL 时把咨询投递到队列，否则只写日志。
func newNotifier(cfg config.AppConfig, logger *zap.Logger) closingNotifier {
	if strings.TrimSpace(cfg.AMQPURL) != "" {
		queue, err := notify.NewAMQP(notify.AMQPConfig{URL: cfg.AMQPURL, Queue: cfg.AMQPQueue}, logger.Named("amqp"))
		if err == nil {
			return queue
		}
		logger.Warn("amqp unavailable, contact notifications go to the log", zap.Error(err))
	}
	return notify.NewLog(logger.Named("contact"))
}

// newGenerator 按 CHAT_PROVIDER 选择模型客户端；没有密钥时返回 nil，助手使用固定回复。
func newGenerator(ctx context.Context, cfg config.AppConfig, logger *zap.Logger) service.Generator {
	apiKey := cfg.ChatAPIKey()
	if apiKey == "" {
		logger.Info("chat assistant running without a model key")
		return nil
	}

	var (
		generator service.Generator
		err       error
	)
	switch cfg.ChatProvider {
	case config.ChatProviderOpenAI:
		var g *service.OpenAIGenerator
		if g, err = service.NewOpenAIGenerator(apiKey, cfg.OpenAIBaseURL, cfg.ChatModel); err == nil {
			generator = g
		}
	default:
		var g *service.GeminiGenerator
		if g, err = service.NewGeminiGenerator(ctx, apiKey, cfg.ChatModel); err == nil {
			generator = g
		}
	}
	if err != nil {
		logger.Warn("chat generator unavailable", zap.String("provider", cfg.ChatProvider), zap.Error(err))
		return nil
	}
	return generator
}

// startJobs 注册后台清理任务：空闲对话、图片副本与限流表。
func startJobs(hub *service.ChatHub, processor *imaging.Processor, server *router.Server, logger *zap.Logger) (*cron.Cron, error) {
	c := cron.New()

	if _, err := c.AddFunc("@every 10m", func() {
		if n := hub.Sweep(chatIdleTimeout); n > 0 {
			logger.Debug("idle conversations removed", zap.Int("count", n))
		}
	}); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc("@hourly", func() {
		n, err := processor.Prune(time.Now().Add(-imageCacheMaxAge))
		if err != nil {
			logger.Warn("prune image cache failed", zap.Error(err))
			return
		}
		if n > 0 {
			logger.Info("image cache pruned", zap.Int("files", n))
		}
	}); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc("@every 5m", func() {
		if n := server.SweepLimiters(); n > 0 {
			logger.Info("rate limiter tables reset", zap.Int("limiters", n))
		}
	}); err != nil {
		return nil, err
	}

	c.Start()
	logger.Info("scheduler started", zap.Int("jobs", len(c.Entries())))
	return c, nil
}
