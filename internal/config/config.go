package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	// ChatProviderGemini 使用 Google Gemini 生成回复。
	ChatProviderGemini = "gemini"
	// ChatProviderOpenAI 使用 OpenAI 兼容接口生成回复。
	ChatProviderOpenAI = "openai"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr    string `env:"LISTEN_ADDR"`
	Port          string `env:"PORT" envDefault:"8080"`
	DatabasePath  string `env:"DATABASE_PATH" envDefault:"data/visualizer.db"`
	SessionSecret string `env:"SESSION_SECRET" envDefault:"visualizer-dev-secret"`
	GinMode       string `env:"GIN_MODE" envDefault:"release"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	SiteBaseURL   string `env:"SITE_BASE_URL" envDefault:"http://localhost:8080"`

	UploadDir     string `env:"UPLOAD_DIR" envDefault:"web/static/uploads"`
	UploadURLPath string `env:"UPLOAD_URL_PATH" envDefault:"/static/uploads"`
	MediaBucket   string `env:"MEDIA_BUCKET" envDefault:"media"`
	SeedFile      string `env:"SEED_FILE" envDefault:"data/seed.yaml"`

	AdminUsername string `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	ChatProvider  string  `env:"CHAT_PROVIDER" envDefault:"gemini"`
	ChatModel     string  `env:"CHAT_MODEL"`
	GeminiAPIKey  string  `env:"GEMINI_API_KEY"`
	LegacyAPIKey  string  `env:"API_KEY"`
	OpenAIAPIKey  string  `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string  `env:"OPENAI_BASE_URL"`
	ChatTemp      float64 `env:"CHAT_TEMPERATURE" envDefault:"0.7"`

	RedisURL    string        `env:"REDIS_URL"`
	CachePrefix string        `env:"CACHE_PREFIX" envDefault:"visualizer:"`
	CacheTTL    time.Duration `env:"CACHE_TTL" envDefault:"0s"`

	AMQPURL   string `env:"AMQP_URL"`
	AMQPQueue string `env:"AMQP_QUEUE" envDefault:"contact_submissions"`

	TrustedOrigins    []string `env:"TRUSTED_ORIGINS" envSeparator:","`
	ContactRatePerMin int      `env:"CONTACT_RATE_PER_MIN" envDefault:"5"`
	ChatRatePerMin    int      `env:"CHAT_RATE_PER_MIN" envDefault:"20"`
	LoginRatePerMin   int      `env:"LOGIN_RATE_PER_MIN" envDefault:"0"`
}

// Load 先读取 .env（若存在），再从环境变量解析配置并补齐派生字段。
func Load() (AppConfig, error) {
	_ = godotenv.Load()

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *AppConfig) normalize() {
	c.Port = strings.TrimSpace(c.Port)
	if c.Port == "" {
		c.Port = "8080"
	}
	c.ListenAddr = strings.TrimSpace(c.ListenAddr)
	if c.ListenAddr == "" {
		c.ListenAddr = fmt.Sprintf(":%s", c.Port)
	}

	c.ChatProvider = strings.ToLower(strings.TrimSpace(c.ChatProvider))
	if c.ChatProvider != ChatProviderOpenAI {
		c.ChatProvider = ChatProviderGemini
	}
	if strings.TrimSpace(c.GeminiAPIKey) == "" {
		c.GeminiAPIKey = strings.TrimSpace(c.LegacyAPIKey)
	}

	c.UploadURLPath = "/" + strings.Trim(strings.TrimSpace(c.UploadURLPath), "/")
	c.SiteBaseURL = strings.TrimRight(strings.TrimSpace(c.SiteBaseURL), "/")

	origins := c.TrustedOrigins[:0]
	for _, origin := range c.TrustedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	c.TrustedOrigins = origins
}

// ChatAPIKey 返回当前对话服务商对应的密钥，未配置时为空字符串。
func (c AppConfig) ChatAPIKey() string {
	if c.ChatProvider == ChatProviderOpenAI {
		return strings.TrimSpace(c.OpenAIAPIKey)
	}
	return strings.TrimSpace(c.GeminiAPIKey)
}
