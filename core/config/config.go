package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port      int    `mapstructure:"SERVER_PORT"`
	Env       string `mapstructure:"SERVER_ENV"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
	JWTSecret string `mapstructure:"JWT_SECRET"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"DB_HOST"`
	Port     int    `mapstructure:"DB_PORT"`
	User     string `mapstructure:"DB_USER"`
	Password string `mapstructure:"DB_PASSWORD"`
	DBName   string `mapstructure:"DB_NAME"`
	SSLMode  string `mapstructure:"DB_SSLMODE"`
}

// URL builds the connection URL used by the migration runner.
func (c DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

type RedisConfig struct {
	Addr     string `mapstructure:"REDIS_ADDR"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

// ZoomConfig holds the Zoom OAuth app and webhook settings.
// AuthorizationSecret is the pre-encoded Basic credential used against the
// token endpoint. Domain is the meeting host domain the start URL is built
// from ("https://zoom.us/" + "s/{meeting_id}").
type ZoomConfig struct {
	ClientID            string `mapstructure:"ZOOM_CLIENT_ID"`
	ClientSecret        string `mapstructure:"ZOOM_CLIENT_SECRET"`
	AuthorizationSecret string `mapstructure:"ZOOM_AUTHORIZATION_SECRET"`
	Domain              string `mapstructure:"ZOOM_DOMAIN"`
	WebhookSecret       string `mapstructure:"ZOOM_WEBHOOK_SECRET"`
	APIBaseURL          string `mapstructure:"ZOOM_API_BASE_URL"`
	OAuthBaseURL        string `mapstructure:"ZOOM_OAUTH_BASE_URL"`
	MeetingTimezone     string `mapstructure:"ZOOM_MEETING_TIMEZONE"`
}

type GoogleConfig struct {
	ClientID       string `mapstructure:"GOOGLE_CLIENT_ID"`
	ClientSecret   string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	ProjectID      string `mapstructure:"GOOGLE_PROJECT_ID"`
	RedirectURI    string `mapstructure:"GOOGLE_REDIRECT_URI"`
	TokenURL       string `mapstructure:"GOOGLE_TOKEN_URL"`
	AuthURL        string `mapstructure:"GOOGLE_AUTH_URL"`
	YouTubeBaseURL string `mapstructure:"YOUTUBE_API_BASE_URL"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"SMTP_HOST"`
	Port     int    `mapstructure:"SMTP_PORT"`
	Username string `mapstructure:"SMTP_USERNAME"`
	Password string `mapstructure:"SMTP_PASSWORD"`
	From     string `mapstructure:"SMTP_FROM"`
}

// LMSConfig identifies the learning platform the service fronts.
type LMSConfig struct {
	BaseURL      string `mapstructure:"LMS_BASE_URL"`
	PlatformName string `mapstructure:"LMS_PLATFORM_NAME"`
}

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Zoom     ZoomConfig
	Google   GoogleConfig
	SMTP     SMTPConfig
	LMS      LMSConfig
}

var (
	instance *Config
	mu       sync.RWMutex
)

// Load reads .env (if present) and the environment into the process config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Unmarshal only sees keys viper knows about, so every key without a
	// default must be bound explicitly or it silently reads as empty.
	bindKeys(v)
	setDefaults(v)

	cfg := &Config{}
	sections := map[string]any{
		"server":   &cfg.Server,
		"database": &cfg.Database,
		"redis":    &cfg.Redis,
		"zoom":     &cfg.Zoom,
		"google":   &cfg.Google,
		"smtp":     &cfg.SMTP,
		"lms":      &cfg.LMS,
	}
	for name, section := range sections {
		if err := v.Unmarshal(section); err != nil {
			return nil, fmt.Errorf("failed to load %s config: %w", name, err)
		}
	}

	mu.Lock()
	instance = cfg
	mu.Unlock()
	return cfg, nil
}

func bindKeys(v *viper.Viper) {
	keys := []string{
		"SERVER_PORT", "SERVER_ENV", "LOG_LEVEL", "LOG_FORMAT", "JWT_SECRET",
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"ZOOM_CLIENT_ID", "ZOOM_CLIENT_SECRET", "ZOOM_AUTHORIZATION_SECRET",
		"ZOOM_DOMAIN", "ZOOM_WEBHOOK_SECRET", "ZOOM_API_BASE_URL",
		"ZOOM_OAUTH_BASE_URL", "ZOOM_MEETING_TIMEZONE",
		"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "GOOGLE_PROJECT_ID",
		"GOOGLE_REDIRECT_URI", "GOOGLE_TOKEN_URL", "GOOGLE_AUTH_URL",
		"YOUTUBE_API_BASE_URL",
		"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD", "SMTP_FROM",
		"LMS_BASE_URL", "LMS_PLATFORM_NAME",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", 7070)
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ZOOM_API_BASE_URL", "https://api.zoom.us/v2")
	v.SetDefault("ZOOM_OAUTH_BASE_URL", "https://zoom.us/oauth")
	v.SetDefault("ZOOM_DOMAIN", "https://zoom.us/")
	v.SetDefault("ZOOM_MEETING_TIMEZONE", "America/Santiago")

	v.SetDefault("GOOGLE_TOKEN_URL", "https://www.googleapis.com/oauth2/v3/token")
	v.SetDefault("GOOGLE_AUTH_URL", "https://accounts.google.com/o/oauth2/auth")
	v.SetDefault("YOUTUBE_API_BASE_URL", "https://www.googleapis.com/youtube/v3")

	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("LMS_PLATFORM_NAME", "EOL")
}

// Get returns the loaded config. It panics when called before Load; use
// GetSafe where startup ordering is not guaranteed.
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	if instance == nil {
		panic("config: Get called before Load")
	}
	return instance
}

func GetSafe() (*Config, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return instance, instance != nil
}

// Set replaces the process config. Intended for tests.
func Set(cfg *Config) {
	mu.Lock()
	instance = cfg
	mu.Unlock()
}
