package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/Devhypertech/aigroupgepanda/internal/apperr"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Config struct {
	// Server Settings
	AppPort     string
	HOST        string
	AppEnv      string
	DatabaseURL string
	RedisURL    string
	WebURL      string
	SeedDemo    bool

	// Chat provider
	StreamAPIKey        string
	StreamAPISecret     string
	StreamBaseURL       string
	StreamWebhookVerify bool

	// LLM
	ZhipuAPIKey string
	LLMAPIURL   string
	LLMModel    string

	// AI identity
	AIUserID   string
	AIUserName string

	// Invites
	InviteMaxAge          time.Duration
	InviteCleanupInterval time.Duration

	// CORS Settings
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
}

var requiredVars = []string{"STREAM_API_KEY", "STREAM_API_SECRET", "ZHIPU_API_KEY"}

var reportedVars = []string{
	"PORT", "HOST", "APP_ENV", "DATABASE_URL", "REDIS_URL", "WEB_URL",
	"STREAM_API_KEY", "STREAM_API_SECRET", "STREAM_BASE_URL", "STREAM_WEBHOOK_VERIFY",
	"ZHIPU_API_KEY", "LLM_API_URL", "LLM_MODEL", "AI_USER_ID", "AI_USER_NAME",
	"CORS_ALLOW_ORIGINS",
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "3001")
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("WEB_URL", "http://localhost:3002")
	v.SetDefault("AI_USER_ID", "gepanda-ai")
	v.SetDefault("AI_USER_NAME", "GePanda AI")
	v.SetDefault("STREAM_WEBHOOK_VERIFY", false)
	v.SetDefault("SEED_DEMO", false)
	v.SetDefault("INVITE_MAX_AGE_HOURS", 7*24)
	v.SetDefault("INVITE_CLEANUP_INTERVAL_MINUTES", 60)
	v.SetDefault("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:3002,http://127.0.0.1:3000,http://127.0.0.1:3002")
	return v
}

// LoadConfig reads an optional .env file and the process environment. It
// logs which variables were found, never their values, and fails with a
// ConfigurationError when a required credential is absent.
func LoadConfig(log *zap.SugaredLogger) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warnw("could not read .env file", "error", err)
	}

	v := newViper()
	for _, name := range reportedVars {
		log.Infow("environment", "var", name, "found", os.Getenv(name) != "")
	}

	var missing []string
	for _, name := range requiredVars {
		if strings.TrimSpace(v.GetString(name)) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &apperr.ConfigurationError{Missing: missing}
	}

	return &Config{
		AppPort:     v.GetString("PORT"),
		HOST:        v.GetString("HOST"),
		AppEnv:      v.GetString("APP_ENV"),
		DatabaseURL: v.GetString("DATABASE_URL"),
		RedisURL:    v.GetString("REDIS_URL"),
		WebURL:      strings.TrimRight(v.GetString("WEB_URL"), "/"),
		SeedDemo:    v.GetBool("SEED_DEMO"),

		StreamAPIKey:        v.GetString("STREAM_API_KEY"),
		StreamAPISecret:     v.GetString("STREAM_API_SECRET"),
		StreamBaseURL:       v.GetString("STREAM_BASE_URL"),
		StreamWebhookVerify: v.GetBool("STREAM_WEBHOOK_VERIFY"),

		ZhipuAPIKey: v.GetString("ZHIPU_API_KEY"),
		LLMAPIURL:   v.GetString("LLM_API_URL"),
		LLMModel:    v.GetString("LLM_MODEL"),

		AIUserID:   v.GetString("AI_USER_ID"),
		AIUserName: v.GetString("AI_USER_NAME"),

		InviteMaxAge:          time.Duration(v.GetInt("INVITE_MAX_AGE_HOURS")) * time.Hour,
		InviteCleanupInterval: time.Duration(v.GetInt("INVITE_CLEANUP_INTERVAL_MINUTES")) * time.Minute,

		CORSAllowOrigins: splitList(v.GetString("CORS_ALLOW_ORIGINS")),
		CORSAllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		CORSAllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Signature"},
	}, nil
}

func (c *Config) Development() bool {
	return c.AppEnv != "production"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
