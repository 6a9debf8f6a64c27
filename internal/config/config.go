package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseURL       string
	RedisURL          string
	NATSURL           string
	JWTSecret         string
	SendGridAPIKey    string
	MailFromName      string
	MailFromAddress   string
	FeedbackDelay     time.Duration
	ResubmitCooldown  time.Duration
	MaxFreeResubmits  int
	GradingWindow     time.Duration
	AggregateCacheTTL time.Duration
	AssignLockTTL     time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("PEERGRADE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "PeerGrade API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("mail.from_name", "Course Staff")
	v.SetDefault("mail.from_address", "staff@example.edu")
	v.SetDefault("feedback.delay", "30m")
	v.SetDefault("resubmit.cooldown", "6h")
	v.SetDefault("resubmit.max_free", 2)
	v.SetDefault("grading.window", "72h")
	v.SetDefault("aggregate.cache_ttl", "5m")
	v.SetDefault("assign.lock_ttl", "1m")

	feedbackDelay, err := parseDuration(v, "feedback.delay")
	if err != nil {
		return Config{}, err
	}
	cooldown, err := parseDuration(v, "resubmit.cooldown")
	if err != nil {
		return Config{}, err
	}
	gradingWindow, err := parseDuration(v, "grading.window")
	if err != nil {
		return Config{}, err
	}
	cacheTTL, err := parseDuration(v, "aggregate.cache_ttl")
	if err != nil {
		return Config{}, err
	}
	lockTTL, err := parseDuration(v, "assign.lock_ttl")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		JWTSecret:         v.GetString("jwt.secret"),
		SendGridAPIKey:    v.GetString("sendgrid.api_key"),
		MailFromName:      v.GetString("mail.from_name"),
		MailFromAddress:   v.GetString("mail.from_address"),
		FeedbackDelay:     feedbackDelay,
		ResubmitCooldown:  cooldown,
		MaxFreeResubmits:  v.GetInt("resubmit.max_free"),
		GradingWindow:     gradingWindow,
		AggregateCacheTTL: cacheTTL,
		AssignLockTTL:     lockTTL,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.MaxFreeResubmits <= 0 {
		cfg.MaxFreeResubmits = 2
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	parsed, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}

	return parsed, nil
}
