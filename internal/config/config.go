package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds application configuration values.
type Config struct {
	Env  string `validate:"required,oneof=dev prod"`
	HTTP struct {
		Addr         string `validate:"required"`
		RateLimitRPS float64
		RateBurst    int `validate:"gte=1"`
	}
	Log struct {
		ConsoleLevel string `validate:"required,oneof=debug info warn error"`
		FileLevel    string `validate:"required,oneof=debug info warn error"`
		File         string
	}
	Data struct {
		Source     string `validate:"required,oneof=fixture api"`
		APIBaseURL string `validate:"omitempty,url"`
		APITimeout time.Duration
		APIRetries int `validate:"gte=0,lte=10"`
		// PopularSize is how many entries the popular snapshot holds per list.
		PopularSize     int    `validate:"gte=1,lte=100"`
		PopularSchedule string `validate:"required"`
	}
	Local struct {
		Store      string `validate:"required,oneof=sqlite badger"`
		SQLitePath string `validate:"required_if=Store sqlite"`
		BadgerPath string
	}
	Submissions struct {
		Store       string `validate:"required,oneof=memory api postgres"`
		PostgresDSN string `validate:"required_if=Store postgres"`
	}
	PhoneAuth struct {
		Provider string `validate:"required,oneof=fake identitytoolkit"`
		APIKey   string `validate:"required_if=Provider identitytoolkit"`
		BaseURL  string `validate:"omitempty,url"`
	}
	Session struct {
		// Secret is only needed by the gateway; Server fails without it.
		Secret string        `validate:"omitempty,min=16"`
		TTL    time.Duration `validate:"gt=0"`
	}
	Telegram struct {
		Token         string
		WebhookURL    string `validate:"omitempty,url"`
		WebhookSecret string
		AllowedIDs    string
		Workers       int `validate:"gte=1"`
		RateLimitRPS  float64
	}
}

var validate = validator.New()

// Load reads configuration from environment variables and an optional .env
// file. Values already present in the environment win over the file.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds and validates a Config from getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	e := env{get: getenv}

	var c Config
	c.Env = strings.ToLower(e.str("ENV", "prod"))

	c.HTTP.Addr = e.str("HTTP_ADDR", ":8080")
	c.HTTP.RateLimitRPS = e.float("RATE_LIMIT_RPS", 10)
	c.HTTP.RateBurst = e.int("RATE_LIMIT_BURST", 20)

	c.Log.ConsoleLevel = strings.ToLower(e.str("LOG_CONSOLE_LEVEL", "info"))
	c.Log.FileLevel = strings.ToLower(e.str("LOG_FILE_LEVEL", "debug"))
	c.Log.File = e.str("LOG_FILE", "data/logs/nimli.log")

	c.Data.Source = strings.ToLower(e.str("DATA_SOURCE", "fixture"))
	c.Data.APIBaseURL = e.str("API_BASE_URL", "")
	c.Data.APITimeout = e.duration("API_TIMEOUT", 10*time.Second)
	c.Data.APIRetries = e.int("API_RETRIES", 3)
	c.Data.PopularSize = e.int("POPULAR_CACHE_SIZE", 50)
	c.Data.PopularSchedule = e.str("POPULAR_REFRESH_SCHEDULE", "@every 5m")

	c.Local.Store = strings.ToLower(e.str("LOCAL_STORE", "sqlite"))
	c.Local.SQLitePath = e.str("SQLITE_PATH", "data/nimli.db")
	c.Local.BadgerPath = e.str("BADGER_PATH", "data/badger")

	c.Submissions.Store = strings.ToLower(e.str("SUBMISSION_STORE", "memory"))
	c.Submissions.PostgresDSN = e.str("POSTGRES_DSN", "")

	c.PhoneAuth.Provider = strings.ToLower(e.str("PHONE_AUTH", "fake"))
	c.PhoneAuth.APIKey = e.str("PHONE_AUTH_API_KEY", "")
	c.PhoneAuth.BaseURL = e.str("PHONE_AUTH_BASE_URL", "https://identitytoolkit.googleapis.com/v1")

	c.Session.Secret = e.str("SESSION_SECRET", "")
	c.Session.TTL = e.duration("SESSION_TTL", 24*time.Hour)

	c.Telegram.Token = e.str("TELEGRAM_BOT_TOKEN", "")
	c.Telegram.WebhookURL = e.str("TELEGRAM_WEBHOOK_URL", "")
	c.Telegram.WebhookSecret = e.str("TELEGRAM_WEBHOOK_SECRET", "")
	c.Telegram.AllowedIDs = e.str("TELEGRAM_ALLOWED_IDS", "")
	c.Telegram.Workers = e.int("TELEGRAM_WORKERS", 8)
	c.Telegram.RateLimitRPS = e.float("TELEGRAM_RATE_LIMIT_RPS", 1)

	if err := e.err(); err != nil {
		return Config{}, err
	}
	if c.Env == "dev" && c.Session.Secret == "" {
		c.Session.Secret = "nimli-dev-session-secret"
	}
	if err := validate.Struct(c); err != nil {
		return Config{}, err
	}
	if c.Data.Source == "api" && c.Data.APIBaseURL == "" {
		return Config{}, errors.New("API_BASE_URL required when DATA_SOURCE=api")
	}
	if c.Telegram.WebhookURL != "" && c.Telegram.WebhookSecret == "" {
		return Config{}, errors.New("TELEGRAM_WEBHOOK_SECRET required when TELEGRAM_WEBHOOK_URL is set")
	}
	if c.Submissions.Store == "api" && c.Data.Source != "api" {
		return Config{}, errors.New("SUBMISSION_STORE=api requires DATA_SOURCE=api")
	}
	return c, nil
}

// env collects parse failures so every bad key is reported at once.
type env struct {
	get  func(string) string
	errs []error
}

func (e *env) str(k, def string) string {
	if v := strings.TrimSpace(e.get(k)); v != "" {
		return v
	}
	return def
}

func (e *env) int(k string, def int) int {
	v := e.get(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", k, err))
		return def
	}
	return n
}

func (e *env) float(k string, def float64) float64 {
	v := e.get(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", k, err))
		return def
	}
	return f
}

func (e *env) duration(k string, def time.Duration) time.Duration {
	v := e.get(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", k, err))
		return def
	}
	return d
}

func (e *env) err() error { return errors.Join(e.errs...) }
