package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	CORSAllowedOrigins []string
	ContactPath        string `env:"CONTACT_PATH" validate:"required,startswith=/"`
	BodyLimitBytes     int64  `env:"BODY_LIMIT_BYTES" validate:"gt=0"`
	ShutdownTimeout    time.Duration

	SMTP SMTP

	MailFrom string `env:"MAIL_FROM" validate:"required,email"`
	MailTo   string `env:"MAIL_TO" validate:"required,email"`

	NotifySenderName    string
	AutoReplySenderName string
	AutoReplyEnabled    bool
	AutoReplyMode       string        `env:"AUTO_REPLY_MODE" validate:"oneof=async sync"`
	AutoReplyTimeout    time.Duration `env:"AUTO_REPLY_TIMEOUT" validate:"gt=0"`
}

// SMTP describes the outbound relay used for every message.
type SMTP struct {
	Host    string        `env:"SMTP_HOST" validate:"required,hostname_rfc1123|ip"`
	Port    int           `env:"SMTP_PORT" validate:"min=1,max=65535"`
	User    string        `env:"SMTP_USER" validate:"required"`
	Pass    string        `env:"SMTP_PASS" validate:"required"`
	Timeout time.Duration `env:"SMTP_TIMEOUT" validate:"gt=0"`
}

// ImplicitTLS reports whether the relay expects TLS from the first byte (SMTPS).
func (s SMTP) ImplicitTLS() bool {
	return s.Port == 465
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	smtpPort, err := parsePort(k.String("SMTP_PORT"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		ContactPath:        valueOrDefault(k.String("CONTACT_PATH"), "/api/send-email"),
		BodyLimitBytes:     parseInt64(k.String("BODY_LIMIT_BYTES"), 64<<10),
		ShutdownTimeout:    parseDuration(k.String("SHUTDOWN_TIMEOUT"), "15s"),
		SMTP: SMTP{
			Host:    strings.TrimSpace(k.String("SMTP_HOST")),
			Port:    smtpPort,
			User:    k.String("SMTP_USER"),
			Pass:    k.String("SMTP_PASS"),
			Timeout: parseDuration(k.String("SMTP_TIMEOUT"), "10s"),
		},
		MailFrom:            strings.TrimSpace(k.String("MAIL_FROM")),
		MailTo:              strings.TrimSpace(k.String("MAIL_TO")),
		NotifySenderName:    valueOrDefault(k.String("NOTIFY_SENDER_NAME"), "Website Contact"),
		AutoReplySenderName: valueOrDefault(k.String("AUTO_REPLY_SENDER_NAME"), "赛格鞋业 SAIGE Footwear"),
		AutoReplyEnabled:    parseBoolDefault(k.String("AUTO_REPLY_ENABLED"), true),
		AutoReplyMode:       strings.ToLower(valueOrDefault(k.String("AUTO_REPLY_MODE"), "async")),
		AutoReplyTimeout:    parseDuration(k.String("AUTO_REPLY_TIMEOUT"), "30s"),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// AllowedOrigins returns the CORS allowlist, defaulting to any origin.
func (c *Config) AllowedOrigins() []string {
	if len(c.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return c.CORSAllowedOrigins
}

var validate = newValidator()

func newValidator() func(*Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		if name := field.Tag.Get("env"); name != "" {
			return name
		}
		return field.Name
	})
	return func(cfg *Config) error {
		err := v.Struct(cfg)
		if err == nil {
			return nil
		}
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
			return fmt.Errorf("validate config: %w", err)
		}
		first := fieldErrs[0]
		if first.Tag() == "required" {
			return fmt.Errorf("%s is required", first.Field())
		}
		return fmt.Errorf("%s is invalid (%s)", first.Field(), first.Tag())
	}
}

func parsePort(value string) (int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 587, nil
	}
	port, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("SMTP_PORT must be numeric: %w", err)
	}
	return port, nil
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt64(value string, fallback int64) int64 {
	parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
