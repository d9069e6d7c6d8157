// Package config loads the server configuration.
//
// Values come from, in increasing precedence: built-in defaults, an
// optional YAML file (--config flag or MARKETPLACE_CONFIG), a .env file in
// the working directory, and the process environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    string         `yaml:"store"`
	Postgres PostgresConfig `yaml:"postgres"`
	Auth     AuthConfig     `yaml:"auth"`
	Files    FilesConfig    `yaml:"files"`
	Invoice  InvoiceConfig  `yaml:"invoice"`
	Twilio   TwilioConfig   `yaml:"twilio"`
	Jobs     JobsConfig     `yaml:"jobs"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Address         string        `yaml:"address"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type PostgresConfig struct {
	URL             string        `yaml:"url"`
	Database        string        `yaml:"database"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	Migrate         bool          `yaml:"migrate"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	// CallbackSecret guards the payment callback, which carries no user token.
	CallbackSecret string `yaml:"callback_secret"`
}

type FilesConfig struct {
	Root    string `yaml:"root"`
	BaseURL string `yaml:"base_url"`
}

type InvoiceConfig struct {
	Issuer string `yaml:"issuer"`
}

// TwilioConfig enables SMS/WhatsApp push delivery when AccountSid is set.
type TwilioConfig struct {
	AccountSid     string `yaml:"account_sid"`
	AuthToken      string `yaml:"auth_token"`
	PhoneNumber    string `yaml:"phone_number"`
	WhatsappNumber string `yaml:"whatsapp_number"`
}

func (t TwilioConfig) Enabled() bool {
	return t.AccountSid != ""
}

type JobsConfig struct {
	ReconcileSchedule string `yaml:"reconcile_schedule"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         ":8080",
			ShutdownTimeout: 30 * time.Second,
		},
		Store: StorePostgres,
		Postgres: PostgresConfig{
			Database:        "marketplace",
			MaxOpenConns:    20,
			ConnMaxLifetime: 30 * time.Minute,
			Migrate:         true,
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Files: FilesConfig{
			Root:    "./data/files",
			BaseURL: "http://localhost:8080/files",
		},
		Invoice: InvoiceConfig{
			Issuer: "Service Marketplace",
		},
		Jobs: JobsConfig{
			ReconcileSchedule: "@every 5m",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration. path may be empty, then MARKETPLACE_CONFIG
// is consulted, and without either only defaults and environment apply.
// overrides run last, before validation.
func Load(path string, overrides ...func(*Config)) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: .env: %w", err)
	}

	cfg := Default()
	if path == "" {
		path = os.Getenv("MARKETPLACE_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	for _, override := range overrides {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"SERVER_ADDRESS":          &c.Server.Address,
		"MARKETPLACE_STORE":       &c.Store,
		"POSTGRES_CONN":           &c.Postgres.URL,
		"POSTGRES_DATABASE":       &c.Postgres.Database,
		"JWT_SECRET":              &c.Auth.JWTSecret,
		"PAYMENT_CALLBACK_SECRET": &c.Auth.CallbackSecret,
		"FILES_ROOT":              &c.Files.Root,
		"FILES_BASE_URL":          &c.Files.BaseURL,
		"INVOICE_ISSUER":          &c.Invoice.Issuer,
		"TWILIO_ACCOUNT_SID":      &c.Twilio.AccountSid,
		"TWILIO_AUTH_TOKEN":       &c.Twilio.AuthToken,
		"TWILIO_PHONE_NUMBER":     &c.Twilio.PhoneNumber,
		"TWILIO_WHATSAPP_NUMBER":  &c.Twilio.WhatsappNumber,
		"RECONCILE_SCHEDULE":      &c.Jobs.ReconcileSchedule,
		"LOG_LEVEL":               &c.Log.Level,
		"LOG_FORMAT":              &c.Log.Format,
	}
	for key, target := range strs {
		if v, ok := lookup(key); ok {
			*target = v
		}
	}

	durations := map[string]*time.Duration{
		"SERVER_SHUTDOWN_TIMEOUT":    &c.Server.ShutdownTimeout,
		"POSTGRES_CONN_MAX_LIFETIME": &c.Postgres.ConnMaxLifetime,
		"JWT_TOKEN_TTL":              &c.Auth.TokenTTL,
	}
	for key, target := range durations {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*target = d
	}

	if v, ok := lookup("POSTGRES_MAX_OPEN_CONNS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: POSTGRES_MAX_OPEN_CONNS: %w", err)
		}
		c.Postgres.MaxOpenConns = n
	}
	if v, ok := lookup("POSTGRES_MIGRATE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: POSTGRES_MIGRATE: %w", err)
		}
		c.Postgres.Migrate = b
	}

	return nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Server.Address == "" {
		errs = append(errs, errors.New("server.address is empty"))
	}
	switch c.Store {
	case StorePostgres:
		if c.Postgres.URL == "" {
			errs = append(errs, errors.New("postgres.url is required with the postgres store"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store %q", c.Store))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Auth.CallbackSecret == "" {
		errs = append(errs, errors.New("auth.callback_secret is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Twilio.Enabled() && (c.Twilio.AuthToken == "" || c.Twilio.PhoneNumber == "") {
		errs = append(errs, errors.New("twilio needs auth_token and phone_number"))
	}
	if c.Jobs.ReconcileSchedule == "" {
		errs = append(errs, errors.New("jobs.reconcile_schedule is empty"))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}

	return nil
}

func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(l.Level))); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}

	return level, nil
}

// NewLogger builds the process logger: JSON by default, text when format is "text".
func (l LogConfig) NewLogger() *slog.Logger {
	level, _ := l.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
