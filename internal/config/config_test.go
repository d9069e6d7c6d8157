package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadFileThenEnv(t *testing.T) {
	chdir(t, t.TempDir())
	path := writeFile(t, `
server:
  address: ":9000"
  shutdown_timeout: 10s
store: memory
auth:
  jwt_secret: file-secret
  callback_secret: cb
  token_ttl: 2h
jobs:
  reconcile_schedule: "@every 1m"
`)
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Address != ":9000" || cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Store != StoreMemory {
		t.Errorf("store = %q", cfg.Store)
	}
	if cfg.Auth.JWTSecret != "env-secret" {
		t.Errorf("env must override file, got %q", cfg.Auth.JWTSecret)
	}
	if cfg.Auth.TokenTTL != 2*time.Hour {
		t.Errorf("ttl = %v", cfg.Auth.TokenTTL)
	}
	if cfg.Invoice.Issuer != "Service Marketplace" {
		t.Errorf("defaults must survive a partial file, issuer = %q", cfg.Invoice.Issuer)
	}
	if level, _ := cfg.Log.SlogLevel(); level.String() != "DEBUG" {
		t.Errorf("level = %v", level)
	}
}

func TestLoadConfigPathFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	path := writeFile(t, "store: memory\nauth: {jwt_secret: s, callback_secret: c}\n")
	t.Setenv("MARKETPLACE_CONFIG", path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store != StoreMemory {
		t.Errorf("store = %q", cfg.Store)
	}
}

func TestLoadOverridesBeforeValidation(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("PAYMENT_CALLBACK_SECRET", "c")
	t.Setenv("POSTGRES_CONN", "")

	if _, err := Load(""); err == nil {
		t.Fatal("postgres store without url must be rejected")
	}
	cfg, err := Load("", func(c *Config) { c.Store = StoreMemory })
	if err != nil {
		t.Fatalf("override to memory: %v", err)
	}
	if cfg.Store != StoreMemory {
		t.Errorf("store = %q", cfg.Store)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	env := "MARKETPLACE_STORE=memory\nJWT_SECRET=dotenv\nPAYMENT_CALLBACK_SECRET=cb\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv never overrides variables that are already set; register
	// cleanup so the values it exports do not leak into other tests.
	for _, key := range []string{"MARKETPLACE_STORE", "JWT_SECRET", "PAYMENT_CALLBACK_SECRET"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Auth.JWTSecret != "dotenv" {
		t.Errorf("jwt secret = %q", cfg.Auth.JWTSecret)
	}
}

func TestEnvParsing(t *testing.T) {
	cfg := Default()
	env := map[string]string{
		"POSTGRES_MAX_OPEN_CONNS": "5",
		"POSTGRES_MIGRATE":        "false",
		"JWT_TOKEN_TTL":           "15m",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	if err := cfg.applyEnv(lookup); err != nil {
		t.Fatal(err)
	}
	if cfg.Postgres.MaxOpenConns != 5 || cfg.Postgres.Migrate || cfg.Auth.TokenTTL != 15*time.Minute {
		t.Errorf("got %+v %+v", cfg.Postgres, cfg.Auth)
	}

	env["JWT_TOKEN_TTL"] = "soon"
	if err := cfg.applyEnv(lookup); err == nil || !strings.Contains(err.Error(), "JWT_TOKEN_TTL") {
		t.Errorf("bad duration: %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Postgres.URL = "postgres://localhost/marketplace"
		cfg.Auth.JWTSecret = "s"
		cfg.Auth.CallbackSecret = "c"
		return cfg
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no postgres url", func(c *Config) { c.Postgres.URL = "" }, "postgres.url"},
		{"unknown store", func(c *Config) { c.Store = "redis" }, "unknown store"},
		{"no jwt secret", func(c *Config) { c.Auth.JWTSecret = "" }, "jwt_secret"},
		{"no callback secret", func(c *Config) { c.Auth.CallbackSecret = "" }, "callback_secret"},
		{"half twilio", func(c *Config) { c.Twilio.AccountSid = "AC1" }, "twilio"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("err = %v, want mention of %q", err, tc.want)
			}
		})
	}

	cfg := valid()
	cfg.Store = StoreMemory
	cfg.Postgres.URL = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("memory store needs no postgres: %v", err)
	}
}
