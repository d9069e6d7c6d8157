package main

import (
	"errors"
	"testing"

	"service-marketplace-api/internal/config"

	"github.com/spf13/pflag"
)

func TestFlagsOverrideOnlyWhenSet(t *testing.T) {
	f, err := parseFlags([]string{"--store", "memory"})
	if err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Postgres.Migrate = false
	f.override(cfg)

	if cfg.Store != config.StoreMemory {
		t.Errorf("store = %q", cfg.Store)
	}
	if cfg.Postgres.Migrate {
		t.Error("unset --migrate must keep the configured value")
	}

	f, err = parseFlags([]string{"--migrate=false"})
	if err != nil {
		t.Fatal(err)
	}
	cfg = config.Default()
	f.override(cfg)
	if cfg.Store != config.StorePostgres || cfg.Postgres.Migrate {
		t.Errorf("got store %q migrate %v", cfg.Store, cfg.Postgres.Migrate)
	}
}

func TestHelp(t *testing.T) {
	if _, err := parseFlags([]string{"--help"}); !errors.Is(err, pflag.ErrHelp) {
		t.Errorf("err = %v", err)
	}
}
