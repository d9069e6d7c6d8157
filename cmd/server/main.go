// Command server runs the marketplace API.
package main

import (
	"errors"
	"fmt"
	"os"

	"service-marketplace-api/app"
	"service-marketplace-api/internal/config"

	"github.com/spf13/pflag"
)

type flags struct {
	configPath string
	store      string
	migrate    bool
	set        *pflag.FlagSet
}

func parseFlags(args []string) (*flags, error) {
	f := &flags{set: pflag.NewFlagSet("server", pflag.ContinueOnError)}
	f.set.StringVar(&f.configPath, "config", "", "path to a YAML config file (default $MARKETPLACE_CONFIG)")
	f.set.StringVar(&f.store, "store", config.StorePostgres, "storage backend: postgres or memory")
	f.set.BoolVar(&f.migrate, "migrate", true, "apply pending database migrations at startup")

	if err := f.set.Parse(args); err != nil {
		return nil, err
	}

	return f, nil
}

// override lets explicitly set flags win over file and environment.
func (f *flags) override(cfg *config.Config) {
	if f.set.Changed("store") {
		cfg.Store = f.store
	}
	if f.set.Changed("migrate") {
		cfg.Postgres.Migrate = f.migrate
	}
}

func run(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(f.configPath, f.override)
	if err != nil {
		return err
	}

	return app.Run(cfg, cfg.Log.NewLogger())
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}
