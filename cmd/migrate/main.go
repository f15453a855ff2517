// migrate applies or rolls back the embedded schema.
//
//	go run ./cmd/migrate -direction up
//	go run ./cmd/migrate -status
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"sleeptracker/backend/internal/config"
	"sleeptracker/backend/internal/db/migrate"
	"sleeptracker/backend/internal/logger"
)

func main() {
	direction := flag.String("direction", migrate.Up, "Migration direction: up or down")
	status := flag.Bool("status", false, "Print the applied schema version and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	zl, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = zl.Sync() }()

	if cfg.DatabaseURL == "" {
		zl.Fatal("DATABASE_URL is not set; set it in the environment or a .env file")
	}

	if !*status {
		if err := migrate.Run(cfg.DatabaseURL, *direction); err != nil {
			zl.Fatal("migrate failed", zap.String("direction", *direction), zap.Error(err))
		}
	}
	version, dirty, ok, err := migrate.Version(cfg.DatabaseURL)
	if err != nil {
		zl.Fatal("read schema version", zap.Error(err))
	}
	if !ok {
		zl.Info("no migrations applied")
		return
	}
	zl.Info("schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
}
