package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/samirrijal/parkfinder/internal/adapters/postgres"
	"github.com/samirrijal/parkfinder/internal/pkg/config"
	"github.com/samirrijal/parkfinder/internal/pkg/logging"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|check|down>")
	}

	cfg, err := config.Load("parkfinder-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, "text")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), 2)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		n, err := db.Migrate(ctx)
		if err != nil {
			log.Fatalf("migrate: %v", err)
		}
		if err := db.CheckSchema(ctx); err != nil {
			log.Fatalf("check: %v", err)
		}
		slog.Info("schema is up to date", "applied", n)
	case "check":
		if err := db.CheckSchema(ctx); err != nil {
			log.Fatalf("check: %v", err)
		}
		slog.Info("schema ok")
	case "down":
		if err := db.Drop(ctx); err != nil {
			log.Fatalf("down: %v", err)
		}
		slog.Info("catalog tables dropped")
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}
