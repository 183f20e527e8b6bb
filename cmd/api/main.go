package main

import (
	"context"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"abx/adapters/postgres"
	"abx/internal/analysis"
	"abx/internal/config"
	"abx/internal/logging"
	"abx/ports"
	"abx/ui"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.NewDefault().Child("abx")

	var repo ports.ReportRepository
	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		reports := postgres.NewReportRepository(db)
		if err := reports.Migrate(context.Background()); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		repo = reports
		logger.Info("report persistence enabled")
	} else {
		logger.Info("no DATABASE_URL configured, readouts will not be persisted")
	}

	diagnostics := analysis.DefaultDiagnosticsConfig()
	diagnostics.SRMThreshold = cfg.Diagnostics.SRMThreshold
	diagnostics.SuspectAlpha = cfg.Diagnostics.SuspectAlpha
	diagnostics.TopCategories = cfg.Diagnostics.TopCategories

	server := ui.NewServer(diagnostics, repo, logger)
	log.Fatal(server.Start(":" + cfg.Server.Port))
}
