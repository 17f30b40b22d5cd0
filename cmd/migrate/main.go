package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Lsoni680/ai-chatbot-new/internal/config"
	"github.com/Lsoni680/ai-chatbot-new/internal/logging"
	"github.com/Lsoni680/ai-chatbot-new/internal/repository/postgres"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	down := flag.Int("down", 0, "roll back this many migrations instead of applying")
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if _, err := logging.Setup(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	if cfg.Storage.Postgres.DSN == "" {
		log.Fatal().Msg("storage.postgres.dsn is required (set POSTGRES_DSN)")
	}

	if *down > 0 {
		err = postgres.RollbackMigrations(cfg.Storage.Postgres.DSN, *down)
	} else {
		err = postgres.RunMigrations(cfg.Storage.Postgres.DSN)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}
