package main

import (
	"flag"
	"fmt"

	"github.com/rs/zerolog/log"

	"lenderhub/internal/pkg/logger"
	"lenderhub/internal/platform/config"
	"lenderhub/internal/platform/database"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.Init(cfg.Logging)

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := database.Migrate(db, *direction); err != nil {
		db.Close()
		log.Fatal().Err(err).Str("direction", *direction).Msg("Migration failed")
	}

	fmt.Println("Migration completed successfully")
}
