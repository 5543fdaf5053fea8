package database

import (
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"studynotes/analytics"
	"studynotes/models"
)

func RunMigrations(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")

	err := db.AutoMigrate(
		&models.Entry{},
		&analytics.LoginEvent{},
	)

	if err != nil {
		log.Error().Err(err).Msg("Error running migrations")
		return err
	}

	log.Info().Msg("Migrations completed successfully")
	return nil
}
