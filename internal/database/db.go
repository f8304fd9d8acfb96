package database

import (
	"fmt"

	"leasing-backend/internal/config"
	"leasing-backend/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Init connects to the configured database and migrates the schema.
func Init(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DatabaseDSN)
	default:
		dialector = postgres.Open(cfg.DatabaseDSN)
	}

	db, err := Open(dialector)
	if err != nil {
		return nil, err
	}
	log.Info().Str("driver", cfg.DatabaseDriver).Msg("database connected, migration complete")
	return db, nil
}

// Open connects through any gorm dialector and runs AutoMigrate. Tests pass
// an in-memory sqlite dialector.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.StandardSchedule{},
		&models.Convention{},
		&models.Campaign{},
		&models.CatalogItem{},
		&models.ProposalRecord{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
