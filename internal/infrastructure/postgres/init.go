package postgres

import (
	"log"
	"log/slog"

	"github.com/LavaJover/shvark-p2p-service/internal/config"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/migrate"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/postgres/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func MustInitDB(cfg *config.P2PConfig) *gorm.DB {
	dsn := cfg.OrderDB.Dsn
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to init db: %v\n", err.Error())
	}

	if cfg.OrderDB.MigrationsPath != "" {
		if _, err := migrate.Up(db, cfg.OrderDB.MigrationsPath, slog.Default()); err != nil {
			log.Fatalf("failed to apply migrations: %v\n", err)
		}
		return db
	}

	if err := AutoMigrate(db); err != nil {
		log.Fatalf("failed to migrate db: %v\n", err)
	}

	return db
}

// AutoMigrate creates the schema from the gorm models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.UserModel{},
		&models.CommunityModel{},
		&models.OrderModel{},
		&models.DisputeModel{},
		&models.EventLogModel{},
	)
}
