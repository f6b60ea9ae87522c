package database

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/config"
	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg *config.Config) *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		slog.Error("failed to connect to database", "err", err)
		os.Exit(1)
	}

	slog.Info("database connected")
	return db
}

func AutoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.Host{},
		&models.Quiz{},
		&models.QuizRound{},
		&models.QuizItem{},
		&models.QuizOption{},
		&models.LiveSession{},
		&models.LivePlayer{},
		&models.LiveAnswer{},
	)
	if err != nil {
		slog.Error("failed to auto-migrate", "err", err)
		os.Exit(1)
	}
	slog.Info("database migrated")
}
