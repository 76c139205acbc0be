package database

import (
	"fmt"
	"strings"

	"campus-dating-app/internal/models"
	"campus-dating-app/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MemoryURL selects the in-process store instead of PostgreSQL.
const MemoryURL = "memory://"

// Open returns the store named by databaseURL and a function releasing it.
func Open(databaseURL, logLevel string, log logrus.FieldLogger) (repository.Store, func() error, error) {
	if strings.HasPrefix(databaseURL, MemoryURL) {
		log.Warn("Using in-memory store; data is lost on restart")
		return repository.NewMemoryStore(), func() error { return nil }, nil
	}

	db, err := Initialize(databaseURL, logLevel, log)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	return repository.NewGormStore(db), sqlDB.Close, nil
}

func Initialize(databaseURL, logLevel string, log logrus.FieldLogger) (*gorm.DB, error) {
	config := &gorm.Config{
		Logger:         logger.Default.LogMode(gormLogLevel(logLevel)),
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.Open(databaseURL), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info("Database connected and migrated successfully")
	return db, nil
}

// Migrate creates or updates the schema of every persisted model.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Profile{}, "Interests", &models.ProfileInterest{}); err != nil {
		return err
	}
	return db.AutoMigrate(
		&models.Interest{},
		&models.Profile{},
		&models.ProfileInterest{},
		&models.Swipe{},
		&models.Match{},
		&models.Conversation{},
		&models.Message{},
	)
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
