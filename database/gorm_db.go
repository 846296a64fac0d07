package database

import (
	"fmt"
	"time"

	"github.com/camden-git/dancereg/logging"
	"github.com/camden-git/dancereg/models"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitGormDB initializes and returns a GORM database instance
func InitGormDB(dataSourceName string) (*gorm.DB, error) {
	log := logging.Named("database")
	gormLogger := logger.New(
		zap.NewStdLog(log.WithOptions(zap.AddCallerSkip(3))),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(dataSourceName), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database using GORM: %w", err)
	}

	// write-ahead logging lets the thumbnail workers write while requests read
	if err := db.Exec("PRAGMA journal_mode=WAL;").Error; err != nil {
		log.Warn("failed to set WAL mode", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB from GORM: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("database initialized", zap.String("dsn", dataSourceName))
	return db, nil
}

// AutoMigrateModels creates or updates every table the service owns.
func AutoMigrateModels(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Person{},
		&models.Address{},
		&models.Group{},
		&models.User{},
	)
	if err != nil {
		return fmt.Errorf("GORM AutoMigrate failed: %w", err)
	}
	logging.Named("database").Info("auto migrate completed")
	return nil
}
