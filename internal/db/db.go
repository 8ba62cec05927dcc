package db

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sensor-dashboard-backend/config"
	"sensor-dashboard-backend/internal/model"
)

// Init initializes the database connection, runs migrations and seeds the
// singleton hardware config row.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Println("Running database migrations...")
	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database initialization complete.")
	return db, nil
}

// Migrate runs AutoMigrate for all models and seeds defaults. Split out of
// Init so tests can run it against an in-memory sqlite database.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Sensor{},
		&model.SensorEntity{},
		&model.TestObject{},
		&model.Label{},
		&model.Measurement{},
		&model.MeasurementSensor{},
		&model.SensorReading{},
		&model.HardwareConfig{},
		&model.PushSubscription{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return seedHardwareConfig(db)
}

// seedHardwareConfig creates the singleton config row if it does not exist.
func seedHardwareConfig(db *gorm.DB) error {
	var cfg model.HardwareConfig
	err := db.First(&cfg, model.HardwareConfigID).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to load hardware config: %w", err)
	}

	seed := model.DefaultHardwareConfig()
	if err := db.Create(&seed).Error; err != nil {
		return fmt.Errorf("failed to seed hardware config: %w", err)
	}
	log.Println("Seeded default hardware config")
	return nil
}
