package db

import (
	"fmt"
	"time"

	"clipstream/config"
	"clipstream/logger"
	"clipstream/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormDB is the GORM connection used for schema migration and seeding.
// It coexists with DB (*sql.DB); the request path never goes through GORM.
var GormDB *gorm.DB

// ConnectGormDB establishes the GORM database connection.
func ConnectGormDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	GormDB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to connect database with GORM: %w", err)
	}

	sqlDB, err := GormDB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	logger.Info("Successfully connected to the database with GORM")
	return nil
}

// CloseGormDB closes the GORM database connection.
func CloseGormDB() error {
	if GormDB == nil {
		return nil
	}

	sqlDB, err := GormDB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// MigrateSchema creates or updates the clips table.
func MigrateSchema() error {
	if GormDB == nil {
		return fmt.Errorf("GORM database not initialized")
	}

	if err := GormDB.AutoMigrate(&model.Clip{}); err != nil {
		return fmt.Errorf("failed to migrate clips schema: %w", err)
	}

	logger.Info("Clips schema migrated successfully")
	return nil
}

// seedClips is the canonical starter catalog. Inserted only when the table
// is empty, so seeding is idempotent.
var seedClips = []model.Clip{
	{
		Title:       "Ocean Waves",
		Description: "Relaxing ocean wave sounds for meditation",
		Genre:       "ambient",
		Duration:    "30s",
		AudioURL:    "https://www2.cs.uic.edu/~i101/SoundFiles/BabyElephantWalk60.wav",
	},
	{
		Title:       "Urban Beat",
		Description: "Modern electronic beat with urban vibes",
		Genre:       "electronic",
		Duration:    "45s",
		AudioURL:    "https://www2.cs.uic.edu/~i101/SoundFiles/CantinaBand60.wav",
	},
	{
		Title:       "Acoustic Guitar",
		Description: "Gentle acoustic guitar melody",
		Genre:       "acoustic",
		Duration:    "60s",
		AudioURL:    "https://www2.cs.uic.edu/~i101/SoundFiles/ImperialMarch60.wav",
	},
	{
		Title:       "Rain Forest",
		Description: "Nature sounds from tropical rainforest",
		Genre:       "ambient",
		Duration:    "40s",
		AudioURL:    "https://www2.cs.uic.edu/~i101/SoundFiles/PinkPanther60.wav",
	},
	{
		Title:       "Synthwave Dream",
		Description: "Retro synthwave with dreamy atmosphere",
		Genre:       "electronic",
		Duration:    "55s",
		AudioURL:    "https://www2.cs.uic.edu/~i101/SoundFiles/StarWars60.wav",
	},
	{
		Title:       "Jazz Piano",
		Description: "Smooth jazz piano improvisation",
		Genre:       "jazz",
		Duration:    "35s",
		AudioURL:    "https://www2.cs.uic.edu/~i101/SoundFiles/taunt.wav",
	},
}

// SeedClips inserts the starter catalog if the clips table is empty.
// Returns the number of clips inserted.
func SeedClips() (int, error) {
	if GormDB == nil {
		return 0, fmt.Errorf("GORM database not initialized")
	}

	var count int64
	if err := GormDB.Model(&model.Clip{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count existing clips: %w", err)
	}
	if count > 0 {
		logger.Info("Database already has clips, skipping seed", logger.Int64("count", count))
		return 0, nil
	}

	clips := make([]model.Clip, len(seedClips))
	copy(clips, seedClips)
	if err := GormDB.Create(&clips).Error; err != nil {
		return 0, fmt.Errorf("failed to seed clips: %w", err)
	}

	logger.Info("Database seeded with starter clips", logger.Int("count", len(clips)))
	return len(clips), nil
}
