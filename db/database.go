package db

import (
	"database/sql"
	"fmt"
	"time"

	"clipstream/config"
	"clipstream/logger"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// DB is the shared connection pool used by the repositories. It is kept
// separate from the GORM handle so the hot path stays on plain SQL.
var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxIdleConns(10)
	DB.SetMaxOpenConns(100)
	DB.SetConnMaxLifetime(time.Hour)

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Successfully connected to the database")
	return nil
}

// CloseDB closes the shared connection pool.
func CloseDB() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
