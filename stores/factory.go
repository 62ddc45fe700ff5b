package stores

import (
	"fmt"
	"strconv"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDatabase opens a GORM connection for the configured dialect. The handle is
// shared by the conversation store and the inventory repository.
//
// Recognised options: log_level (silent|error|warn|info), max_open_conns,
// max_idle_conns, conn_max_lifetime (Go duration).
func OpenDatabase(config *StoreConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch config.Type {
	case "sqlite":
		dialector = sqlite.Open(config.Connection)
	case "postgres":
		dialector = postgres.Open(config.Connection)
	case "mysql":
		dialector = mysql.Open(config.Connection)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", config.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger(config.Options["log_level"])})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", config.Type, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if n, err := strconv.Atoi(config.Options["max_open_conns"]); err == nil && n > 0 {
		sqlDB.SetMaxOpenConns(n)
	}
	if n, err := strconv.Atoi(config.Options["max_idle_conns"]); err == nil && n > 0 {
		sqlDB.SetMaxIdleConns(n)
	}
	if d, err := time.ParseDuration(config.Options["conn_max_lifetime"]); err == nil && d > 0 {
		sqlDB.SetConnMaxLifetime(d)
	}
	if config.Type == "sqlite" {
		// a single writer avoids "database is locked" under concurrent turns
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

func gormLogger(level string) logger.Interface {
	switch level {
	case "info":
		return logger.Default.LogMode(logger.Info)
	case "warn":
		return logger.Default.LogMode(logger.Warn)
	case "error":
		return logger.Default.LogMode(logger.Error)
	default:
		return logger.Default.LogMode(logger.Silent)
	}
}

// NewStore creates a new conversation store based on the configuration
func NewStore(config *StoreConfig) (*GormStore, error) {
	db, err := OpenDatabase(config)
	if err != nil {
		return nil, err
	}
	return NewGormStore(db)
}

// NewSQLiteStoreSimple creates a SQLite store with just a file path
func NewSQLiteStoreSimple(dbPath string) (*GormStore, error) {
	return NewStore(NewStoreConfig("sqlite", dbPath))
}

// PostgresDSN builds a PostgreSQL connection string.
func PostgresDSN(host, user, password, dbname string, port int) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		host, user, password, dbname, port)
}

// MySQLDSN builds a MySQL connection string with time parsing enabled.
func MySQLDSN(host, user, password, dbname string, port int) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbname)
}
