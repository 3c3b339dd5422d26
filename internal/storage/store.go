package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/sentinelai/sentinel-alerts/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var (
	// ErrAlertNotFound is returned when an alert id does not exist
	ErrAlertNotFound = errors.New("alert not found")
	// ErrInvalidStatus is returned for status values outside the known set
	ErrInvalidStatus = errors.New("invalid alert status")
)

const (
	defaultListLimit     = 100
	defaultCriticalLimit = 5
	defaultTrendDays     = 7
)

// Store persists alerts and platform aggregates through gorm
type Store struct {
	db *gorm.DB
}

// Ensure Store implements AlertStore
var _ AlertStore = (*Store)(nil)

// Open connects to the configured database ("postgres" or "sqlite")
func Open(driver, dsn string, debug bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	level := gormLogger.Warn
	if debug {
		level = gormLogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  gormLogger.Default.LogMode(level),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	logrus.Infof("Connected to %s database", driver)
	return db, nil
}

// NewStore wraps an open gorm handle
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the schema
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&models.Alert{}, &models.Platform{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
