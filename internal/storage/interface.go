package storage

import (
	"context"

	"github.com/sentinelai/sentinel-alerts/internal/models"
)

// AlertStore defines the contract for alert and platform persistence
type AlertStore interface {
	ListAlerts(ctx context.Context, filter models.AlertFilter) ([]models.Alert, error)
	// CreateAlert inserts an alert; created is false when the source reference already exists
	CreateAlert(ctx context.Context, in models.AlertCreate) (alert *models.Alert, created bool, err error)
	GetAlert(ctx context.Context, id uint) (*models.Alert, error)
	// UpdateAlert merges patch; resolved is true only when the alert moved into the resolved status
	UpdateAlert(ctx context.Context, id uint, patch models.AlertUpdate) (alert *models.Alert, resolved bool, err error)
	CriticalAlerts(ctx context.Context, limit int) ([]models.Alert, error)
	Platforms(ctx context.Context) ([]models.Platform, error)
	Trend(ctx context.Context, days int) (*models.AnalyticsTrend, error)
}

// ArchiveInterface defines the contract for blob archive operations
type ArchiveInterface interface {
	Store(ctx context.Context, filename string, data []byte) error
	List(ctx context.Context, prefix string) ([]string, error)
}
