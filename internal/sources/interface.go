package sources

import (
	"context"

	"github.com/sentinelai/sentinel-alerts/internal/models"
)

// Source interface defines the contract for all social data sources
type Source interface {
	GetName() string
	IsEnabled() bool
	// FetchRecent returns up to max of the most recent posts matching query
	FetchRecent(ctx context.Context, query string, max int) ([]models.Post, error)
}
