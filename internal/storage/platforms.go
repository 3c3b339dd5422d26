package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/sentinelai/sentinel-alerts/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type platformAggregate struct {
	Mentions int64
	Average  float64
}

// upsertPlatform recomputes the rollup for one platform from its alerts.
// Safe to call repeatedly for the same platform.
func upsertPlatform(tx *gorm.DB, name string) error {
	var agg platformAggregate
	err := tx.Model(&models.Alert{}).
		Select("COUNT(*) AS mentions, COALESCE(AVG(score), 0) AS average").
		Where("platform = ?", name).
		Scan(&agg).Error
	if err != nil {
		return fmt.Errorf("failed to aggregate platform %s: %w", name, err)
	}

	platform := models.Platform{
		Name:         name,
		Mentions:     int(agg.Mentions),
		SentimentAvg: agg.Average,
		UpdatedAt:    time.Now().UTC(),
	}

	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"mentions", "sentiment_avg", "updated_at"}),
	}).Create(&platform).Error
	if err != nil {
		return fmt.Errorf("failed to upsert platform %s: %w", name, err)
	}

	return nil
}

// Platforms returns every platform rollup ordered by name
func (s *Store) Platforms(ctx context.Context) ([]models.Platform, error) {
	var platforms []models.Platform
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&platforms).Error; err != nil {
		return nil, fmt.Errorf("failed to list platforms: %w", err)
	}
	return platforms, nil
}
