package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sentinelai/sentinel-alerts/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ListAlerts returns alerts newest-first, filtered by exact sentiment and a
// case-insensitive substring match on customer or message.
func (s *Store) ListAlerts(ctx context.Context, filter models.AlertFilter) ([]models.Alert, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	skip := filter.Skip
	if skip < 0 {
		skip = 0
	}

	query := s.db.WithContext(ctx).Model(&models.Alert{})

	if filter.Sentiment != "" && filter.Sentiment != "all" {
		query = query.Where("sentiment = ?", filter.Sentiment)
	}

	if term := strings.TrimSpace(filter.Search); term != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
		query = query.Where(`(LOWER(customer) LIKE ? ESCAPE '\' OR LOWER(message) LIKE ? ESCAPE '\')`, pattern, pattern)
	}

	var alerts []models.Alert
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Offset(skip).
		Limit(limit).
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}

	return alerts, nil
}

// CreateAlert inserts the alert and refreshes its platform aggregate in one transaction.
// With a source reference set, a repeat insert leaves the table untouched and returns the
// existing row with created=false.
func (s *Store) CreateAlert(ctx context.Context, in models.AlertCreate) (*models.Alert, bool, error) {
	alert := models.Alert{
		Customer:            in.Customer,
		Platform:            in.Platform,
		Sentiment:           in.Sentiment,
		Urgency:             in.Urgency,
		Score:               in.ScoreValue(),
		Message:             in.Message,
		Status:              models.StatusPending,
		Reach:               in.Reach,
		Engagement:          in.Engagement,
		RecommendedResponse: in.RecommendedResponse,
	}
	if in.SourceRef != "" {
		ref := in.SourceRef
		alert.SourceRef = &ref
	}

	created := true
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source_ref"}},
			DoNothing: true,
		}).Create(&alert)
		if result.Error != nil {
			return fmt.Errorf("failed to insert alert: %w", result.Error)
		}

		if result.RowsAffected == 0 {
			created = false
			return tx.Where("source_ref = ?", in.SourceRef).First(&alert).Error
		}

		return upsertPlatform(tx, alert.Platform)
	})
	if err != nil {
		return nil, false, err
	}

	return &alert, created, nil
}

// GetAlert loads a single alert
func (s *Store) GetAlert(ctx context.Context, id uint) (*models.Alert, error) {
	var alert models.Alert
	if err := s.db.WithContext(ctx).First(&alert, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAlertNotFound
		}
		return nil, fmt.Errorf("failed to load alert %d: %w", id, err)
	}
	return &alert, nil
}

// UpdateAlert applies a partial update. Entering the resolved status stamps resolved_at,
// leaving it clears the stamp, so resolved_at is set exactly while the alert is resolved.
func (s *Store) UpdateAlert(ctx context.Context, id uint, patch models.AlertUpdate) (*models.Alert, bool, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, false, fmt.Errorf("%w: %q", ErrInvalidStatus, *patch.Status)
	}

	var alert models.Alert
	resolved := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&alert, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAlertNotFound
			}
			return err
		}

		updates := map[string]interface{}{}

		if patch.ResponseText != nil {
			updates["response_text"] = *patch.ResponseText
		}

		if patch.Status != nil && *patch.Status != alert.Status {
			updates["status"] = string(*patch.Status)
			if *patch.Status == models.StatusResolved {
				updates["resolved_at"] = time.Now().UTC()
				resolved = true
			} else {
				updates["resolved_at"] = nil
			}
		}

		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&alert).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update alert %d: %w", id, err)
		}

		return tx.First(&alert, id).Error
	})
	if err != nil {
		return nil, false, err
	}

	return &alert, resolved, nil
}

// CriticalAlerts returns the newest high-urgency alerts
func (s *Store) CriticalAlerts(ctx context.Context, limit int) ([]models.Alert, error) {
	if limit <= 0 {
		limit = defaultCriticalLimit
	}

	var alerts []models.Alert
	err := s.db.WithContext(ctx).
		Where("urgency = ?", models.UrgencyHigh).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list critical alerts: %w", err)
	}

	return alerts, nil
}
