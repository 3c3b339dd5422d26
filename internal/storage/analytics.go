package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sentinelai/sentinel-alerts/internal/models"
)

type scoredAlert struct {
	CreatedAt time.Time
	Score     float64
}

// Trend averages alert scores per UTC calendar day over the trailing window.
// Grouping happens here rather than in SQL because date functions differ between
// the postgres and sqlite drivers.
func (s *Store) Trend(ctx context.Context, days int) (*models.AnalyticsTrend, error) {
	if days <= 0 {
		days = defaultTrendDays
	}
	start := time.Now().UTC().AddDate(0, 0, -days)

	var rows []scoredAlert
	err := s.db.WithContext(ctx).
		Model(&models.Alert{}).
		Select("created_at, score").
		Where("created_at >= ?", start).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load trend window: %w", err)
	}

	return buildTrend(rows), nil
}

func buildTrend(rows []scoredAlert) *models.AnalyticsTrend {
	type bucket struct {
		sum   float64
		count int
	}

	buckets := make(map[string]*bucket)
	for _, row := range rows {
		day := row.CreatedAt.UTC().Format("2006-01-02")
		b, ok := buckets[day]
		if !ok {
			b = &bucket{}
			buckets[day] = b
		}
		b.sum += row.Score
		b.count++
	}

	dates := make([]string, 0, len(buckets))
	for day := range buckets {
		dates = append(dates, day)
	}
	sort.Strings(dates)

	trend := &models.AnalyticsTrend{
		Dates:      dates,
		Sentiments: make([]float64, 0, len(dates)),
	}
	for _, day := range dates {
		b := buckets[day]
		trend.Sentiments = append(trend.Sentiments, b.sum/float64(b.count))
	}

	return trend
}
