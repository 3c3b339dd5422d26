package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sentinelai/sentinel-alerts/internal/config"
	"github.com/sentinelai/sentinel-alerts/internal/metrics"
	"github.com/sentinelai/sentinel-alerts/internal/models"
	"github.com/sentinelai/sentinel-alerts/internal/notifications"
	"github.com/sentinelai/sentinel-alerts/internal/sentiment"
	"github.com/sentinelai/sentinel-alerts/internal/sources"
	"github.com/sentinelai/sentinel-alerts/internal/storage"
	"github.com/sirupsen/logrus"
)

// Origin labels for created alerts
const (
	OriginPoll   = "poll"
	OriginManual = "manual"
)

// Classifier scores a post's text
type Classifier interface {
	Classify(ctx context.Context, text string) (sentiment.Result, error)
}

// Service runs the poll tick: fetch, classify, persist negatives, fan out
type Service struct {
	config     *config.Config
	store      storage.AlertStore
	notifier   notifications.Notifier
	classifier Classifier
	sources    []sources.Source
	prom       *metrics.Metrics
	status     *Status
	mu         sync.RWMutex
}

// Status holds run statistics across ticks
type Status struct {
	Runs               int            `json:"runs"`
	LastRun            time.Time      `json:"last_run"`
	LastRunDuration    string         `json:"last_run_duration"`
	LastError          string         `json:"last_error,omitempty"`
	ErrorCount         int            `json:"error_count"`
	TotalPosts         int            `json:"total_posts"`
	TotalAlerts        int            `json:"total_alerts"`
	SourceMetrics      map[string]int `json:"source_metrics"`
	SentimentBreakdown map[string]int `json:"sentiment_breakdown"`
}

// TickStats summarises a single tick
type TickStats struct {
	Skipped    bool           `json:"skipped"`
	Posts      int            `json:"posts"`
	Alerts     int            `json:"alerts"`
	Duplicates int            `json:"duplicates"`
	PerSource  map[string]int `json:"per_source"`
	Sentiments map[string]int `json:"sentiments"`
}

// NewSources returns the social sources in poll order
func NewSources(cfg *config.Config) []sources.Source {
	return []sources.Source{
		sources.NewTwitterSource(cfg.TwitterBearerToken, cfg.TwitterAPIURL),
		sources.NewRedditSource(cfg.RedditClientID, cfg.RedditClientSecret),
	}
}

// NewService creates a new monitoring service
func NewService(cfg *config.Config, store storage.AlertStore, notifier notifications.Notifier,
	classifier Classifier, srcs []sources.Source, prom *metrics.Metrics) *Service {
	return &Service{
		config:     cfg,
		store:      store,
		notifier:   notifier,
		classifier: classifier,
		sources:    srcs,
		prom:       prom,
		status: &Status{
			SourceMetrics:      make(map[string]int),
			SentimentBreakdown: make(map[string]int),
		},
	}
}

// RunMonitoring performs one poll tick. Sources are polled in order and posts are
// handled one at a time; the first error ends the tick.
func (s *Service) RunMonitoring(ctx context.Context) (TickStats, error) {
	start := time.Now()
	stats := TickStats{
		PerSource:  make(map[string]int),
		Sentiments: make(map[string]int),
	}

	enabled := s.enabledSources()
	if len(enabled) == 0 {
		logrus.Info("No social source credentials configured; skipping fetch")
		stats.Skipped = true
		return stats, nil
	}

	logrus.Infof("Starting monitoring run across %d sources", len(enabled))

	err := s.poll(ctx, enabled, &stats)
	duration := time.Since(start)
	s.recordRun(stats, duration, err)

	if err != nil {
		logrus.WithError(err).Error("Monitoring run ended early")
		return stats, err
	}

	logrus.WithFields(logrus.Fields{
		"posts":      stats.Posts,
		"alerts":     stats.Alerts,
		"duplicates": stats.Duplicates,
		"duration":   duration.String(),
	}).Info("Monitoring run completed")

	return stats, nil
}

func (s *Service) enabledSources() []sources.Source {
	var enabled []sources.Source
	for _, src := range s.sources {
		if src.IsEnabled() {
			enabled = append(enabled, src)
		}
	}
	return enabled
}

func (s *Service) poll(ctx context.Context, enabled []sources.Source, stats *TickStats) error {
	for _, src := range enabled {
		logrus.Infof("Fetching recent posts from %s", src.GetName())

		posts, err := src.FetchRecent(ctx, s.config.BrandQuery, s.config.MaxResults)
		if err != nil {
			return fmt.Errorf("fetching from %s: %w", src.GetName(), err)
		}

		logrus.Infof("Found %d posts from %s", len(posts), src.GetName())
		stats.PerSource[src.GetName()] += len(posts)

		for _, post := range posts {
			if err := s.handlePost(ctx, post, stats); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Service) handlePost(ctx context.Context, post models.Post, stats *TickStats) error {
	stats.Posts++

	if strings.TrimSpace(post.Text) == "" {
		return nil
	}

	result, err := s.classifier.Classify(ctx, post.Text)
	if err != nil {
		return fmt.Errorf("classifying %s: %w", post.Ref(), err)
	}
	stats.Sentiments[string(result.Sentiment)]++

	if result.Sentiment != models.SentimentNegative {
		return nil
	}

	alert, created, err := s.store.CreateAlert(ctx, s.buildAlert(post, result))
	if err != nil {
		return fmt.Errorf("persisting %s: %w", post.Ref(), err)
	}

	if !created {
		logrus.Debugf("Post %s already recorded as alert %d", post.Ref(), alert.ID)
		stats.Duplicates++
		return nil
	}

	stats.Alerts++
	if s.prom != nil {
		s.prom.AlertsCreated.WithLabelValues(OriginPoll).Inc()
	}
	logrus.WithFields(logrus.Fields{
		"alert":    alert.ID,
		"platform": alert.Platform,
		"urgency":  alert.Urgency,
	}).Infof("New alert: %s", alert.Message)

	event := models.AlertEvent{Type: models.EventNewAlert, Data: *alert}
	if err := s.notifier.NotifyAlert(ctx, event); err != nil {
		logrus.WithError(err).Warnf("Alert %d was stored but some notifications failed", alert.ID)
	}

	return nil
}

func (s *Service) buildAlert(post models.Post, result sentiment.Result) models.AlertCreate {
	customer := post.Author
	if customer == "" {
		customer = "Anonymous"
	}

	reach := post.Impressions
	if reach <= 0 {
		reach = s.config.DefaultReach
	}

	score := result.Score
	in := models.AlertCreate{
		Customer:            customer,
		Platform:            post.Platform,
		Sentiment:           result.Sentiment,
		Urgency:             result.Urgency,
		Score:               &score,
		Message:             post.Text,
		Reach:               reach,
		Engagement:          post.Likes + post.Reshares,
		RecommendedResponse: sentiment.Recommend(result.Sentiment),
	}
	if s.config.DedupeBySourceRef {
		in.SourceRef = post.Ref()
	}
	return in
}

func (s *Service) recordRun(stats TickStats, duration time.Duration, runErr error) {
	if s.prom != nil {
		s.prom.Ticks.Inc()
		s.prom.TickDuration.Observe(duration.Seconds())
		if runErr != nil {
			s.prom.TickErrors.Inc()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.status.Runs++
	s.status.LastRun = time.Now()
	s.status.LastRunDuration = duration.String()
	s.status.TotalPosts += stats.Posts
	s.status.TotalAlerts += stats.Alerts
	s.status.LastError = ""
	if runErr != nil {
		s.status.ErrorCount++
		s.status.LastError = runErr.Error()
	}

	for name, n := range stats.PerSource {
		s.status.SourceMetrics[name] += n
	}
	for label, n := range stats.Sentiments {
		s.status.SentimentBreakdown[label] += n
	}
}

// GetStatus returns a copy of the accumulated run statistics
func (s *Service) GetStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := *s.status
	out.SourceMetrics = make(map[string]int, len(s.status.SourceMetrics))
	for k, v := range s.status.SourceMetrics {
		out.SourceMetrics[k] = v
	}
	out.SentimentBreakdown = make(map[string]int, len(s.status.SentimentBreakdown))
	for k, v := range s.status.SentimentBreakdown {
		out.SentimentBreakdown[k] = v
	}
	return out
}

// GetMetrics returns current run statistics as JSON
func (s *Service) GetMetrics() string {
	data, err := json.MarshalIndent(s.GetStatus(), "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": "failed to marshal metrics: %v"}`, err)
	}
	return string(data)
}
