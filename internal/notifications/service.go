package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sentinelai/sentinel-alerts/internal/config"
	"github.com/sentinelai/sentinel-alerts/internal/metrics"
	"github.com/sentinelai/sentinel-alerts/internal/models"
	"github.com/sentinelai/sentinel-alerts/internal/storage"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

const (
	sinkLive    = "live"
	sinkSlack   = "slack"
	sinkEmail   = "email"
	sinkArchive = "archive"

	slackPreviewRunes = 100
)

// Service fans alert events out to live viewers, the chat webhook, the support
// mailbox and the blob archive. Each sink is independent.
type Service struct {
	config  *config.Config
	client  *resty.Client
	live    Publisher
	mailer  MailSender
	archive storage.ArchiveInterface
	metrics *metrics.Metrics
}

// Ensure Service implements Notifier
var _ Notifier = (*Service)(nil)

// Option customises a Service
type Option func(*Service)

// WithLive sets the live viewer publisher
func WithLive(p Publisher) Option {
	return func(s *Service) { s.live = p }
}

// WithMailer overrides the SMTP dialer
func WithMailer(m MailSender) Option {
	return func(s *Service) { s.mailer = m }
}

// WithArchive enables the blob archive sink
func WithArchive(a storage.ArchiveInterface) Option {
	return func(s *Service) { s.archive = a }
}

// WithMetrics records per-sink outcomes
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a new notification service
func NewService(cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
	if cfg.EmailEnabled() {
		s.mailer = gomail.NewDialer(cfg.EmailHost, cfg.EmailPort, cfg.EmailUser, cfg.EmailPass)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NotifyAlert delivers the event to every configured sink. A failing sink is
// logged and does not stop the others; the returned error lists all failures.
func (s *Service) NotifyAlert(ctx context.Context, event models.AlertEvent) error {
	var errors []string

	s.deliver(ctx, sinkLive, s.live != nil, event, s.publishLive, &errors)
	s.deliver(ctx, sinkSlack, s.config.SlackWebhookURL != "", event, s.sendToSlack, &errors)
	s.deliver(ctx, sinkEmail, s.mailer != nil, event, s.sendEmail, &errors)
	s.deliver(ctx, sinkArchive, s.archive != nil, event, s.archiveEvent, &errors)

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}
	return nil
}

func (s *Service) deliver(ctx context.Context, sink string, enabled bool, event models.AlertEvent,
	send func(context.Context, models.AlertEvent) error, errors *[]string) {
	if !enabled {
		s.record(sink, metrics.OutcomeSkipped)
		return
	}

	log := logrus.WithFields(logrus.Fields{
		"sink":  sink,
		"event": event.Type,
		"alert": event.Data.ID,
	})

	if err := send(ctx, event); err != nil {
		log.WithError(err).Error("Failed to deliver alert notification")
		*errors = append(*errors, fmt.Sprintf("%s: %v", sink, err))
		s.record(sink, metrics.OutcomeFailed)
		return
	}

	log.Debug("Delivered alert notification")
	s.record(sink, metrics.OutcomeSent)
}

func (s *Service) record(sink, outcome string) {
	if s.metrics != nil {
		s.metrics.Notifications.WithLabelValues(sink, outcome).Inc()
	}
}

func (s *Service) publishLive(ctx context.Context, event models.AlertEvent) error {
	return s.live.Publish(ctx, event)
}

// SlackMessage is the incoming-webhook payload
type SlackMessage struct {
	Text string `json:"text"`
}

func (s *Service) sendToSlack(ctx context.Context, event models.AlertEvent) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(buildSlackMessage(&event.Data)).
		Post(s.config.SlackWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Slack message: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("Slack webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func buildSlackMessage(alert *models.Alert) *SlackMessage {
	preview := []rune(alert.Message)
	if len(preview) > slackPreviewRunes {
		preview = preview[:slackPreviewRunes]
	}
	return &SlackMessage{
		Text: fmt.Sprintf("🚨 %s: %s...\nRec: %s",
			strings.ToUpper(string(alert.Urgency)), string(preview), alert.RecommendedResponse),
	}
}

func (s *Service) sendEmail(_ context.Context, event models.AlertEvent) error {
	m := buildEmail(s.config, &event.Data)
	if err := s.mailer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func buildEmail(cfg *config.Config, alert *models.Alert) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", sender(cfg))
	m.SetHeader("To", cfg.SupportEmail)
	m.SetHeader("Subject", fmt.Sprintf("SentinelAI Alert: %s", alert.Urgency))
	m.SetBody("text/plain", fmt.Sprintf("Alert: %s\nRecommendation: %s", alert.Message, alert.RecommendedResponse))
	return m
}

// sender falls back to the support address when no relay user is configured
func sender(cfg *config.Config) string {
	if cfg.EmailUser != "" {
		return cfg.EmailUser
	}
	return cfg.SupportEmail
}

func (s *Service) archiveEvent(ctx context.Context, event models.AlertEvent) error {
	data, err := json.MarshalIndent(event, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return s.archive.Store(ctx, archiveName(event, time.Now().UTC()), data)
}

// archiveName lays blobs out as alerts/YYYY/MM/DD/<id>-<event>-<unix nanos>.json
func archiveName(event models.AlertEvent, now time.Time) string {
	return fmt.Sprintf("%s%d-%s-%d.json", archivePrefix(now), event.Data.ID, event.Type, now.UnixNano())
}

func archivePrefix(day time.Time) string {
	return "alerts/" + day.UTC().Format("2006/01/02") + "/"
}

// ListArchived returns the archived event blobs for the given number of days
// ending at until, oldest day first
func ListArchived(ctx context.Context, archive storage.ArchiveInterface, until time.Time, days int) ([]string, error) {
	if days <= 0 {
		return nil, fmt.Errorf("days must be positive, got %d", days)
	}

	var names []string
	for i := days - 1; i >= 0; i-- {
		prefix := archivePrefix(until.AddDate(0, 0, -i))
		blobs, err := archive.List(ctx, prefix)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
		}
		sort.Strings(blobs)
		names = append(names, blobs...)
	}
	return names, nil
}
