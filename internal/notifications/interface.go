package notifications

import (
	"context"

	"github.com/sentinelai/sentinel-alerts/internal/models"
	"gopkg.in/gomail.v2"
)

// Notifier delivers alert events to every configured channel
type Notifier interface {
	NotifyAlert(ctx context.Context, event models.AlertEvent) error
}

// Publisher pushes events to live viewers
type Publisher interface {
	Publish(ctx context.Context, event models.AlertEvent) error
}

// MailSender sends a composed email. *gomail.Dialer satisfies it.
type MailSender interface {
	DialAndSend(m ...*gomail.Message) error
}
