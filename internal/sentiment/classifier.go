package sentiment

import (
	"context"
	"fmt"
	"strings"

	"github.com/sentinelai/sentinel-alerts/internal/models"
)

// HighUrgencyConfidence is the negative-confidence level above which an alert is high urgency
const HighUrgencyConfidence = 0.8

// Prediction is the raw output of a sentiment model
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Model is a pretrained sentiment model
type Model interface {
	Name() string
	Predict(ctx context.Context, text string) (Prediction, error)
}

// Result is a classified text
type Result struct {
	Sentiment models.Sentiment
	Urgency   models.Urgency
	Score     float64 // signed: negative labels yield -confidence
}

// Classifier maps model predictions to sentiment, urgency and a signed score
type Classifier struct {
	model Model
}

// NewClassifier creates a classifier around the given model
func NewClassifier(model Model) *Classifier {
	return &Classifier{model: model}
}

// ModelName returns the name of the underlying model
func (c *Classifier) ModelName() string {
	return c.model.Name()
}

// Classify runs the model once; errors are returned to the caller unchanged in kind.
func (c *Classifier) Classify(ctx context.Context, text string) (Result, error) {
	prediction, err := c.model.Predict(ctx, text)
	if err != nil {
		return Result{}, fmt.Errorf("classify with %s: %w", c.model.Name(), err)
	}
	return FromPrediction(prediction), nil
}

// FromPrediction applies the label/confidence mapping
func FromPrediction(p Prediction) Result {
	switch strings.ToLower(p.Label) {
	case "negative":
		urgency := models.UrgencyMedium
		if p.Score > HighUrgencyConfidence {
			urgency = models.UrgencyHigh
		}
		return Result{Sentiment: models.SentimentNegative, Urgency: urgency, Score: -p.Score}
	case "positive":
		return Result{Sentiment: models.SentimentPositive, Urgency: models.UrgencyLow, Score: p.Score}
	default:
		return Result{Sentiment: models.SentimentNeutral, Urgency: models.UrgencyLow, Score: p.Score}
	}
}
