package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultModelID is the pretrained model requested from the inference endpoint
const DefaultModelID = "distilbert-base-uncased-finetuned-sst-2-english"

// InferenceModel calls a hosted text-classification endpoint
type InferenceModel struct {
	url    string
	token  string
	client *resty.Client
}

var _ Model = (*InferenceModel)(nil)

type inferenceRequest struct {
	Inputs string `json:"inputs"`
}

// NewInferenceModel creates a model backed by the endpoint at url
func NewInferenceModel(url, token string) *InferenceModel {
	return &InferenceModel{
		url:   url,
		token: token,
		client: resty.New().
			SetTimeout(30*time.Second).
			SetHeader("User-Agent", "Sentinel-Alerts/1.0"),
	}
}

func (m *InferenceModel) Name() string {
	return DefaultModelID
}

// Predict returns the top-scoring label for text
func (m *InferenceModel) Predict(ctx context.Context, text string) (Prediction, error) {
	req := m.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(inferenceRequest{Inputs: text})
	if m.token != "" {
		req.SetHeader("Authorization", "Bearer "+m.token)
	}

	resp, err := req.Post(m.url)
	if err != nil {
		return Prediction{}, fmt.Errorf("inference request failed: %w", err)
	}

	if resp.StatusCode() != 200 {
		return Prediction{}, fmt.Errorf("inference endpoint returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return parsePredictions(resp.Body())
}

// parsePredictions accepts both the nested ([[...]]) and flat ([...]) response shapes
func parsePredictions(body []byte) (Prediction, error) {
	var nested [][]Prediction
	if err := json.Unmarshal(body, &nested); err == nil && len(nested) > 0 {
		return top(nested[0])
	}

	var flat []Prediction
	if err := json.Unmarshal(body, &flat); err != nil {
		return Prediction{}, fmt.Errorf("failed to parse inference response: %w", err)
	}
	return top(flat)
}

func top(predictions []Prediction) (Prediction, error) {
	if len(predictions) == 0 {
		return Prediction{}, fmt.Errorf("inference response contained no predictions")
	}

	best := predictions[0]
	for _, p := range predictions[1:] {
		if p.Score > best.Score {
			best = p
		}
	}
	return best, nil
}
