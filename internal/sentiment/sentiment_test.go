package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sentinelai/sentinel-alerts/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubModel struct {
	prediction Prediction
	err        error
	calls      int
}

func (s *stubModel) Name() string { return "stub" }

func (s *stubModel) Predict(_ context.Context, _ string) (Prediction, error) {
	s.calls++
	return s.prediction, s.err
}

func TestFromPrediction_NegativeUrgency(t *testing.T) {
	tests := []struct {
		confidence float64
		expected   models.Urgency
	}{
		{confidence: 0.01, expected: models.UrgencyMedium},
		{confidence: 0.5, expected: models.UrgencyMedium},
		{confidence: 0.8, expected: models.UrgencyMedium},
		{confidence: 0.8000001, expected: models.UrgencyHigh},
		{confidence: 0.95, expected: models.UrgencyHigh},
		{confidence: 1.0, expected: models.UrgencyHigh},
	}

	for _, tt := range tests {
		result := FromPrediction(Prediction{Label: "NEGATIVE", Score: tt.confidence})
		assert.Equal(t, models.SentimentNegative, result.Sentiment)
		assert.Equal(t, tt.expected, result.Urgency, "confidence %v", tt.confidence)
		assert.Equal(t, -tt.confidence, result.Score)
	}
}

func TestFromPrediction_OtherLabels(t *testing.T) {
	tests := []struct {
		name      string
		label     string
		sentiment models.Sentiment
		score     float64
	}{
		{name: "Positive", label: "POSITIVE", sentiment: models.SentimentPositive, score: 0.9},
		{name: "Lowercase positive", label: "positive", sentiment: models.SentimentPositive, score: 0.7},
		{name: "Neutral", label: "NEUTRAL", sentiment: models.SentimentNeutral, score: 0.6},
		{name: "Unknown label", label: "LABEL_1", sentiment: models.SentimentNeutral, score: 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FromPrediction(Prediction{Label: tt.label, Score: tt.score})
			assert.Equal(t, tt.sentiment, result.Sentiment)
			assert.Equal(t, models.UrgencyLow, result.Urgency)
			assert.Equal(t, tt.score, result.Score)
		})
	}
}

func TestClassifier_PropagatesModelError(t *testing.T) {
	model := &stubModel{err: errors.New("model offline")}
	classifier := NewClassifier(model)

	_, err := classifier.Classify(context.Background(), "anything")

	require.Error(t, err)
	assert.ErrorIs(t, err, model.err)
	assert.Equal(t, 1, model.calls)
}

func TestClassifier_Classify(t *testing.T) {
	classifier := NewClassifier(&stubModel{prediction: Prediction{Label: "NEGATIVE", Score: 0.99}})

	result, err := classifier.Classify(context.Background(), "my order never arrived")

	require.NoError(t, err)
	assert.Equal(t, models.SentimentNegative, result.Sentiment)
	assert.Equal(t, models.UrgencyHigh, result.Urgency)
	assert.Equal(t, -0.99, result.Score)
}

func TestLexiconModel_Predict(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{
			name:     "Positive content",
			content:  "This is a great solution that works perfectly",
			expected: "POSITIVE",
		},
		{
			name:     "Negative content",
			content:  "This is terrible and broken, hate it",
			expected: "NEGATIVE",
		},
		{
			name:     "Neutral content",
			content:  "This is a documentation page about the product",
			expected: "NEUTRAL",
		},
		{
			name:     "Words containing a listed word do not match",
			content:  "Started a debug session with tissue samples from the terror film",
			expected: "NEUTRAL",
		},
		{
			name:     "Inflected negative words",
			content:  "The upgrade failed twice and the issues keep coming",
			expected: "NEGATIVE",
		},
		{
			name:     "Inflected positive words",
			content:  "Thanks, the fix is working",
			expected: "POSITIVE",
		},
		{
			name:     "Punctuation does not hide words",
			content:  "Broken!!! (refund?)",
			expected: "NEGATIVE",
		},
	}

	model := LexiconModel{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prediction, err := model.Predict(context.Background(), tt.content)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, prediction.Label)
			assert.Greater(t, prediction.Score, 0.0)
			assert.LessOrEqual(t, prediction.Score, 1.0)
		})
	}
}

func TestLexiconModel_SubstringsDoNotRaiseUrgency(t *testing.T) {
	classifier := NewClassifier(LexiconModel{})

	result, err := classifier.Classify(context.Background(), "Great debug tooling, thank you")

	require.NoError(t, err)
	assert.Equal(t, models.SentimentPositive, result.Sentiment)
	assert.Equal(t, models.UrgencyLow, result.Urgency)
}

func TestLexiconModel_UnanimousNegativeIsHighUrgency(t *testing.T) {
	classifier := NewClassifier(LexiconModel{})

	result, err := classifier.Classify(context.Background(), "Terrible, broken, worst purchase ever")

	require.NoError(t, err)
	assert.Equal(t, models.UrgencyHigh, result.Urgency)
	assert.Equal(t, -1.0, result.Score)
}

func TestRecommend(t *testing.T) {
	assert.Contains(t, Recommend(models.SentimentNegative), "Apologize sincerely")
	assert.Contains(t, Recommend(models.SentimentNeutral), "Acknowledge feedback")
	assert.Contains(t, Recommend(models.SentimentPositive), "Thank the customer")
	assert.Equal(t, FallbackRecommendation, Recommend(models.Sentiment("angry")))
	assert.Equal(t, Recommend(models.SentimentNegative), Recommend(models.SentimentNegative))
}

func TestInferenceModel_Predict(t *testing.T) {
	var gotAuth string
	var gotBody inferenceRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[[{"label":"POSITIVE","score":0.02},{"label":"NEGATIVE","score":0.98}]]`))
	}))
	defer server.Close()

	model := NewInferenceModel(server.URL, "secret")
	prediction, err := model.Predict(context.Background(), "worst support ever")

	require.NoError(t, err)
	assert.Equal(t, "NEGATIVE", prediction.Label)
	assert.Equal(t, 0.98, prediction.Score)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "worst support ever", gotBody.Inputs)
}

func TestInferenceModel_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "Server error", status: http.StatusServiceUnavailable, body: `{"error":"loading"}`},
		{name: "Empty predictions", status: http.StatusOK, body: `[]`},
		{name: "Garbage", status: http.StatusOK, body: `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewInferenceModel(server.URL, "").Predict(context.Background(), "text")
			assert.Error(t, err)
		})
	}
}

func TestParsePredictions_FlatShape(t *testing.T) {
	prediction, err := parsePredictions([]byte(`[{"label":"POSITIVE","score":0.7},{"label":"NEGATIVE","score":0.3}]`))
	require.NoError(t, err)
	assert.Equal(t, "POSITIVE", prediction.Label)
}
