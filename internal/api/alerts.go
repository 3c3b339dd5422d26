package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sentinelai/sentinel-alerts/internal/models"
	"github.com/sentinelai/sentinel-alerts/internal/monitoring"
	"github.com/sentinelai/sentinel-alerts/internal/sentiment"
	"github.com/sentinelai/sentinel-alerts/internal/storage"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// manual alerts without a score get the extreme of their sentiment
var defaultScores = map[models.Sentiment]float64{
	models.SentimentNegative: -1,
	models.SentimentNeutral:  0,
	models.SentimentPositive: 1,
}

func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	skip, err := queryInt(q.Get("skip"), 0)
	if err != nil || skip < 0 {
		respondError(w, http.StatusBadRequest, "skip must be a non-negative integer")
		return
	}
	limit, err := queryInt(q.Get("limit"), 100)
	if err != nil || limit < 0 {
		respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	// the store treats a zero limit as unset
	if limit == 0 {
		respondJSON(w, http.StatusOK, []models.Alert{})
		return
	}

	alerts, err := h.store.ListAlerts(r.Context(), models.AlertFilter{
		Sentiment: q.Get("sentiment"),
		Search:    q.Get("search"),
		Skip:      skip,
		Limit:     limit,
	})
	if err != nil {
		h.internalError(w, "list alerts", err)
		return
	}

	respondJSON(w, http.StatusOK, nonNil(alerts))
}

func (h *Handler) createAlert(w http.ResponseWriter, r *http.Request) {
	var in models.AlertCreate
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := validateCreate(&in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	alert, _, err := h.store.CreateAlert(r.Context(), in)
	if err != nil {
		h.internalError(w, "create alert", err)
		return
	}

	if h.prom != nil {
		h.prom.AlertsCreated.WithLabelValues(monitoring.OriginManual).Inc()
	}
	logrus.WithFields(logrus.Fields{"alert": alert.ID, "platform": alert.Platform}).Info("Manual alert created")

	h.fanOut(r, models.EventNewAlert, alert)
	respondJSON(w, http.StatusOK, alert)
}

// validateCreate checks the payload and fills derived fields
func validateCreate(in *models.AlertCreate) error {
	in.Customer = strings.TrimSpace(in.Customer)
	in.Platform = strings.TrimSpace(in.Platform)
	in.SourceRef = ""

	switch {
	case in.Customer == "":
		return fmt.Errorf("customer is required")
	case in.Platform == "":
		return fmt.Errorf("platform is required")
	case strings.TrimSpace(in.Message) == "":
		return fmt.Errorf("message is required")
	case !in.Sentiment.Valid():
		return fmt.Errorf("sentiment must be one of negative, neutral, positive")
	case !in.Urgency.Valid():
		return fmt.Errorf("urgency must be one of high, medium, low")
	case in.Reach < 0 || in.Engagement < 0:
		return fmt.Errorf("reach and engagement must not be negative")
	case in.Score != nil && (*in.Score < -1 || *in.Score > 1):
		return fmt.Errorf("score must be between -1 and 1")
	}

	if in.Score == nil {
		score := defaultScores[in.Sentiment]
		in.Score = &score
	}
	if strings.TrimSpace(in.RecommendedResponse) == "" {
		in.RecommendedResponse = sentiment.Recommend(in.Sentiment)
	}
	return nil
}

func (h *Handler) updateAlert(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid alert id")
		return
	}

	var patch models.AlertUpdate
	if err := decodeJSON(w, r, &patch); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if patch.Status == nil && patch.ResponseText == nil {
		respondError(w, http.StatusBadRequest, "status or response_text is required")
		return
	}

	alert, resolved, err := h.store.UpdateAlert(r.Context(), uint(id), patch)
	switch {
	case errors.Is(err, storage.ErrAlertNotFound):
		respondError(w, http.StatusNotFound, "Alert not found")
		return
	case errors.Is(err, storage.ErrInvalidStatus):
		respondError(w, http.StatusBadRequest, "status must be one of pending, in-progress, resolved")
		return
	case err != nil:
		h.internalError(w, "update alert", err)
		return
	}

	if resolved {
		logrus.WithField("alert", alert.ID).Info("Alert resolved")
		h.fanOut(r, models.EventAlertResolved, alert)
	}

	respondJSON(w, http.StatusOK, alert)
}

func (h *Handler) criticalAlerts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r.URL.Query().Get("limit"), 5)
	if err != nil || limit < 0 {
		respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	if limit == 0 {
		respondJSON(w, http.StatusOK, []models.Alert{})
		return
	}

	alerts, err := h.store.CriticalAlerts(r.Context(), limit)
	if err != nil {
		h.internalError(w, "list critical alerts", err)
		return
	}

	respondJSON(w, http.StatusOK, nonNil(alerts))
}

// fanOut notifies every sink; failures are logged and never fail the request
func (h *Handler) fanOut(r *http.Request, eventType string, alert *models.Alert) {
	if h.notifier == nil {
		return
	}
	event := models.AlertEvent{Type: eventType, Data: *alert}
	if err := h.notifier.NotifyAlert(r.Context(), event); err != nil {
		logrus.WithError(err).Warnf("Alert %d saved but some notifications failed", alert.ID)
	}
}

func (h *Handler) internalError(w http.ResponseWriter, op string, err error) {
	logrus.WithError(err).Errorf("Failed to %s", op)
	respondError(w, http.StatusInternalServerError, "internal server error")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %v", err)
	}
	return nil
}

func queryInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func nonNil(alerts []models.Alert) []models.Alert {
	if alerts == nil {
		return []models.Alert{}
	}
	return alerts
}
