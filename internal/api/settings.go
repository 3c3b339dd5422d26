package api

import (
	"net/http"

	"github.com/sirupsen/logrus"
)

// Threshold is a display setting on the dashboard
type Threshold struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Channel is a notification channel and its connection state
type Channel struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Type   string `json:"type"`
}

var defaultThresholds = []Threshold{
	{Label: "High Priority Threshold", Value: "85"},
	{Label: "Medium Priority Threshold", Value: "60"},
	{Label: "Minimum Reach for Alert", Value: "500"},
	{Label: "Sentiment Score Threshold", Value: "-0.7"},
}

var defaultMonitors = []string{
	"Twitter #brand",
	"Product Reviews",
	"Support Forums",
	"Facebook Page",
	"Reddit r/products",
}

var defaultChannels = []Channel{
	{Name: "Slack #support", Status: "Connected", Type: "connected"},
	{Name: "Email Alerts", Status: "Connected", Type: "connected"},
	{Name: "SMS Notifications", Status: "Enabled", Type: "enabled"},
	{Name: "Webhook API", Status: "Connected", Type: "connected"},
}

var defaultKeywords = []string{
	"refund", "broken", "terrible", "disappointed", "worst",
	"scam", "lawsuit", "never again", "poor quality", "unacceptable",
}

func (h *Handler) platforms(w http.ResponseWriter, r *http.Request) {
	platforms, err := h.store.Platforms(r.Context())
	if err != nil {
		h.internalError(w, "list platforms", err)
		return
	}
	if platforms == nil {
		respondJSON(w, http.StatusOK, []struct{}{})
		return
	}
	respondJSON(w, http.StatusOK, platforms)
}

func (h *Handler) trend(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r.URL.Query().Get("days"), 7)
	if err != nil || days <= 0 {
		respondError(w, http.StatusBadRequest, "days must be a positive integer")
		return
	}

	trend, err := h.store.Trend(r.Context(), days)
	if err != nil {
		h.internalError(w, "compute trend", err)
		return
	}

	respondJSON(w, http.StatusOK, trend)
}

func (h *Handler) getThresholds(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, defaultThresholds)
}

// updateThresholds accepts the list but does not persist it yet
func (h *Handler) updateThresholds(w http.ResponseWriter, r *http.Request) {
	var thresholds []interface{}
	if err := decodeJSON(w, r, &thresholds); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	logrus.WithField("thresholds", thresholds).Info("Thresholds updated")
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) monitors(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, defaultMonitors)
}

func (h *Handler) channels(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, defaultChannels)
}

func (h *Handler) keywords(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, defaultKeywords)
}
