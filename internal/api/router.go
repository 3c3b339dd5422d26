package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/sentinelai/sentinel-alerts/internal/metrics"
	"github.com/sentinelai/sentinel-alerts/internal/monitoring"
	"github.com/sentinelai/sentinel-alerts/internal/notifications"
	"github.com/sentinelai/sentinel-alerts/internal/realtime"
	"github.com/sentinelai/sentinel-alerts/internal/storage"
	"github.com/sirupsen/logrus"
)

// Monitor is the poll loop as seen by the API
type Monitor interface {
	RunMonitoring(ctx context.Context) (monitoring.TickStats, error)
	GetMetrics() string
}

// Handler serves the alert, platform and analytics API
type Handler struct {
	store    storage.AlertStore
	notifier notifications.Notifier
	monitor  Monitor
	hub      *realtime.Hub
	prom     *metrics.Metrics

	// triggerTimeout bounds a manually triggered tick
	triggerTimeout time.Duration
}

// NewHandler creates the API handler
func NewHandler(store storage.AlertStore, notifier notifications.Notifier, monitor Monitor,
	hub *realtime.Hub, prom *metrics.Metrics) *Handler {
	return &Handler{
		store:          store,
		notifier:       notifier,
		monitor:        monitor,
		hub:            hub,
		prom:           prom,
		triggerTimeout: 5 * time.Minute,
	}
}

// Router wires every route and wraps them in a permissive CORS policy
func (h *Handler) Router() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", h.health).Methods(http.MethodGet)
	if h.prom != nil {
		router.Handle("/metrics", h.prom.Handler()).Methods(http.MethodGet)
	}
	if h.hub != nil {
		router.HandleFunc("/ws", h.hub.ServeWS)
	}

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/alerts", h.listAlerts).Methods(http.MethodGet)
	api.HandleFunc("/alerts", h.createAlert).Methods(http.MethodPost)
	api.HandleFunc("/alerts/{id:[0-9]+}", h.updateAlert).Methods(http.MethodPut)
	api.HandleFunc("/critical-alerts", h.criticalAlerts).Methods(http.MethodGet)

	api.HandleFunc("/platforms", h.platforms).Methods(http.MethodGet)
	api.HandleFunc("/analytics/trend", h.trend).Methods(http.MethodGet)

	api.HandleFunc("/settings/thresholds", h.getThresholds).Methods(http.MethodGet)
	api.HandleFunc("/settings/thresholds", h.updateThresholds).Methods(http.MethodPut)
	api.HandleFunc("/monitors", h.monitors).Methods(http.MethodGet)
	api.HandleFunc("/channels", h.channels).Methods(http.MethodGet)
	api.HandleFunc("/keywords", h.keywords).Methods(http.MethodGet)

	if h.monitor != nil {
		api.HandleFunc("/monitoring/trigger", h.trigger).Methods(http.MethodPost)
		api.HandleFunc("/monitoring/status", h.monitoringStatus).Methods(http.MethodGet)
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           300,
	})(router)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"viewers":   h.viewerCount(),
	})
}

func (h *Handler) viewerCount() int {
	if h.hub == nil {
		return 0
	}
	return h.hub.Count()
}

func (h *Handler) trigger(w http.ResponseWriter, r *http.Request) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.triggerTimeout)
		defer cancel()
		if _, err := h.monitor.RunMonitoring(ctx); err != nil {
			logrus.Errorf("Manual monitoring trigger failed: %v", err)
		}
	}()

	respondJSON(w, http.StatusOK, map[string]string{"message": "Monitoring triggered successfully"})
}

func (h *Handler) monitoringStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(h.monitor.GetMetrics()))
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.WithError(err).Error("Failed to encode JSON response")
	}
}

// respondError writes {"detail": message}
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"detail": message})
}
