// File: internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/chat-outgoing-webhooks/internal/config"
	"github.com/smartdevs17/chat-outgoing-webhooks/internal/metrics"
	"github.com/smartdevs17/chat-outgoing-webhooks/internal/models"
	"github.com/smartdevs17/chat-outgoing-webhooks/internal/store"
	"github.com/smartdevs17/chat-outgoing-webhooks/internal/trigger"
	"github.com/smartdevs17/chat-outgoing-webhooks/pkg/utils"
)

// HTTPServer serves the admin API: integration management, history
// inspection, replay, event injection, health and metrics.
type HTTPServer struct {
	config  *config.ServerConfig
	engine  trigger.Engine
	store   store.Store
	metrics *metrics.Manager
	logger  *logrus.Entry
	server  *http.Server
	router  *mux.Router
}

// NewHTTPServer creates a new HTTP server
func NewHTTPServer(cfg *config.ServerConfig, engine trigger.Engine, st store.Store, metricsManager *metrics.Manager) *HTTPServer {
	s := &HTTPServer{
		config:  cfg,
		engine:  engine,
		store:   st,
		metrics: metricsManager,
		logger:  utils.ComponentLogger("http-server"),
	}
	s.setupRoutes()
	return s
}

func (s *HTTPServer) setupRoutes() {
	router := mux.NewRouter()

	router.Use(loggingMiddleware)
	router.Use(s.metricsMiddleware)
	router.Use(corsMiddleware)

	if s.config.EnableHealth {
		router.HandleFunc("/api/v1/health", s.handleHealth).Methods("GET")
	}
	if s.config.EnableMetrics {
		router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/stats", s.handleStats).Methods("GET")

	api.HandleFunc("/integrations", s.handleListIntegrations).Methods("GET")
	api.HandleFunc("/integrations", s.handleCreateIntegration).Methods("POST")
	api.HandleFunc("/integrations/{id}", s.handleGetIntegration).Methods("GET")
	api.HandleFunc("/integrations/{id}", s.handleDeleteIntegration).Methods("DELETE")
	api.HandleFunc("/integrations/{id}/history", s.handleIntegrationHistory).Methods("GET")
	api.HandleFunc("/integrations/{id}/history/{historyId}/replay", s.handleReplay).Methods("POST")

	api.HandleFunc("/events", s.handleInjectEvent).Methods("POST")

	s.router = router
}

// Start starts the HTTP server
func (s *HTTPServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.WithField("address", addr).Info("Starting HTTP server")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("HTTP server failed")
		}
	}()

	s.metrics.SetComponentHealth("http-server", true)
	return nil
}

// Stop gracefully shuts the HTTP server down
func (s *HTTPServer) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("Stopping HTTP server")
	s.metrics.SetComponentHealth("http-server", false)
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK

	if err := s.store.Ping(); err != nil {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	s.writeJSON(w, code, map[string]interface{}{
		"status":    status,
		"engine":    s.engine.IsRunning(),
		"timestamp": time.Now().UTC(),
	})
}

func (s *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetStoreStats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *HTTPServer) handleListIntegrations(w http.ResponseWriter, r *http.Request) {
	var enabled *bool
	if raw := r.URL.Query().Get("enabled"); raw != "" {
		value := raw == "true"
		enabled = &value
	}

	records, err := s.store.GetIntegrations(r.Context(), enabled)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if records == nil {
		records = []*models.Integration{}
	}
	s.writeJSON(w, http.StatusOK, records)
}

func (s *HTTPServer) handleCreateIntegration(w http.ResponseWriter, r *http.Request) {
	var record models.Integration
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		s.writeError(w, http.StatusBadRequest,
			utils.NewAppError(utils.ErrCodeValidation, "Invalid request body", err.Error()))
		return
	}

	if err := validateIntegration(&record); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if record.ID == "" {
		record.ID = utils.GenerateID()
	}
	if record.Token == "" {
		record.Token = utils.GenerateID()
	}
	record.Type = models.IntegrationTypeOutgoing

	if err := s.store.SaveIntegration(r.Context(), &record); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.engine.AddIntegration(&record)
	s.writeJSON(w, http.StatusCreated, &record)
}

func (s *HTTPServer) handleGetIntegration(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	record, err := s.store.GetIntegration(r.Context(), id)
	if err != nil {
		s.writeError(w, statusForError(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

func (s *HTTPServer) handleDeleteIntegration(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.store.DeleteIntegration(r.Context(), id); err != nil {
		s.writeError(w, statusForError(err), err)
		return
	}
	s.engine.RemoveIntegration(id)
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

func (s *HTTPServer) handleIntegrationHistory(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		fmt.Sscanf(raw, "%d", &limit)
	}

	entries, err := s.store.GetHistoriesByIntegration(r.Context(), id, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []*models.HistoryEntry{}
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *HTTPServer) handleReplay(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	record, err := s.store.GetIntegration(r.Context(), vars["id"])
	if err != nil {
		s.writeError(w, statusForError(err), err)
		return
	}
	history, err := s.store.GetHistory(r.Context(), vars["historyId"])
	if err != nil {
		s.writeError(w, statusForError(err), err)
		return
	}

	if err := s.engine.Replay(r.Context(), record, history); err != nil {
		s.writeError(w, statusForError(err), err)
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"status":     "replayed",
		"history_id": history.ID,
	})
}

// injectEventRequest carries an event posted through the admin API. Only the
// objects relevant to the event kind need to be present.
type injectEventRequest struct {
	Event   models.EventKind `json:"event"`
	Message *models.Message  `json:"message,omitempty"`
	Room    *models.Room     `json:"room,omitempty"`
	User    *models.User     `json:"user,omitempty"`
	Owner   *models.User     `json:"owner,omitempty"`
}

func (s *HTTPServer) handleInjectEvent(w http.ResponseWriter, r *http.Request) {
	var req injectEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest,
			utils.NewAppError(utils.ErrCodeValidation, "Invalid request body", err.Error()))
		return
	}

	if !req.Event.Valid() {
		s.writeError(w, http.StatusBadRequest,
			utils.NewAppError(utils.ErrCodeValidation, "Unsupported event kind", string(req.Event)))
		return
	}

	ctx := context.WithoutCancel(r.Context())

	switch req.Event {
	case models.EventSendMessage:
		s.engine.ExecuteTriggers(ctx, req.Event, req.Message, req.Room)
	case models.EventFileUploaded:
		s.engine.ExecuteTriggers(ctx, req.Event, &models.FileUploadContext{
			User:    req.User,
			Room:    req.Room,
			Message: req.Message,
		})
	case models.EventRoomArchived:
		s.engine.ExecuteTriggers(ctx, req.Event, req.Room, req.User)
	case models.EventRoomCreated:
		s.engine.ExecuteTriggers(ctx, req.Event, req.Owner, req.Room)
	case models.EventRoomJoined, models.EventRoomLeft:
		s.engine.ExecuteTriggers(ctx, req.Event, req.User, req.Room)
	case models.EventUserCreated:
		s.engine.ExecuteTriggers(ctx, req.Event, req.User)
	}

	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "accepted",
		"event":  string(req.Event),
	})
}

func validateIntegration(record *models.Integration) error {
	if record.Name == "" {
		return utils.NewAppError(utils.ErrCodeValidation, "Integration name is required")
	}
	if !record.Event.Valid() {
		return utils.NewAppError(utils.ErrCodeValidation, "Unsupported event kind", string(record.Event))
	}
	if len(record.URLs) == 0 {
		return utils.NewAppError(utils.ErrCodeValidation, "At least one URL is required")
	}
	if record.Username == "" {
		return utils.NewAppError(utils.ErrCodeValidation, "A post-as username is required")
	}
	if record.RetryDelay != "" {
		switch record.RetryDelay {
		case models.RetryPowersOfTen, models.RetryPowersOfTwo, models.RetryIncrementsOfTwo:
		default:
			return utils.NewAppError(utils.ErrCodeValidation, "Unknown retry strategy", string(record.RetryDelay))
		}
	}
	return nil
}

func statusForError(err error) int {
	if appErr, ok := utils.AsAppError(err); ok {
		switch appErr.Code {
		case utils.ErrCodeNotFound:
			return http.StatusNotFound
		case utils.ErrCodeValidation:
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, code int, err error) {
	body := map[string]interface{}{"error": err.Error()}
	if appErr, ok := utils.AsAppError(err); ok {
		body["error"] = appErr.Message
		body["code"] = appErr.Code
		if appErr.Details != "" {
			body["details"] = appErr.Details
		}
	}
	s.writeJSON(w, code, body)
}
