package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"cortexsoc/internal/models"
	"cortexsoc/internal/repository"
	"cortexsoc/internal/respond"
	"cortexsoc/internal/service"
	"cortexsoc/internal/util"
)

// SOCHandler maps the HTTP surface onto the SOC service. Response shapes on
// the pipeline endpoints are part of the compatibility surface and mirror
// the service's JSON models exactly.
type SOCHandler struct {
	service *service.SOCService
	logger  *zap.Logger
}

// NewSOCHandler creates the handler.
func NewSOCHandler(socService *service.SOCService, logger *zap.Logger) *SOCHandler {
	return &SOCHandler{
		service: socService,
		logger:  logger,
	}
}

// RegisterRoutes registers the pipeline routes.
func (h *SOCHandler) RegisterRoutes(router chi.Router) {
	router.Post("/ingest", h.Ingest)
	router.Get("/detect", h.Detect)
	router.Post("/detect-and-respond", h.DetectAndRespond)
	router.Post("/respond", h.Respond)
	router.Get("/incidents", h.ListIncidents)
	router.Get("/incidents/{incidentID}", h.GetIncident)
	router.Get("/logs", h.RecentLogs)
	router.Get("/logs/search", h.SearchLogs)
}

// respondRequest is the manual response invocation body.
type respondRequest struct {
	Action string `json:"action"`
	Target string `json:"target"`
}

// detectAndRespondResponse is the batched pipeline result.
type detectAndRespondResponse struct {
	AlertsGenerated  int                `json:"alerts_generated"`
	IncidentsCreated int                `json:"incidents_created"`
	Incidents        []*models.Incident `json:"incidents"`
}

// Ingest stores one log record.
func (h *SOCHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req service.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := h.service.Ingest(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"ingested": record})
}

// Detect runs detection over the full log history and returns the alerts.
func (h *SOCHandler) Detect(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.service.Detect(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, alerts)
}

// DetectAndRespond runs detection and responds to every alert.
func (h *SOCHandler) DetectAndRespond(w http.ResponseWriter, r *http.Request) {
	alerts, incidents, err := h.service.DetectAndRespond(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, detectAndRespondResponse{
		AlertsGenerated:  len(alerts),
		IncidentsCreated: len(incidents),
		Incidents:        incidents,
	})
}

// Respond executes one manual response action.
func (h *SOCHandler) Respond(w http.ResponseWriter, r *http.Request) {
	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.ExecuteAction(r.Context(), req.Action, req.Target)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, result)
}

// ListIncidents returns all incidents.
func (h *SOCHandler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	incidents, err := h.service.ListIncidents(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, incidents)
}

// GetIncident returns one incident by ID.
func (h *SOCHandler) GetIncident(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "incidentID"), 10, 64)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid incident id")
		return
	}

	incident, err := h.service.GetIncident(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, incident)
}

// RecentLogs returns the most recent log records.
func (h *SOCHandler) RecentLogs(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.respondWithError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	records, err := h.service.RecentLogs(r.Context(), limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, records)
}

// SearchLogs queries the search index.
func (h *SOCHandler) SearchLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.respondWithError(w, http.StatusBadRequest, "missing query")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	records, err := h.service.SearchLogs(r.Context(), query, limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, records)
}

// handleServiceError maps service errors onto HTTP statuses with short
// machine-readable detail strings.
func (h *SOCHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		h.respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, respond.ErrUnknownAction):
		h.respondWithError(w, http.StatusBadRequest, "unknown action")
	case errors.Is(err, repository.ErrIncidentNotFound):
		h.respondWithError(w, http.StatusNotFound, "incident not found")
	case errors.Is(err, service.ErrSearchUnavailable):
		h.respondWithError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.logger.Error("request failed", util.ErrorField(err))
		h.respondWithError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *SOCHandler) respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", util.ErrorField(err))
	}
}

func (h *SOCHandler) respondWithError(w http.ResponseWriter, status int, message string) {
	h.respondWithJSON(w, status, map[string]string{"error": message})
}
