package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	mdwerror "github.com/msto63/lexana/foundation/core/error"
	"github.com/msto63/lexana/internal/analyzer/service"
	"github.com/msto63/lexana/internal/analyzer/store"
	"github.com/msto63/lexana/pkg/core/health"
	"github.com/msto63/lexana/pkg/core/logging"
)

// MaxBodyBytes limits request bodies
const MaxBodyBytes = 1 << 20

// AnalyzeRequest represents an analysis request
type AnalyzeRequest struct {
	Input string `json:"input"`
}

// BatchRequest represents a request with several independent inputs
type BatchRequest struct {
	Inputs []string `json:"inputs"`
}

// BatchResponse represents the outcome of a batch request
type BatchResponse struct {
	Results  []*service.Document `json:"results"`
	Accepted int                 `json:"accepted"`
	Rejected int                 `json:"rejected"`
}

// HistoryResponse represents a page of recorded analyses
type HistoryResponse struct {
	Records []*store.Record `json:"records"`
	Total   int             `json:"total"`
}

// HealthResponse represents the health endpoint output
type HealthResponse struct {
	Status  health.Status        `json:"status"`
	Version string               `json:"version"`
	Uptime  string               `json:"uptime"`
	Checks  []health.CheckResult `json:"checks,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Handler handles HTTP requests for the analyzer API
type Handler struct {
	service   *service.Service
	health    *health.Registry
	logger    *logging.Logger
	startTime time.Time
	version   string
}

// NewHandler creates a new API handler. registry may be nil.
func NewHandler(version string, svc *service.Service, registry *health.Registry) *Handler {
	return &Handler{
		service:   svc,
		health:    registry,
		logger:    logging.New("analyzer-http"),
		startTime: time.Now(),
		version:   version,
	}
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	path = strings.Trim(path, "/")

	switch {
	case path == "":
		h.handleRoot(w, r)
	case path == "health":
		h.handleHealth(w, r)
	case path == "analyze":
		h.handleAnalyze(w, r)
	case path == "batch":
		h.handleBatch(w, r)
	case path == "history":
		h.handleHistory(w, r)
	case path == "history/stats":
		h.handleHistoryStats(w, r)
	case strings.HasPrefix(path, "history/"):
		h.handleHistoryRecord(w, r, strings.TrimPrefix(path, "history/"))
	default:
		h.writeError(w, http.StatusNotFound, "NOT_FOUND", "Endpoint not found", nil)
	}
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "lexana",
		"version": h.version,
		"endpoints": []string{
			"POST /api/v1/analyze",
			"POST /api/v1/batch",
			"GET /api/v1/history",
			"GET /api/v1/history/stats",
			"GET /api/v1/history/{run_id}",
			"DELETE /api/v1/history?older_than=720h",
			"GET /health",
			"GET /ws",
		},
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Use GET", nil)
		return
	}

	resp := HealthResponse{
		Status:  health.StatusHealthy,
		Version: h.version,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
	}

	status := http.StatusOK
	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		report := h.health.Check(ctx)
		cancel()

		resp.Status = report.Status
		resp.Checks = report.Checks
		if report.Status == health.StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
	}
	h.writeJSON(w, status, resp)
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Use POST", nil)
		return
	}

	var req AnalyzeRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.service.Analyze(r.Context(), req.Input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	status := http.StatusOK
	if !res.Accepted {
		status = mdwerror.GetCode(res.Err).HTTPStatus()
	}
	h.writeJSON(w, status, res.Document())
}

func (h *Handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Use POST", nil)
		return
	}

	var req BatchRequest
	if !h.decode(w, r, &req) {
		return
	}
	if len(req.Inputs) == 0 {
		h.writeError(w, http.StatusBadRequest, "INVALID_INPUT", "inputs is required", nil)
		return
	}

	resp := BatchResponse{Results: make([]*service.Document, 0, len(req.Inputs))}
	for _, input := range req.Inputs {
		res, err := h.service.Analyze(r.Context(), input)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		if res.Accepted {
			resp.Accepted++
		} else {
			resp.Rejected++
		}
		resp.Results = append(resp.Results, res.Document())
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		filter, err := parseFilter(r)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error(), nil)
			return
		}
		records, err := h.service.History(r.Context(), filter)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		if records == nil {
			records = []*store.Record{}
		}
		h.writeJSON(w, http.StatusOK, HistoryResponse{Records: records, Total: len(records)})

	case http.MethodDelete:
		olderThan, err := time.ParseDuration(r.URL.Query().Get("older_than"))
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "INVALID_INPUT", "older_than must be a duration", nil)
			return
		}
		deleted, err := h.service.PruneHistory(r.Context(), olderThan)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})

	default:
		h.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Use GET or DELETE", nil)
	}
}

func (h *Handler) handleHistoryStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Use GET", nil)
		return
	}
	stats, err := h.service.HistoryStats(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleHistoryRecord(w http.ResponseWriter, r *http.Request, runID string) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Use GET", nil)
		return
	}
	rec, err := h.service.Lookup(r.Context(), runID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

// parseFilter reads accepted, contains, since, limit and offset
func parseFilter(r *http.Request) (store.Filter, error) {
	q := r.URL.Query()
	filter := store.Filter{Contains: q.Get("contains"), Limit: 50}

	if v := q.Get("accepted"); v != "" {
		accepted, err := strconv.ParseBool(v)
		if err != nil {
			return filter, errors.New("accepted must be true or false")
		}
		filter.Accepted = &accepted
	}
	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, errors.New("since must be an RFC 3339 timestamp")
		}
		filter.Since = since
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return filter, errors.New("limit must be a non-negative integer")
		}
		filter.Limit = limit
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return filter, errors.New("offset must be a non-negative integer")
		}
		filter.Offset = offset
	}
	return filter, nil
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body: "+err.Error(), nil)
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string, details map[string]interface{}) {
	h.writeJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

// writeServiceError maps a structured error to its HTTP status
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	code := mdwerror.GetCode(err)
	if !code.IsRejection() && code != mdwerror.CodeNotFound {
		h.logger.Error("Request failed", "error", err, "code", code)
	}

	var details map[string]interface{}
	var e *mdwerror.Error
	if errors.As(err, &e) {
		details = e.Details()
	}
	h.writeError(w, code.HTTPStatus(), string(code), err.Error(), details)
}

// NewRouter mounts the API, the health endpoint and the WebSocket handler
func NewRouter(api *Handler, ws *WebSocketHandler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/v1/", api)
	mux.Handle("/api/v1", api)
	mux.HandleFunc("/health", api.handleHealth)
	if ws != nil {
		mux.Handle("/ws", ws)
	}
	return mux
}
