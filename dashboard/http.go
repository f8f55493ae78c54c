// Package dashboard exposes the HTTP control surface: session management,
// run control, stored outcomes and Prometheus metrics.
package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/bidflow/config"
	"github.com/c360studio/bidflow/session"
	"github.com/c360studio/bidflow/store"
)

// HTTPHandler handles HTTP requests for session management.
type HTTPHandler struct {
	manager *session.Manager
	st      store.Store
}

// NewHTTPHandler creates a new HTTP handler for session management.
func NewHTTPHandler(manager *session.Manager, st store.Store) *HTTPHandler {
	return &HTTPHandler{
		manager: manager,
		st:      st,
	}
}

// RegisterHTTPHandlers registers the session endpoints. The prefix should
// include the trailing slash (e.g., "/api/").
func (h *HTTPHandler) RegisterHTTPHandlers(prefix string, mux *http.ServeMux) {
	mux.HandleFunc(prefix+"sessions", h.handleSessions)
	mux.HandleFunc(prefix+"sessions/", h.handleSessionWithID)
}

// CreateSessionRequest is the JSON body for POST /api/sessions. Config is
// optional YAML in the same shape as the configuration file; non-zero
// fields override the process configuration for this session.
type CreateSessionRequest struct {
	Name   string `json:"name"`
	Config string `json:"config,omitempty"`
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// handleSessions handles GET (list) and POST (create) on /api/sessions.
func (h *HTTPHandler) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		sessions, err := h.manager.List(r.Context())
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "store_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, sessions)

	case http.MethodPost:
		var req CreateSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "parse_error", "Invalid JSON body: "+err.Error())
			return
		}
		if req.Name == "" {
			writeJSONError(w, http.StatusBadRequest, "name_required", "Session name is required")
			return
		}

		var override *config.Config
		if req.Config != "" {
			override = &config.Config{}
			if err := yaml.Unmarshal([]byte(req.Config), override); err != nil {
				writeJSONError(w, http.StatusBadRequest, "config_error", "Invalid session config: "+err.Error())
				return
			}
		}

		record, err := h.manager.Create(r.Context(), req.Name, override)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "create_error", err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, record)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleSessionWithID routes /api/sessions/{id} and its sub-resources.
func (h *HTTPHandler) handleSessionWithID(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(r.URL.Path[strings.Index(r.URL.Path, "sessions/")+len("sessions/"):], "/")
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	if id == "" {
		writeJSONError(w, http.StatusBadRequest, "id_required", "Session ID is required")
		return
	}
	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}

	switch action {
	case "":
		h.handleSession(w, r, id)
	case "start":
		h.handleStart(w, r, id)
	case "stop":
		h.handleStop(w, r, id)
	case "status":
		h.handleStatus(w, r, id)
	case "statistics":
		h.handleStatistics(w, r, id)
	case "bids":
		h.handleBids(w, r, id)
	case "projects":
		h.handleProjects(w, r, id)
	case "logs":
		h.handleLogs(w, r, id)
	default:
		writeJSONError(w, http.StatusNotFound, "not_found", "Unknown session resource: "+action)
	}
}

// handleSession handles GET and DELETE on /api/sessions/{id}.
func (h *HTTPHandler) handleSession(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		record, err := h.manager.Get(r.Context(), id)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, record)

	case http.MethodDelete:
		if err := h.manager.Delete(r.Context(), id); err != nil {
			writeSessionError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleStart handles POST /api/sessions/{id}/start.
func (h *HTTPHandler) handleStart(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := h.manager.Start(r.Context(), id); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// handleStop handles POST /api/sessions/{id}/stop.
func (h *HTTPHandler) handleStop(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := h.manager.Stop(r.Context(), id); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

// StatusResponse is the JSON response for GET /api/sessions/{id}/status.
type StatusResponse struct {
	SessionID string `json:"session_id"`
	Running   bool   `json:"running"`
	Run       any    `json:"run,omitempty"`
}

// handleStatus handles GET /api/sessions/{id}/status. A running session
// reports its live counters; an idle one only its stored record status.
func (h *HTTPHandler) handleStatus(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, err := h.manager.Get(r.Context(), id); err != nil {
		writeSessionError(w, err)
		return
	}

	resp := StatusResponse{SessionID: id}
	if status, running := h.manager.Status(id); running {
		resp.Running = true
		resp.Run = status
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleStatistics handles GET /api/sessions/{id}/statistics.
func (h *HTTPHandler) handleStatistics(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	stats, err := h.manager.Statistics(r.Context(), id)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleBids handles GET /api/sessions/{id}/bids.
func (h *HTTPHandler) handleBids(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	bids, err := h.st.ListBids(r.Context(), id)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, bids)
}

// handleProjects handles GET /api/sessions/{id}/projects.
func (h *HTTPHandler) handleProjects(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	projects, err := h.st.ListProjects(r.Context(), id)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// handleLogs handles GET /api/sessions/{id}/logs?limit=N.
func (h *HTTPHandler) handleLogs(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSONError(w, http.StatusBadRequest, "limit_error", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := h.st.ListActivity(r.Context(), id, limit)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// writeSessionError maps manager errors onto HTTP statuses.
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not_found", "Session not found")
	case errors.Is(err, session.ErrAlreadyRunning):
		writeJSONError(w, http.StatusConflict, "already_running", "Session is already running")
	case errors.Is(err, session.ErrNotRunning):
		writeJSONError(w, http.StatusConflict, "not_running", "Session is not running")
	default:
		writeJSONError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func writeJSONError(w http.ResponseWriter, status int, errorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}
