// Package httphandler is the HTTP driving adapter: the REST surface the
// local dashboard UI consumes. It speaks to the session and query services,
// never to the remote API directly.
package httphandler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/scriptlyze/scriptlyze/internal/adapter/driving/web"
	"github.com/scriptlyze/scriptlyze/internal/application"
	"github.com/scriptlyze/scriptlyze/internal/domain/port/driven"
)

// Handler serves the dashboard REST API.
type Handler struct {
	api     driven.AnalysisAPI
	session *application.Session
	queries *application.QueryService
	logger  *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(api driven.AnalysisAPI, session *application.Session, queries *application.QueryService, logger *slog.Logger) *Handler {
	return &Handler{
		api:     api,
		session: session,
		queries: queries,
		logger:  logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/auth/signup", h.Signup)
	mux.HandleFunc("POST /api/v1/auth/login", h.Login)
	mux.HandleFunc("POST /api/v1/auth/logout", h.Logout)
	mux.HandleFunc("GET /api/v1/auth/session", h.GetSession)
	mux.HandleFunc("POST /api/v1/analyze", h.Analyze)
	mux.HandleFunc("POST /api/v1/compare", h.Compare)
	mux.HandleFunc("POST /api/v1/improve", h.Improve)
	mux.HandleFunc("GET /api/v1/history", h.History)
	mux.HandleFunc("GET /api/v1/analysis/{id}", h.GetAnalysis)
	mux.HandleFunc("GET /api/v1/analysis/{id}/report", h.GetAnalysisReport)
	mux.HandleFunc("DELETE /api/v1/analysis/{id}", h.DeleteAnalysis)
	mux.HandleFunc("GET /api/v1/stats", h.GetStats)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Signup registers a new account and establishes the session.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, h.api.Signup)
}

// Login authenticates an existing account and establishes the session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, h.api.Login)
}

// authenticate runs the shared signup/login flow: exchange credentials for a
// token (stored by the API client), confirm it with a user fetch, and seed
// the session. The confirmation fetch proves the stored token round-trips
// before the UI treats the user as signed in.
func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request, exchange func(ctx context.Context, email, password string) (*driven.AuthResult, error)) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	if _, err := exchange(r.Context(), req.Email, req.Password); err != nil {
		writeAPIError(w, err)
		return
	}

	user, err := h.api.CurrentUser(r.Context())
	if err != nil {
		writeAPIError(w, err)
		return
	}

	// A new identity invalidates anything cached for the previous one.
	h.queries.Reset()
	h.session.SetUser(user)

	writeJSON(w, http.StatusOK, toSessionResponse(h.session.State()))
}

// Logout clears the credential and resets the session. No remote call.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Logout(r.Context()); err != nil {
		h.logger.Error("logout failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.queries.Reset()

	w.WriteHeader(http.StatusNoContent)
}

// GetSession returns the current session snapshot, including the loading
// flag so the UI can gate authorization decisions correctly at startup.
func (h *Handler) GetSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toSessionResponse(h.session.State()))
}

// Analyze submits a script for scoring.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ScriptType == "" {
		req.ScriptType = "general"
	}

	result, err := h.queries.Analyze(r.Context(), req.Script, req.ScriptType, req.Title)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Compare scores two scripts head to head. Opaque pass-through.
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.queries.Compare(r.Context(), req.ScriptA, req.ScriptB)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	writeRawJSON(w, http.StatusOK, result)
}

// Improve requests rewrite suggestions. Opaque pass-through.
func (h *Handler) Improve(w http.ResponseWriter, r *http.Request) {
	var req ImproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FocusArea == "" {
		req.FocusArea = "all"
	}

	result, err := h.queries.Improve(r.Context(), req.Script, req.FocusArea)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	writeRawJSON(w, http.StatusOK, result)
}

// History returns one page of past analyses.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 100 {
			writeError(w, http.StatusBadRequest, "limit must be an integer between 1 and 100")
			return
		}
		limit = parsed
	}

	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		offset = parsed
	}

	page, err := h.queries.History(r.Context(), limit, offset)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// GetAnalysis returns a single stored analysis.
func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing analysis id")
		return
	}

	result, err := h.queries.Analysis(r.Context(), id)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetAnalysisReport renders a stored analysis as a sanitized HTML report.
func (h *Handler) GetAnalysisReport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing analysis id")
		return
	}

	result, err := h.queries.Analysis(r.Context(), id)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(web.RenderAnalysisReport(*result)))
}

// DeleteAnalysis removes a stored analysis.
func (h *Handler) DeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing analysis id")
		return
	}

	if err := h.queries.Delete(r.Context(), id); err != nil {
		writeAPIError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetStats returns aggregate scoring statistics.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.queries.Stats(r.Context())
	if err != nil {
		writeAPIError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
