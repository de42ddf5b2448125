package httphandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/scriptlyze/scriptlyze/internal/application"
	"github.com/scriptlyze/scriptlyze/internal/domain/model"
	"github.com/scriptlyze/scriptlyze/internal/domain/port/driven"
)

// writeJSON marshals v to JSON and writes it with the given status code.
// If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeRawJSON writes a pre-encoded JSON payload verbatim. Used for the
// opaque pass-through endpoints (compare, improve).
func writeRawJSON(w http.ResponseWriter, status int, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if len(raw) == 0 {
		_, _ = w.Write([]byte(`null`))
		return
	}
	_, _ = w.Write(raw)
}

// writeError writes a JSON error response with the given status and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeAPIError translates the API error taxonomy into a dashboard response.
// Classified errors keep the server's status and detail. Auth errors carry a
// login_required hint so the UI can navigate to the login view; the client
// layer itself performs no navigation.
func writeAPIError(w http.ResponseWriter, err error) {
	var apiErr *driven.APIError
	if !errors.As(err, &apiErr) {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	status := apiErr.Status
	if status == 0 {
		status = defaultStatus(apiErr.Kind)
	}

	if apiErr.Kind == driven.ErrorKindAuth {
		writeJSON(w, status, errorResponse{Error: apiErr.Detail, LoginRequired: true})
		return
	}
	writeJSON(w, status, errorResponse{Error: apiErr.Detail})
}

// defaultStatus picks a status for errors minted locally (no HTTP exchange).
func defaultStatus(kind driven.ErrorKind) int {
	switch kind {
	case driven.ErrorKindAuth:
		return http.StatusUnauthorized
	case driven.ErrorKindValidation:
		return http.StatusBadRequest
	case driven.ErrorKindConflict:
		return http.StatusConflict
	case driven.ErrorKindNotFound:
		return http.StatusNotFound
	case driven.ErrorKindQuotaExceeded:
		return http.StatusPaymentRequired
	case driven.ErrorKindRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error         string `json:"error"`
	LoginRequired bool   `json:"login_required,omitempty"`
}

// SessionResponse is the JSON representation of the session snapshot.
// RemainingAnalyses is present only when a user is signed in.
type SessionResponse struct {
	User              *model.User `json:"user"`
	IsAuthenticated   bool        `json:"is_authenticated"`
	IsLoading         bool        `json:"is_loading"`
	RemainingAnalyses *int        `json:"remaining_analyses,omitempty"`
}

// toSessionResponse converts a session snapshot to its JSON representation.
func toSessionResponse(state application.SessionState) SessionResponse {
	resp := SessionResponse{
		User:            state.User,
		IsAuthenticated: state.IsAuthenticated,
		IsLoading:       state.IsLoading,
	}
	if state.User != nil {
		remaining := state.User.RemainingAnalyses()
		resp.RemainingAnalyses = &remaining
	}
	return resp
}

// CredentialsRequest is the JSON body for signup and login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AnalyzeRequest is the JSON body for the analyze endpoint.
type AnalyzeRequest struct {
	Script     string           `json:"script"`
	ScriptType model.ScriptType `json:"script_type"`
	Title      string           `json:"title,omitempty"`
}

// CompareRequest is the JSON body for the compare endpoint.
type CompareRequest struct {
	ScriptA string `json:"script_a"`
	ScriptB string `json:"script_b"`
}

// ImproveRequest is the JSON body for the improve endpoint.
type ImproveRequest struct {
	Script    string `json:"script"`
	FocusArea string `json:"focus_area"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}
