package scriptapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/scriptlyze/scriptlyze/internal/domain/port/driven"
)

// maxDetailBytes caps how much of an error body is kept for the message.
const maxDetailBytes = 2048

// classifyStatus maps a non-2xx, non-401 status onto the APIError taxonomy.
// Unrecognized statuses (including 5xx) fall into the transport kind: the
// request reached a server that produced nothing the caller can act on.
func classifyStatus(status int, detail string) *driven.APIError {
	var kind driven.ErrorKind
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = driven.ErrorKindValidation
	case http.StatusPaymentRequired, http.StatusForbidden:
		kind = driven.ErrorKindQuotaExceeded
	case http.StatusNotFound:
		kind = driven.ErrorKindNotFound
	case http.StatusConflict:
		kind = driven.ErrorKindConflict
	case http.StatusTooManyRequests:
		kind = driven.ErrorKindRateLimit
	default:
		kind = driven.ErrorKindTransport
	}

	if detail == "" {
		detail = http.StatusText(status)
	}

	return &driven.APIError{Kind: kind, Status: status, Detail: detail}
}

// readDetail extracts the server's "detail" field from an error body.
// The backend answers FastAPI-style: detail is usually a string, but 422
// validation failures carry a structured array; those are kept as compact
// JSON so nothing the server said is lost.
func readDetail(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxDetailBytes))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope.Detail) == 0 {
		return strings.TrimSpace(string(raw))
	}

	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return s
	}
	return string(envelope.Detail)
}
