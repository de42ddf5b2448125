package driven

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced by the AnalysisAPI port.
type ErrorKind string

const (
	// ErrorKindAuth covers 401 responses: not logged in or expired session.
	// The adapter clears the token store and publishes AuthExpired before
	// returning an error of this kind.
	ErrorKindAuth ErrorKind = "auth"
	// ErrorKindValidation covers 400/422: caller-fixable input problems.
	ErrorKindValidation ErrorKind = "validation"
	// ErrorKindConflict covers 409: duplicate resource (email already taken).
	ErrorKindConflict ErrorKind = "conflict"
	// ErrorKindNotFound covers 404.
	ErrorKindNotFound ErrorKind = "not_found"
	// ErrorKindQuotaExceeded covers 402/403: the plan's monthly limit is spent.
	ErrorKindQuotaExceeded ErrorKind = "quota_exceeded"
	// ErrorKindRateLimit covers 429.
	ErrorKindRateLimit ErrorKind = "rate_limit"
	// ErrorKindTransport covers network failures with no structured body,
	// and unclassified server statuses.
	ErrorKindTransport ErrorKind = "transport"
)

// APIError is a classified failure from the remote API. Detail carries the
// server-provided message verbatim so callers can surface it to the user.
type APIError struct {
	Kind   ErrorKind
	Status int    // HTTP status; 0 when the request never completed.
	Detail string // Server "detail" field, or a transport description.
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s (http %d): %s", e.Kind, e.Status, e.Detail)
}

// IsKind reports whether err is (or wraps) an APIError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

// ErrorDetail extracts the server-provided detail from err, or falls back to
// err.Error() for non-API errors.
func ErrorDetail(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return err.Error()
}
