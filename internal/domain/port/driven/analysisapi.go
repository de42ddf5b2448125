package driven

import (
	"context"

	"github.com/scriptlyze/scriptlyze/internal/domain/model"
)

// AuthResult is the payload of a successful signup or login.
type AuthResult struct {
	AccessToken string     `json:"access_token"`
	User        model.User `json:"user"`
}

// AnalysisAPI defines the driven port for the remote ScriptLyze API.
//
// All methods return *APIError for classified remote failures. A 401 from
// any authenticated call clears the token store and publishes AuthExpired
// before the error is returned; callers must not build flows on catching
// auth errors beyond surfacing a login prompt.
type AnalysisAPI interface {
	// Signup registers a new account. On success the returned token has
	// already been stored in the TokenStore.
	Signup(ctx context.Context, email, password string) (*AuthResult, error)
	// Login authenticates an existing account. Token storage side effect as
	// with Signup.
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	// Logout clears the stored credential. Local only; no network call.
	Logout(ctx context.Context) error
	// CurrentUser fetches the account owning the stored credential.
	CurrentUser(ctx context.Context) (*model.User, error)

	// Analyze submits a script for scoring.
	Analyze(ctx context.Context, script string, scriptType model.ScriptType, title string) (*model.AnalysisResult, error)
	// CompareScripts scores two scripts head to head. The payload is opaque.
	CompareScripts(ctx context.Context, scriptA, scriptB string) (model.ComparisonResult, error)
	// SuggestImprovements requests rewrite suggestions focused on focusArea.
	// The payload is opaque.
	SuggestImprovements(ctx context.Context, script, focusArea string) (model.ImprovementSet, error)
	// ListHistory returns one page of past analyses.
	ListHistory(ctx context.Context, limit, offset int) (*model.HistoryPage, error)
	// AnalysisByID fetches one stored analysis owned by the caller.
	AnalysisByID(ctx context.Context, id string) (*model.AnalysisResult, error)
	// DeleteAnalysis removes a stored analysis. Deleting an already-deleted
	// id yields a not-found error, never a crash.
	DeleteAnalysis(ctx context.Context, id string) error
	// Stats returns aggregate scoring statistics for the account.
	Stats(ctx context.Context) (*model.Stats, error)
}
