// Package scriptapi implements the AnalysisAPI port over the ScriptLyze REST API.
package scriptapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gregjones/httpcache"

	"github.com/scriptlyze/scriptlyze/internal/domain/model"
	"github.com/scriptlyze/scriptlyze/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AnalysisAPI = (*Client)(nil)

// Client implements the driven.AnalysisAPI port. It is the single choke
// point for bearer-header injection and 401 handling: every outbound request
// reads the token store, and any 401 response clears the store and notifies
// the AuthExpired subscriber before the error propagates.
type Client struct {
	httpc       *http.Client
	baseURL     string
	tokens      driven.TokenStore
	authExpired func() // May be nil; set by the composition root.
}

// NewClient creates a ScriptLyze API client with an httpcache memory cache
// transport, so conditional-request caching applies to idempotent reads.
// authExpired is invoked after any 401 response has cleared the token store;
// pass nil to opt out.
func NewClient(baseURL string, timeout time.Duration, tokens driven.TokenStore, authExpired func()) *Client {
	return &Client{
		httpc: &http.Client{
			Transport: httpcache.NewMemoryCacheTransport(),
			Timeout:   timeout,
		},
		baseURL:     strings.TrimRight(baseURL, "/"),
		tokens:      tokens,
		authExpired: authExpired,
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client.
// Intended for tests, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string, tokens driven.TokenStore, authExpired func()) *Client {
	return &Client{
		httpc:       httpClient,
		baseURL:     strings.TrimRight(baseURL, "/"),
		tokens:      tokens,
		authExpired: authExpired,
	}
}

// Signup registers a new account and stores the returned token.
func (c *Client) Signup(ctx context.Context, email, password string) (*driven.AuthResult, error) {
	return c.authRequest(ctx, "/api/v1/auth/signup", email, password)
}

// Login authenticates an existing account and stores the returned token.
func (c *Client) Login(ctx context.Context, email, password string) (*driven.AuthResult, error) {
	return c.authRequest(ctx, "/api/v1/auth/login", email, password)
}

func (c *Client) authRequest(ctx context.Context, path, email, password string) (*driven.AuthResult, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var result driven.AuthResult
	if err := c.do(ctx, http.MethodPost, path, body, &result); err != nil {
		return nil, err
	}

	if err := c.tokens.Set(ctx, result.AccessToken); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}

	return &result, nil
}

// Logout clears the stored credential. Local only; no network call.
func (c *Client) Logout(ctx context.Context) error {
	return c.tokens.Clear(ctx)
}

// CurrentUser fetches the account owning the stored credential.
func (c *Client) CurrentUser(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodGet, "/api/v1/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Analyze submits a script for scoring.
func (c *Client) Analyze(ctx context.Context, script string, scriptType model.ScriptType, title string) (*model.AnalysisResult, error) {
	body := struct {
		Script     string           `json:"script"`
		ScriptType model.ScriptType `json:"script_type"`
		Title      string           `json:"title,omitempty"`
	}{Script: script, ScriptType: scriptType, Title: title}

	var result model.AnalysisResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/analyze/analyze", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CompareScripts scores two scripts head to head; the payload is opaque.
func (c *Client) CompareScripts(ctx context.Context, scriptA, scriptB string) (model.ComparisonResult, error) {
	body := struct {
		ScriptA string `json:"script_a"`
		ScriptB string `json:"script_b"`
	}{ScriptA: scriptA, ScriptB: scriptB}

	var result json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/api/v1/analyze/compare", body, &result); err != nil {
		return nil, err
	}
	return model.ComparisonResult(result), nil
}

// SuggestImprovements requests rewrite suggestions; the payload is opaque.
func (c *Client) SuggestImprovements(ctx context.Context, script, focusArea string) (model.ImprovementSet, error) {
	body := struct {
		Script    string `json:"script"`
		FocusArea string `json:"focus_area"`
	}{Script: script, FocusArea: focusArea}

	var result json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/api/v1/analyze/improve", body, &result); err != nil {
		return nil, err
	}
	return model.ImprovementSet(result), nil
}

// ListHistory returns one page of past analyses.
func (c *Client) ListHistory(ctx context.Context, limit, offset int) (*model.HistoryPage, error) {
	path := fmt.Sprintf("/api/v1/analyze/history?limit=%d&offset=%d", limit, offset)

	var page model.HistoryPage
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	if page.Analyses == nil {
		page.Analyses = []model.AnalysisSummary{}
	}
	return &page, nil
}

// AnalysisByID fetches one stored analysis owned by the caller.
func (c *Client) AnalysisByID(ctx context.Context, id string) (*model.AnalysisResult, error) {
	var result model.AnalysisResult
	if err := c.do(ctx, http.MethodGet, "/api/v1/analyze/analysis/"+url.PathEscape(id), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteAnalysis removes a stored analysis. Deleting an already-deleted id
// surfaces the server's 404 as a not-found error.
func (c *Client) DeleteAnalysis(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/analyze/analysis/"+url.PathEscape(id), nil, nil)
}

// Stats returns aggregate scoring statistics for the account.
func (c *Client) Stats(ctx context.Context) (*model.Stats, error) {
	var stats model.Stats
	if err := c.do(ctx, http.MethodGet, "/api/v1/analyze/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// do performs one API request: it attaches the bearer header when a token is
// stored, sends the request, and maps failures onto the APIError taxonomy.
// Idempotent GETs get exactly one transient retry (transport error or 5xx);
// mutations are never retried.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	attempts := 1
	if method == http.MethodGet {
		attempts = 2
	}

	start := time.Now()
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			slog.Warn("retrying api request", "method", method, "path", path, "error", lastErr)
			select {
			case <-time.After(250 * time.Millisecond):
			case <-ctx.Done():
				return &driven.APIError{Kind: driven.ErrorKindTransport, Detail: ctx.Err().Error()}
			}
		}

		status, retryable, err := c.once(ctx, method, path, payload, out)
		if err == nil {
			slog.Debug("api request",
				"method", method,
				"path", path,
				"status", status,
				"duration", time.Since(start).Round(time.Millisecond),
			)
			return nil
		}

		lastErr = err
		if !retryable {
			return err
		}
	}

	return lastErr
}

// once executes a single request/response cycle. The returned bool reports
// whether the failure is transient enough to retry.
func (c *Client) once(ctx context.Context, method, path string, payload []byte, out any) (int, bool, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return 0, false, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	token, err := c.tokens.Get(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("read token store: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, true, &driven.APIError{Kind: driven.ErrorKindTransport, Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return resp.StatusCode, false, c.handleUnauthorized(ctx, resp)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return resp.StatusCode, false, nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, false, fmt.Errorf("decode response: %w", err)
		}
		return resp.StatusCode, false, nil
	}

	apiErr := classifyStatus(resp.StatusCode, readDetail(resp.Body))
	return resp.StatusCode, resp.StatusCode >= 500, apiErr
}

// handleUnauthorized implements the global 401 contract: clear the token
// store, notify the subscriber, and return an auth-kind error. The caller
// will have no credential on subsequent requests until re-authentication.
func (c *Client) handleUnauthorized(ctx context.Context, resp *http.Response) error {
	if err := c.tokens.Clear(ctx); err != nil {
		slog.Error("failed to clear token after 401", "error", err)
	}
	if c.authExpired != nil {
		c.authExpired()
	}

	detail := readDetail(resp.Body)
	if detail == "" {
		detail = "not authenticated"
	}
	return &driven.APIError{Kind: driven.ErrorKindAuth, Status: http.StatusUnauthorized, Detail: detail}
}
