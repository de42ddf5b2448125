package application

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/scriptlyze/scriptlyze/internal/domain/model"
	"github.com/scriptlyze/scriptlyze/internal/domain/port/driven"
)

// minScriptWords is the smallest script the analyzer accepts. Shorter input
// is rejected locally, before any network call.
const minScriptWords = 50

// QueryService is the data-fetch layer between views and the API client.
// Each logical query is keyed by (operation, parameters); a key's result is
// served from cache while fresh, identical concurrent requests share one
// network call, and mutations invalidate the keys they affect. Keys are
// independently owned, so concurrent completions never race on shared state.
type QueryService struct {
	api driven.AnalysisAPI
	ttl time.Duration

	group singleflight.Group
	mu    sync.Mutex
	cache map[string]cacheEntry

	now func() time.Time // Injectable clock for freshness tests.
}

type cacheEntry struct {
	value     any
	fetchedAt time.Time
}

// NewQueryService creates a QueryService whose cached results stay fresh
// for ttl.
func NewQueryService(api driven.AnalysisAPI, ttl time.Duration) *QueryService {
	return &QueryService{
		api:   api,
		ttl:   ttl,
		cache: make(map[string]cacheEntry),
		now:   time.Now,
	}
}

// History returns one page of past analyses, cached per (limit, offset).
func (q *QueryService) History(ctx context.Context, limit, offset int) (*model.HistoryPage, error) {
	key := fmt.Sprintf("history:%d:%d", limit, offset)
	v, err := q.fetch(ctx, key, func(ctx context.Context) (any, error) {
		return q.api.ListHistory(ctx, limit, offset)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.HistoryPage), nil
}

// Analysis returns one stored analysis, cached by id.
func (q *QueryService) Analysis(ctx context.Context, id string) (*model.AnalysisResult, error) {
	v, err := q.fetch(ctx, "analysis:"+id, func(ctx context.Context) (any, error) {
		return q.api.AnalysisByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.AnalysisResult), nil
}

// Stats returns aggregate scoring statistics, cached under a single key.
func (q *QueryService) Stats(ctx context.Context) (*model.Stats, error) {
	v, err := q.fetch(ctx, "stats", func(ctx context.Context) (any, error) {
		return q.api.Stats(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Stats), nil
}

// Analyze submits a script for scoring. Scripts under the analyzer's word
// minimum are rejected before the API client is reached. A successful
// analysis invalidates the history and stats keys and primes the cache for
// the new result's id.
func (q *QueryService) Analyze(ctx context.Context, script string, scriptType model.ScriptType, title string) (*model.AnalysisResult, error) {
	if words := len(strings.Fields(script)); words < minScriptWords {
		return nil, &driven.APIError{
			Kind:   driven.ErrorKindValidation,
			Detail: fmt.Sprintf("script must be at least %d words (got %d)", minScriptWords, words),
		}
	}

	result, err := q.api.Analyze(ctx, script, scriptType, title)
	if err != nil {
		return nil, err
	}

	q.invalidateCollections()
	q.store("analysis:"+result.ID, result)
	return result, nil
}

// Delete removes a stored analysis and invalidates every key that could
// still list it. Invalidation also happens on a not-found answer: either
// way the server no longer has the analysis.
func (q *QueryService) Delete(ctx context.Context, id string) error {
	err := q.api.DeleteAnalysis(ctx, id)
	if err == nil || driven.IsKind(err, driven.ErrorKindNotFound) {
		q.invalidateCollections()
		q.invalidate("analysis:" + id)
	}
	return err
}

// Compare scores two scripts head to head. Uncached pass-through.
func (q *QueryService) Compare(ctx context.Context, scriptA, scriptB string) (model.ComparisonResult, error) {
	return q.api.CompareScripts(ctx, scriptA, scriptB)
}

// Improve requests rewrite suggestions. Uncached pass-through.
func (q *QueryService) Improve(ctx context.Context, script, focusArea string) (model.ImprovementSet, error) {
	return q.api.SuggestImprovements(ctx, script, focusArea)
}

// Reset drops every cached result. Called when the session changes hands
// (logout, expiry) so one user's data never leaks into the next session.
func (q *QueryService) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cache = make(map[string]cacheEntry)
}

// fetch serves key from cache while fresh; otherwise it de-duplicates
// concurrent fetches for the same key through the singleflight group.
func (q *QueryService) fetch(ctx context.Context, key string, load func(context.Context) (any, error)) (any, error) {
	if v, ok := q.fresh(key); ok {
		return v, nil
	}

	v, err, _ := q.group.Do(key, func() (any, error) {
		// A concurrent flight may have refreshed the key while this caller
		// waited on the group.
		if v, ok := q.fresh(key); ok {
			return v, nil
		}

		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		q.store(key, v)
		return v, nil
	})
	return v, err
}

func (q *QueryService) fresh(key string) (any, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	entry, ok := q.cache[key]
	if !ok || q.now().Sub(entry.fetchedAt) >= q.ttl {
		return nil, false
	}
	return entry.value, true
}

func (q *QueryService) store(key string, value any) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cache[key] = cacheEntry{value: value, fetchedAt: q.now()}
}

func (q *QueryService) invalidate(key string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.cache, key)
}

// invalidateCollections drops the keys any analysis mutation affects: every
// history page and the stats aggregate.
func (q *QueryService) invalidateCollections() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for key := range q.cache {
		if strings.HasPrefix(key, "history:") || key == "stats" {
			delete(q.cache, key)
		}
	}
}
