package application

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriptlyze/scriptlyze/internal/domain/model"
	"github.com/scriptlyze/scriptlyze/internal/domain/port/driven"
)

// longScript is comfortably over the analyzer's word minimum.
var longScript = strings.TrimSpace(strings.Repeat("word ", 60))

func TestQueryService_ServesFreshFromCache(t *testing.T) {
	api := newFakeAPI()
	q := NewQueryService(api, time.Minute)
	ctx := context.Background()

	_, err := q.History(ctx, 20, 0)
	require.NoError(t, err)
	_, err = q.History(ctx, 20, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, api.count("list_history"), "fresh result must not refetch")
}

func TestQueryService_DistinctKeysFetchSeparately(t *testing.T) {
	api := newFakeAPI()
	q := NewQueryService(api, time.Minute)
	ctx := context.Background()

	_, err := q.History(ctx, 20, 0)
	require.NoError(t, err)
	_, err = q.History(ctx, 20, 20)
	require.NoError(t, err)

	assert.Equal(t, 2, api.count("list_history"), "different offsets are different keys")
}

func TestQueryService_ExpiredEntryRefetches(t *testing.T) {
	api := newFakeAPI()
	q := NewQueryService(api, time.Minute)
	ctx := context.Background()

	current := time.Now()
	q.now = func() time.Time { return current }

	_, err := q.Stats(ctx)
	require.NoError(t, err)

	current = current.Add(2 * time.Minute)

	_, err = q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, api.count("stats"))
}

func TestQueryService_DedupesConcurrentFetches(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	api := newFakeAPI()
	api.statsFn = func(context.Context) (*model.Stats, error) {
		once.Do(func() { close(started) })
		<-release
		return &model.Stats{AverageScore: 6.5}, nil
	}
	q := NewQueryService(api, time.Minute)

	const callers = 5
	var wg sync.WaitGroup
	results := make([]*model.Stats, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = q.Stats(context.Background())
		}(i)
	}

	<-started
	close(release)
	wg.Wait()

	assert.Equal(t, 1, api.count("stats"), "identical concurrent queries share one call")
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.InDelta(t, 6.5, results[i].AverageScore, 0.001)
	}
}

func TestQueryService_ErrorsAreNotCached(t *testing.T) {
	api := newFakeAPI()
	failing := true
	api.statsFn = func(context.Context) (*model.Stats, error) {
		if failing {
			return nil, &driven.APIError{Kind: driven.ErrorKindTransport, Detail: "connection refused"}
		}
		return &model.Stats{}, nil
	}
	q := NewQueryService(api, time.Minute)
	ctx := context.Background()

	_, err := q.Stats(ctx)
	require.Error(t, err)

	failing = false
	_, err = q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, api.count("stats"))
}

func TestQueryService_AnalyzeRejectsShortScriptLocally(t *testing.T) {
	api := newFakeAPI()
	q := NewQueryService(api, time.Minute)

	_, err := q.Analyze(context.Background(), "only ten words are in this short little test script", model.ScriptTypeGeneral, "")
	require.Error(t, err)
	assert.True(t, driven.IsKind(err, driven.ErrorKindValidation))
	assert.Equal(t, 0, api.count("analyze"), "short script must never reach the API client")
}

func TestQueryService_AnalyzeInvalidatesCollections(t *testing.T) {
	api := newFakeAPI()
	api.analyzeFn = func(context.Context, string, model.ScriptType, string) (*model.AnalysisResult, error) {
		return &model.AnalysisResult{ID: "an-9", OverallScore: 8.1}, nil
	}
	q := NewQueryService(api, time.Minute)
	ctx := context.Background()

	_, err := q.History(ctx, 20, 0)
	require.NoError(t, err)
	_, err = q.Stats(ctx)
	require.NoError(t, err)

	_, err = q.Analyze(ctx, longScript, model.ScriptTypeGeneral, "")
	require.NoError(t, err)

	_, err = q.History(ctx, 20, 0)
	require.NoError(t, err)
	_, err = q.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, api.count("list_history"), "analyze must invalidate history")
	assert.Equal(t, 2, api.count("stats"), "analyze must invalidate stats")
}

func TestQueryService_AnalyzePrimesResultKey(t *testing.T) {
	api := newFakeAPI()
	api.analyzeFn = func(context.Context, string, model.ScriptType, string) (*model.AnalysisResult, error) {
		return &model.AnalysisResult{ID: "an-9", OverallScore: 8.1}, nil
	}
	q := NewQueryService(api, time.Minute)
	ctx := context.Background()

	_, err := q.Analyze(ctx, longScript, model.ScriptTypeGeneral, "")
	require.NoError(t, err)

	result, err := q.Analysis(ctx, "an-9")
	require.NoError(t, err)
	assert.InDelta(t, 8.1, result.OverallScore, 0.001)
	assert.Equal(t, 0, api.count("analysis_by_id"), "fresh analyze result is already cached")
}

func TestQueryService_DeleteInvalidates(t *testing.T) {
	api := newFakeAPI()
	q := NewQueryService(api, time.Minute)
	ctx := context.Background()

	_, err := q.History(ctx, 20, 0)
	require.NoError(t, err)
	_, err = q.Analysis(ctx, "an-3")
	require.NoError(t, err)

	require.NoError(t, q.Delete(ctx, "an-3"))

	_, err = q.History(ctx, 20, 0)
	require.NoError(t, err)
	_, err = q.Analysis(ctx, "an-3")
	require.NoError(t, err)

	assert.Equal(t, 2, api.count("list_history"))
	assert.Equal(t, 2, api.count("analysis_by_id"))
}

func TestQueryService_DeleteNotFoundStillInvalidates(t *testing.T) {
	api := newFakeAPI()
	api.deleteFn = func(context.Context, string) error {
		return &driven.APIError{Kind: driven.ErrorKindNotFound, Status: 404, Detail: "Analysis not found"}
	}
	q := NewQueryService(api, time.Minute)
	ctx := context.Background()

	_, err := q.History(ctx, 20, 0)
	require.NoError(t, err)

	err = q.Delete(ctx, "an-gone")
	require.Error(t, err)
	assert.True(t, driven.IsKind(err, driven.ErrorKindNotFound))

	_, err = q.History(ctx, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, api.count("list_history"), "server-side absence invalidates local caches")
}

func TestQueryService_ResetDropsEverything(t *testing.T) {
	api := newFakeAPI()
	q := NewQueryService(api, time.Minute)
	ctx := context.Background()

	_, err := q.History(ctx, 20, 0)
	require.NoError(t, err)
	_, err = q.Stats(ctx)
	require.NoError(t, err)

	q.Reset()

	_, err = q.History(ctx, 20, 0)
	require.NoError(t, err)
	_, err = q.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, api.count("list_history"))
	assert.Equal(t, 2, api.count("stats"))
}
