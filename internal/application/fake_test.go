package application

import (
	"context"
	"sync"

	"github.com/scriptlyze/scriptlyze/internal/domain/model"
	"github.com/scriptlyze/scriptlyze/internal/domain/port/driven"
)

// fakeAPI is a scriptable AnalysisAPI for service tests. Unset functions
// return zero values; calls counts invocations per operation.
type fakeAPI struct {
	mu    sync.Mutex
	calls map[string]int

	currentUserFn func(ctx context.Context) (*model.User, error)
	analyzeFn     func(ctx context.Context, script string, scriptType model.ScriptType, title string) (*model.AnalysisResult, error)
	listHistoryFn func(ctx context.Context, limit, offset int) (*model.HistoryPage, error)
	analysisFn    func(ctx context.Context, id string) (*model.AnalysisResult, error)
	deleteFn      func(ctx context.Context, id string) error
	statsFn       func(ctx context.Context) (*model.Stats, error)
}

var _ driven.AnalysisAPI = (*fakeAPI)(nil)

func newFakeAPI() *fakeAPI {
	return &fakeAPI{calls: make(map[string]int)}
}

func (f *fakeAPI) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
}

func (f *fakeAPI) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeAPI) Signup(_ context.Context, _, _ string) (*driven.AuthResult, error) {
	f.record("signup")
	return &driven.AuthResult{}, nil
}

func (f *fakeAPI) Login(_ context.Context, _, _ string) (*driven.AuthResult, error) {
	f.record("login")
	return &driven.AuthResult{}, nil
}

func (f *fakeAPI) Logout(_ context.Context) error {
	f.record("logout")
	return nil
}

func (f *fakeAPI) CurrentUser(ctx context.Context) (*model.User, error) {
	f.record("current_user")
	if f.currentUserFn != nil {
		return f.currentUserFn(ctx)
	}
	return &model.User{}, nil
}

func (f *fakeAPI) Analyze(ctx context.Context, script string, scriptType model.ScriptType, title string) (*model.AnalysisResult, error) {
	f.record("analyze")
	if f.analyzeFn != nil {
		return f.analyzeFn(ctx, script, scriptType, title)
	}
	return &model.AnalysisResult{}, nil
}

func (f *fakeAPI) CompareScripts(_ context.Context, _, _ string) (model.ComparisonResult, error) {
	f.record("compare")
	return nil, nil
}

func (f *fakeAPI) SuggestImprovements(_ context.Context, _, _ string) (model.ImprovementSet, error) {
	f.record("improve")
	return nil, nil
}

func (f *fakeAPI) ListHistory(ctx context.Context, limit, offset int) (*model.HistoryPage, error) {
	f.record("list_history")
	if f.listHistoryFn != nil {
		return f.listHistoryFn(ctx, limit, offset)
	}
	return &model.HistoryPage{Analyses: []model.AnalysisSummary{}, Limit: limit, Offset: offset}, nil
}

func (f *fakeAPI) AnalysisByID(ctx context.Context, id string) (*model.AnalysisResult, error) {
	f.record("analysis_by_id")
	if f.analysisFn != nil {
		return f.analysisFn(ctx, id)
	}
	return &model.AnalysisResult{ID: id}, nil
}

func (f *fakeAPI) DeleteAnalysis(ctx context.Context, id string) error {
	f.record("delete")
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

func (f *fakeAPI) Stats(ctx context.Context) (*model.Stats, error) {
	f.record("stats")
	if f.statsFn != nil {
		return f.statsFn(ctx)
	}
	return &model.Stats{}, nil
}

// fakeTokens is an in-memory TokenStore for service tests.
type fakeTokens struct {
	mu    sync.Mutex
	token string
}

func (s *fakeTokens) Set(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *fakeTokens) Get(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *fakeTokens) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
