package chi

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/MichaelrKraft/leadspot-ai-sub001/internal/domain"
	healthuc "github.com/MichaelrKraft/leadspot-ai-sub001/internal/usecase/health"
	queryuc "github.com/MichaelrKraft/leadspot-ai-sub001/internal/usecase/query"
)

type mockQueryService struct {
	result  *domain.QueryResult
	err     error
	gotReq  queryuc.Request
	calls   int
	process func(req queryuc.Request) (*domain.QueryResult, error)
}

func (m *mockQueryService) ProcessQuery(_ context.Context, req queryuc.Request) (*domain.QueryResult, error) {
	m.calls++
	m.gotReq = req
	if m.process != nil {
		return m.process(req)
	}
	return m.result, m.err
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report {
	if m.report.Status == "" {
		return healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK},
		}
	}
	return m.report
}

func newTestServer(t *testing.T) (*Server, *mockQueryService, *mockHealth) {
	t.Helper()
	qs := &mockQueryService{result: &domain.QueryResult{Answer: "ok"}}
	h := &mockHealth{}
	return NewServer(qs, h, zap.NewNop()), qs, h
}
