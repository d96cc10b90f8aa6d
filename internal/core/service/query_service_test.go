package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/fctr-id/okta-ai-agent-sub003/internal/audit"
	"github.com/fctr-id/okta-ai-agent-sub003/internal/core/domain"
	"github.com/fctr-id/okta-ai-agent-sub003/internal/core/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- mock QueryExecutor ---

type mockExecutor struct {
	executeCalled bool
	lastSQL       string
	result        []map[string]any
	err           error
}

func (m *mockExecutor) Execute(_ context.Context, sql string) ([]map[string]any, error) {
	m.executeCalled = true
	m.lastSQL = sql
	return m.result, m.err
}

// --- mock QueryAuditor ---

type mockAuditor struct {
	entries []port.AuditEntry
}

func (m *mockAuditor) Record(_ context.Context, e port.AuditEntry) {
	m.entries = append(m.entries, e)
}

func (m *mockAuditor) Close() error { return nil }

func newTestService(exec *mockExecutor, auditor port.QueryAuditor, masks map[string]domain.Mask) *QueryService {
	if auditor == nil {
		auditor = audit.NoopAuditor{}
	}
	return NewQueryService(domain.NewValidator(), exec, auditor, testLogger(), masks, nil, nil)
}

// --- tests ---

func TestQueryService_ValidSelect(t *testing.T) {
	exec := &mockExecutor{
		result: []map[string]any{{"okta_id": "00u1", "email": "alice@example.com"}},
	}
	svc := newTestService(exec, nil, nil)

	rows, err := svc.Execute(context.Background(), "SELECT okta_id, email FROM users", domain.TierUser, "corr-1")
	require.NoError(t, err)
	assert.True(t, exec.executeCalled)
	assert.Equal(t, "SELECT okta_id, email FROM users", exec.lastSQL)
	require.Len(t, rows, 1)
	assert.Equal(t, "alice@example.com", rows[0]["email"])
}

func TestQueryService_DeniedStatementsNeverReachExecutor(t *testing.T) {
	statements := []string{
		"INSERT INTO users (okta_id) VALUES ('x')",
		"DELETE FROM users WHERE okta_id = 'x'",
		"UPDATE users SET status = 'x'",
		"DROP TABLE users",
		"SELECT * FROM users; DROP TABLE users",
		"PRAGMA table_info(users)",
		"",
	}
	for _, stmt := range statements {
		exec := &mockExecutor{}
		svc := newTestService(exec, nil, nil)

		_, err := svc.Execute(context.Background(), stmt, domain.TierUser, "corr-1")
		require.Error(t, err, "statement %q must be denied", stmt)
		assert.ErrorIs(t, err, ErrStatementDenied)
		assert.False(t, exec.executeCalled, "executor must not be called for denied statement %q", stmt)
	}
}

func TestQueryService_TierPassedThrough(t *testing.T) {
	// The internal tier may create marked scratch tables; the user tier
	// must not, through the very same service.
	stmt := "CREATE TEMP TABLE temp_batch (okta_id TEXT)"

	exec := &mockExecutor{}
	svc := newTestService(exec, nil, nil)

	_, err := svc.Execute(context.Background(), stmt, domain.TierInternal, "corr-1")
	require.NoError(t, err)
	assert.True(t, exec.executeCalled)

	exec2 := &mockExecutor{}
	svc2 := newTestService(exec2, nil, nil)
	_, err = svc2.Execute(context.Background(), stmt, domain.TierUser, "corr-2")
	require.ErrorIs(t, err, ErrStatementDenied)
	assert.False(t, exec2.executeCalled)
}

func TestQueryService_ExecutorError(t *testing.T) {
	exec := &mockExecutor{err: fmt.Errorf("database is locked")}
	svc := newTestService(exec, nil, nil)

	_, err := svc.Execute(context.Background(), "SELECT 1", domain.TierUser, "corr-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrStatementDenied)
	assert.Contains(t, err.Error(), "database is locked")
}

func TestQueryService_AuditsDenial(t *testing.T) {
	auditor := &mockAuditor{}
	exec := &mockExecutor{}
	svc := newTestService(exec, auditor, nil)

	ctx := WithToolName(context.Background(), "query")
	_, err := svc.Execute(ctx, "DELETE FROM users", domain.TierUser, "corr-42")
	require.Error(t, err)

	require.Len(t, auditor.entries, 1)
	e := auditor.entries[0]
	assert.Equal(t, "query", e.Tool)
	assert.Equal(t, "corr-42", e.CorrelationID)
	assert.Equal(t, domain.TierUser, e.Tier)
	assert.False(t, e.Allowed)
	assert.Equal(t, domain.CategoryPolicy, e.DenyCategory)
	assert.NotEmpty(t, e.DenyReason)
}

func TestQueryService_AuditsSuccess(t *testing.T) {
	auditor := &mockAuditor{}
	exec := &mockExecutor{result: []map[string]any{{"n": 1}, {"n": 2}}}
	svc := newTestService(exec, auditor, nil)

	_, err := svc.Execute(context.Background(), "SELECT 1", domain.TierUser, "corr-7")
	require.NoError(t, err)

	require.Len(t, auditor.entries, 1)
	e := auditor.entries[0]
	assert.True(t, e.Allowed)
	assert.Equal(t, 2, e.RowsReturned)
	assert.Empty(t, e.DenyReason)
}

func TestQueryService_WithMasks(t *testing.T) {
	exec := &mockExecutor{
		result: []map[string]any{
			{"okta_id": "00u1", "email": "alice@example.com", "status": "ACTIVE"},
			{"okta_id": "00u2", "email": "bob@example.com", "status": "ACTIVE"},
		},
	}
	masks := map[string]domain.Mask{"email": domain.MaskRedact}
	svc := newTestService(exec, nil, masks)

	rows, err := svc.Execute(context.Background(), "SELECT okta_id, email, status FROM users", domain.TierUser, "corr-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "***", rows[0]["email"])
	assert.Equal(t, "***", rows[1]["email"])
	assert.Equal(t, "ACTIVE", rows[0]["status"])
}

func TestQueryService_ExecuteExplain(t *testing.T) {
	exec := &mockExecutor{result: []map[string]any{{"detail": "SCAN users"}}}
	svc := newTestService(exec, nil, nil)

	rows, err := svc.ExecuteExplain(context.Background(), "SELECT * FROM users", domain.TierUser, "corr-1")
	require.NoError(t, err)
	assert.Equal(t, "EXPLAIN QUERY PLAN SELECT * FROM users", exec.lastSQL)
	require.Len(t, rows, 1)
}

func TestQueryService_ExecuteExplainValidatesInnerStatement(t *testing.T) {
	exec := &mockExecutor{}
	svc := newTestService(exec, nil, nil)

	_, err := svc.ExecuteExplain(context.Background(), "DELETE FROM users", domain.TierUser, "corr-1")
	require.ErrorIs(t, err, ErrStatementDenied)
	assert.False(t, exec.executeCalled)
}

func TestQueryService_DeterministicDecision(t *testing.T) {
	exec := &mockExecutor{}
	svc := newTestService(exec, nil, nil)

	_, err1 := svc.Execute(context.Background(), "DROP TABLE users", domain.TierInternal, "a")
	_, err2 := svc.Execute(context.Background(), "DROP TABLE users", domain.TierInternal, "b")
	require.Error(t, err1)
	require.Error(t, err2)
	assert.Equal(t, errors.Unwrap(err1), errors.Unwrap(err2))
	assert.Equal(t, err1.Error(), err2.Error())
}
