package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/fctr-id/okta-ai-agent-sub003/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock StatementRunner ---

type mockRunner struct {
	execCalled bool
	lastSQL    string
	err        error
}

func (m *mockRunner) Exec(_ context.Context, sql string) error {
	m.execCalled = true
	m.lastSQL = sql
	return m.err
}

func newScratchService(runner *mockRunner, auditor *mockAuditor) *ScratchService {
	if auditor == nil {
		auditor = &mockAuditor{}
	}
	return NewScratchService(domain.NewValidator(), runner, auditor, testLogger())
}

func TestScratchService_CreateTable(t *testing.T) {
	runner := &mockRunner{}
	svc := newScratchService(runner, nil)

	cols := []ScratchColumn{{Name: "okta_id", Type: "TEXT"}, {Name: "email", Type: "text"}}
	ident, err := svc.CreateTable(context.Background(), "temp_api_users", cols, "corr-1")
	require.NoError(t, err)
	assert.Equal(t, "temp_api_users", ident)
	assert.True(t, runner.execCalled)
	assert.Equal(t, "CREATE TEMP TABLE temp_api_users (okta_id TEXT, email TEXT)", runner.lastSQL)
}

func TestScratchService_CreateTable_AddsMarkerPrefix(t *testing.T) {
	runner := &mockRunner{}
	svc := newScratchService(runner, nil)

	ident, err := svc.CreateTable(context.Background(), "api_users", []ScratchColumn{{Name: "id", Type: "TEXT"}}, "corr-1")
	require.NoError(t, err)
	assert.Equal(t, "temp_api_users", ident)
	assert.Contains(t, runner.lastSQL, "temp_api_users")
}

func TestScratchService_CreateTable_RejectsBadColumnName(t *testing.T) {
	runner := &mockRunner{}
	svc := newScratchService(runner, nil)

	cols := []ScratchColumn{{Name: "id); DROP TABLE users; --", Type: "TEXT"}}
	_, err := svc.CreateTable(context.Background(), "temp_x", cols, "corr-1")
	require.Error(t, err)
	assert.False(t, runner.execCalled, "malformed column names must never reach the store")
}

func TestScratchService_CreateTable_RejectsBadColumnType(t *testing.T) {
	runner := &mockRunner{}
	svc := newScratchService(runner, nil)

	cols := []ScratchColumn{{Name: "id", Type: "TEXT PRIMARY KEY"}}
	_, err := svc.CreateTable(context.Background(), "temp_x", cols, "corr-1")
	require.Error(t, err)
	assert.False(t, runner.execCalled)
}

func TestScratchService_CreateTable_RejectsBadTableName(t *testing.T) {
	runner := &mockRunner{}
	svc := newScratchService(runner, nil)

	_, err := svc.CreateTable(context.Background(), "x; drop table users", []ScratchColumn{{Name: "id", Type: "TEXT"}}, "corr-1")
	require.Error(t, err)
	assert.False(t, runner.execCalled)
}

func TestScratchService_CreateTable_NoColumns(t *testing.T) {
	runner := &mockRunner{}
	svc := newScratchService(runner, nil)

	_, err := svc.CreateTable(context.Background(), "temp_x", nil, "corr-1")
	require.Error(t, err)
	assert.False(t, runner.execCalled)
}

func TestScratchService_CreateTable_RunnerError(t *testing.T) {
	runner := &mockRunner{err: fmt.Errorf("database is locked")}
	svc := newScratchService(runner, nil)

	_, err := svc.CreateTable(context.Background(), "temp_x", []ScratchColumn{{Name: "id", Type: "TEXT"}}, "corr-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
}

func TestScratchService_DropTable(t *testing.T) {
	runner := &mockRunner{}
	svc := newScratchService(runner, nil)

	ident, err := svc.DropTable(context.Background(), "temp_api_users", "corr-1")
	require.NoError(t, err)
	assert.Equal(t, "temp_api_users", ident)
	assert.Equal(t, "DROP TABLE IF EXISTS temp_api_users", runner.lastSQL)
}

func TestScratchService_DropTable_AddsMarkerPrefix(t *testing.T) {
	runner := &mockRunner{}
	svc := newScratchService(runner, nil)

	ident, err := svc.DropTable(context.Background(), "api_users", "corr-1")
	require.NoError(t, err)
	assert.Equal(t, "temp_api_users", ident)
}

func TestScratchService_DropTable_RejectsBadName(t *testing.T) {
	runner := &mockRunner{}
	svc := newScratchService(runner, nil)

	_, err := svc.DropTable(context.Background(), "users; --", "corr-1")
	require.Error(t, err)
	assert.False(t, runner.execCalled)
}

func TestScratchService_AuditsLifecycle(t *testing.T) {
	runner := &mockRunner{}
	auditor := &mockAuditor{}
	svc := newScratchService(runner, auditor)

	ctx := WithToolName(context.Background(), "create_scratch_table")
	_, err := svc.CreateTable(ctx, "temp_batch", []ScratchColumn{{Name: "id", Type: "TEXT"}}, "corr-9")
	require.NoError(t, err)

	require.Len(t, auditor.entries, 1)
	e := auditor.entries[0]
	assert.Equal(t, "create_scratch_table", e.Tool)
	assert.Equal(t, "corr-9", e.CorrelationID)
	assert.Equal(t, domain.TierInternal, e.Tier)
	assert.True(t, e.Allowed)
}
