package port

import (
	"context"

	"github.com/fctr-id/okta-ai-agent-sub003/internal/core/domain"
)

// AuditEntry records one validation decision and, when allowed, the
// execution outcome. Every denial is audited; a denial entry guarantees the
// statement never touched the store.
type AuditEntry struct {
	Tool          string
	CorrelationID string
	Tier          domain.Tier
	SQL           string
	Allowed       bool
	DenyReason    string
	DenyCategory  domain.Category
	RowsReturned  int
	DurationMS    int64
	Err           error
}

// QueryAuditor records audit events.
type QueryAuditor interface {
	Record(ctx context.Context, entry AuditEntry)
	Close() error
}
