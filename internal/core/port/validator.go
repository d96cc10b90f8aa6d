package port

import "github.com/fctr-id/okta-ai-agent-sub003/internal/core/domain"

// StatementValidator decides whether a candidate statement may reach the
// store for the given caller tier.
type StatementValidator interface {
	Validate(statement string, tier domain.Tier) domain.Result
}
