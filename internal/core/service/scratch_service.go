package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/fctr-id/okta-ai-agent-sub003/internal/core/domain"
	"github.com/fctr-id/okta-ai-agent-sub003/internal/core/port"
)

// ScratchColumn is one column of a staging table.
type ScratchColumn struct {
	Name string
	Type string
}

var (
	scratchIdentRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

	// SQLite storage classes only; staging tables hold raw API payloads.
	scratchColumnTypes = map[string]bool{
		"TEXT":    true,
		"INTEGER": true,
		"REAL":    true,
		"BLOB":    true,
		"NUMERIC": true,
	}
)

// ScratchService manages the internal-tier scratch-table lifecycle: staging
// tables the Okta API sync pipeline fills before merging a batch into the
// sync database. Every statement it builds still passes the validator at
// the internal tier before it runs.
type ScratchService struct {
	validator port.StatementValidator
	runner    port.StatementRunner
	auditor   port.QueryAuditor
	logger    *slog.Logger
}

func NewScratchService(validator port.StatementValidator, runner port.StatementRunner, auditor port.QueryAuditor, logger *slog.Logger) *ScratchService {
	return &ScratchService{
		validator: validator,
		runner:    runner,
		auditor:   auditor,
		logger:    logger,
	}
}

// CreateTable creates a scratch table for a sync batch and returns the
// marker-prefixed identifier actually used.
func (s *ScratchService) CreateTable(ctx context.Context, name string, cols []ScratchColumn, correlationID string) (string, error) {
	ident, err := scratchIdent(name)
	if err != nil {
		return "", err
	}
	if len(cols) == 0 {
		return "", fmt.Errorf("scratch table %s: at least one column required", ident)
	}

	defs := make([]string, 0, len(cols))
	for _, c := range cols {
		if !scratchIdentRe.MatchString(c.Name) {
			return "", fmt.Errorf("scratch table %s: invalid column name %q", ident, c.Name)
		}
		typ := strings.ToUpper(c.Type)
		if !scratchColumnTypes[typ] {
			return "", fmt.Errorf("scratch table %s: unsupported column type %q", ident, c.Type)
		}
		defs = append(defs, c.Name+" "+typ)
	}

	stmt := fmt.Sprintf("CREATE TEMP TABLE %s (%s)", ident, strings.Join(defs, ", "))

	res := s.validator.Validate(stmt, domain.TierInternal)
	if !res.Allowed {
		return "", fmt.Errorf("%w: %s", ErrStatementDenied, res.Reason)
	}

	if err := s.run(ctx, stmt, correlationID); err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "scratch table created",
		slog.String("table", ident),
		slog.String("correlation_id", correlationID))
	return ident, nil
}

// DropTable conditionally removes a scratch table. The universal rules deny
// every DROP, so removal is checked against the scratch lifecycle rules
// directly; the marker prefix is enforced the same way as on creation.
func (s *ScratchService) DropTable(ctx context.Context, name string, correlationID string) (string, error) {
	ident, err := scratchIdent(name)
	if err != nil {
		return "", err
	}

	stmt := "DROP TABLE IF EXISTS " + ident

	res := domain.CheckScratch(domain.Normalize(stmt))
	if !res.Allowed {
		return "", fmt.Errorf("%w: %s", ErrStatementDenied, res.Reason)
	}

	if err := s.run(ctx, stmt, correlationID); err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "scratch table dropped",
		slog.String("table", ident),
		slog.String("correlation_id", correlationID))
	return ident, nil
}

func (s *ScratchService) run(ctx context.Context, stmt string, correlationID string) error {
	err := s.runner.Exec(ctx, stmt)
	s.auditor.Record(ctx, port.AuditEntry{
		Tool:          toolNameFromCtx(ctx),
		CorrelationID: correlationID,
		Tier:          domain.TierInternal,
		SQL:           stmt,
		Allowed:       true,
		Err:           err,
	})
	if err != nil {
		return fmt.Errorf("executing scratch statement: %w", err)
	}
	return nil
}

func scratchIdent(name string) (string, error) {
	ident := name
	if !strings.HasPrefix(ident, domain.ScratchPrefix) {
		ident = domain.ScratchPrefix + ident
	}
	if !scratchIdentRe.MatchString(ident) {
		return "", fmt.Errorf("invalid scratch table name %q", name)
	}
	return ident, nil
}
