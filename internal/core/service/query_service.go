package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fctr-id/okta-ai-agent-sub003/internal/core/domain"
	"github.com/fctr-id/okta-ai-agent-sub003/internal/core/port"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ErrStatementDenied wraps every validation denial returned to callers.
// Callers must never execute a statement carrying this error.
var ErrStatementDenied = errors.New("statement denied")

type toolNameKey struct{}

// WithToolName returns a context carrying the MCP tool name for audit logging.
func WithToolName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, toolNameKey{}, name)
}

func toolNameFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(toolNameKey{}).(string); ok {
		return v
	}
	return ""
}

// QueryService is the guarded execution surface: it validates a candidate
// statement for the caller's tier and only on an allowed decision delegates
// to the executor. A denial guarantees zero interaction with the store.
type QueryService struct {
	validator port.StatementValidator
	executor  port.QueryExecutor
	auditor   port.QueryAuditor
	logger    *slog.Logger
	masks     map[string]domain.Mask // column-name → mask (nil = no masking)
	tracer    trace.Tracer
	inst      port.Instrumentation
}

func NewQueryService(validator port.StatementValidator, executor port.QueryExecutor, auditor port.QueryAuditor, logger *slog.Logger, masks map[string]domain.Mask, tracer trace.Tracer, inst port.Instrumentation) *QueryService {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}
	if inst == nil {
		inst = port.NoopInstrumentation{}
	}
	return &QueryService{
		validator: validator,
		executor:  executor,
		auditor:   auditor,
		logger:    logger,
		masks:     masks,
		tracer:    tracer,
		inst:      inst,
	}
}

// Execute implements the boundary contract validate(statement, tier,
// correlation_id). The correlation id is opaque and used for logging only.
func (s *QueryService) Execute(ctx context.Context, sql string, tier domain.Tier, correlationID string) ([]map[string]any, error) {
	return s.execute(ctx, sql, sql, tier, correlationID)
}

// ExecuteExplain validates sql exactly like Execute and, when allowed, runs
// it under EXPLAIN QUERY PLAN. The prefix is added after the decision so
// explain cannot widen the policy.
func (s *QueryService) ExecuteExplain(ctx context.Context, sql string, tier domain.Tier, correlationID string) ([]map[string]any, error) {
	return s.execute(ctx, sql, "EXPLAIN QUERY PLAN "+sql, tier, correlationID)
}

// execute validates candidateSQL and, on an allowed decision, runs execSQL.
func (s *QueryService) execute(ctx context.Context, candidateSQL, execSQL string, tier domain.Tier, correlationID string) ([]map[string]any, error) {
	ctx, span := s.tracer.Start(ctx, "QueryService.Execute",
		trace.WithAttributes(
			attribute.String("db.system", "sqlite"),
			attribute.String("db.operation.name", "query"),
			attribute.String("caller.tier", tier.String()),
		),
	)
	defer span.End()

	res := s.validator.Validate(candidateSQL, tier)
	if !res.Allowed {
		s.logger.WarnContext(ctx, "statement denied",
			slog.String("correlation_id", correlationID),
			slog.String("tier", tier.String()),
			slog.String("category", string(res.Category)),
			slog.String("reason", res.Reason),
		)
		span.SetStatus(codes.Error, res.Reason)
		s.inst.IncrementDenials(ctx, string(res.Category))
		s.auditor.Record(ctx, port.AuditEntry{
			Tool:          toolNameFromCtx(ctx),
			CorrelationID: correlationID,
			Tier:          tier,
			SQL:           candidateSQL,
			DenyReason:    res.Reason,
			DenyCategory:  res.Category,
		})
		return nil, fmt.Errorf("%w: %s", ErrStatementDenied, res.Reason)
	}

	start := time.Now()
	results, err := s.executor.Execute(ctx, execSQL)
	durationMS := time.Since(start).Milliseconds()

	s.inst.RecordQueryDuration(ctx, float64(durationMS))

	s.auditor.Record(ctx, port.AuditEntry{
		Tool:          toolNameFromCtx(ctx),
		CorrelationID: correlationID,
		Tier:          tier,
		SQL:           candidateSQL,
		Allowed:       true,
		RowsReturned:  len(results),
		DurationMS:    durationMS,
		Err:           err,
	})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.inst.IncrementQueryErrors(ctx)
		return nil, fmt.Errorf("executing statement: %w", err)
	}

	s.inst.IncrementQueryCount(ctx)
	span.SetAttributes(attribute.Int("db.response.rows", len(results)))
	domain.MaskRows(results, s.masks)

	return results, nil
}
