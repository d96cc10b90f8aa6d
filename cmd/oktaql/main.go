package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fctr-id/okta-ai-agent-sub003/internal/adapter/mcp"
	"github.com/fctr-id/okta-ai-agent-sub003/internal/adapter/policy"
	"github.com/fctr-id/okta-ai-agent-sub003/internal/adapter/sqlite"
	"github.com/fctr-id/okta-ai-agent-sub003/internal/audit"
	"github.com/fctr-id/okta-ai-agent-sub003/internal/config"
	"github.com/fctr-id/okta-ai-agent-sub003/internal/core/domain"
	"github.com/fctr-id/okta-ai-agent-sub003/internal/core/port"
	"github.com/fctr-id/okta-ai-agent-sub003/internal/core/service"
	"github.com/fctr-id/okta-ai-agent-sub003/internal/telemetry"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (config.Overrides, error) {
	var o config.Overrides

	fs := flag.NewFlagSet("oktaql", flag.ContinueOnError)
	databasePath := fs.String("database-path", "", "path to the Okta sync SQLite database")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, error")
	maxRows := fs.Int("max-rows", 0, "server-side row limit for query results")
	queryTimeout := fs.Duration("query-timeout", 0, "per-query timeout")
	policyFile := fs.String("policy-file", "", "path to policy YAML")
	transport := fs.String("transport", "", `transport: "stdio" or "http"`)
	httpAddr := fs.String("http-addr", "", "listen address for HTTP transport")
	httpBearerToken := fs.String("http-bearer-token", "", "bearer token for HTTP transport")
	otelEnabled := fs.Bool("otel", false, "enable OpenTelemetry tracing and metrics")
	auditLog := fs.String("audit-log", "", "path to NDJSON audit log file")
	internalTools := fs.Bool("internal-tools", false, "expose the sync pipeline's scratch-table tools")

	if err := fs.Parse(args); err != nil {
		return o, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "database-path":
			o.DatabasePath = databasePath
		case "log-level":
			o.LogLevel = logLevel
		case "max-rows":
			o.MaxRows = maxRows
		case "query-timeout":
			o.QueryTimeout = queryTimeout
		case "policy-file":
			o.PolicyFile = policyFile
		case "transport":
			o.Transport = transport
		case "http-addr":
			o.HTTPAddr = httpAddr
		case "http-bearer-token":
			o.HTTPBearerToken = httpBearerToken
		}
	})
	o.OTelEnabled = *otelEnabled
	o.AuditLog = *auditLog
	o.InternalTools = *internalTools

	return o, nil
}

func run(args []string) error {
	overrides, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Logs go to stderr — stdout is reserved for the MCP stdio transport.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	logger.Info("starting okta-sql-agent",
		slog.String("version", version),
		slog.String("log_level", cfg.LogLevel.String()),
		slog.String("database_path", cfg.DatabasePath),
		slog.Int("max_rows", cfg.MaxRows),
		slog.String("query_timeout", cfg.QueryTimeout.String()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Observability.
	var tracer trace.Tracer
	var inst port.Instrumentation
	if cfg.OTelEnabled {
		provider, err := telemetry.Init(ctx, "okta-sql-agent", version)
		if err != nil {
			return fmt.Errorf("initializing telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := provider.Shutdown(shutdownCtx); err != nil {
				logger.Error("telemetry shutdown", slog.String("error", err.Error()))
			}
		}()
		tracer = otel.Tracer("okta-sql-agent")
		inst = telemetry.NewInstruments()
	} else {
		tracer = telemetry.NoopTracer()
		inst = telemetry.NoopInstruments()
	}

	// Database handles.
	db, err := sqlite.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening sync database: %w", err)
	}
	defer db.Close()

	logger.Info("sync database opened", slog.String("db.system", "sqlite"))

	// Policy overlay (optional).
	var masks map[string]domain.Mask
	var overlay []domain.Rule
	var explorer port.SchemaExplorer = sqlite.NewExplorer(db.Read)
	if cfg.PolicyFile != "" {
		pol, err := policy.LoadFromFile(cfg.PolicyFile)
		if err != nil {
			return fmt.Errorf("loading policy: %w", err)
		}
		if overlay, err = policy.CompileDenyRules(pol.Deny); err != nil {
			return fmt.Errorf("loading policy: %w", err)
		}
		masks = policy.MaskSpec(pol.Context)
		explorer = policy.NewExplorer(explorer, pol)
		logger.Info("policy loaded",
			slog.String("file", cfg.PolicyFile),
			slog.Int("deny_rules", len(overlay)),
			slog.Int("masked_columns", len(masks)),
		)
	}

	// Audit sink.
	var auditor port.QueryAuditor = audit.NoopAuditor{}
	if cfg.AuditLog != "" {
		fileAuditor, err := audit.NewFileAuditor(cfg.AuditLog)
		if err != nil {
			return fmt.Errorf("opening audit log: %w", err)
		}
		defer fileAuditor.Close()
		auditor = fileAuditor
		logger.Info("audit log enabled", slog.String("file", cfg.AuditLog))
	}

	// Domain.
	validator := domain.NewValidator(overlay...)

	// Adapters and services.
	executor := sqlite.NewExecutor(db.Read, cfg.MaxRows, cfg.QueryTimeout)
	explorerSvc := service.NewExplorerService(explorer)
	querySvc := service.NewQueryService(validator, executor, auditor, logger, masks, tracer, inst)

	// The scratch tools ride the write handle and are only exposed to the
	// sync pipeline deployment.
	var scratchSvc *service.ScratchService
	if cfg.InternalTools {
		runner := sqlite.NewRunner(db.Write)
		scratchSvc = service.NewScratchService(validator, runner, auditor, logger)
		logger.Info("internal scratch-table tools enabled")
	}

	mcpServer := mcp.NewServer(version, explorerSvc, querySvc, scratchSvc, logger, tracer, inst)

	switch cfg.Transport {
	case "http":
		return serveHTTP(ctx, mcpServer, cfg, logger)
	default:
		return serveStdio(ctx, mcpServer, logger)
	}
}

func serveStdio(ctx context.Context, s *mcpserver.MCPServer, logger *slog.Logger) error {
	stdioServer := mcpserver.NewStdioServer(s)

	logger.Info("serving MCP over stdio")
	if err := stdioServer.Listen(ctx, os.Stdin, os.Stdout); err != nil {
		return fmt.Errorf("stdio server: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}
