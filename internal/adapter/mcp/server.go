package mcp

import (
	"log/slog"

	"github.com/fctr-id/okta-ai-agent-sub003/internal/core/port"
	"github.com/fctr-id/okta-ai-agent-sub003/internal/core/service"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/trace"
)

// NewServer creates the MCPServer with tools and logging hooks. A nil
// scratch service leaves the scratch-table tools unregistered.
func NewServer(version string, explorer *service.ExplorerService, query *service.QueryService, scratch *service.ScratchService, logger *slog.Logger, tracer trace.Tracer, inst port.Instrumentation) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		version,
		server.WithHooks(ToolCallHooks(logger, tracer, inst)),
	)

	RegisterTools(s, explorer, query, scratch)

	return s
}
