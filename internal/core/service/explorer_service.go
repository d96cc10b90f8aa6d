package service

import (
	"context"
	"fmt"

	"github.com/fctr-id/okta-ai-agent-sub003/internal/core/port"
)

// ExplorerService exposes schema discovery to the MCP adapter.
type ExplorerService struct {
	explorer port.SchemaExplorer
}

func NewExplorerService(explorer port.SchemaExplorer) *ExplorerService {
	return &ExplorerService{explorer: explorer}
}

func (s *ExplorerService) ListTables(ctx context.Context) ([]port.TableInfo, error) {
	tables, err := s.explorer.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	return tables, nil
}

func (s *ExplorerService) DescribeTable(ctx context.Context, name string) (*port.TableDetail, error) {
	detail, err := s.explorer.DescribeTable(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("describing table %s: %w", name, err)
	}
	return detail, nil
}
