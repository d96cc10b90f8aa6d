package policy

import (
	"context"

	"github.com/fctr-id/okta-ai-agent-sub003/internal/core/port"
)

// Explorer decorates a SchemaExplorer with data-dictionary context from the
// policy file.
type Explorer struct {
	inner  port.SchemaExplorer
	policy *Policy
}

func NewExplorer(inner port.SchemaExplorer, pol *Policy) *Explorer {
	return &Explorer{inner: inner, policy: pol}
}

func (p *Explorer) ListTables(ctx context.Context) ([]port.TableInfo, error) {
	tables, err := p.inner.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	for i, t := range tables {
		if tc, ok := p.policy.Context.Tables[t.Name]; ok && tc.Description != "" {
			tables[i].Description = tc.Description
		}
	}
	return tables, nil
}

func (p *Explorer) DescribeTable(ctx context.Context, name string) (*port.TableDetail, error) {
	detail, err := p.inner.DescribeTable(ctx, name)
	if err != nil {
		return nil, err
	}
	tc, ok := p.policy.Context.Tables[detail.Name]
	if !ok {
		return detail, nil
	}
	if tc.Description != "" {
		detail.Description = tc.Description
	}
	for i, col := range detail.Columns {
		if cc, ok := tc.Columns[col.Name]; ok && cc.Description != "" {
			detail.Columns[i].Description = cc.Description
		}
	}
	return detail, nil
}
