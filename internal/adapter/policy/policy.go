package policy

import (
	"fmt"

	"github.com/fctr-id/okta-ai-agent-sub003/internal/core/domain"
	"gopkg.in/yaml.v3"
)

// Policy holds operator-controlled configuration loaded once at startup:
// a data dictionary for the sync tables, column-level PII masking, and an
// optional overlay of extra deny rules appended to the validator catalog.
type Policy struct {
	Context ContextConfig `yaml:"context"`
	Deny    []DenyRule    `yaml:"deny"`
}

// ContextConfig maps table names to business descriptions merged into MCP
// tool responses.
type ContextConfig struct {
	Tables map[string]TableContext `yaml:"tables"`
}

// TableContext provides business descriptions and masking rules for a table
// and its columns.
type TableContext struct {
	Description string                   `yaml:"description"`
	Columns     map[string]ColumnContext `yaml:"columns"`
}

// ColumnContext holds a column's business description and optional mask
// directive.
type ColumnContext struct {
	Description string      `yaml:"description"`
	Mask        domain.Mask `yaml:"mask,omitempty"`
}

// DenyRule is the textual form of an operator deny rule. Tiers lists the
// tiers the rule applies to; empty means all.
type DenyRule struct {
	Pattern     string   `yaml:"pattern"`
	Description string   `yaml:"description"`
	Category    string   `yaml:"category"`
	Tiers       []string `yaml:"tiers"`
}

// UnmarshalYAML supports both the struct format and a legacy plain-string
// format where the column value is just its description.
func (cc *ColumnContext) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		cc.Description = value.Value
		return nil
	}
	type alias ColumnContext
	var a alias
	if err := value.Decode(&a); err != nil {
		return fmt.Errorf("decoding column context: %w", err)
	}
	*cc = ColumnContext(a)
	return nil
}

// MaskSpec extracts the column-name → mask map used by query-result masking.
func MaskSpec(ctx ContextConfig) map[string]domain.Mask {
	spec := make(map[string]domain.Mask)
	for _, tc := range ctx.Tables {
		for col, cc := range tc.Columns {
			if cc.Mask != "" {
				spec[col] = cc.Mask
			}
		}
	}
	return spec
}

// CompileDenyRules converts the overlay into catalog rules. A pattern that
// does not compile is a startup failure; the validator must never serve with
// a partial catalog.
func CompileDenyRules(rules []DenyRule) ([]domain.Rule, error) {
	out := make([]domain.Rule, 0, len(rules))
	for i, dr := range rules {
		var tiers domain.TierSet
		for _, name := range dr.Tiers {
			t, err := domain.ParseTier(name)
			if err != nil {
				return nil, fmt.Errorf("deny rule %d: %w", i, err)
			}
			if t == domain.TierInternal {
				tiers |= domain.AppliesInternal
			} else {
				tiers |= domain.AppliesUser
			}
		}
		r, err := domain.ParseRule(dr.Pattern, dr.Description, domain.Category(dr.Category), tiers)
		if err != nil {
			return nil, fmt.Errorf("deny rule %d: %w", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}
