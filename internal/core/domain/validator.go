package domain

import (
	"fmt"
	"strings"
)

// Validator classifies candidate SQL statements produced by the
// text-to-SQL generator. It is a pure mapping from (statement, tier) to a
// decision: no I/O, no hidden state, safe for unsynchronized concurrent use.
// Denial is the default; a statement is allowed only when every stage of the
// pipeline passes.
//
// An allowed decision certifies lexical and structural safety only. Semantic
// correctness, parameter binding, row limits and timeouts remain the
// caller's responsibility.
type Validator struct {
	rules []Rule
}

// NewValidator builds a validator over the built-in catalog plus any
// operator overlay rules. The catalog is immutable after construction.
func NewValidator(extra ...Rule) *Validator {
	rules := make([]Rule, 0, len(universalRules)+len(extra))
	rules = append(rules, universalRules...)
	rules = append(rules, extra...)
	return &Validator{rules: rules}
}

// Validate runs the statement through the full pipeline, short-circuiting on
// the first denial: input check, normalization, catalog rules, structural
// gate, tier rules, engine backstop. The catalog scan runs before the shape
// gate so a dangerous statement is denied with the pattern it matched, not a
// generic shape complaint; every stage is a pure filter, so the order only
// affects which reason a doubly-bad statement gets.
func (v *Validator) Validate(statement string, tier Tier) Result {
	if strings.TrimSpace(statement) == "" {
		return deny(CategoryInput, "empty or invalid statement")
	}

	stmt := Normalize(statement)
	if stmt == "" {
		return deny(CategoryInput, "empty or invalid statement")
	}

	for _, rule := range v.rules {
		if !rule.Tiers.includes(tier) {
			continue
		}
		if m := rule.Pattern.FindString(stmt); m != "" {
			return deny(rule.Category, fmt.Sprintf("%s: %q", rule.Description, excerpt(m)))
		}
	}

	if r := checkStructure(stmt, tier); !r.Allowed {
		return r
	}

	if r := tier.check()(stmt); !r.Allowed {
		return r
	}

	for _, rule := range backstopRules {
		if m := rule.Pattern.FindString(stmt); m != "" {
			return deny(rule.Category, fmt.Sprintf("%s: %q", rule.Description, excerpt(m)))
		}
	}

	return allow()
}
