package domain

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// TierSet marks which tiers a rule applies to.
type TierSet uint8

const (
	AppliesUser TierSet = 1 << iota
	AppliesInternal

	AppliesAll = AppliesUser | AppliesInternal
)

func (s TierSet) includes(t Tier) bool {
	if t == TierInternal {
		return s&AppliesInternal != 0
	}
	return s&AppliesUser != 0
}

// Rule is one entry of the deny catalog: a matcher, the denial category it
// produces, and the tiers it applies to.
type Rule struct {
	Pattern     *regexp.Regexp
	Category    Category
	Description string
	Tiers       TierSet
}

// ParseRule compiles a rule from its textual form (operator policy overlay).
func ParseRule(expr, description string, cat Category, tiers TierSet) (Rule, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Rule{}, fmt.Errorf("compiling rule %q: %w", expr, err)
	}
	if description == "" {
		description = "operator deny rule"
	}
	if tiers == 0 {
		tiers = AppliesAll
	}
	switch cat {
	case CategoryPolicy, CategoryTier, CategoryEngine:
	case "":
		cat = CategoryPolicy
	default:
		return Rule{}, fmt.Errorf("rule %q: invalid category %q", expr, cat)
	}
	return Rule{Pattern: re, Category: cat, Description: description, Tiers: tiers}, nil
}

func mustRule(expr, description string, cat Category) Rule {
	return Rule{
		Pattern:     regexp.MustCompile(expr),
		Category:    cat,
		Description: description,
		Tiers:       AppliesAll,
	}
}

// universalRules deny regardless of tier. First match wins, so the order
// follows severity: data mutation, schema mutation, privileged execution,
// statement chaining, suspicious set operations, engine administration.
// Bare keywords are intentionally aggressive: a legitimate query quoting
// "delete" in a string literal is denied rather than risk a miss.
var universalRules = []Rule{
	mustRule(`\bdelete\b`, "data mutation", CategoryPolicy),
	mustRule(`\binsert\b`, "data mutation", CategoryPolicy),
	mustRule(`\bupdate\b`, "data mutation", CategoryPolicy),
	mustRule(`\btruncate\b`, "data mutation", CategoryPolicy),

	// CREATE TABLE itself is tier-gated, not universal.
	mustRule(`\bdrop\s+(table|database|schema|view|index)\b`, "schema mutation", CategoryPolicy),
	mustRule(`\balter\s+table\b`, "schema mutation", CategoryPolicy),
	mustRule(`\bcreate\s+(database|schema|index|view)\b`, "schema mutation", CategoryPolicy),

	mustRule(`\bexec(ute)?\b`, "privileged execution", CategoryPolicy),
	mustRule(`\bcall\b`, "privileged execution", CategoryPolicy),
	mustRule(`\bprocedure\b`, "privileged execution", CategoryPolicy),
	mustRule(`\b(sp|xp)_[a-z0-9_]+`, "privileged execution", CategoryPolicy),

	mustRule(`;\s*(delete|insert|update|truncate|drop|create|alter|exec)`, "statement chaining", CategoryPolicy),

	// Injection probes, not legitimate analytics: UNION SELECT padded with
	// five or more literal NULL columns, or UNION ALL SELECT of a bare
	// numeric literal. Real multi-column unions of named fields pass.
	mustRule(`union\s+select\s+null(\s*,\s*null){4,}`, "suspicious union", CategoryPolicy),
	mustRule(`union\s+all\s+select\s+[0-9]`, "suspicious union", CategoryPolicy),

	mustRule(`\battach\s+database\b`, "engine administration", CategoryPolicy),
	mustRule(`\bdetach\s+database\b`, "engine administration", CategoryPolicy),
	mustRule(`\bload_extension\b`, "engine administration", CategoryPolicy),
}

// backstopRules run last, on every tier, so no tier-specific path can let an
// administrative engine operation through.
var backstopRules = []Rule{
	// Covers the statement form and the pragma_* table-valued functions,
	// which expose the same engine metadata through a bare SELECT.
	mustRule(`\bpragma(_[a-z_]+)?\b`, "engine administration", CategoryEngine),
	mustRule(`\bload_extension\b`, "engine administration", CategoryEngine),
	mustRule(`\battach\s+database\b`, "engine administration", CategoryEngine),
	mustRule(`\bdetach\s+database\b`, "engine administration", CategoryEngine),
	mustRule(`\bvacuum\b`, "engine administration", CategoryEngine),
	mustRule(`\breindex\b`, "engine administration", CategoryEngine),
}

// maxExcerpt bounds how much of an untrusted statement a denial reason may
// quote, to keep logs from echoing arbitrary attacker text.
const maxExcerpt = 40

func excerpt(s string) string {
	if len(s) <= maxExcerpt {
		return s
	}
	cut := maxExcerpt
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
