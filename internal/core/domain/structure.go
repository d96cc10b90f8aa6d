package domain

import "regexp"

var (
	startTokenRe  = regexp.MustCompile(`^(select|with)\b`)
	selectTokenRe = regexp.MustCompile(`\bselect\b`)

	// The two allow-listed scratch-table shapes. The identifier is captured
	// so the tier check can enforce the temp_ marker; the shape itself
	// accepts any identifier so an unmarked scratch table is denied with the
	// marker-specific reason rather than a generic start-token error.
	scratchCreateRes = []*regexp.Regexp{
		regexp.MustCompile(`^create temp table ([a-z_][a-z0-9_]*) ?\(`),
		regexp.MustCompile(`^create temporary table ([a-z_][a-z0-9_]*) ?\(`),
	}

	scratchDropRe = regexp.MustCompile(`\bdrop table if exists ([a-z_][a-z0-9_]*)\b`)
)

// checkStructure is the cheap shape gate run before pattern matching.
// The statement must already be normalized.
func checkStructure(stmt string, tier Tier) Result {
	if tier == TierInternal && scratchCreateIdent(stmt) != "" {
		// Scratch-table creation is exempt from the start-token rule; the
		// marker prefix is enforced by the internal tier check.
		if !balancedParens(stmt) {
			return deny(CategoryStructure, "unbalanced parentheses")
		}
		return allow()
	}

	if !startTokenRe.MatchString(stmt) {
		return deny(CategoryStructure, "statement must start with SELECT or WITH")
	}
	if !selectTokenRe.MatchString(stmt) {
		return deny(CategoryStructure, "statement must contain a SELECT statement")
	}
	if !balancedParens(stmt) {
		return deny(CategoryStructure, "unbalanced parentheses")
	}
	return allow()
}

// scratchCreateIdent returns the table identifier of a scratch-table
// creation statement, or "" if the statement is not one.
func scratchCreateIdent(stmt string) string {
	for _, re := range scratchCreateRes {
		if m := re.FindStringSubmatch(stmt); m != nil {
			return m[1]
		}
	}
	return ""
}

func balancedParens(stmt string) bool {
	depth := 0
	for _, r := range stmt {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}
