package domain

import (
	"regexp"
	"strings"
)

// ScratchPrefix is the mandatory naming marker for scratch tables. It is
// enforced symmetrically: a scratch table must carry it when created and
// when conditionally removed.
const ScratchPrefix = "temp_"

var (
	userCreateTableRe = regexp.MustCompile(`\bcreate\s+(temp\s+|temporary\s+)?table\b`)
	userAdminRe       = regexp.MustCompile(`\b(pragma(_[a-z_]+)?|vacuum|reindex)\b`)

	scratchOpRe = regexp.MustCompile(`\bcreate\s+(temp|temporary)\s+table\b|\bdrop\s+table\s+if\s+exists\b`)

	// Full allow-listed shapes: nothing before the keyword, nothing after
	// the closing parenthesis or the identifier. The column list rejects
	// statement separators so a chained statement can never match.
	scratchShapeRe     = regexp.MustCompile(`^create (temp|temporary) table [a-z_][a-z0-9_]* ?\([^;]+\)$`)
	scratchDropShapeRe = regexp.MustCompile(`^drop table if exists [a-z_][a-z0-9_]*$`)
)

// checkUserTier applies the strict rules layered on the universal set.
// The start-token assertion repeats the structural gate on purpose; the user
// tier does not rely on any earlier stage having run.
func checkUserTier(stmt string) Result {
	if userCreateTableRe.MatchString(stmt) {
		return deny(CategoryTier, "user tier: CREATE TABLE is not permitted")
	}
	if userAdminRe.MatchString(stmt) {
		return deny(CategoryTier, "user tier: administrative statements are not permitted")
	}
	if !startTokenRe.MatchString(stmt) {
		return deny(CategoryTier, "user tier: statement must start with SELECT or WITH")
	}
	return allow()
}

// checkInternalTier applies the elevated rules: statements touching the
// scratch-table lifecycle must use the allow-listed shapes and the marker
// prefix. Everything else falls through unaffected.
func checkInternalTier(stmt string) Result {
	if !scratchOpRe.MatchString(stmt) {
		return allow()
	}
	return CheckScratch(stmt)
}

// CheckScratch enforces the scratch-table rules on a normalized statement
// that creates or conditionally removes a scratch table. It is exported for
// the staging workflow, which validates conditional removals directly: the
// universal rules deny every DROP, so removal never reaches the tier stage
// of the general pipeline.
func CheckScratch(stmt string) Result {
	if ident := scratchCreateIdent(stmt); ident != "" {
		if !strings.HasPrefix(ident, ScratchPrefix) {
			return deny(CategoryTier, "internal tier: scratch tables must use the temp_ prefix")
		}
		if !scratchShapeRe.MatchString(stmt) {
			return deny(CategoryTier, "internal tier: scratch table creation does not match the allowed form")
		}
		return allow()
	}

	if m := scratchDropRe.FindStringSubmatch(stmt); m != nil {
		if !strings.HasPrefix(m[1], ScratchPrefix) {
			return deny(CategoryTier, "internal tier: scratch tables must use the temp_ prefix")
		}
		if !scratchDropShapeRe.MatchString(stmt) {
			return deny(CategoryTier, "internal tier: scratch table removal does not match the allowed form")
		}
		return allow()
	}

	return deny(CategoryTier, "internal tier: unrecognised scratch table statement")
}
