package domain

import (
	"regexp"
	"strings"
)

var (
	lineCommentRe  = regexp.MustCompile(`--[^\n]*`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

// Normalize prepares a raw statement for pattern matching: line and
// (non-nested) block comments are replaced with a space, whitespace runs
// collapse to a single space, and the text is case-folded and trimmed.
// Normalizing already-normalized text is a no-op.
//
// Known limitation: comments are stripped before any pattern check runs, so
// a keyword interrupted by a comment marker ("DE/**/LETE") is not
// reassembled into something the pattern stage would recognise. This is an
// open risk of the lexical approach, covered explicitly in the tests rather
// than patched here.
func Normalize(statement string) string {
	s := lineCommentRe.ReplaceAllString(statement, " ")
	s = blockCommentRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}
