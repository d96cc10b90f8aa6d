package domain

import (
	"crypto/sha256"
	"fmt"
)

// Mask is a column-level redaction strategy applied to query results before
// they leave the gateway. The sync database carries Okta PII (emails, phone
// numbers, factor enrollment data); operators pick per-column strategies in
// the policy file.
type Mask string

const (
	MaskRedact  Mask = "redact"  // replace with ***
	MaskHash    Mask = "hash"    // sha256 hex, stable across rows
	MaskPartial Mask = "partial" // keep the last 4 characters
	MaskNull    Mask = "null"    // replace with SQL NULL
)

// Valid reports whether m is a recognised strategy. The zero value means
// "no mask" and is valid.
func (m Mask) Valid() bool {
	switch m {
	case MaskRedact, MaskHash, MaskPartial, MaskNull, "":
		return true
	}
	return false
}

// Apply transforms a single value. Masked values may change type (hash and
// partial always produce strings). NULL input stays NULL.
func (m Mask) Apply(value any) any {
	if value == nil {
		return nil
	}
	switch m {
	case MaskRedact:
		return "***"
	case MaskHash:
		sum := sha256.Sum256([]byte(fmt.Sprintf("%v", value)))
		return fmt.Sprintf("%x", sum)
	case MaskPartial:
		return partial(fmt.Sprintf("%v", value))
	case MaskNull:
		return nil
	}
	return value
}

// partial keeps the last four characters and stars the rest. Short values
// are fully starred so the original length is not recoverable.
func partial(s string) string {
	runes := []rune(s)
	if len(runes) <= 4 {
		return "***" + s
	}
	out := make([]rune, len(runes))
	for i := range out {
		if i < len(runes)-4 {
			out[i] = '*'
		} else {
			out[i] = runes[i]
		}
	}
	return string(out)
}

// MaskRows applies column masks to result rows in place. Matching is by
// column name only; aliased columns in the SELECT list escape masking, which
// is why masking is a courtesy layer and not the access-control boundary.
func MaskRows(rows []map[string]any, masks map[string]Mask) {
	if len(masks) == 0 {
		return
	}
	for _, row := range rows {
		for col, m := range masks {
			if v, ok := row[col]; ok {
				row[col] = m.Apply(v)
			}
		}
	}
}
