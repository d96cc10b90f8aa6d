package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMask_Valid(t *testing.T) {
	t.Parallel()
	valid := []Mask{"", MaskRedact, MaskHash, MaskPartial, MaskNull}
	for _, m := range valid {
		assert.True(t, m.Valid(), "expected %q to be valid", m)
	}

	invalid := []Mask{"encrypt", "REDACT", "mask", "sha256"}
	for _, m := range invalid {
		assert.False(t, m.Valid(), "expected %q to be invalid", m)
	}
}

func TestMask_Redact(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "***", MaskRedact.Apply("alice@example.com"))
	assert.Equal(t, "***", MaskRedact.Apply(12345))
	assert.Equal(t, "***", MaskRedact.Apply(""))
	assert.Nil(t, MaskRedact.Apply(nil))
}

func TestMask_Hash(t *testing.T) {
	t.Parallel()
	result := MaskHash.Apply("alice@example.com")
	s, ok := result.(string)
	assert.True(t, ok)
	assert.Len(t, s, 64, "hash should be 64 hex chars (full SHA256)")

	// Deterministic: same input, same hash; stable for joins across rows.
	assert.Equal(t, result, MaskHash.Apply("alice@example.com"))
	assert.NotEqual(t, result, MaskHash.Apply("bob@example.com"))

	assert.Nil(t, MaskHash.Apply(nil))
}

func TestMask_Partial(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "******7890", MaskPartial.Apply("1234567890"))
	assert.Equal(t, "*************.com", MaskPartial.Apply("alice@example.com"))

	// Short values are fully starred so the length is not recoverable.
	assert.Equal(t, "***abcd", MaskPartial.Apply("abcd"))
	assert.Equal(t, "***x", MaskPartial.Apply("x"))
	assert.Nil(t, MaskPartial.Apply(nil))
}

func TestMask_Null(t *testing.T) {
	t.Parallel()
	assert.Nil(t, MaskNull.Apply("secret"))
	assert.Nil(t, MaskNull.Apply(42))
	assert.Nil(t, MaskNull.Apply(nil))
}

func TestMask_ZeroValuePassesThrough(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "as-is", Mask("").Apply("as-is"))
}

func TestMaskRows(t *testing.T) {
	t.Parallel()
	rows := []map[string]any{
		{"okta_id": "00u1", "email": "alice@example.com", "phone": "5551234567"},
		{"okta_id": "00u2", "email": "bob@example.com", "phone": nil},
	}
	MaskRows(rows, map[string]Mask{
		"email": MaskRedact,
		"phone": MaskPartial,
	})

	assert.Equal(t, "***", rows[0]["email"])
	assert.Equal(t, "***", rows[1]["email"])
	assert.Equal(t, "******4567", rows[0]["phone"])
	assert.Nil(t, rows[1]["phone"], "NULL stays NULL")
	assert.Equal(t, "00u1", rows[0]["okta_id"], "unmasked columns untouched")
}

func TestMaskRows_NoMasks(t *testing.T) {
	t.Parallel()
	rows := []map[string]any{{"email": "alice@example.com"}}
	MaskRows(rows, nil)
	assert.Equal(t, "alice@example.com", rows[0]["email"])
}
