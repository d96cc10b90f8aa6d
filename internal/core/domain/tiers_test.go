package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckUserTier(t *testing.T) {
	t.Parallel()
	tests := []struct {
		stmt    string
		allowed bool
		reason  string
	}{
		{"select okta_id from users", true, ""},
		{"with r as (select 1) select * from r", true, ""},
		{"create table evil (id text)", false, "CREATE TABLE"},
		{"create temp table temp_x (id text)", false, "CREATE TABLE"},
		{"create temporary table temp_x (id text)", false, "CREATE TABLE"},
		{"vacuum", false, "administrative"},
		{"reindex users", false, "administrative"},
		{"select 1 where pragma = 1", false, "administrative"},
		{"values (1)", false, "SELECT or WITH"},
	}
	for _, tc := range tests {
		res := checkUserTier(tc.stmt)
		assert.Equal(t, tc.allowed, res.Allowed, "stmt: %s", tc.stmt)
		if !tc.allowed {
			assert.Equal(t, CategoryTier, res.Category)
			assert.Contains(t, res.Reason, "user tier:")
			assert.Contains(t, res.Reason, tc.reason)
		}
	}
}

func TestCheckInternalTier_NonScratchFallsThrough(t *testing.T) {
	t.Parallel()
	res := checkInternalTier("select okta_id from users")
	assert.True(t, res.Allowed)
}

func TestCheckScratch_Create(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		stmt    string
		allowed bool
		reason  string
	}{
		{
			name:    "marked temp table",
			stmt:    "create temp table temp_api_users (okta_id text, email text)",
			allowed: true,
		},
		{
			name:    "marked temporary table",
			stmt:    "create temporary table temp_batch (id text)",
			allowed: true,
		},
		{
			name:   "missing marker",
			stmt:   "create temp table bad_name (id text)",
			reason: "temp_ prefix",
		},
		{
			name:   "trailing payload after column list",
			stmt:   "create temp table temp_x (id text) as select * from users",
			reason: "allowed form",
		},
		{
			name:   "empty column list",
			stmt:   "create temp table temp_x ()",
			reason: "allowed form",
		},
		{
			name:   "chained statement after column list",
			stmt:   "create temp table temp_x (a text); select (1)",
			reason: "allowed form",
		},
		{
			name:   "separator inside column list",
			stmt:   "create temp table temp_x (a text; b text)",
			reason: "allowed form",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res := CheckScratch(tc.stmt)
			require.Equal(t, tc.allowed, res.Allowed, "reason: %s", res.Reason)
			if !tc.allowed {
				assert.Equal(t, CategoryTier, res.Category)
				assert.Contains(t, res.Reason, tc.reason)
			}
		})
	}
}

func TestCheckScratch_Drop(t *testing.T) {
	t.Parallel()
	res := CheckScratch("drop table if exists temp_api_users")
	assert.True(t, res.Allowed)

	// Marker enforced symmetrically on removal.
	res = CheckScratch("drop table if exists users")
	require.False(t, res.Allowed)
	assert.Contains(t, res.Reason, "temp_ prefix")

	// The conditional form must be the whole statement, not embedded.
	res = CheckScratch("select 1; drop table if exists temp_x")
	require.False(t, res.Allowed)
	assert.Contains(t, res.Reason, "allowed form")

	// Nothing may follow the identifier either.
	res = CheckScratch("drop table if exists temp_x; select (1)")
	require.False(t, res.Allowed)
	assert.Contains(t, res.Reason, "allowed form")
}

func TestCheckScratch_Unrecognised(t *testing.T) {
	t.Parallel()
	res := CheckScratch("drop table users")
	require.False(t, res.Allowed)
	assert.Equal(t, CategoryTier, res.Category)
}

func TestTier_StringAndLevel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "user", TierUser.String())
	assert.Equal(t, "internal", TierInternal.String())
	assert.Equal(t, "strict", TierUser.SecurityLevel())
	assert.Equal(t, "elevated", TierInternal.SecurityLevel())
}

func TestParseTier(t *testing.T) {
	t.Parallel()
	tier, err := ParseTier("user")
	require.NoError(t, err)
	assert.Equal(t, TierUser, tier)

	tier, err = ParseTier("internal")
	require.NoError(t, err)
	assert.Equal(t, TierInternal, tier)

	_, err = ParseTier("admin")
	assert.Error(t, err)
}
