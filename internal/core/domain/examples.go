package domain

// KnownSafeStatements returns canonical statements the given tier is
// expected to allow. The list is a non-normative reference for docs and
// test fixtures; the decision path never consults it.
func KnownSafeStatements(tier Tier) []string {
	user := []string{
		"SELECT okta_id, email, status FROM users WHERE status = 'ACTIVE'",
		"SELECT g.name, COUNT(*) AS members FROM groups g JOIN user_groups ug ON ug.group_okta_id = g.okta_id GROUP BY g.name",
		"WITH recent AS (SELECT okta_id, last_login FROM users WHERE last_login > '2025-01-01') SELECT COUNT(*) FROM recent",
		"SELECT label, status FROM applications ORDER BY label LIMIT 50",
	}
	if tier == TierUser {
		return user
	}
	return append(user,
		"CREATE TEMP TABLE temp_api_users (okta_id TEXT, email TEXT)",
		"CREATE TEMPORARY TABLE temp_sync_batch (okta_id TEXT, payload TEXT)",
	)
}
