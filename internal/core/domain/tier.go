package domain

import "fmt"

// Tier classifies the caller of a validation request. The tier decides which
// rule set applies on top of the universal deny rules.
type Tier int

const (
	// TierUser is the strict tier: read-only SELECT/WITH statements only.
	TierUser Tier = iota
	// TierInternal is the elevated tier: additionally allowed the scratch
	// table lifecycle used by the Okta API sync pipeline.
	TierInternal
)

func (t Tier) String() string {
	switch t {
	case TierUser:
		return "user"
	case TierInternal:
		return "internal"
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// SecurityLevel returns the security level the tier maps to.
func (t Tier) SecurityLevel() string {
	if t == TierInternal {
		return "elevated"
	}
	return "strict"
}

// check returns the tier-specific validation function. Unknown tiers fall
// back to the strict rules.
func (t Tier) check() func(string) Result {
	if t == TierInternal {
		return checkInternalTier
	}
	return checkUserTier
}

// ParseTier maps the wire names "user" and "internal" to a Tier.
func ParseTier(s string) (Tier, error) {
	switch s {
	case "user":
		return TierUser, nil
	case "internal":
		return TierInternal, nil
	}
	return TierUser, fmt.Errorf("unknown tier %q", s)
}

// Category classifies a denial for audit logging.
type Category string

const (
	// CategoryInput marks an empty or non-textual statement.
	CategoryInput Category = "input"
	// CategoryStructure marks a wrong start token or unbalanced grouping.
	CategoryStructure Category = "structure"
	// CategoryPolicy marks a universal dangerous-pattern match.
	CategoryPolicy Category = "policy"
	// CategoryTier marks an operation the caller's tier does not permit.
	CategoryTier Category = "tier"
	// CategoryEngine marks an engine-administrative statement.
	CategoryEngine Category = "engine"
)

// Result is the decision for a single validation call.
// Reason and Category are populated exactly when Allowed is false.
type Result struct {
	Allowed  bool
	Reason   string
	Category Category
}

func allow() Result {
	return Result{Allowed: true}
}

func deny(cat Category, reason string) Result {
	return Result{Reason: reason, Category: cat}
}
