package domain

// HasRole reports whether actual is one of allowed. No hierarchy is implied:
// ADMIN does not satisfy a route that only lists AGENT.
func HasRole(actual Role, allowed []Role) bool {
	for _, r := range allowed {
		if actual == r {
			return true
		}
	}
	return false
}

// HasTier reports whether actual ranks at or above required. Unknown tiers
// never satisfy a requirement.
func HasTier(actual, required Tier) bool {
	a, r := actual.Rank(), required.Rank()
	if a < 0 || r < 0 {
		return false
	}
	return a >= r
}
