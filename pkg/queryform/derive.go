package queryform

// DeriveDisplay computes the read-only display query from the active input
// mode. An empty authoritative field yields the empty string.
func DeriveDisplay(isIndic bool, query, indicQuery string) string {
	if isIndic {
		return indicQuery
	}
	return query
}
