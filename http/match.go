package http

// Match describes which route matched the request path and the groups its
// pattern captured. It is a plain value handed to the handler through the
// connection, so nested dispatchers stay reentrant: each one overwrites the
// match with its own before invoking the target handler.
type Match struct {
	// Pattern is the route pattern as it was declared, without the anchor.
	Pattern string
	// Groups holds the captured groups; index 0 is the whole matched segment.
	Groups []string
}

// Group returns the i-th captured group, or "" when out of range. Handlers
// typically use Group(1) to strip a mount prefix off the path.
func (m *Match) Group(i int) string {
	if m == nil || i < 0 || i >= len(m.Groups) {
		return ""
	}

	return m.Groups[i]
}
