// Package search provides the catalog search-box semantics: case-insensitive
// substring matching across an entity's searchable fields, plus the debounce
// timer used to coalesce rapid consecutive triggers.
package search

import "strings"

// Matches reports whether any of the fields contains query, ignoring case.
// An empty query matches everything.
func Matches(query string, fields ...string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
