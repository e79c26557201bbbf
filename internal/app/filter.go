package app

import (
	"strings"

	"rentfinder/internal/domain"
)

// Filter narrows all to the listings whose title or city contains query,
// ignoring case. An empty query returns all as is. Survivors keep their
// relative order and all is never modified.
func Filter(all []domain.Listing, query string) []domain.Listing {
	if query == "" {
		return all
	}
	q := strings.ToLower(query)
	out := make([]domain.Listing, 0, len(all))
	for _, l := range all {
		if strings.Contains(strings.ToLower(l.Title), q) || strings.Contains(strings.ToLower(l.City), q) {
			out = append(out, l)
		}
	}
	return out
}
