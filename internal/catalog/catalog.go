// Package catalog provides the canonical, ordered set of listings the page starts from.
package catalog

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"rentfinder/internal/domain"
)

var sampleCities = []string{"Delhi", "Gurgaon", "Noida", "Mumbai"}

// Sample synthesizes n listings by index. The same n always yields the same set.
func Sample(n int) []domain.Listing {
	if n <= 0 {
		return []domain.Listing{}
	}
	out := make([]domain.Listing, 0, n)
	for i := 0; i < n; i++ {
		l, err := domain.NewListing(
			int64(i+1),
			fmt.Sprintf("2 BHK Apartment %d", i+1),
			sampleCities[i%len(sampleCities)],
			fmt.Sprintf("%dk / month", 8+i),
			fmt.Sprintf("https://picsum.photos/seed/prop%d/600/400", i+1),
		)
		if err != nil {
			// every generated field is non-empty and ids start at 1
			panic(fmt.Sprintf("catalog: sample listing %d: %v", i+1, err))
		}
		out = append(out, l)
	}
	return out
}

// Provider holds the canonical set. It is never mutated after New.
type Provider struct {
	items []domain.Listing
	byID  map[int64]int
}

func New(listings []domain.Listing) *Provider {
	items := make([]domain.Listing, len(listings))
	copy(items, listings)
	byID := make(map[int64]int, len(items))
	for i, l := range items {
		byID[l.ID] = i
	}
	return &Provider{items: items, byID: byID}
}

// All returns a copy of the canonical set in insertion order.
func (p *Provider) All() []domain.Listing {
	out := make([]domain.Listing, len(p.items))
	copy(out, p.items)
	return out
}

func (p *Provider) Len() int { return len(p.items) }

func (p *Provider) Get(id int64) (domain.Listing, bool) {
	i, ok := p.byID[id]
	if !ok {
		return domain.Listing{}, false
	}
	return p.items[i], true
}

// Load reads the canonical set from a repository once. Rows that fail
// validation or repeat an id are skipped with a warning.
func Load(ctx context.Context, repo domain.ListingRepository) (*Provider, error) {
	rows, err := repo.ListListings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load listings: %w", err)
	}
	seen := make(map[int64]struct{}, len(rows))
	valid := make([]domain.Listing, 0, len(rows))
	for _, r := range rows {
		l, err := domain.NewListing(r.ID, r.Title, r.City, r.Price, r.Img)
		if err != nil {
			log.Warn().Err(err).Int64("id", r.ID).Msg("skipping invalid listing")
			continue
		}
		if _, dup := seen[l.ID]; dup {
			log.Warn().Int64("id", l.ID).Msg("skipping duplicate listing id")
			continue
		}
		seen[l.ID] = struct{}{}
		valid = append(valid, l)
	}
	return New(valid), nil
}
