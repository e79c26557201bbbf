package domain

import "context"

type ListingRepository interface {
	// Write paths
	UpsertListing(ctx context.Context, l Listing) error
	LogMiss(ctx context.Context, id int64, status int, reason string) error

	// Read paths
	ListListings(ctx context.Context) ([]Listing, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// ImageChecker reports whether an image URL is reachable.
// A nil error means the image can be displayed.
type ImageChecker interface {
	Check(ctx context.Context, url string) error
}

// Read models
type ListingsPage struct {
	Query string    `json:"query"`
	Total int       `json:"total"`
	Items []Listing `json:"items"`
}
