package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidListing = errors.New("invalid listing")
	ErrNotFound       = errors.New("not found")
	ErrBrokenImage    = errors.New("broken image")
)

// Listing is a single rental property shown in the grid.
// Price is a display string; no arithmetic is done on it.
type Listing struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	City  string `json:"city"`
	Price string `json:"price"`
	Img   string `json:"img"`
}

// NewListing builds a Listing, rejecting non-positive ids and blank title/city.
func NewListing(id int64, title, city, price, img string) (Listing, error) {
	if id <= 0 {
		return Listing{}, fmt.Errorf("%w: id must be positive, got %d", ErrInvalidListing, id)
	}
	if strings.TrimSpace(title) == "" {
		return Listing{}, fmt.Errorf("%w: title is empty (id %d)", ErrInvalidListing, id)
	}
	if strings.TrimSpace(city) == "" {
		return Listing{}, fmt.Errorf("%w: city is empty (id %d)", ErrInvalidListing, id)
	}
	return Listing{ID: id, Title: title, City: city, Price: price, Img: img}, nil
}
