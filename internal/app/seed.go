package app

import (
	"context"
	"fmt"

	"rentfinder/internal/domain"
)

type SeedService struct {
	repo domain.ListingRepository
}

func NewSeedService(r domain.ListingRepository) *SeedService {
	return &SeedService{repo: r}
}

// SeedListing validates l and upserts it. Invalid listings are rejected
// before any write.
func (s *SeedService) SeedListing(ctx context.Context, l domain.Listing) error {
	v, err := domain.NewListing(l.ID, l.Title, l.City, l.Price, l.Img)
	if err != nil {
		return err
	}
	if err := s.repo.UpsertListing(ctx, v); err != nil {
		return fmt.Errorf("upsert listing %d: %w", v.ID, err)
	}
	return nil
}
