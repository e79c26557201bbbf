package app

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"rentfinder/internal/domain"
)

// ImageStatus tracks listings whose image is known not to load.
type ImageStatus struct {
	placeholder string

	mu     sync.RWMutex
	broken map[int64]struct{}
}

func NewImageStatus(placeholder string) *ImageStatus {
	return &ImageStatus{placeholder: placeholder, broken: map[int64]struct{}{}}
}

func (s *ImageStatus) MarkBroken(id int64) {
	s.mu.Lock()
	s.broken[id] = struct{}{}
	s.mu.Unlock()
}

func (s *ImageStatus) IsBroken(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.broken[id]
	return ok
}

func (s *ImageStatus) Placeholder() string { return s.placeholder }

// URL is the image to render for l: its own, unless probing found it broken
// or it is empty.
func (s *ImageStatus) URL(l domain.Listing) string {
	if l.Img == "" || s.IsBroken(l.ID) {
		return s.placeholder
	}
	return l.Img
}

// ProbeImages checks every listing image with at most workers checks in
// flight. repo may be nil; when set, each broken image is logged as a miss.
// It returns the number of broken images found.
func ProbeImages(ctx context.Context, checker domain.ImageChecker, listings []domain.Listing, workers int, status *ImageStatus, repo domain.ListingRepository) (int, error) {
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		broken int
	)

	for _, l := range listings {
		l := l
		if l.Img == "" {
			status.MarkBroken(l.ID)
			mu.Lock()
			broken++
			mu.Unlock()
			continue
		}

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return broken, err
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			err := checker.Check(ctx, l.Img)
			if err == nil {
				return
			}
			if ctx.Err() != nil {
				return
			}
			status.MarkBroken(l.ID)
			mu.Lock()
			broken++
			mu.Unlock()

			code := 0
			if errors.Is(err, domain.ErrNotFound) {
				code = 404
			}
			log.Warn().Int64("id", l.ID).Str("img", l.Img).Err(err).Msg("image unavailable")
			if repo != nil {
				if lerr := repo.LogMiss(ctx, l.ID, code, "image: "+err.Error()); lerr != nil {
					log.Error().Err(lerr).Int64("id", l.ID).Msg("log miss failed")
				}
			}
		}()
	}

	wg.Wait()
	return broken, ctx.Err()
}
