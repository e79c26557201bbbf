package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"rentfinder/internal/adapters/observability"
	"rentfinder/internal/catalog"
	"rentfinder/internal/domain"
)

// View is what a session currently displays.
type View struct {
	Query    string
	Listings []domain.Listing
	Total    int
}

type sessionState struct {
	Query string `json:"query"`
}

// SearchService owns the displayed sequence of every session. A session only
// stores its last query; the listings are re-derived from the canonical set.
type SearchService struct {
	catalog    *catalog.Provider
	sessions   domain.Cache
	sessionTTL time.Duration
}

func NewSearchService(p *catalog.Provider, sessions domain.Cache, ttl time.Duration) *SearchService {
	return &SearchService{catalog: p, sessions: sessions, sessionTTL: ttl}
}

// Search is the search action: it replaces the session's displayed view.
func (s *SearchService) Search(ctx context.Context, sid, query string) View {
	v := s.view(query)
	observability.ObserveSearch(query, len(v.Listings))

	if sid != "" && s.sessions != nil {
		if err := s.sessions.Set(ctx, sessionKey(sid), sessionState{Query: query}, int(s.sessionTTL.Seconds())); err != nil {
			log.Warn().Err(err).Str("sid", sid).Msg("session save failed")
		}
	}
	return v
}

// Current returns the session's displayed view, or the canonical set when the
// session is unknown.
func (s *SearchService) Current(ctx context.Context, sid string) View {
	if sid == "" || s.sessions == nil {
		return s.view("")
	}
	var st sessionState
	ok, err := s.sessions.Get(ctx, sessionKey(sid), &st)
	if err != nil {
		log.Warn().Err(err).Str("sid", sid).Msg("session load failed")
		return s.view("")
	}
	if !ok {
		return s.view("")
	}
	return s.view(st.Query)
}

// Page runs the stateless filter used by the JSON API.
func (s *SearchService) Page(query string) domain.ListingsPage {
	v := s.view(query)
	return domain.ListingsPage{Query: query, Total: v.Total, Items: v.Listings}
}

func (s *SearchService) view(query string) View {
	return View{Query: query, Listings: Filter(s.catalog.All(), query), Total: s.catalog.Len()}
}

func sessionKey(sid string) string { return "session:" + sid }
