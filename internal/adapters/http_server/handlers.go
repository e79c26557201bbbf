package httpserver

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"rentfinder/internal/app"
)

const sessionCookie = "rf_sid"

type Handlers struct {
	S          *app.SearchService
	Images     *app.ImageStatus
	SessionTTL time.Duration
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	static, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	s.mux.Group(func(r chi.Router) {
		r.Use(RateLimit(s.opts.SearchRPS, s.opts.SearchBurst))
		r.Get("/", h.page)
		r.Get("/v1/listings", h.listListings)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// sessionID returns the caller's session id, issuing a fresh one when the
// cookie is missing or malformed.
func (h *Handlers) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}
	sid := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(h.SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sid
}

// page renders the listing page. A q parameter, even an empty one, is a
// search action; without it the session's last view is shown again.
func (h *Handlers) page(w http.ResponseWriter, r *http.Request) {
	sid := h.sessionID(w, r)

	var v app.View
	if qs, ok := r.URL.Query()["q"]; ok {
		v = h.S.Search(r.Context(), sid, qs[0])
	} else {
		v = h.S.Current(r.Context(), sid)
	}

	var buf bytes.Buffer
	if err := renderPage(&buf, newPageData(v, h.Images)); err != nil {
		log.Error().Err(err).Msg("render page failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "page could not be rendered")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "private, no-cache")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Error().Err(err).Msg("failed to write page body")
	}
}

func (h *Handlers) listListings(w http.ResponseWriter, r *http.Request) {
	out := h.S.Page(r.URL.Query().Get("q"))

	etag, body := calcETagAndBody(out)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "listings could not be encoded")
		return
	}
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write listListings body")
	}
}
