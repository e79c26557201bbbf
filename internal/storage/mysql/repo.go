package mysql

import (
	"context"
	"database/sql"
	"unicode/utf8"

	"rentfinder/internal/domain"
)

// image_misses.reason is VARCHAR(255), counted in characters.
const maxReasonLen = 255

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) UpsertListing(ctx context.Context, l domain.Listing) error {
	_, err := r.db.ExecContext(ctx, upsertListingSQL, l.ID, l.Title, l.City, l.Price, l.Img)
	return err
}

func (r *Repo) LogMiss(ctx context.Context, id int64, status int, reason string) error {
	reason = truncateRunes(reason, maxReasonLen)
	_, err := r.db.ExecContext(ctx, insertMissSQL, id, status, reason)
	return err
}

func (r *Repo) ListListings(ctx context.Context) ([]domain.Listing, error) {
	rows, err := r.db.QueryContext(ctx, listListingsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Listing
	for rows.Next() {
		var l domain.Listing
		var price, img sql.NullString
		if err := rows.Scan(&l.ID, &l.Title, &l.City, &price, &img); err != nil {
			return nil, err
		}
		l.Price = price.String
		l.Img = img.String
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
