// Package materialize folds the flat joined rows produced by query.Articles
// into nested article records. One article joined to N tags arrives as N
// rows; the fold groups by article id and gathers the tag names.
package materialize

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/conduit-article-api/internal/models"
)

// Row is one flat joined row in query.Articles column order. It is the
// internal projection: it still carries the author id and the raw
// relationship markers, none of which survive into models.Article.
type Row struct {
	ArticleID      string
	Slug           string
	Title          string
	Description    string
	Body           string
	FavoritesCount int
	CreatedAt      time.Time
	UpdatedAt      time.Time

	AuthorID       string
	AuthorUsername string
	AuthorBio      sql.NullString
	AuthorImage    sql.NullString

	TagName sql.NullString

	// Non-null iff the viewer has the corresponding relationship row
	FavoriteMark sql.NullString
	FollowMark   sql.NullString
}

// Scan reads every result row. Column order must match query.Articles.
func Scan(rows *sql.Rows) ([]Row, error) {
	var out []Row
	for rows.Next() {
		var r Row
		err := rows.Scan(
			&r.ArticleID, &r.Slug, &r.Title, &r.Description, &r.Body,
			&r.FavoritesCount, &r.CreatedAt, &r.UpdatedAt,
			&r.AuthorID, &r.AuthorUsername, &r.AuthorBio, &r.AuthorImage,
			&r.TagName,
			&r.FavoriteMark, &r.FollowMark,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Fold collapses the joined rows into one nested record per distinct
// article id, preserving first-seen order. Tag names are deduplicated;
// favorited/following are true iff any row in the group carries the
// marker. The author id is consumed here and never copied out.
func Fold(rows []Row) []*models.Article {
	articles := make([]*models.Article, 0, len(rows))
	byID := make(map[string]*models.Article, len(rows))
	seenTags := make(map[string]map[string]bool, len(rows))

	for _, r := range rows {
		a, ok := byID[r.ArticleID]
		if !ok {
			var bio, image *string
			if r.AuthorBio.Valid {
				v := r.AuthorBio.String
				bio = &v
			}
			if r.AuthorImage.Valid {
				v := r.AuthorImage.String
				image = &v
			}
			a = &models.Article{
				ID:             r.ArticleID,
				Slug:           r.Slug,
				Title:          r.Title,
				Description:    r.Description,
				Body:           r.Body,
				TagList:        []string{},
				CreatedAt:      r.CreatedAt,
				UpdatedAt:      r.UpdatedAt,
				FavoritesCount: r.FavoritesCount,
				Author: models.Profile{
					Username: r.AuthorUsername,
					Bio:      bio,
					Image:    image,
				},
			}
			byID[r.ArticleID] = a
			seenTags[r.ArticleID] = make(map[string]bool, 4)
			articles = append(articles, a)
		}

		if r.TagName.Valid && !seenTags[r.ArticleID][r.TagName.String] {
			seenTags[r.ArticleID][r.TagName.String] = true
			a.TagList = append(a.TagList, r.TagName.String)
		}
		if r.FavoriteMark.Valid {
			a.Favorited = true
		}
		if r.FollowMark.Valid {
			a.Author.Following = true
		}
	}

	return articles
}

// Articles scans and folds in one step
func Articles(rows *sql.Rows) ([]*models.Article, error) {
	flat, err := Scan(rows)
	if err != nil {
		return nil, err
	}
	return Fold(flat), nil
}

// CoerceCount normalizes a scanned COUNT value. Engines disagree on the
// wire type: int64 usually, but some return counts as strings or bytes.
func CoerceCount(v interface{}) (int, error) {
	switch n := v.(type) {
	case int64:
		return int(n), nil
	case int:
		return n, nil
	case []byte:
		return parseCount(string(n))
	case string:
		return parseCount(n)
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("unsupported count type %T", v)
	}
}

func parseCount(s string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return 0, fmt.Errorf("malformed count %q: %w", s, err)
	}
	return n, nil
}
