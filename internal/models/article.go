package models

import (
	"time"
)

// Article is the client-facing article representation: author is nested,
// tags are gathered into a flat name list, and the favorited/following
// flags are relative to the requesting viewer.
type Article struct {
	ID             string    `json:"id"`
	Slug           string    `json:"slug"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Body           string    `json:"body"`
	TagList        []string  `json:"tagList"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	Favorited      bool      `json:"favorited"`
	FavoritesCount int       `json:"favoritesCount"`
	Author         Profile   `json:"author"`
}

// ArticleRow is the flat articles-table projection used on the write path.
// It carries the author id, which must never leak into an Article.
type ArticleRow struct {
	ID             string    `db:"id"`
	Slug           string    `db:"slug"`
	Title          string    `db:"title"`
	Description    string    `db:"description"`
	Body           string    `db:"body"`
	AuthorID       string    `db:"author_id"`
	FavoritesCount int       `db:"favorites_count"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// TagRow represents a row in the tags table
type TagRow struct {
	ID   string `db:"id"`
	Name string `db:"name"`
}

// ArticleInput is the payload for article creation
type ArticleInput struct {
	Title       string   `json:"title" validate:"required,max=255"`
	Description string   `json:"description" validate:"required,max=500"`
	Body        string   `json:"body" validate:"required"`
	TagList     []string `json:"tagList" validate:"omitempty,dive,required,max=100"`
}

// ArticleUpdate is the payload for article updates. Pointer fields
// distinguish "not supplied" from "supplied empty": a nil TagList leaves
// the stored tag set untouched, an empty one clears it.
type ArticleUpdate struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Body        *string   `json:"body"`
	TagList     *[]string `json:"tagList"`
}
