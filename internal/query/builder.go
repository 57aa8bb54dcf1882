// Package query constructs the article fetch and count statements for a
// requested view. Builders are returned unexecuted; the repository layer
// runs them and hands the rows to the materializer.
package query

import (
	sq "github.com/Masterminds/squirrel"
)

// Criteria describes one article view request. All filter fields are
// optional and combine as independent narrowing predicates; membership
// within one field is an OR. Unknown usernames or tag names simply match
// nothing.
type Criteria struct {
	// Filters
	Tags        []string
	Authors     []string
	FavoritedBy []string
	Slug        string
	FeedFor     string // restrict to authors the given user id follows

	// Viewer is the requesting user id used to compute the favorited and
	// following flags. Empty means anonymous: both flags come back false.
	Viewer string

	// Pagination, applied to distinct articles (not joined rows)
	Limit  uint64
	Offset uint64
}

// Articles builds the row-fetch statement: a paginated, filtered page of
// articles joined to author, tags, and the viewer's relationship rows.
//
// Column order is fixed and mirrored by materialize.Scan:
//
//	a.id, a.slug, a.title, a.description, a.body, a.favorites_count,
//	a.created_at, a.updated_at, author id/username/bio/image, tag name,
//	viewer favorite marker, viewer follow marker.
//
// The viewer restriction lives inside the LEFT JOIN's ON clause. Moving it
// to WHERE would turn the outer join into an inner join and drop every
// article the viewer has no relationship with.
func Articles(b sq.StatementBuilderType, c Criteria) sq.SelectBuilder {
	// Pagination runs over a filtered article subquery so that the tag
	// join's row multiplication cannot eat into the page size.
	page := sq.Select(
		"id", "slug", "title", "description", "body",
		"favorites_count", "created_at", "updated_at", "author_id",
	).From("articles")
	for _, f := range filters(c) {
		page = page.Where(f)
	}
	page = page.OrderBy("created_at DESC").Limit(c.Limit).Offset(c.Offset)

	q := b.Select(
		"a.id", "a.slug", "a.title", "a.description", "a.body",
		"a.favorites_count", "a.created_at", "a.updated_at",
		"u.id", "u.username", "u.bio", "u.image",
		"t.name",
	).
		FromSelect(page, "a").
		Join("users u ON u.id = a.author_id").
		LeftJoin("article_tags atg ON atg.article_id = a.id").
		LeftJoin("tags t ON t.id = atg.tag_id")

	if c.Viewer != "" {
		q = q.
			Column("vf.user_id").
			Column("vw.follower_id").
			LeftJoin("favorites vf ON vf.article_id = a.id AND vf.user_id = ?", c.Viewer).
			LeftJoin("followers vw ON vw.followed_id = u.id AND vw.follower_id = ?", c.Viewer)
	} else {
		q = q.Column("NULL").Column("NULL")
	}

	return q.OrderBy("a.created_at DESC")
}

// Count builds the statement counting distinct articles under the same
// filters as Articles, without pagination, ordering, or the joins that
// exist only for flag computation.
func Count(b sq.StatementBuilderType, c Criteria) sq.SelectBuilder {
	q := b.Select("COUNT(*)").From("articles")
	for _, f := range filters(c) {
		q = q.Where(f)
	}
	return q
}

// filters translates the criteria into predicates over the articles table.
// Username, tag, and favoriter membership resolve through subqueries so
// that both statements stay single round-trips.
func filters(c Criteria) []sq.Sqlizer {
	var fs []sq.Sqlizer

	if c.Slug != "" {
		fs = append(fs, sq.Eq{"slug": c.Slug})
	}
	if len(c.Authors) > 0 {
		fs = append(fs, sq.Expr("author_id IN (?)",
			sq.Select("id").From("users").Where(sq.Eq{"username": c.Authors})))
	}
	if len(c.FavoritedBy) > 0 {
		fs = append(fs, sq.Expr("id IN (?)",
			sq.Select("f.article_id").From("favorites f").
				Join("users fu ON fu.id = f.user_id").
				Where(sq.Eq{"fu.username": c.FavoritedBy})))
	}
	if len(c.Tags) > 0 {
		fs = append(fs, sq.Expr("id IN (?)",
			sq.Select("atg.article_id").From("article_tags atg").
				Join("tags t ON t.id = atg.tag_id").
				Where(sq.Eq{"t.name": c.Tags})))
	}
	if c.FeedFor != "" {
		fs = append(fs, sq.Expr("author_id IN (?)",
			sq.Select("followed_id").From("followers").
				Where(sq.Eq{"follower_id": c.FeedFor})))
	}

	return fs
}
