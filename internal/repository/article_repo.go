package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/conduit-article-api/internal/database"
	"github.com/conduit-article-api/internal/materialize"
	"github.com/conduit-article-api/internal/models"
	"github.com/conduit-article-api/internal/query"
)

// articleRepo is the concrete implementation of ArticleRepository
type articleRepo struct {
	db *database.DB
}

// NewArticleRepo creates a new article repository
func NewArticleRepo(db *database.DB) ArticleRepository {
	return &articleRepo{db: db}
}

// List executes the fetch and count statements for the given criteria and
// materializes the page. The two statements share filter predicates, so
// the count stays consistent with the page.
func (r *articleRepo) List(ctx context.Context, c query.Criteria) ([]*models.Article, int, error) {
	articles, err := r.fetch(ctx, c)
	if err != nil {
		return nil, 0, err
	}

	countSQL, countArgs, err := query.Count(r.db.Builder(), c).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	// Scan into an untyped value: not every engine returns counts as
	// integers.
	var raw interface{}
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&raw); err != nil {
		return nil, 0, fmt.Errorf("failed to count articles: %w", err)
	}
	count, err := materialize.CoerceCount(raw)
	if err != nil {
		return nil, 0, err
	}

	return articles, count, nil
}

// fetch runs the aggregation query and materializes the rows
func (r *articleRepo) fetch(ctx context.Context, c query.Criteria) ([]*models.Article, error) {
	sqlStr, args, err := query.Articles(r.db.Builder(), c).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build article query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	return materialize.Articles(rows)
}

// GetBySlug retrieves one materialized article as seen by viewerID
func (r *articleRepo) GetBySlug(ctx context.Context, slug, viewerID string) (*models.Article, error) {
	articles, err := r.fetch(ctx, query.Criteria{Slug: slug, Viewer: viewerID, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		return nil, nil
	}
	return articles[0], nil
}

// GetRowBySlug retrieves the flat article row for the write path
func (r *articleRepo) GetRowBySlug(ctx context.Context, slug string) (*models.ArticleRow, error) {
	q := r.db.Builder().
		Select("id", "slug", "title", "description", "body", "author_id",
			"favorites_count", "created_at", "updated_at").
		From("articles").
		Where(sq.Eq{"slug": slug})
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build article lookup: %w", err)
	}

	var row models.ArticleRow
	err = r.db.QueryRowContext(ctx, sqlStr, args...).Scan(
		&row.ID, &row.Slug, &row.Title, &row.Description, &row.Body,
		&row.AuthorID, &row.FavoritesCount, &row.CreatedAt, &row.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch article %q: %w", slug, err)
	}
	return &row, nil
}

// Insert writes a new article row. Unique-violation errors pass through
// unclassified for the coordinator's slug retry.
func (r *articleRepo) Insert(ctx context.Context, row *models.ArticleRow) error {
	q := r.db.Builder().
		Insert("articles").
		Columns("id", "slug", "title", "description", "body", "author_id",
			"favorites_count", "created_at", "updated_at").
		Values(row.ID, row.Slug, row.Title, row.Description, row.Body,
			row.AuthorID, row.FavoritesCount, row.CreatedAt, row.UpdatedAt)
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build article insert: %w", err)
	}
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// Update rewrites the mutable article columns
func (r *articleRepo) Update(ctx context.Context, row *models.ArticleRow) error {
	q := r.db.Builder().
		Update("articles").
		Set("slug", row.Slug).
		Set("title", row.Title).
		Set("description", row.Description).
		Set("body", row.Body).
		Set("updated_at", row.UpdatedAt).
		Where(sq.Eq{"id": row.ID})
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build article update: %w", err)
	}
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// Delete removes the article's favorite rows, tag associations, and the
// article row itself, leaving no dangling references.
func (r *articleRepo) Delete(ctx context.Context, articleID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"favorites", "article_tags", "articles"} {
		col := "article_id"
		if table == "articles" {
			col = "id"
		}
		sqlStr, args, err := r.db.Builder().Delete(table).Where(sq.Eq{col: articleID}).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build delete for %s: %w", table, err)
		}
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
	}

	return tx.Commit()
}

// IsFavorited checks for an existing favorite row
func (r *articleRepo) IsFavorited(ctx context.Context, articleID, userID string) (bool, error) {
	sqlStr, args, err := r.db.Builder().
		Select("COUNT(*)").
		From("favorites").
		Where(sq.Eq{"article_id": articleID, "user_id": userID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build favorite lookup: %w", err)
	}
	var n int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return n > 0, nil
}

// Favorite inserts the favorite row and bumps the denormalized counter in
// one transaction, so the counter always matches the join rows.
func (r *articleRepo) Favorite(ctx context.Context, articleID, userID string) error {
	return r.favoriteTx(ctx, articleID, userID, true)
}

// Unfavorite removes the favorite row and drops the counter in one
// transaction
func (r *articleRepo) Unfavorite(ctx context.Context, articleID, userID string) error {
	return r.favoriteTx(ctx, articleID, userID, false)
}

func (r *articleRepo) favoriteTx(ctx context.Context, articleID, userID string, add bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin favorite transaction: %w", err)
	}
	defer tx.Rollback()

	var join sq.Sqlizer
	var bump sq.Sqlizer
	if add {
		join = r.db.Builder().
			Insert("favorites").
			Columns("user_id", "article_id").
			Values(userID, articleID)
		bump = r.db.Builder().
			Update("articles").
			Set("favorites_count", sq.Expr("favorites_count + 1")).
			Where(sq.Eq{"id": articleID})
	} else {
		join = r.db.Builder().
			Delete("favorites").
			Where(sq.Eq{"user_id": userID, "article_id": articleID})
		bump = r.db.Builder().
			Update("articles").
			Set("favorites_count", sq.Expr("favorites_count - 1")).
			Where(sq.Eq{"id": articleID})
	}

	for _, stmt := range []sq.Sqlizer{join, bump} {
		sqlStr, args, err := stmt.ToSql()
		if err != nil {
			return fmt.Errorf("failed to build favorite statement: %w", err)
		}
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return fmt.Errorf("failed to apply favorite change: %w", err)
		}
	}

	return tx.Commit()
}
