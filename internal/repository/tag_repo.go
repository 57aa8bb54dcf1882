package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/conduit-article-api/internal/database"
	"github.com/conduit-article-api/internal/models"
	"github.com/google/uuid"
)

// tagRepo is the concrete implementation of TagRepository
type tagRepo struct {
	db *database.DB
}

// NewTagRepo creates a new tag repository
func NewTagRepo(db *database.DB) TagRepository {
	return &tagRepo{db: db}
}

// Create writes a new tag row. A unique violation on the name passes
// through unclassified: the coordinator treats it as pre-existing-row
// detection, not an error.
func (r *tagRepo) Create(ctx context.Context, tag *models.TagRow) error {
	sqlStr, args, err := r.db.Builder().
		Insert("tags").
		Columns("id", "name").
		Values(tag.ID, tag.Name).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build tag insert: %w", err)
	}
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// GetByNames resolves tag rows by name, in store order
func (r *tagRepo) GetByNames(ctx context.Context, names []string) ([]*models.TagRow, error) {
	if len(names) == 0 {
		return nil, nil
	}

	sqlStr, args, err := r.db.Builder().
		Select("id", "name").
		From("tags").
		Where(sq.Eq{"name": names}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build tag lookup: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tags: %w", err)
	}
	defer rows.Close()

	var tags []*models.TagRow
	for rows.Next() {
		var t models.TagRow
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, &t)
	}
	return tags, rows.Err()
}

// Names lists every tag name in the store
func (r *tagRepo) Names(ctx context.Context) ([]string, error) {
	sqlStr, args, err := r.db.Builder().
		Select("name").
		From("tags").
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build tag listing: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan tag name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ArticleTagNames lists the tag names currently associated with an article
func (r *tagRepo) ArticleTagNames(ctx context.Context, articleID string) ([]string, error) {
	sqlStr, args, err := r.db.Builder().
		Select("t.name").
		From("article_tags atg").
		Join("tags t ON t.id = atg.tag_id").
		Where(sq.Eq{"atg.article_id": articleID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build article tag lookup: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch article tags: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan article tag: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ReplaceArticleTags swaps the article's full tag association set:
// delete everything, then insert the new set. Runs in one transaction so
// concurrent readers never see a half-replaced set.
func (r *tagRepo) ReplaceArticleTags(ctx context.Context, articleID string, tagIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tag replacement: %w", err)
	}
	defer tx.Rollback()

	delSQL, delArgs, err := r.db.Builder().
		Delete("article_tags").
		Where(sq.Eq{"article_id": articleID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build tag delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, delSQL, delArgs...); err != nil {
		return fmt.Errorf("failed to clear article tags: %w", err)
	}

	if len(tagIDs) > 0 {
		ins := r.db.Builder().Insert("article_tags").Columns("id", "article_id", "tag_id")
		for _, tagID := range tagIDs {
			ins = ins.Values(uuid.NewString(), articleID, tagID)
		}
		insSQL, insArgs, err := ins.ToSql()
		if err != nil {
			return fmt.Errorf("failed to build tag insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insSQL, insArgs...); err != nil {
			return fmt.Errorf("failed to associate tags: %w", err)
		}
	}

	return tx.Commit()
}
