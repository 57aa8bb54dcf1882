package repository

import (
	"context"

	"github.com/conduit-article-api/internal/database"
	"github.com/conduit-article-api/internal/models"
	"github.com/conduit-article-api/internal/query"
)

// ArticleRepository defines the interface for article data operations.
// List and GetBySlug return materialized nested records; the Row methods
// operate on the flat table projection used by the write path. Lookup
// methods return (nil, nil) when no row matches.
type ArticleRepository interface {
	List(ctx context.Context, c query.Criteria) ([]*models.Article, int, error)
	GetBySlug(ctx context.Context, slug, viewerID string) (*models.Article, error)
	GetRowBySlug(ctx context.Context, slug string) (*models.ArticleRow, error)
	Insert(ctx context.Context, row *models.ArticleRow) error
	Update(ctx context.Context, row *models.ArticleRow) error
	Delete(ctx context.Context, articleID string) error
	IsFavorited(ctx context.Context, articleID, userID string) (bool, error)
	Favorite(ctx context.Context, articleID, userID string) error
	Unfavorite(ctx context.Context, articleID, userID string) error
}

// TagRepository defines the interface for tag and tag-association data
// operations. Create surfaces the store's unique-violation signal
// unmodified so the caller can absorb or retry it.
type TagRepository interface {
	Create(ctx context.Context, tag *models.TagRow) error
	GetByNames(ctx context.Context, names []string) ([]*models.TagRow, error)
	Names(ctx context.Context) ([]string, error)
	ArticleTagNames(ctx context.Context, articleID string) ([]string, error)
	ReplaceArticleTags(ctx context.Context, articleID string, tagIDs []string) error
}

// UserRepository defines the interface for user and follow-edge data
// operations
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.UserRow, error)
	GetByUsername(ctx context.Context, username string) (*models.UserRow, error)
	IsFollowing(ctx context.Context, followerID, followedID string) (bool, error)
	Follow(ctx context.Context, followerID, followedID string) error
	Unfollow(ctx context.Context, followerID, followedID string) error
}

// Repositories holds all repository interfaces
type Repositories struct {
	Article ArticleRepository
	Tag     TagRepository
	User    UserRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Article: NewArticleRepo(db),
		Tag:     NewTagRepo(db),
		User:    NewUserRepo(db),
	}
}
