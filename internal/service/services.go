package service

import (
	"context"

	"github.com/conduit-article-api/internal/models"
	"github.com/conduit-article-api/internal/repository"
	"github.com/conduit-article-api/internal/validation"
	"github.com/rs/zerolog"
)

// ListRequest describes an article listing: optional narrowing filters,
// the requesting viewer (empty for anonymous), and pagination.
type ListRequest struct {
	Tags        []string
	Authors     []string
	FavoritedBy []string
	Viewer      string
	Limit       uint64
	Offset      uint64
}

// ArticleService defines the article read and mutation operations
type ArticleService interface {
	List(ctx context.Context, req ListRequest) ([]*models.Article, int, error)
	Feed(ctx context.Context, viewerID string, limit, offset uint64) ([]*models.Article, int, error)
	Get(ctx context.Context, slug, viewerID string) (*models.Article, error)
	Create(ctx context.Context, authorID string, in *models.ArticleInput) (*models.Article, error)
	Update(ctx context.Context, slug, callerID string, in *models.ArticleUpdate) (*models.Article, error)
	Delete(ctx context.Context, slug, callerID string) error
	Favorite(ctx context.Context, slug, userID string) (*models.Article, error)
	Unfavorite(ctx context.Context, slug, userID string) (*models.Article, error)
}

// ProfileService defines profile reads and follow-edge mutations
type ProfileService interface {
	Get(ctx context.Context, username, viewerID string) (*models.Profile, error)
	Follow(ctx context.Context, viewerID, username string) (*models.Profile, error)
	Unfollow(ctx context.Context, viewerID, username string) (*models.Profile, error)
}

// TagService defines tag reads
type TagService interface {
	Names(ctx context.Context) ([]string, error)
}

// Services holds all service interfaces
type Services struct {
	Article ArticleService
	Profile ProfileService
	Tag     TagService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, log zerolog.Logger) *Services {
	v := validation.New()
	return &Services{
		Article: newArticleService(repos, v, log),
		Profile: newProfileService(repos, log),
		Tag:     newTagService(repos, log),
	}
}
