package service

import (
	"context"

	"github.com/conduit-article-api/internal/repository"
	"github.com/rs/zerolog"
)

// tagService reads the shared, append-only tag set
type tagService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

func newTagService(repos *repository.Repositories, log zerolog.Logger) *tagService {
	return &tagService{
		repos: repos,
		log:   log.With().Str("component", "tag_service").Logger(),
	}
}

// Names lists every tag name currently in the store
func (s *tagService) Names(ctx context.Context) ([]string, error) {
	return s.repos.Tag.Names(ctx)
}
