package service

import (
	"context"

	"github.com/conduit-article-api/internal/database"
	"github.com/conduit-article-api/internal/models"
	"github.com/conduit-article-api/internal/repository"
	"github.com/rs/zerolog"
)

// profileService reads profiles and maintains follow edges
type profileService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

func newProfileService(repos *repository.Repositories, log zerolog.Logger) *profileService {
	return &profileService{
		repos: repos,
		log:   log.With().Str("component", "profile_service").Logger(),
	}
}

// Get returns a user's profile as seen by viewerID
func (s *profileService) Get(ctx context.Context, username, viewerID string) (*models.Profile, error) {
	target, err := s.repos.User.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, &models.NotFoundError{Resource: "profile", Key: username}
	}

	following := false
	if viewerID != "" {
		following, err = s.repos.User.IsFollowing(ctx, viewerID, target.ID)
		if err != nil {
			return nil, err
		}
	}

	p := target.Profile(following)
	return &p, nil
}

// Follow adds a follow edge from the viewer to the named user. Following
// an already-followed user is a no-op: the duplicate-edge violation is
// absorbed.
func (s *profileService) Follow(ctx context.Context, viewerID, username string) (*models.Profile, error) {
	target, err := s.repos.User.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, &models.NotFoundError{Resource: "profile", Key: username}
	}
	if target.ID == viewerID {
		return nil, models.NewValidationError("profile", "cannot follow yourself")
	}

	if err := s.repos.User.Follow(ctx, viewerID, target.ID); err != nil && !database.IsUniqueViolation(err) {
		return nil, err
	}

	p := target.Profile(true)
	return &p, nil
}

// Unfollow removes the follow edge; a no-op when none exists
func (s *profileService) Unfollow(ctx context.Context, viewerID, username string) (*models.Profile, error) {
	target, err := s.repos.User.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, &models.NotFoundError{Resource: "profile", Key: username}
	}

	if err := s.repos.User.Unfollow(ctx, viewerID, target.ID); err != nil {
		return nil, err
	}

	p := target.Profile(false)
	return &p, nil
}
