package service

import (
	"context"
	"fmt"
	"time"

	"github.com/conduit-article-api/internal/database"
	"github.com/conduit-article-api/internal/models"
	"github.com/conduit-article-api/internal/query"
	"github.com/conduit-article-api/internal/repository"
	"github.com/conduit-article-api/internal/slug"
	"github.com/conduit-article-api/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// articleService coordinates multi-statement article mutations. Unique
// collisions on the slug are retried exactly once with a random suffix;
// collisions on tag names mean the tag already exists and are absorbed.
type articleService struct {
	repos    *repository.Repositories
	validate *validation.Validator
	log      zerolog.Logger
}

func newArticleService(repos *repository.Repositories, v *validation.Validator, log zerolog.Logger) *articleService {
	return &articleService{
		repos:    repos,
		validate: v,
		log:      log.With().Str("component", "article_service").Logger(),
	}
}

// List returns one page of articles matching the request, with the total
// matching count.
func (s *articleService) List(ctx context.Context, req ListRequest) ([]*models.Article, int, error) {
	return s.repos.Article.List(ctx, query.Criteria{
		Tags:        req.Tags,
		Authors:     req.Authors,
		FavoritedBy: req.FavoritedBy,
		Viewer:      req.Viewer,
		Limit:       req.Limit,
		Offset:      req.Offset,
	})
}

// Feed returns articles authored by users the viewer follows
func (s *articleService) Feed(ctx context.Context, viewerID string, limit, offset uint64) ([]*models.Article, int, error) {
	return s.repos.Article.List(ctx, query.Criteria{
		FeedFor: viewerID,
		Viewer:  viewerID,
		Limit:   limit,
		Offset:  offset,
	})
}

// Get returns one materialized article as seen by viewerID
func (s *articleService) Get(ctx context.Context, slugStr, viewerID string) (*models.Article, error) {
	a, err := s.repos.Article.GetBySlug(ctx, slugStr, viewerID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, &models.NotFoundError{Resource: "article", Key: slugStr}
	}
	return a, nil
}

// Create persists a new article together with its tag associations
func (s *articleService) Create(ctx context.Context, authorID string, in *models.ArticleInput) (*models.Article, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	author, err := s.repos.User.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, &models.NotFoundError{Resource: "user", Key: authorID}
	}

	now := time.Now().UTC()
	row := &models.ArticleRow{
		ID:          uuid.NewString(),
		Slug:        slug.Make(in.Title),
		Title:       in.Title,
		Description: in.Description,
		Body:        in.Body,
		AuthorID:    authorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.applyWithSlugRetry(ctx, row, s.repos.Article.Insert); err != nil {
		return nil, err
	}

	if len(in.TagList) > 0 {
		if err := s.associateTags(ctx, row.ID, in.TagList); err != nil {
			return nil, err
		}
	}

	s.log.Info().Str("slug", row.Slug).Str("author_id", authorID).Msg("Article created")
	return s.Get(ctx, row.Slug, authorID)
}

// Update merges the supplied fields onto the stored article. Only the
// author may update; the slug is recomputed only when the title changed;
// the tag set is replaced only when the supplied list actually differs.
func (s *articleService) Update(ctx context.Context, slugStr, callerID string, in *models.ArticleUpdate) (*models.Article, error) {
	row, err := s.repos.Article.GetRowBySlug(ctx, slugStr)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, &models.NotFoundError{Resource: "article", Key: slugStr}
	}
	if row.AuthorID != callerID {
		return nil, models.NewValidationError("article", "not owned by the requesting user")
	}

	titleChanged := false
	if in.Title != nil && *in.Title != row.Title {
		row.Title = *in.Title
		titleChanged = true
	}
	if in.Description != nil {
		row.Description = *in.Description
	}
	if in.Body != nil {
		row.Body = *in.Body
	}

	merged := &models.ArticleInput{
		Title:       row.Title,
		Description: row.Description,
		Body:        row.Body,
	}
	if in.TagList != nil {
		merged.TagList = *in.TagList
	}
	if err := s.validate.Struct(merged); err != nil {
		return nil, err
	}

	if titleChanged {
		row.Slug = slug.Make(row.Title)
	}
	row.UpdatedAt = time.Now().UTC()

	if err := s.applyWithSlugRetry(ctx, row, s.repos.Article.Update); err != nil {
		return nil, err
	}

	if in.TagList != nil {
		current, err := s.repos.Tag.ArticleTagNames(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		if tagSetsDiffer(current, *in.TagList) {
			if err := s.associateTags(ctx, row.ID, *in.TagList); err != nil {
				return nil, err
			}
		}
	}

	s.log.Info().Str("slug", row.Slug).Msg("Article updated")
	return s.Get(ctx, row.Slug, callerID)
}

// Delete removes an article and its favorite and tag association rows
func (s *articleService) Delete(ctx context.Context, slugStr, callerID string) error {
	row, err := s.repos.Article.GetRowBySlug(ctx, slugStr)
	if err != nil {
		return err
	}
	if row == nil {
		return &models.NotFoundError{Resource: "article", Key: slugStr}
	}
	if row.AuthorID != callerID {
		return models.NewValidationError("article", "not owned by the requesting user")
	}

	if err := s.repos.Article.Delete(ctx, row.ID); err != nil {
		return err
	}
	s.log.Info().Str("slug", slugStr).Msg("Article deleted")
	return nil
}

// Favorite marks the article as favorited by userID. Favoriting an
// already-favorited article returns the current state untouched.
func (s *articleService) Favorite(ctx context.Context, slugStr, userID string) (*models.Article, error) {
	return s.setFavorite(ctx, slugStr, userID, true)
}

// Unfavorite removes the user's favorite. A no-op when not favorited.
func (s *articleService) Unfavorite(ctx context.Context, slugStr, userID string) (*models.Article, error) {
	return s.setFavorite(ctx, slugStr, userID, false)
}

func (s *articleService) setFavorite(ctx context.Context, slugStr, userID string, want bool) (*models.Article, error) {
	row, err := s.repos.Article.GetRowBySlug(ctx, slugStr)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, &models.NotFoundError{Resource: "article", Key: slugStr}
	}

	have, err := s.repos.Article.IsFavorited(ctx, row.ID, userID)
	if err != nil {
		return nil, err
	}
	if have != want {
		if want {
			err = s.repos.Article.Favorite(ctx, row.ID, userID)
		} else {
			err = s.repos.Article.Unfavorite(ctx, row.ID, userID)
		}
		if err != nil {
			return nil, err
		}
	}

	return s.Get(ctx, slugStr, userID)
}

// applyWithSlugRetry runs an insert or update that may collide on the
// unique slug. On a unique violation the slug gets a random suffix and
// the statement runs once more; a second violation is a hard Conflict.
func (s *articleService) applyWithSlugRetry(ctx context.Context, row *models.ArticleRow, apply func(context.Context, *models.ArticleRow) error) error {
	err := apply(ctx, row)
	if err == nil {
		return nil
	}
	if !database.IsUniqueViolation(err) {
		return err
	}

	retried := slug.WithSuffix(row.Slug)
	s.log.Debug().Str("slug", row.Slug).Str("retry_slug", retried).Msg("Slug collision, retrying with suffix")
	row.Slug = retried

	err = apply(ctx, row)
	if err == nil {
		return nil
	}
	if database.IsUniqueViolation(err) {
		return &models.ConflictError{Resource: "article", Key: row.Slug}
	}
	return err
}

// associateTags resolves every requested tag name to a tag row and
// replaces the article's association set. Tag inserts that collide with
// an existing name are absorbed: the collision is how a pre-existing tag
// is detected. Ids are re-queried by name afterwards because the
// successfully-inserted set may differ from the input.
func (s *articleService) associateTags(ctx context.Context, articleID string, names []string) error {
	unique := dedupe(names)

	for _, name := range unique {
		err := s.repos.Tag.Create(ctx, &models.TagRow{ID: uuid.NewString(), Name: name})
		if err != nil && !database.IsUniqueViolation(err) {
			return fmt.Errorf("failed to create tag %q: %w", name, err)
		}
	}

	tags, err := s.repos.Tag.GetByNames(ctx, unique)
	if err != nil {
		return err
	}
	ids := make([]string, len(tags))
	for i, t := range tags {
		ids[i] = t.ID
	}

	return s.repos.Tag.ReplaceArticleTags(ctx, articleID, ids)
}

// tagSetsDiffer reports whether the stored and requested tag name sets
// have a non-empty symmetric difference.
func tagSetsDiffer(current, requested []string) bool {
	cur := make(map[string]bool, len(current))
	for _, n := range current {
		cur[n] = true
	}
	req := make(map[string]bool, len(requested))
	for _, n := range requested {
		req[n] = true
	}
	if len(cur) != len(req) {
		return true
	}
	for n := range req {
		if !cur[n] {
			return true
		}
	}
	return false
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
