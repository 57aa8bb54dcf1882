package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/conduit-article-api/internal/database"
	"github.com/conduit-article-api/internal/models"
)

// userRepo is the concrete implementation of UserRepository
type userRepo struct {
	db *database.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *database.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) getBy(ctx context.Context, pred sq.Eq) (*models.UserRow, error) {
	sqlStr, args, err := r.db.Builder().
		Select("id", "username", "email", "bio", "image", "created_at", "updated_at").
		From("users").
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build user lookup: %w", err)
	}

	var u models.UserRow
	err = r.db.QueryRowContext(ctx, sqlStr, args...).Scan(
		&u.ID, &u.Username, &u.Email, &u.Bio, &u.Image, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return &u, nil
}

// GetByID retrieves a user by id
func (r *userRepo) GetByID(ctx context.Context, id string) (*models.UserRow, error) {
	return r.getBy(ctx, sq.Eq{"id": id})
}

// GetByUsername retrieves a user by username
func (r *userRepo) GetByUsername(ctx context.Context, username string) (*models.UserRow, error) {
	return r.getBy(ctx, sq.Eq{"username": username})
}

// IsFollowing checks for an existing follow edge
func (r *userRepo) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	sqlStr, args, err := r.db.Builder().
		Select("COUNT(*)").
		From("followers").
		Where(sq.Eq{"follower_id": followerID, "followed_id": followedID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build follow lookup: %w", err)
	}
	var n int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check follow edge: %w", err)
	}
	return n > 0, nil
}

// Follow inserts a follow edge. A unique violation (edge already present)
// passes through for the caller to absorb.
func (r *userRepo) Follow(ctx context.Context, followerID, followedID string) error {
	sqlStr, args, err := r.db.Builder().
		Insert("followers").
		Columns("follower_id", "followed_id").
		Values(followerID, followedID).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build follow insert: %w", err)
	}
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// Unfollow removes a follow edge; removing a missing edge is a no-op
func (r *userRepo) Unfollow(ctx context.Context, followerID, followedID string) error {
	sqlStr, args, err := r.db.Builder().
		Delete("followers").
		Where(sq.Eq{"follower_id": followerID, "followed_id": followedID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build unfollow delete: %w", err)
	}
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}
