package models

import (
	"time"
)

// Profile is the client-facing author/user representation. Following is
// relative to the requesting viewer, false for anonymous viewers. The
// user's internal id is deliberately absent.
type Profile struct {
	Username  string  `json:"username"`
	Bio       *string `json:"bio"`
	Image     *string `json:"image"`
	Following bool    `json:"following"`
}

// UserRow represents a row in the users table
type UserRow struct {
	ID        string    `db:"id"`
	Username  string    `db:"username"`
	Email     string    `db:"email"`
	Bio       *string   `db:"bio"`
	Image     *string   `db:"image"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Profile builds the viewer-relative projection of the user row.
func (u *UserRow) Profile(following bool) Profile {
	return Profile{
		Username:  u.Username,
		Bio:       u.Bio,
		Image:     u.Image,
		Following: following,
	}
}
