// Package models defines the data structures that map to database tables
// and documents, and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a user's permission level in the system.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is an account holder. The rating aggregate mirrors the ratings this
// user has given; the social counters mirror the size of the corresponding
// relationship tables.
type User struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"` // Never serialize the hash
	DisplayName     string    `json:"display_name"`
	Bio             string    `json:"bio"`
	Role            Role      `json:"role"`
	Banned          bool      `json:"banned"`
	RateCount       int       `json:"rate_count"`
	RateValue       int       `json:"rate_value"`
	AvgRating       float64   `json:"avg_rating"`
	FollowersCount  int       `json:"followers_count"`
	FollowingCount  int       `json:"following_count"`
	FavouritesCount int       `json:"favourites_count"`
	WishlistCount   int       `json:"wishlist_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Stats returns the user's rating aggregate.
func (u *User) Stats() RatingStats {
	return RatingStats{Count: u.RateCount, Value: u.RateValue, Avg: u.AvgRating}
}

// PublicUser is the view of a user shown to other users.
type PublicUser struct {
	ID             uuid.UUID `json:"id"`
	DisplayName    string    `json:"display_name"`
	Bio            string    `json:"bio"`
	RateCount      int       `json:"rate_count"`
	AvgRating      float64   `json:"avg_rating"`
	FollowersCount int       `json:"followers_count"`
	FollowingCount int       `json:"following_count"`
}

// Public strips private fields from u.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:             u.ID,
		DisplayName:    u.DisplayName,
		Bio:            u.Bio,
		RateCount:      u.RateCount,
		AvgRating:      u.AvgRating,
		FollowersCount: u.FollowersCount,
		FollowingCount: u.FollowingCount,
	}
}
