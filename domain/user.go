package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserRepository is the interface that holds all the account related repository methods in RentAll
type UserRepository interface {
	// CreateUser will insert the User in the DB
	// It will return db.ErrDuplicateEmail when the email address is already registered
	CreateUser(user *User) error

	// GetUser will return the user for the given ID
	// It will return an error if the user doesn't exist
	GetUser(id uuid.UUID) (*User, error)

	// GetUserByEmail will return the user registered with the given email address
	GetUserByEmail(email string) (*User, error)

	// GetUsersByID will return the users for the given IDs in a single query,
	// keyed by user ID. Missing IDs are simply absent from the map.
	GetUsersByID(ids ...uuid.UUID) (map[uuid.UUID]*User, error)

	// UpdateProfile applies the non-nil fields of the update to the user
	// and returns the updated user.
	UpdateProfile(id uuid.UUID, update ProfileUpdate) (*User, error)
}

// User represents a registered account on the marketplace.
type User struct {
	ID           uuid.UUID `json:"id"`         // Unique identifier for the user
	Email        string    `json:"email"`      // Login email, unique across the marketplace
	Name         string    `json:"name"`       // Display name
	PasswordHash string    `json:"-"`          // bcrypt hash, never serialized
	AvatarURL    *string   `json:"avatar_url"` // Optional avatar image URL
	Location     *string   `json:"location"`   // Optional free-form location
	Bio          *string   `json:"bio"`        // Optional profile text
	CreatedAt    time.Time `json:"created_at"` // Timestamp when the account was created
}

// ProfileUpdate carries the profile fields a user is allowed to change.
// Nil fields are left untouched.
type ProfileUpdate struct {
	Name      *string
	AvatarURL *string
	Location  *string
	Bio       *string
}
