package types

import "time"

// User represents an account in the system.
// The email is unique across all users and the password is only ever
// stored as a salted bcrypt hash.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Email is the user's login address.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// RegisteredAt is the timestamp when the account was created.
	// It is set once and never changed.
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
}

// Profile is the public view of a user.
type Profile struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Profile returns the public view of the user.
func (u User) Profile() Profile {
	return Profile{
		ID:           u.ID,
		Email:        u.Email,
		RegisteredAt: u.RegisteredAt,
	}
}
