package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User represents a registered chat user
type User struct {
	ID         uuid.UUID  `json:"id"`
	Identifier string     `json:"identifier"`
	SecretHash string     `json:"-"`
	History    []Exchange `json:"history,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// UserCreate represents registration data
type UserCreate struct {
	Identifier string `json:"identifier" validate:"required,max=255"`
	Secret     string `json:"secret" validate:"required,max=72"`
}

// UserLogin represents login credentials
type UserLogin struct {
	Identifier string `json:"identifier" validate:"required"`
	Secret     string `json:"secret" validate:"required"`
}

// SecretReset represents a password reset request
type SecretReset struct {
	Identifier string `json:"identifier" validate:"required"`
	NewSecret  string `json:"newSecret" validate:"required,max=72"`
}

// UserRepository stores users and their chat history.
// Implementations must make Create an atomic check-and-insert.
type UserRepository interface {
	// Find returns the user with its history, or ErrUserNotFound
	Find(ctx context.Context, identifier string) (*User, error)

	// Create inserts a user with an empty history, or returns ErrDuplicateUser
	Create(ctx context.Context, identifier, secretHash string) (*User, error)

	// AppendExchange adds an exchange to the user's history.
	// Unknown identifiers are ignored.
	AppendExchange(ctx context.Context, identifier, prompt, reply string) error

	// UpdateSecret replaces the stored secret hash, or returns ErrUserNotFound
	UpdateSecret(ctx context.Context, identifier, secretHash string) error

	// History returns the user's exchanges oldest first; empty for unknown users
	History(ctx context.Context, identifier string) ([]Exchange, error)

	Ping(ctx context.Context) error
	Close() error
}
