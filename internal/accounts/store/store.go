package store

import (
	"context"
	"errors"
	"time"

	"github.com/aperohq/accounts/internal/accounts/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. Sub-repositories keep concerns tidy and testable.
type Store interface {
	Users() Users

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// ListOptions paginates ListUsers. A zero Limit means no limit.
type ListOptions struct {
	Offset int
	Limit  int
}

type Users interface {
	// GetUserByID returns a non-deleted user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks up by normalized email. Callers normalize first;
	// the store compares exactly.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// GetUserByGoogleID looks up by the external Google subject id.
	GetUserByGoogleID(ctx context.Context, googleID string) (domain.User, error)

	// ListUsers returns non-deleted users ordered by creation (newest first).
	ListUsers(ctx context.Context, opts ListOptions) ([]domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	// Returns ErrAlreadyExists when the email unique index rejects the row;
	// the index, not the caller's pre-check, is the final arbiter of races.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateUser replaces the mutable columns of an existing row.
	// Returns ErrNotFound when the row is absent or soft-deleted and
	// ErrAlreadyExists on an email collision.
	UpdateUser(ctx context.Context, u domain.User) error

	// UpdateLastLogin stamps last_login_at without touching other columns.
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error

	// RecordFailedLogin increments failed_login_attempts and stamps
	// last_failed_login_at.
	RecordFailedLogin(ctx context.Context, userID string, at time.Time) error

	// ResetFailedLogins zeroes the failed-login counter.
	ResetFailedLogins(ctx context.Context, userID string) error

	// SoftDeleteUser stamps deleted_at; the row becomes invisible to every
	// lookup and its email is released for reuse.
	SoftDeleteUser(ctx context.Context, userID string) error

	// DeleteUser removes the row entirely.
	DeleteUser(ctx context.Context, userID string) error
}
