package service

import (
	"context"
	"errors"
	"time"

	"github.com/aperohq/accounts/internal/accounts/domain"
	"github.com/aperohq/accounts/internal/accounts/store"
	"github.com/aperohq/accounts/pkg/cryptox"
	"github.com/aperohq/accounts/pkg/idx"
)

var (
	ErrUserNotFound = errors.New("user_not_found")
	ErrEmailTaken   = errors.New("email_taken")
)

// UserService owns the user-record state machine: email normalization and
// uniqueness, password hashing, and password redaction on every outward
// return. All store access for user records goes through here.
type UserService struct {
	Store store.Store
}

// CreateUserInput is the draft for a new user. Structural validation happens
// at the transport boundary; this layer enforces business invariants only.
type CreateUserInput struct {
	Email     string
	Password  string // plaintext; hashed before persistence, empty for Google-only accounts
	FirstName string
	LastName  string
	Roles     []domain.Role

	IsActive        bool
	IsEmailVerified bool

	PhoneNumber string
	AvatarURL   string

	GoogleID      string
	GoogleEmail   string
	GoogleProfile *domain.GoogleProfile

	LastLoginAt *time.Time
}

// UpdateUserInput patches an existing user. Nil fields are left untouched.
type UpdateUserInput struct {
	Email     *string
	Password  *string // plaintext; re-hashed exactly as in Create
	FirstName *string
	LastName  *string
	Roles     []domain.Role

	IsActive           *bool
	IsEmailVerified    *bool
	IsTwoFactorEnabled *bool

	PhoneNumber *string
	AvatarURL   *string

	GoogleID      *string
	GoogleEmail   *string
	GoogleProfile *domain.GoogleProfile

	LastLoginAt *time.Time
}

// Create inserts a new user. Fails with ErrEmailTaken when a non-deleted user
// with the same normalized email exists. The pre-check is advisory; the
// store's unique index decides concurrent races and its violation maps to the
// same error. The returned user never carries the password hash.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (domain.User, error) {
	email := domain.NormalizeEmail(in.Email)

	if _, err := s.Store.Users().GetUserByEmail(ctx, email); err == nil {
		return domain.User{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, err
	}

	now := time.Now().UTC()
	u := domain.User{
		ID:              idx.New().String(),
		Email:           email,
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		Roles:           in.Roles,
		IsActive:        in.IsActive,
		IsEmailVerified: in.IsEmailVerified,
		PhoneNumber:     in.PhoneNumber,
		AvatarURL:       in.AvatarURL,
		GoogleID:        in.GoogleID,
		GoogleEmail:     in.GoogleEmail,
		GoogleProfile:   in.GoogleProfile,
		LastLoginAt:     in.LastLoginAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if len(u.Roles) == 0 {
		u.Roles = []domain.Role{domain.RoleUser}
	}
	if u.IsEmailVerified {
		u.EmailVerifiedAt = &now
	}

	if in.Password != "" {
		hash, err := cryptox.HashPassword(in.Password)
		if err != nil {
			return domain.User{}, err
		}
		u.PasswordHash = hash
	}

	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, err
	}

	return u.Redacted(), nil
}

// Update applies a patch to an existing user. Fails with ErrUserNotFound when
// absent and ErrEmailTaken when the patched email belongs to another user.
// The returned user never carries the password hash.
func (s *UserService) Update(ctx context.Context, id string, in UpdateUserInput) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}

	if in.Email != nil {
		email := domain.NormalizeEmail(*in.Email)
		if email != u.Email {
			if other, err := s.Store.Users().GetUserByEmail(ctx, email); err == nil && other.ID != id {
				return domain.User{}, ErrEmailTaken
			} else if err != nil && !errors.Is(err, store.ErrNotFound) {
				return domain.User{}, err
			}
		}
		u.Email = email
	}

	now := time.Now().UTC()
	if in.Password != nil && *in.Password != "" {
		hash, err := cryptox.HashPassword(*in.Password)
		if err != nil {
			return domain.User{}, err
		}
		u.PasswordHash = hash
		u.PasswordChangedAt = &now
	}

	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.LastName = *in.LastName
	}
	if len(in.Roles) > 0 {
		u.Roles = in.Roles
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if in.IsEmailVerified != nil {
		u.IsEmailVerified = *in.IsEmailVerified
		if *in.IsEmailVerified && u.EmailVerifiedAt == nil {
			u.EmailVerifiedAt = &now
		}
	}
	if in.IsTwoFactorEnabled != nil {
		u.IsTwoFactorEnabled = *in.IsTwoFactorEnabled
	}
	if in.PhoneNumber != nil {
		u.PhoneNumber = *in.PhoneNumber
	}
	if in.AvatarURL != nil {
		u.AvatarURL = *in.AvatarURL
	}
	if in.GoogleID != nil {
		u.GoogleID = *in.GoogleID
	}
	if in.GoogleEmail != nil {
		u.GoogleEmail = *in.GoogleEmail
	}
	if in.GoogleProfile != nil {
		u.GoogleProfile = in.GoogleProfile
	}
	if in.LastLoginAt != nil {
		u.LastLoginAt = in.LastLoginAt
	}
	u.UpdatedAt = now

	if err := s.Store.Users().UpdateUser(ctx, u); err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyExists):
			return domain.User{}, ErrEmailTaken
		case errors.Is(err, store.ErrNotFound):
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}

	return u.Redacted(), nil
}

// Get fetches a user by id, redacted.
func (s *UserService) Get(ctx context.Context, id string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return u.Redacted(), nil
}

// List returns non-deleted users, redacted.
func (s *UserService) List(ctx context.Context, opts store.ListOptions) ([]domain.User, error) {
	users, err := s.Store.Users().ListUsers(ctx, opts)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i] = users[i].Redacted()
	}
	return users, nil
}

// Delete removes a user. Fails with ErrUserNotFound when absent, so deleting
// twice fails the second time.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.Store.Users().DeleteUser(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// SoftDelete marks a user deleted without removing the row. The email is
// released for reuse by the partial unique index.
func (s *UserService) SoftDelete(ctx context.Context, id string) error {
	if err := s.Store.Users().SoftDeleteUser(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// FindByEmail is a pure lookup keyed by normalized email; absence surfaces as
// store.ErrNotFound and callers decide whether that is an error. The result
// is NOT redacted - internal use only.
func (s *UserService) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.Store.Users().GetUserByEmail(ctx, domain.NormalizeEmail(email))
}

// FindByGoogleID is a pure lookup by external Google subject id. The result
// is NOT redacted - internal use only.
func (s *UserService) FindByGoogleID(ctx context.Context, googleID string) (domain.User, error) {
	return s.Store.Users().GetUserByGoogleID(ctx, googleID)
}

// RecordLogin stamps last_login_at. Callers treat failures as non-fatal.
func (s *UserService) RecordLogin(ctx context.Context, id string, at time.Time) error {
	return s.Store.Users().UpdateLastLogin(ctx, id, at)
}
