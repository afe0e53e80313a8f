package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aperohq/accounts/internal/accounts/domain"
	"github.com/aperohq/accounts/internal/accounts/store"
)

func TestUserServiceCreate(t *testing.T) {
	ctx := context.Background()
	users, _, _ := newTestServices(t)

	t.Run("hashes the password and redacts the result", func(t *testing.T) {
		u, err := users.Create(ctx, CreateUserInput{
			Email:     "Alice@Example.COM ",
			Password:  "s3cret-pass",
			FirstName: "Alice",
			LastName:  "Smith",
			IsActive:  true,
		})
		require.NoError(t, err)
		require.NotEmpty(t, u.ID)
		require.Equal(t, "alice@example.com", u.Email)
		require.Empty(t, u.PasswordHash)
		require.Equal(t, []domain.Role{domain.RoleUser}, u.Roles)

		stored, err := users.FindByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.NotEmpty(t, stored.PasswordHash)
		require.NotContains(t, stored.PasswordHash, "s3cret-pass")
	})

	t.Run("rejects a duplicate email regardless of case", func(t *testing.T) {
		_, err := users.Create(ctx, CreateUserInput{Email: "ALICE@example.com", Password: "other"})
		require.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("allows a password-less account", func(t *testing.T) {
		u, err := users.Create(ctx, CreateUserInput{Email: "google-only@example.com", IsActive: true})
		require.NoError(t, err)

		stored, err := users.FindByEmail(ctx, u.Email)
		require.NoError(t, err)
		require.Empty(t, stored.PasswordHash)
	})

	t.Run("stamps email verification when created verified", func(t *testing.T) {
		u, err := users.Create(ctx, CreateUserInput{Email: "verified@example.com", IsEmailVerified: true})
		require.NoError(t, err)
		require.True(t, u.IsEmailVerified)
		require.NotNil(t, u.EmailVerifiedAt)
	})
}

func TestUserServiceUpdate(t *testing.T) {
	ctx := context.Background()
	users, _, _ := newTestServices(t)

	seed, err := users.Create(ctx, CreateUserInput{
		Email: "bob@example.com", Password: "original-pass", FirstName: "Bob", IsActive: true,
	})
	require.NoError(t, err)

	t.Run("patches only the provided fields", func(t *testing.T) {
		name := "Robert"
		u, err := users.Update(ctx, seed.ID, UpdateUserInput{FirstName: &name})
		require.NoError(t, err)
		require.Equal(t, "Robert", u.FirstName)
		require.Equal(t, "bob@example.com", u.Email)
		require.True(t, u.IsActive)
	})

	t.Run("re-hashes a changed password", func(t *testing.T) {
		before, err := users.FindByEmail(ctx, "bob@example.com")
		require.NoError(t, err)

		pass := "brand-new-pass"
		u, err := users.Update(ctx, seed.ID, UpdateUserInput{Password: &pass})
		require.NoError(t, err)
		require.NotNil(t, u.PasswordChangedAt)

		after, err := users.FindByEmail(ctx, "bob@example.com")
		require.NoError(t, err)
		require.NotEqual(t, before.PasswordHash, after.PasswordHash)
	})

	t.Run("rejects an email already owned by another user", func(t *testing.T) {
		_, err := users.Create(ctx, CreateUserInput{Email: "carol@example.com", Password: "pw"})
		require.NoError(t, err)

		email := "carol@example.com"
		_, err = users.Update(ctx, seed.ID, UpdateUserInput{Email: &email})
		require.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("keeping the same email is not a conflict", func(t *testing.T) {
		email := "BOB@example.com"
		u, err := users.Update(ctx, seed.ID, UpdateUserInput{Email: &email})
		require.NoError(t, err)
		require.Equal(t, "bob@example.com", u.Email)
	})

	t.Run("unknown id fails", func(t *testing.T) {
		name := "Nobody"
		_, err := users.Update(ctx, "01K0000000000000000000000X", UpdateUserInput{FirstName: &name})
		require.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestUserServiceDelete(t *testing.T) {
	ctx := context.Background()
	users, _, _ := newTestServices(t)

	u, err := users.Create(ctx, CreateUserInput{Email: "gone@example.com", Password: "pw"})
	require.NoError(t, err)

	require.NoError(t, users.Delete(ctx, u.ID))

	_, err = users.Get(ctx, u.ID)
	require.ErrorIs(t, err, ErrUserNotFound)

	// Deleting twice fails the second time.
	require.ErrorIs(t, users.Delete(ctx, u.ID), ErrUserNotFound)
}

func TestUserServiceSoftDelete(t *testing.T) {
	ctx := context.Background()
	users, _, _ := newTestServices(t)

	u, err := users.Create(ctx, CreateUserInput{Email: "hidden@example.com", Password: "pw"})
	require.NoError(t, err)

	require.NoError(t, users.SoftDelete(ctx, u.ID))

	_, err = users.Get(ctx, u.ID)
	require.ErrorIs(t, err, ErrUserNotFound)
	_, err = users.FindByEmail(ctx, "hidden@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	// The email is released for reuse.
	_, err = users.Create(ctx, CreateUserInput{Email: "hidden@example.com", Password: "pw2"})
	require.NoError(t, err)
}

func TestUserServiceList(t *testing.T) {
	ctx := context.Background()
	users, _, _ := newTestServices(t)

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, err := users.Create(ctx, CreateUserInput{Email: email, Password: "pw"})
		require.NoError(t, err)
	}

	all, err := users.List(ctx, store.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, u := range all {
		require.Empty(t, u.PasswordHash)
	}

	page, err := users.List(ctx, store.ListOptions{Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
}
