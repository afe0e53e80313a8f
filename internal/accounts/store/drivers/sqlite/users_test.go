package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aperohq/accounts/internal/accounts/domain"
	"github.com/aperohq/accounts/internal/accounts/store"
	"github.com/aperohq/accounts/pkg/idx"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func seedUser(t *testing.T, st *Store, email string) domain.User {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Second)
	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: "argon2id-placeholder",
		FirstName:    "Test",
		LastName:     "User",
		Roles:        []domain.Role{domain.RoleUser},
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))
	return u
}

func TestUsersRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	now := time.Now().UTC().Truncate(time.Second)
	verified := now.Add(-time.Hour)
	want := domain.User{
		ID:                 idx.New().String(),
		Email:              "full@example.com",
		PasswordHash:       "hash-value",
		FirstName:          "Full",
		LastName:           "Record",
		Roles:              []domain.Role{domain.RoleUser, domain.RoleAdmin},
		IsActive:           true,
		IsEmailVerified:    true,
		IsTwoFactorEnabled: true,
		PhoneNumber:        "+61400000000",
		AvatarURL:          "https://cdn.example/a.png",
		GoogleID:           "google-sub",
		GoogleEmail:        "full@gmail.com",
		GoogleProfile: &domain.GoogleProfile{
			Name: "Full Record", Picture: "https://lh3.example/p.png",
			Locale: "en-AU", VerifiedEmail: true,
		},
		EmailVerifiedAt: &verified,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, st.Users().CreateUser(ctx, want))

	for name, fetch := range map[string]func() (domain.User, error){
		"by id":        func() (domain.User, error) { return st.Users().GetUserByID(ctx, want.ID) },
		"by email":     func() (domain.User, error) { return st.Users().GetUserByEmail(ctx, want.Email) },
		"by google id": func() (domain.User, error) { return st.Users().GetUserByGoogleID(ctx, want.GoogleID) },
	} {
		got, err := fetch()
		require.NoError(t, err, name)
		require.Equal(t, want.ID, got.ID, name)
		require.Equal(t, want.Roles, got.Roles, name)
		require.Equal(t, want.PasswordHash, got.PasswordHash, name)
		require.Equal(t, want.GoogleProfile, got.GoogleProfile, name)
		require.NotNil(t, got.EmailVerifiedAt, name)
	}

	t.Run("sparse record scans cleanly", func(t *testing.T) {
		sparse := seedUser(t, st, "sparse@example.com")
		got, err := st.Users().GetUserByID(ctx, sparse.ID)
		require.NoError(t, err)
		require.Empty(t, got.GoogleID)
		require.Nil(t, got.GoogleProfile)
		require.Nil(t, got.LastLoginAt)
		require.Nil(t, got.DeletedAt)
	})
}

func TestUsersUniqueEmailConstraint(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	seedUser(t, st, "dup@example.com")

	dup := domain.User{
		ID:        idx.New().String(),
		Email:     "dup@example.com",
		Roles:     []domain.Role{domain.RoleUser},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	err := st.Users().CreateUser(ctx, dup)
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestUsersLookupsExcludeSoftDeleted(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	u := seedUser(t, st, "ghost@example.com")
	require.NoError(t, st.Users().SoftDeleteUser(ctx, u.ID))

	_, err := st.Users().GetUserByID(ctx, u.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.Users().GetUserByEmail(ctx, "ghost@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	list, err := st.Users().ListUsers(ctx, store.ListOptions{})
	require.NoError(t, err)
	require.Empty(t, list)

	t.Run("soft delete releases the email", func(t *testing.T) {
		seedUser(t, st, "ghost@example.com")
	})

	t.Run("soft deleting twice fails", func(t *testing.T) {
		require.ErrorIs(t, st.Users().SoftDeleteUser(ctx, u.ID), store.ErrNotFound)
	})
}

func TestUsersHardDelete(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	u := seedUser(t, st, "gone@example.com")
	require.NoError(t, st.Users().DeleteUser(ctx, u.ID))
	require.ErrorIs(t, st.Users().DeleteUser(ctx, u.ID), store.ErrNotFound)

	_, err := st.Users().GetUserByID(ctx, u.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUsersList(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	for _, email := range []string{"l1@example.com", "l2@example.com", "l3@example.com"} {
		seedUser(t, st, email)
	}

	all, err := st.Users().ListUsers(ctx, store.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	page, err := st.Users().ListUsers(ctx, store.ListOptions{Offset: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
}

func TestUsersLoginBookkeeping(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	u := seedUser(t, st, "book@example.com")
	at := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, st.Users().RecordFailedLogin(ctx, u.ID, at))
	require.NoError(t, st.Users().RecordFailedLogin(ctx, u.ID, at))

	got, err := st.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.FailedLoginAttempts)
	require.NotNil(t, got.LastFailedLoginAt)

	require.NoError(t, st.Users().ResetFailedLogins(ctx, u.ID))
	require.NoError(t, st.Users().UpdateLastLogin(ctx, u.ID, at))

	got, err = st.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Zero(t, got.FailedLoginAttempts)
	require.NotNil(t, got.LastLoginAt)

	t.Run("unknown user fails", func(t *testing.T) {
		require.ErrorIs(t, st.Users().UpdateLastLogin(ctx, "missing", at), store.ErrNotFound)
		require.ErrorIs(t, st.Users().RecordFailedLogin(ctx, "missing", at), store.ErrNotFound)
	})
}

func TestUsersUpdate(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	u := seedUser(t, st, "upd@example.com")
	u.FirstName = "Changed"
	u.Roles = []domain.Role{domain.RoleAdmin}
	u.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	require.NoError(t, st.Users().UpdateUser(ctx, u))

	got, err := st.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "Changed", got.FirstName)
	require.Equal(t, []domain.Role{domain.RoleAdmin}, got.Roles)

	t.Run("update to a taken email conflicts", func(t *testing.T) {
		other := seedUser(t, st, "other@example.com")
		other.Email = "upd@example.com"
		require.ErrorIs(t, st.Users().UpdateUser(ctx, other), store.ErrAlreadyExists)
	})

	t.Run("update of a missing row fails", func(t *testing.T) {
		missing := u
		missing.ID = idx.New().String()
		require.ErrorIs(t, st.Users().UpdateUser(ctx, missing), store.ErrNotFound)
	})
}
