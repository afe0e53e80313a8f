package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aperohq/accounts/internal/accounts/domain"
	"github.com/aperohq/accounts/pkg/jwtx"
)

func TestTokenServiceIssue(t *testing.T) {
	t.Parallel()

	svc := &TokenService{
		Access:  jwtx.NewSigner([]byte("access-secret"), "accounts-test", 15*time.Minute),
		Refresh: jwtx.NewSigner([]byte("refresh-secret"), "accounts-test", 7*24*time.Hour),
	}

	u := domain.User{
		ID:    "01HXYZABCDEF0123456789ABCD",
		Email: "pair@example.com",
		Roles: []domain.Role{domain.RoleUser, domain.RoleAdmin},
	}

	pair, err := svc.Issue(u)
	require.NoError(t, err)
	require.Equal(t, int64(900), pair.ExpiresIn)

	t.Run("both tokens carry the same identity", func(t *testing.T) {
		access, err := svc.Access.Verify(pair.AccessToken)
		require.NoError(t, err)
		refresh, err := svc.Refresh.Verify(pair.RefreshToken)
		require.NoError(t, err)

		require.Equal(t, u.ID, access.Subject)
		require.Equal(t, u.ID, refresh.Subject)
		require.Equal(t, u.Email, access.Email)
		require.Equal(t, []string{"user", "admin"}, access.Roles)
		require.Equal(t, access.Roles, refresh.Roles)
	})

	t.Run("secrets are not interchangeable", func(t *testing.T) {
		_, err := svc.Access.Verify(pair.RefreshToken)
		require.ErrorIs(t, err, jwtx.ErrInvalidToken)
		_, err = svc.Refresh.Verify(pair.AccessToken)
		require.ErrorIs(t, err, jwtx.ErrInvalidToken)
	})

	t.Run("refresh outlives access", func(t *testing.T) {
		access, err := svc.Access.Verify(pair.AccessToken)
		require.NoError(t, err)
		refresh, err := svc.Refresh.Verify(pair.RefreshToken)
		require.NoError(t, err)
		require.True(t, refresh.ExpiresAt.After(access.ExpiresAt.Time))
	})
}
