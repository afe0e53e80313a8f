package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aperohq/accounts/internal/accounts/store/drivers/sqlite"
	"github.com/aperohq/accounts/pkg/jwtx"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newTestServices(t *testing.T) (*UserService, *TokenService, *AuthService) {
	t.Helper()

	users := &UserService{Store: newTestStore(t)}
	tokens := &TokenService{
		Access:  jwtx.NewSigner([]byte("test-access-secret"), "accounts-test", 15*time.Minute),
		Refresh: jwtx.NewSigner([]byte("test-refresh-secret"), "accounts-test", 7*24*time.Hour),
	}
	auth := &AuthService{Users: users, Tokens: tokens}
	return users, tokens, auth
}
