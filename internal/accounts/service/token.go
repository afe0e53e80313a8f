package service

import (
	"time"

	"github.com/aperohq/accounts/internal/accounts/domain"
	"github.com/aperohq/accounts/pkg/jwtx"
)

// TokenService issues access/refresh token pairs. The two signers carry
// distinct secrets, so tokens of one kind never verify as the other.
type TokenService struct {
	Access  jwtx.Signer
	Refresh jwtx.Signer
}

// Issue signs a fresh pair for the given user. Both tokens embed the same
// subject, email, and roles; expires_in reports the access token lifetime in
// seconds.
func (s *TokenService) Issue(u domain.User) (domain.TokenPair, error) {
	now := time.Now().UTC()
	roles := domain.RoleStrings(u.Roles)

	access, err := s.Access.Sign(u.ID, u.Email, roles, now)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, err := s.Refresh.Sign(u.ID, u.Email, roles, now)
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.Access.TTL() / time.Second),
	}, nil
}

// VerifyRefresh validates a refresh token against the refresh secret.
func (s *TokenService) VerifyRefresh(token string) (*jwtx.Claims, error) {
	return s.Refresh.Verify(token)
}
