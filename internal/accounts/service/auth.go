package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aperohq/accounts/internal/accounts/domain"
	"github.com/aperohq/accounts/internal/accounts/store"
	"github.com/aperohq/accounts/pkg/cryptox"
	"github.com/aperohq/accounts/pkg/jwtx"
	"github.com/aperohq/accounts/pkg/slogx"
)

var (
	// ErrInvalidCredentials is the single failure returned for every login
	// rejection: unknown email, wrong password, missing password hash, or a
	// deactivated account. Callers cannot tell which.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	// ErrInvalidRefreshToken covers every refresh rejection, including a
	// token whose subject no longer resolves to an active user.
	ErrInvalidRefreshToken = errors.New("invalid_refresh_token")
)

// AuthService runs the password login and token refresh flows on top of the
// user and token services.
type AuthService struct {
	Users  *UserService
	Tokens *TokenService
}

// Validate checks an email/password pair and returns the matching user,
// redacted. Every rejection collapses to ErrInvalidCredentials; failed
// attempts against an existing account bump its failure counter, and a
// success resets it.
func (s *AuthService) Validate(ctx context.Context, email, password string) (domain.User, error) {
	u, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}

	if u.PasswordHash == "" {
		// Google-only account; no password to check.
		return domain.User{}, ErrInvalidCredentials
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			s.recordFailure(ctx, u.ID)
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}

	if !u.IsActive {
		return domain.User{}, ErrInvalidCredentials
	}

	if u.FailedLoginAttempts > 0 {
		if err := s.Users.Store.Users().ResetFailedLogins(ctx, u.ID); err != nil {
			slogx.FromContext(ctx).WarnContext(ctx, "failed to reset login failure counter",
				slog.String("user_id", u.ID), slog.Any("error", err))
		}
	}

	return u.Redacted(), nil
}

// Login validates credentials and issues a token pair. The last-login stamp
// is best effort: a failed stamp is logged, never surfaced, and never blocks
// the issued tokens.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, domain.TokenPair, error) {
	u, err := s.Validate(ctx, email, password)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}

	pair, err := s.Tokens.Issue(u)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}

	now := time.Now().UTC()
	if err := s.Users.RecordLogin(ctx, u.ID, now); err != nil {
		slogx.FromContext(ctx).WarnContext(ctx, "failed to stamp last login",
			slog.String("user_id", u.ID), slog.Any("error", err))
	} else {
		u.LastLoginAt = &now
	}

	return u, pair, nil
}

// Refresh verifies a refresh token, reloads the subject's current record, and
// issues a brand-new pair from that current state. Roles or email changed
// since the old pair was minted are picked up here; a deleted or deactivated
// subject fails with ErrInvalidRefreshToken.
//
// Refresh is stateless: the presented token stays valid until it expires.
// There is no revocation store, so deactivating the user is the way to cut
// off an issued refresh token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	claims, err := s.Tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return domain.TokenPair{}, ErrInvalidRefreshToken
	}

	u, err := s.Users.Get(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return domain.TokenPair{}, ErrInvalidRefreshToken
		}
		return domain.TokenPair{}, err
	}
	if !u.IsActive {
		return domain.TokenPair{}, ErrInvalidRefreshToken
	}

	return s.Tokens.Issue(u)
}

// VerifyAccess exposes access-token verification for the HTTP middleware.
func (s *AuthService) VerifyAccess(token string) (*jwtx.Claims, error) {
	return s.Tokens.Access.Verify(token)
}

func (s *AuthService) recordFailure(ctx context.Context, userID string) {
	if err := s.Users.Store.Users().RecordFailedLogin(ctx, userID, time.Now().UTC()); err != nil {
		slogx.FromContext(ctx).WarnContext(ctx, "failed to record login failure",
			slog.String("user_id", userID), slog.Any("error", err))
	}
}
