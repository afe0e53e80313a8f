package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aperohq/accounts/internal/accounts/domain"
	"github.com/aperohq/accounts/internal/accounts/store"
	"github.com/aperohq/accounts/pkg/slogx"
)

var (
	// ErrInvalidGoogleToken covers every ID token the verifier rejects:
	// bad signature, expired, wrong audience, wrong issuer.
	ErrInvalidGoogleToken = errors.New("invalid_google_token")

	// ErrMalformedIDToken marks a structurally unusable assertion, such as a
	// verified token missing its subject or email. Unlike a verification
	// failure this is the caller's payload being broken, not untrusted.
	ErrMalformedIDToken = errors.New("malformed_id_token")
)

// IdentityPayload is the claim set extracted from a verified Google ID
// token.
type IdentityPayload struct {
	Subject       string
	Email         string
	EmailVerified bool
	GivenName     string
	FamilyName    string
	Name          string
	Picture       string
	Locale        string
}

// IdentityVerifier validates a raw Google ID token against the configured
// audience and returns its claims. Production wires the google.golang.org
// idtoken validator; tests substitute a fake.
type IdentityVerifier interface {
	VerifyIDToken(ctx context.Context, rawToken string) (IdentityPayload, error)
}

// GoogleService exchanges a verified Google identity for a local account,
// creating or linking one as needed, and issues tokens for it.
type GoogleService struct {
	Users    *UserService
	Tokens   *TokenService
	Verifier IdentityVerifier
}

// Login runs the full Google flow: verify the ID token, resolve the local
// account (by Google subject id, then by email, then by creating one), and
// issue a token pair. Re-running with the same token is idempotent: the same
// account is resolved every time.
//
// Beyond the malformed-payload case, every failure folds into
// ErrInvalidGoogleToken so a caller probing with forged tokens learns nothing
// about local account state. The underlying cause is logged server-side.
func (s *GoogleService) Login(ctx context.Context, rawToken string) (domain.User, domain.TokenPair, error) {
	if rawToken == "" {
		return domain.User{}, domain.TokenPair{}, ErrMalformedIDToken
	}

	payload, err := s.Verifier.VerifyIDToken(ctx, rawToken)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, ErrInvalidGoogleToken
	}
	if payload.Subject == "" || payload.Email == "" {
		return domain.User{}, domain.TokenPair{}, ErrMalformedIDToken
	}

	u, err := s.resolve(ctx, payload)
	if err != nil {
		slogx.FromContext(ctx).ErrorContext(ctx, "google account resolution failed",
			slog.Any("error", err))
		return domain.User{}, domain.TokenPair{}, ErrInvalidGoogleToken
	}
	if !u.IsActive {
		return domain.User{}, domain.TokenPair{}, ErrInvalidGoogleToken
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

// resolve maps a verified identity onto a local user. Lookup order is Google
// subject id first, linked or fresh email second. Email verification is
// monotonic: a verified email never reverts to unverified through this path.
func (s *GoogleService) resolve(ctx context.Context, payload IdentityPayload) (domain.User, error) {
	profile := &domain.GoogleProfile{
		Name:          payload.Name,
		Picture:       payload.Picture,
		Locale:        payload.Locale,
		VerifiedEmail: payload.EmailVerified,
	}

	if u, err := s.Users.FindByGoogleID(ctx, payload.Subject); err == nil {
		return s.merge(ctx, u, payload, profile)
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, err
	}

	if u, err := s.Users.FindByEmail(ctx, payload.Email); err == nil {
		// Existing password account with a matching email adopts the Google
		// identity.
		return s.merge(ctx, u, payload, profile)
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, err
	}

	created, err := s.Users.Create(ctx, CreateUserInput{
		Email:           payload.Email,
		FirstName:       payload.GivenName,
		LastName:        payload.FamilyName,
		IsActive:        true,
		IsEmailVerified: payload.EmailVerified,
		AvatarURL:       payload.Picture,
		GoogleID:        payload.Subject,
		GoogleEmail:     payload.Email,
		GoogleProfile:   profile,
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			// Lost a create race; the winner owns the email now.
			if u, lookupErr := s.Users.FindByEmail(ctx, payload.Email); lookupErr == nil {
				return s.merge(ctx, u, payload, profile)
			}
		}
		return domain.User{}, err
	}
	return created, nil
}

func (s *GoogleService) merge(ctx context.Context, u domain.User, payload IdentityPayload, profile *domain.GoogleProfile) (domain.User, error) {
	patch := UpdateUserInput{
		GoogleID:      &payload.Subject,
		GoogleEmail:   &payload.Email,
		GoogleProfile: profile,
	}
	if payload.EmailVerified && !u.IsEmailVerified {
		verified := true
		patch.IsEmailVerified = &verified
	}
	if u.AvatarURL == "" && payload.Picture != "" {
		patch.AvatarURL = &payload.Picture
	}
	if u.FirstName == "" && payload.GivenName != "" {
		patch.FirstName = &payload.GivenName
	}
	if u.LastName == "" && payload.FamilyName != "" {
		patch.LastName = &payload.FamilyName
	}
	return s.Users.Update(ctx, u.ID, patch)
}
