// Package identity holds the outbound identity-provider integrations. Only
// Google is wired today.
package identity

import (
	"context"
	"errors"

	"google.golang.org/api/idtoken"

	"github.com/aperohq/accounts/internal/accounts/service"
)

// GoogleVerifier validates Google ID tokens against a fixed OAuth client id
// using Google's published signing keys.
type GoogleVerifier struct {
	audience string
}

func NewGoogleVerifier(audience string) (*GoogleVerifier, error) {
	if audience == "" {
		return nil, errors.New("identity: google audience is required")
	}
	return &GoogleVerifier{audience: audience}, nil
}

// VerifyIDToken checks the token's signature, expiry, issuer, and audience,
// then lifts the claims this service cares about out of the payload.
func (v *GoogleVerifier) VerifyIDToken(ctx context.Context, rawToken string) (service.IdentityPayload, error) {
	payload, err := idtoken.Validate(ctx, rawToken, v.audience)
	if err != nil {
		return service.IdentityPayload{}, err
	}

	return service.IdentityPayload{
		Subject:       payload.Subject,
		Email:         claimString(payload, "email"),
		EmailVerified: claimBool(payload, "email_verified"),
		GivenName:     claimString(payload, "given_name"),
		FamilyName:    claimString(payload, "family_name"),
		Name:          claimString(payload, "name"),
		Picture:       claimString(payload, "picture"),
		Locale:        claimString(payload, "locale"),
	}, nil
}

func claimString(p *idtoken.Payload, key string) string {
	if v, ok := p.Claims[key].(string); ok {
		return v
	}
	return ""
}

func claimBool(p *idtoken.Payload, key string) bool {
	switch v := p.Claims[key].(type) {
	case bool:
		return v
	case string:
		// Some issuers encode the flag as the string "true".
		return v == "true"
	}
	return false
}
