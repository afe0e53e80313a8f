package domain

// TokenPair is what a successful authentication returns: the short-lived
// access token (JWT), the long-lived refresh token (JWT, distinct secret) and
// the access token lifetime in seconds. Pairs are ephemeral and never
// persisted.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // seconds until the access token expires
}
