package domain

import (
	"strings"
	"time"
)

// GoogleProfile holds the profile fields merged from a verified Google
// identity assertion. Stored as a JSON blob alongside the user record.
type GoogleProfile struct {
	Name          string `json:"name,omitempty"`
	Picture       string `json:"picture,omitempty"`
	Locale        string `json:"locale,omitempty"`
	VerifiedEmail bool   `json:"verified_email"`
}

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"` // unique among non-deleted users, lower-cased and trimmed
	PasswordHash string `json:"-"`     // argon2id encoded; empty for Google-only accounts
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Roles        []Role `json:"roles"` // never empty

	IsActive           bool `json:"is_active"`
	IsEmailVerified    bool `json:"is_email_verified"`
	IsTwoFactorEnabled bool `json:"is_two_factor_enabled"`

	FailedLoginAttempts int        `json:"failed_login_attempts"`
	LastFailedLoginAt   *time.Time `json:"last_failed_login_at,omitempty"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`

	PhoneNumber string `json:"phone_number,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`

	GoogleID      string         `json:"google_id,omitempty"`
	GoogleEmail   string         `json:"google_email,omitempty"`
	GoogleProfile *GoogleProfile `json:"google_profile,omitempty"`

	EmailVerifiedAt   *time.Time `json:"email_verified_at,omitempty"`
	PasswordChangedAt *time.Time `json:"password_changed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	DeletedAt         *time.Time `json:"deleted_at,omitempty"`
}

// FullName joins the first and last name, trimming the seam when either is
// empty.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Redacted returns a copy safe for outward-facing use. The password hash is
// cleared; the JSON tag already excludes it from serialization, this guards
// the programmatic path too.
func (u User) Redacted() User {
	u.PasswordHash = ""
	return u
}

// HasRole reports whether the user carries the given role.
func (u User) HasRole(r Role) bool {
	for _, have := range u.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// NormalizeEmail lower-cases and trims an email address. Applied on every
// write path so two differently-cased emails never coexist.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
