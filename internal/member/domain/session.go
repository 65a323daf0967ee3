package domain

import "time"

// Session refresh token session, one per signed-in device.
// Only a fingerprint of the refresh token is stored.
type Session struct {
	ID        string    `json:"id"`
	MemberID  string    `json:"member_id"`
	TokenHash string    `json:"token_hash"`
	CreatedAt time.Time `json:"created_at"`
	ExpiredAt time.Time `json:"expired_at"`
}

// IsExpired reports whether the session is past its expiry
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiredAt)
}

// TokenPurpose what a one-time token unlocks
type TokenPurpose string

const (
	// PurposeVerification email verification link
	PurposeVerification TokenPurpose = "verify"
	// PurposePasswordReset password reset link
	PurposePasswordReset TokenPurpose = "reset"
)

// OneTimeToken bcrypt hash of a token mailed to the member
type OneTimeToken struct {
	Hash      string    `json:"hash"`
	CreatedAt time.Time `json:"created_at"`
}
