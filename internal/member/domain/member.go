package domain

import (
	"errors"
	"time"

	"smart_cycle_market/pkg/encrypt"
)

var (
	// ErrMemberNotFound no member matches the query
	ErrMemberNotFound = errors.New("member not found")
	// ErrEmailTaken email already registered
	ErrEmailTaken = errors.New("email already in use")
	// ErrSessionNotFound refresh session missing, expired or already rotated
	ErrSessionNotFound = errors.New("session not found")
	// ErrTokenNotFound one-time token missing or expired
	ErrTokenNotFound = errors.New("token not found")
)

// MemberStatus account state
type MemberStatus int

const (
	// MemberStatusActive normal account
	MemberStatusActive MemberStatus = iota
	// MemberStatusBan banned account
	MemberStatusBan
	// MemberStatusDelete soft deleted account
	MemberStatusDelete
)

// Member registered account
type Member struct {
	ID             int64
	MemberID       string
	Name           string
	Email          string
	Password       string
	Verified       bool
	AvatarURL      string
	AvatarPublicID string
	Status         MemberStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsPasswordMatch compare inputPwd with the stored hash
func (m *Member) IsPasswordMatch(inputPwd string) error {
	return encrypt.CheckPassword(m.Password, inputPwd)
}

// Profile private profile of the member
func (m *Member) Profile() Profile {
	return Profile{
		ID:       m.MemberID,
		Email:    m.Email,
		Name:     m.Name,
		Verified: m.Verified,
		Avatar:   m.AvatarURL,
	}
}

// PublicProfile profile visible to other members
func (m *Member) PublicProfile() PublicProfile {
	return PublicProfile{ID: m.MemberID, Name: m.Name, Avatar: m.AvatarURL}
}

// Profile returned to the member itself
type Profile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Verified bool   `json:"verified"`
	Avatar   string `json:"avatar,omitempty"`
}

// PublicProfile returned to anyone
type PublicProfile struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// MemberQuery join conditions are used to query members
type MemberQuery struct {
	ID       *int64  `db:"id"`
	MemberID *string `db:"member_id"`
	Email    *string `db:"email"`
}

// Tokens access and refresh pair
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// SignInResult sign-in and refresh response
type SignInResult struct {
	Profile Profile `json:"profile"`
	Tokens  Tokens  `json:"tokens"`
}
