package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleType set member role
type RoleType string

const (
	// RoleMember is the member role
	RoleMember RoleType = "member"
)

// Kind distinguishes access from refresh tokens
type Kind string

const (
	// KindAccess short lived bearer token
	KindAccess Kind = "access"
	// KindRefresh long lived token bound to a session id
	KindRefresh Kind = "refresh"
)

var (
	// ErrTokenExpired signature valid but past exp
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid malformed, wrong signature or wrong kind
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims structure for custom claims in JWT
type Claims struct {
	MemberID string `json:"user_id"`
	Role     string `json:"role"`
	Kind     Kind   `json:"kind"`
	jwt.RegisteredClaims
}

// SessionID refresh session id carried in jti
func (c *Claims) SessionID() string {
	return c.ID
}

// Verifier parses and validates a signed token
type Verifier interface {
	Parse(tokenStr string) (*Claims, error)
}

// Manager signs and verifies HS256 tokens
type Manager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewManager create a token manager
func NewManager(secret, issuer string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// RefreshTTL lifetime of refresh tokens and their sessions
func (m *Manager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

// GenerateAccess signs an access token for memberID
func (m *Manager) GenerateAccess(memberID string) (string, error) {
	return m.sign(memberID, KindAccess, "", m.accessTTL)
}

// GenerateRefresh signs a refresh token bound to sessionID
func (m *Manager) GenerateRefresh(memberID, sessionID string) (string, error) {
	return m.sign(memberID, KindRefresh, sessionID, m.refreshTTL)
}

func (m *Manager) sign(memberID string, kind Kind, jti string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := Claims{
		MemberID: memberID,
		Role:     string(RoleMember),
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   memberID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.issuer,
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

// Parse validates tokenStr, mapping failures to ErrTokenExpired or ErrTokenInvalid
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || claims.MemberID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// ParseKind parses tokenStr and requires the given kind
func (m *Manager) ParseKind(tokenStr string, kind Kind) (*Claims, error) {
	claims, err := m.Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Kind != kind {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
