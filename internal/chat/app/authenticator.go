package app

import (
	"errors"

	"smart_cycle_market/internal/chat/domain"
	"smart_cycle_market/pkg/logger"
	"smart_cycle_market/pkg/middlewares"
	"smart_cycle_market/pkg/token"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

var (
	// ErrMissingCredential no token on the handshake
	ErrMissingCredential = errors.New("Unauthorized request!")
	// ErrInvalidCredential bad signature or structure
	ErrInvalidCredential = errors.New("Invalid token!")
	// ErrCredentialExpired well formed and signed, but expired
	ErrCredentialExpired = errors.New("jwt expired")
)

// Authenticator verifies the credential presented when a websocket is opened
type Authenticator struct {
	verifier token.Verifier
}

// NewAuthenticator create Authenticator
func NewAuthenticator(verifier token.Verifier) *Authenticator {
	return &Authenticator{verifier: verifier}
}

// Authenticate resolves the identity of tokenStr, signature only, no database read
func (a *Authenticator) Authenticate(tokenStr string) (domain.Identity, error) {
	if tokenStr == "" {
		return domain.Identity{}, ErrMissingCredential
	}

	claims, err := a.verifier.Parse(tokenStr)
	switch {
	case errors.Is(err, token.ErrTokenExpired):
		return domain.Identity{}, ErrCredentialExpired
	case err != nil:
		return domain.Identity{}, ErrInvalidCredential
	case claims.Kind != token.KindAccess:
		return domain.Identity{}, ErrInvalidCredential
	}

	return domain.Identity{MemberID: claims.MemberID}, nil
}

// UpgradeMiddleware runs before the websocket upgrade, a refused handshake never opens a socket
func (a *Authenticator) UpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		identity, err := a.Authenticate(middlewares.HandshakeToken(c))
		if err != nil {
			logger.Log.Info("websocket handshake refused", zap.String("ip", c.IP()), zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": err.Error()})
		}

		c.Locals(middlewares.TokenMemberID, identity.MemberID)
		return c.Next()
	}
}
