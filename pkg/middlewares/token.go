package middlewares

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	//QueryToken token in query name
	QueryToken = "auth"

	//CookieToken token in cookie name
	CookieToken = "auth_token"

	//TokenMemberID get member form token, set c.locals name
	TokenMemberID = "MemberID"
	//TokenProfile member profile set by IsAuth
	TokenProfile = "profile"
)

// BearerToken token from "Authorization: Bearer <token>", empty when absent
func BearerToken(c *fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// HandshakeToken token of a websocket handshake: query, then cookie, then bearer header
func HandshakeToken(c *fiber.Ctx) string {
	if tokenStr := c.Query(QueryToken); tokenStr != "" {
		return tokenStr
	}
	if tokenStr := c.Cookies(CookieToken); tokenStr != "" {
		return tokenStr
	}
	return BearerToken(c)
}

// MemberID member id stored in locals, empty when unauthenticated
func MemberID(c *fiber.Ctx) string {
	memberID, _ := c.Locals(TokenMemberID).(string)
	return memberID
}
