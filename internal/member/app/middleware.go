package app

import (
	"smart_cycle_market/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// IsAuth requires a valid bearer access token of an existing member
func IsAuth(uc MemberUseCase) fiber.Handler {
	return func(c *fiber.Ctx) error {
		member, err := uc.Authenticate(c.UserContext(), middlewares.BearerToken(c))
		if err != nil {
			return err
		}
		c.Locals(middlewares.TokenMemberID, member.MemberID)
		c.Locals(middlewares.TokenProfile, member.Profile())
		return c.Next()
	}
}
