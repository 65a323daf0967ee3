package router

import (
	"smart_cycle_market/internal/member/app"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes /auth routes, isAuth guards the member only ones
func RegisterRoutes(r *fiber.App, isAuth fiber.Handler, memberHandler *app.MemberHandler) {
	authRoutes := r.Group("/auth")

	authRoutes.Post("/sign-up", memberHandler.SignUp)
	authRoutes.Post("/verify", memberHandler.Verify)
	authRoutes.Post("/sign-in", memberHandler.SignIn)
	authRoutes.Post("/refresh-token", memberHandler.Refresh)
	authRoutes.Post("/forget-pass", memberHandler.ForgetPassword)
	authRoutes.Post("/verify-pass-reset-token", memberHandler.VerifyResetToken)
	authRoutes.Post("/reset-pass", memberHandler.ResetPassword)
	authRoutes.Get("/profile/:id", memberHandler.PublicProfile)

	authRoutes.Post("/sign-out", isAuth, memberHandler.SignOut)
	authRoutes.Get("/profile", isAuth, memberHandler.Profile)
	authRoutes.Get("/verify-token", isAuth, memberHandler.ResendVerification)
	authRoutes.Patch("/update-profile", isAuth, memberHandler.UpdateProfile)
	authRoutes.Patch("/update-avatar", isAuth, memberHandler.UpdateAvatar)
}
