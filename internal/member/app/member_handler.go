package app

import (
	"smart_cycle_market/internal/member/domain"
	errprocess "smart_cycle_market/pkg/err"
	"smart_cycle_market/pkg/logger"
	"smart_cycle_market/pkg/middlewares"
	"smart_cycle_market/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type signUpRequest struct {
	Name     string `json:"name" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,strongpassword"`
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type oneTimeTokenRequest struct {
	ID    string `json:"id" validate:"required,uuid"`
	Token string `json:"token" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	ID       string `json:"id" validate:"required,uuid"`
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,strongpassword"`
}

type updateProfileRequest struct {
	Name string `json:"name" validate:"required,min=3"`
}

// MemberHandler /auth endpoints
type MemberHandler struct {
	uc MemberUseCase
}

// NewMemberHandler create MemberHandler
func NewMemberHandler(uc MemberUseCase) *MemberHandler {
	return &MemberHandler{uc: uc}
}

func bind(c *fiber.Ctx, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return errprocess.BadRequest("Invalid request body!")
	}
	return validation.Struct(req)
}

// SignUp create an account
// @Summary Sign up
// @Description Creates the account and mails a verification link
// @Tags Member
// @Accept json
// @Produce json
// @Param body body signUpRequest true "name, email, password"
// @Success 201 {object} map[string]string "message"
// @Failure 409 {object} map[string]string "Email is already in use!"
// @Failure 422 {object} map[string]string "validation message"
// @Router /auth/sign-up [post]
func (h *MemberHandler) SignUp(c *fiber.Ctx) error {
	var req signUpRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if _, err := h.uc.SignUp(c.UserContext(), req.Name, req.Email, req.Password); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Please check your inbox."})
}

// Verify confirm the email address
// @Summary Verify email
// @Tags Member
// @Accept json
// @Produce json
// @Param body body oneTimeTokenRequest true "member id and token from the mail"
// @Success 200 {object} map[string]string "message"
// @Failure 403 {object} map[string]string "Invalid token!"
// @Router /auth/verify [post]
func (h *MemberHandler) Verify(c *fiber.Ctx) error {
	var req oneTimeTokenRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.uc.Verify(c.UserContext(), req.ID, req.Token); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Thanks for joining us, your email is verified."})
}

// SignIn exchange credentials for tokens
// @Summary Sign in
// @Tags Member
// @Accept json
// @Produce json
// @Param body body signInRequest true "email and password"
// @Success 200 {object} domain.SignInResult
// @Failure 403 {object} map[string]string "Email/Password mismatch!"
// @Router /auth/sign-in [post]
func (h *MemberHandler) SignIn(c *fiber.Ctx) error {
	var req signInRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	result, err := h.uc.SignIn(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// Refresh rotate the refresh token
// @Summary Refresh tokens
// @Description A refresh token can be used once; presenting a rotated token signs out every device
// @Tags Member
// @Accept json
// @Produce json
// @Param body body refreshRequest true "refresh token"
// @Success 200 {object} domain.SignInResult
// @Failure 401 {object} map[string]string "Unauthorized request!"
// @Router /auth/refresh-token [post]
func (h *MemberHandler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	result, err := h.uc.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// SignOut close the session of the given refresh token
// @Summary Sign out
// @Tags Member
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param body body refreshRequest true "refresh token"
// @Success 200 {object} map[string]string "message"
// @Failure 401 {object} map[string]string "Unauthorized request!"
// @Router /auth/sign-out [post]
func (h *MemberHandler) SignOut(c *fiber.Ctx) error {
	var req refreshRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.uc.SignOut(c.UserContext(), middlewares.MemberID(c), req.RefreshToken); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Signed out."})
}

// Profile caller's profile
// @Summary Own profile
// @Tags Member
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Success 200 {object} map[string]domain.Profile "profile"
// @Failure 401 {object} map[string]string "Unauthorized request!"
// @Router /auth/profile [get]
func (h *MemberHandler) Profile(c *fiber.Ctx) error {
	if profile, ok := c.Locals(middlewares.TokenProfile).(domain.Profile); ok {
		return c.JSON(fiber.Map{"profile": profile})
	}
	member, err := h.uc.Profile(c.UserContext(), middlewares.MemberID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"profile": member.Profile()})
}

// ResendVerification mail a new verification link
// @Summary Resend verification link
// @Tags Member
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Success 200 {object} map[string]string "message"
// @Failure 422 {object} map[string]string "Account is already verified!"
// @Router /auth/verify-token [get]
func (h *MemberHandler) ResendVerification(c *fiber.Ctx) error {
	if err := h.uc.ResendVerification(c.UserContext(), middlewares.MemberID(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Please check your inbox."})
}

// ForgetPassword mail a reset link
// @Summary Forgot password
// @Tags Member
// @Accept json
// @Produce json
// @Param body body emailRequest true "account email"
// @Success 200 {object} map[string]string "message"
// @Failure 404 {object} map[string]string "Account not found!"
// @Router /auth/forget-pass [post]
func (h *MemberHandler) ForgetPassword(c *fiber.Ctx) error {
	var req emailRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.uc.ForgetPassword(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Please check your email."})
}

// VerifyResetToken check a reset link before showing the form
// @Summary Check reset token
// @Tags Member
// @Accept json
// @Produce json
// @Param body body oneTimeTokenRequest true "member id and token from the mail"
// @Success 200 {object} map[string]bool "valid"
// @Failure 403 {object} map[string]string "Unauthorized access, invalid token!"
// @Router /auth/verify-pass-reset-token [post]
func (h *MemberHandler) VerifyResetToken(c *fiber.Ctx) error {
	var req oneTimeTokenRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.uc.VerifyResetToken(c.UserContext(), req.ID, req.Token); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"valid": true})
}

// ResetPassword set a new password with a reset token
// @Summary Reset password
// @Tags Member
// @Accept json
// @Produce json
// @Param body body resetPasswordRequest true "member id, token and new password"
// @Success 200 {object} map[string]string "message"
// @Failure 403 {object} map[string]string "Unauthorized access, invalid token!"
// @Failure 422 {object} map[string]string "The new password must be different!"
// @Router /auth/reset-pass [post]
func (h *MemberHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.uc.ResetPassword(c.UserContext(), req.ID, req.Token, req.Password); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Password reset successfully."})
}

// UpdateProfile change the display name
// @Summary Update profile
// @Tags Member
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param body body updateProfileRequest true "new name"
// @Success 200 {object} map[string]domain.Profile "profile"
// @Failure 422 {object} map[string]string "name must be at least 3 characters long!"
// @Router /auth/update-profile [patch]
func (h *MemberHandler) UpdateProfile(c *fiber.Ctx) error {
	var req updateProfileRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	member, err := h.uc.UpdateName(c.UserContext(), middlewares.MemberID(c), req.Name)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"profile": member.Profile()})
}

// UpdateAvatar replace the profile picture
// @Summary Update avatar
// @Tags Member
// @Accept multipart/form-data
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param avatar formData file true "image file"
// @Success 200 {object} map[string]domain.Profile "profile"
// @Failure 422 {object} map[string]string "Invalid image file!"
// @Router /auth/update-avatar [patch]
func (h *MemberHandler) UpdateAvatar(c *fiber.Ctx) error {
	fh, err := c.FormFile("avatar")
	if err != nil {
		return errprocess.Unprocessable("Invalid image file!")
	}
	f, err := fh.Open()
	if err != nil {
		return errprocess.Internal(err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Log.Warn("close avatar upload", zap.Error(err))
		}
	}()

	member, err := h.uc.UpdateAvatar(c.UserContext(), middlewares.MemberID(c), f, fh.Filename, fh.Header.Get(fiber.HeaderContentType))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"profile": member.Profile()})
}

// PublicProfile profile of any member
// @Summary Public profile
// @Tags Member
// @Produce json
// @Param id path string true "Member id"
// @Success 200 {object} map[string]domain.PublicProfile "profile"
// @Failure 404 {object} map[string]string "User not found!"
// @Router /auth/profile/{id} [get]
func (h *MemberHandler) PublicProfile(c *fiber.Ctx) error {
	profile, err := h.uc.PublicProfile(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"profile": profile})
}
