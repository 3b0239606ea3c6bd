package auth

import (
	"errors"

	"padtracker-console/internal/common/validation"
	"padtracker-console/internal/middleware"
	"padtracker-console/internal/session"
	"padtracker-console/internal/upstream"

	"github.com/gofiber/fiber/v2"
)

type AuthController struct {
	AuthService AuthService
	Sessions    session.Service
}

func NewAuthController(authService AuthService, sessions session.Service) *AuthController {
	return &AuthController{
		AuthService: authService,
		Sessions:    sessions,
	}
}

// LoginResponse uses the keys the dashboard shell has always persisted.
type LoginResponse struct {
	AuthToken string `json:"authToken"`
	UserRole  string `json:"userRole"`
	RoleID    int    `json:"roleId"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	Redirect  string `json:"redirect"`
}

// SendOTP godoc
// @Summary      Request an OTP
// @Description  Sends a one-time password to the given 10-digit mobile number
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body SendOTPRequest true "Mobile number"
// @Success      200  {object} map[string]string
// @Failure      422  {object} map[string]any
// @Router       /api/auth/send-otp [post]
func (ctrl *AuthController) SendOTP(c *fiber.Ctx) error {
	var req SendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := ctrl.AuthService.SendOTP(c.UserContext(), req); err != nil {
		return authFailure(c, err, "Failed to send OTP")
	}

	return c.JSON(fiber.Map{"message": "OTP sent successfully"})
}

// VerifyOTP godoc
// @Summary      Verify an OTP
// @Description  Exchanges mobile number and OTP for a console session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body VerifyOTPRequest true "Mobile number and OTP"
// @Success      200  {object} LoginResponse
// @Failure      400  {object} map[string]string
// @Failure      403  {object} map[string]string
// @Router       /api/auth/verify-otp [post]
func (ctrl *AuthController) VerifyOTP(c *fiber.Ctx) error {
	var req VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	sess, token, err := ctrl.AuthService.VerifyOTP(c.UserContext(), req)
	if err != nil {
		return authFailure(c, err, "Invalid OTP")
	}

	middleware.SetSessionCookie(c, token, ctrl.Sessions.TTL())
	return c.JSON(LoginResponse{
		AuthToken: token,
		UserRole:  string(sess.Role),
		RoleID:    sess.RoleID,
		Username:  sess.Username,
		Name:      sess.Name,
		Redirect:  "/",
	})
}

// Logout godoc
// @Summary      Logout
// @Tags         auth
// @Success      204
// @Router       /api/auth/logout [post]
func (ctrl *AuthController) Logout(c *fiber.Ctx) error {
	if sess := middleware.CurrentSession(c); sess != nil {
		// A failed store delete is logged by the service; the cookie is cleared regardless.
		_ = ctrl.AuthService.Logout(c.UserContext(), sess.ID)
	}
	middleware.ClearSessionCookie(c)
	return c.SendStatus(fiber.StatusNoContent)
}

// Me godoc
// @Summary      Current session profile
// @Tags         auth
// @Produce      json
// @Success      200  {object} session.Session
// @Router       /api/auth/me [get]
func (ctrl *AuthController) Me(c *fiber.Ctx) error {
	sess := middleware.CurrentSession(c)
	return c.JSON(fiber.Map{
		"userRole":  sess.Role,
		"roleLabel": sess.Role.Label(),
		"roleId":    sess.RoleID,
		"username":  sess.Username,
		"name":      sess.Name,
	})
}

func authFailure(c *fiber.Ctx, err error, fallback string) error {
	var fields validation.Errors
	if errors.As(err, &fields) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  "validation failed",
			"fields": fields,
		})
	}
	if errors.Is(err, session.ErrUnknownRole) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Your role is not permitted to use the console"})
	}
	status := fiber.StatusBadGateway
	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
		status = apiErr.StatusCode
	}
	return c.Status(status).JSON(fiber.Map{"error": upstream.Message(err, fallback)})
}
