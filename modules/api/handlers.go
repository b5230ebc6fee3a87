package api

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/go-monolith/mono/pkg/helper"
	domain "github.com/tyumu/Roamloid/domain/user"
	"github.com/tyumu/Roamloid/modules/auth"
)

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes() {
	api := m.app.Group("/api")

	// Health check
	api.Get("/health", m.healthHandler)

	// Auth endpoints
	authGroup := api.Group("/auth")
	authGroup.Post("/signup", m.signup)
	authGroup.Post("/login", m.login)

	protected := AuthMiddleware(m.authAdapter)
	authGroup.Post("/logout", protected, m.logout)
	authGroup.Post("/change-password", protected, m.changePassword)
	authGroup.Get("/detail", protected, m.userDetail)
	authGroup.Delete("/delete", protected, m.deleteUser)

	// Socket endpoint: token-gated upgrade
	m.app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	}, protected)
	m.app.Get("/ws", websocket.New(m.handleSocket))
}

// healthHandler handles GET /api/health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(ok(HealthResponse{Status: "ok"}))
}

// signup handles POST /api/auth/signup.
func (m *APIModule) signup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fail("Invalid request body."))
	}

	authReq := auth.SignupRequest{
		Username: req.Username,
		Password: req.Password,
	}
	var resp auth.SignupResponse

	if err := helper.CallRequestReplyService(
		c.UserContext(),
		m.authContainer,
		"signup",
		json.Marshal,
		json.Unmarshal,
		&authReq,
		&resp,
	); err != nil {
		return m.handleAuthError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(ok(MessageResponse{Message: resp.Message}))
}

// login handles POST /api/auth/login.
func (m *APIModule) login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fail("Invalid request body."))
	}

	authReq := auth.LoginRequest{
		Username: req.Username,
		Password: req.Password,
	}
	var resp auth.LoginResponse

	if err := helper.CallRequestReplyService(
		c.UserContext(),
		m.authContainer,
		"login",
		json.Marshal,
		json.Unmarshal,
		&authReq,
		&resp,
	); err != nil {
		return m.handleAuthError(c, err)
	}

	return c.JSON(ok(SessionResponse{
		Token:     resp.Token,
		ExpiresIn: resp.ExpiresIn,
		TokenType: resp.TokenType,
	}))
}

// logout handles POST /api/auth/logout. Session tokens are stateless:
// the server confirms and the client discards the token.
func (m *APIModule) logout(c *fiber.Ctx) error {
	return c.JSON(ok(MessageResponse{Message: "Logout successful."}))
}

// changePassword handles POST /api/auth/change-password.
func (m *APIModule) changePassword(c *fiber.Ctx) error {
	claims, valid := c.Locals(UserContextKey).(*domain.Claims)
	if !valid {
		return c.Status(fiber.StatusUnauthorized).JSON(fail("Authentication required."))
	}

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fail("Invalid request body."))
	}

	authReq := auth.ChangePasswordRequest{
		UserID:      claims.UserID,
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	}
	var resp auth.ChangePasswordResponse

	if err := helper.CallRequestReplyService(
		c.UserContext(),
		m.authContainer,
		"change-password",
		json.Marshal,
		json.Unmarshal,
		&authReq,
		&resp,
	); err != nil {
		return m.handleAuthError(c, err)
	}

	return c.JSON(ok(MessageResponse{Message: resp.Message}))
}

// userDetail handles GET /api/auth/detail.
func (m *APIModule) userDetail(c *fiber.Ctx) error {
	claims, valid := c.Locals(UserContextKey).(*domain.Claims)
	if !valid {
		return c.Status(fiber.StatusUnauthorized).JSON(fail("Authentication required."))
	}

	user, err := m.authAdapter.GetUser(c.UserContext(), claims.UserID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fail("User not found."))
	}

	return c.JSON(ok(UserDetailResponse{
		ID:       user.ID,
		Username: user.Username,
	}))
}

// deleteUser handles DELETE /api/auth/delete.
func (m *APIModule) deleteUser(c *fiber.Ctx) error {
	claims, valid := c.Locals(UserContextKey).(*domain.Claims)
	if !valid {
		return c.Status(fiber.StatusUnauthorized).JSON(fail("Authentication required."))
	}

	authReq := auth.DeleteUserRequest{UserID: claims.UserID}
	var resp auth.DeleteUserResponse

	if err := helper.CallRequestReplyService(
		c.UserContext(),
		m.authContainer,
		"delete-user",
		json.Marshal,
		json.Unmarshal,
		&authReq,
		&resp,
	); err != nil {
		return m.handleAuthError(c, err)
	}

	return c.JSON(ok(MessageResponse{Message: resp.Message}))
}

// validationMessages are auth errors surfaced to the caller as 400s.
var validationMessages = []string{
	"Username and password are required.",
	"Username can only contain alphanumeric characters and underscores.",
	"This username is already taken.",
	"Password must be at least 8 characters long.",
	"Password must contain both letters and numbers.",
	"Old password and new password are required.",
	"New password must be different from old password.",
	"New password must be at least 8 characters long.",
	"New password must contain both letters and numbers.",
	"Invalid request body.",
}

// handleAuthError maps auth service errors to envelope responses. Errors
// cross the service container as strings, so matching is by message.
func (m *APIModule) handleAuthError(c *fiber.Ctx, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "Invalid username or password."):
		return c.Status(fiber.StatusUnauthorized).JSON(fail("Invalid username or password."))
	case strings.Contains(errStr, "Old password is incorrect."):
		return c.Status(fiber.StatusUnauthorized).JSON(fail("Old password is incorrect."))
	case strings.Contains(errStr, "user not found"):
		return c.Status(fiber.StatusNotFound).JSON(fail("User not found."))
	}

	for _, msg := range validationMessages {
		if strings.Contains(errStr, msg) {
			return c.Status(fiber.StatusBadRequest).JSON(fail(msg))
		}
	}

	return m.internalError(c, err)
}

// internalError returns the generic 500 envelope, with detail only in debug mode.
func (m *APIModule) internalError(c *fiber.Ctx, err error) error {
	body := fail("internal_error")
	if m.debug && err != nil {
		body.Error.Traceback = err.Error()
	}
	return c.Status(fiber.StatusInternalServerError).JSON(body)
}
