package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/groovoo/service-desk/internal/api/dto"
	"github.com/groovoo/service-desk/internal/auth"
	"github.com/groovoo/service-desk/internal/service"
	apperrors "github.com/groovoo/service-desk/pkg/util/errorutil"
)

// UsersHandler exposes auth endpoints for staff accounts.
type UsersHandler struct {
	auth *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	res, err := h.auth.Register(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": authPayload(res)})
}

// Login handles POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	res, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": authPayload(res)})
}

// Logout handles POST /auth/logout.
func (h *UsersHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.auth.Logout(c.UserContext(), principal.Claims); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func authPayload(res *service.AuthResult) fiber.Map {
	return fiber.Map{
		"user": dto.UserResponse{
			ID:        res.User.ID,
			Username:  res.User.Username,
			CreatedAt: res.User.CreatedAt,
		},
		"auth": dto.AuthResponse{Token: res.Token, ExpiresAt: res.ExpiresAt},
	}
}
