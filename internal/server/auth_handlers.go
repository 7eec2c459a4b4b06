package server

import (
	"gamerate/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Register handles POST /api/auth/register. Registration establishes the
// session immediately; the response carries a JWT alongside it.
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Username      string `json:"username"`
		Email         string `json:"email"`
		Password      string `json:"password"`
		TermsAccepted bool   `json:"termsAccepted"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	session, err := s.users.Register(c.Context(), req.Username, req.Email, req.Password, req.TermsAccepted)
	if err != nil {
		return respondRegistryError(c, err)
	}

	token, err := s.generateToken(session.Email, session.Username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  session,
	})
}

// Login handles POST /api/auth/login.
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Remember bool   `json:"remember"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	session, err := s.users.Login(c.Context(), req.Username, req.Email, req.Password, req.Remember)
	if err != nil {
		return respondRegistryError(c, err)
	}

	token, err := s.generateToken(session.Email, session.Username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  session,
	})
}

// Logout handles POST /api/auth/logout. Idempotent.
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.users.Logout(c.Context()); err != nil {
		return respondRegistryError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// Me handles GET /api/auth/me, returning the session projection.
func (s *Server) Me(c *fiber.Ctx) error {
	session := s.users.CurrentSession(c.Context())
	if !session.IsLoggedIn {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("No active session"))
	}
	return c.JSON(session)
}
