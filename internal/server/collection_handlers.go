package server

import (
	"gamerate/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetCollection handles GET /api/collection.
func (s *Server) GetCollection(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"collection": s.users.Collection(c.Context()),
		"size":       s.users.CollectionSize(c.Context()),
	})
}

// AddToCollection handles POST /api/collection/:gameId.
func (s *Server) AddToCollection(c *fiber.Ctx) error {
	gameID := c.Params("gameId")

	collection, err := s.users.AddToCollection(c.Context(), gameID)
	if err != nil {
		return respondRegistryError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"collection": collection})
}

// RemoveFromCollection handles DELETE /api/collection/:gameId.
func (s *Server) RemoveFromCollection(c *fiber.Ctx) error {
	gameID := c.Params("gameId")

	collection, err := s.users.RemoveFromCollection(c.Context(), gameID)
	if err != nil {
		return respondRegistryError(c, err)
	}
	return c.JSON(fiber.Map{"collection": collection})
}

// UpdateProfileImage handles PUT /api/users/me/profile-image. The image is a
// data URL produced by the client.
func (s *Server) UpdateProfileImage(c *fiber.Ctx) error {
	var req struct {
		ProfileImage string `json:"profileImage"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.ProfileImage == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("profileImage is required"))
	}

	if err := s.users.UpdateProfileImage(c.Context(), req.ProfileImage); err != nil {
		return respondRegistryError(c, err)
	}
	return c.JSON(s.users.CurrentSession(c.Context()))
}
