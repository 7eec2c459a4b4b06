package server

import (
	"gamerate/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetSteamGames handles GET /api/steam-games, serving the raw catalog rows.
// Response shapes match the original backend: a bare array on success,
// {error} on a query failure.
func (s *Server) GetSteamGames(c *fiber.Ctx) error {
	games, err := s.catalogRepo.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(games)
}

// GetSteamGame handles GET /api/steam-games/:id.
func (s *Server) GetSteamGame(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Game not found",
		})
	}

	game, err := s.catalogRepo.GetByID(c.Context(), int64(id))
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Game not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(game)
}
