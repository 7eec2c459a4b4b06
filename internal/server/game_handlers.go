package server

import (
	"gamerate/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetGames handles GET /api/games with optional platform, genre, search and
// sort query parameters.
func (s *Server) GetGames(c *fiber.Ctx) error {
	var filter models.GameFilter
	if err := c.QueryParser(&filter); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid filter parameters"))
	}

	games, err := s.games.Filter(c.Context(), filter)
	if err != nil {
		return respondRegistryError(c, err)
	}
	return c.JSON(games)
}

// GetGame handles GET /api/games/:id. The id may be the unified string id,
// the bare numeric steam id, or a locally-added game's id.
func (s *Server) GetGame(c *fiber.Ctx) error {
	id := c.Params("id")

	game, ok := s.games.GetByID(c.Context(), id)
	if !ok {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Game", id))
	}
	return c.JSON(game)
}

// GetPopularGames handles GET /api/games/popular.
func (s *Server) GetPopularGames(c *fiber.Ctx) error {
	games, err := s.games.Popular(c.Context(), parseLimit(c, 4))
	if err != nil {
		return respondRegistryError(c, err)
	}
	return c.JSON(games)
}

// GetRecommendedGames handles GET /api/games/recommended.
func (s *Server) GetRecommendedGames(c *fiber.Ctx) error {
	games, err := s.games.Recommended(c.Context(), parseLimit(c, 5))
	if err != nil {
		return respondRegistryError(c, err)
	}
	return c.JSON(games)
}
