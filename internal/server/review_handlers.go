package server

import (
	"gamerate/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CreateReview handles POST /api/reviews.
func (s *Server) CreateReview(c *fiber.Ctx) error {
	var req struct {
		GameID     string `json:"gameId"`
		Rating     int    `json:"rating"`
		ReviewText string `json:"reviewText"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.GameID == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("gameId is required"))
	}

	review, err := s.reviews.AddReview(c.Context(), req.GameID, req.Rating, req.ReviewText)
	if err != nil {
		return respondRegistryError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

// UpdateReview handles PUT /api/reviews/:id. Only the owning user may update.
func (s *Server) UpdateReview(c *fiber.Ctx) error {
	id, err := s.parseReviewID(c)
	if err != nil {
		return nil
	}

	var req struct {
		Rating     int    `json:"rating"`
		ReviewText string `json:"reviewText"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	review, err := s.reviews.UpdateReview(c.Context(), id, req.Rating, req.ReviewText)
	if err != nil {
		return respondRegistryError(c, err)
	}
	return c.JSON(review)
}

// DeleteReview handles DELETE /api/reviews/:id.
func (s *Server) DeleteReview(c *fiber.Ctx) error {
	id, err := s.parseReviewID(c)
	if err != nil {
		return nil
	}

	if err := s.reviews.DeleteReview(c.Context(), id); err != nil {
		return respondRegistryError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Review deleted"})
}

// LikeReview handles POST /api/reviews/:id/like.
func (s *Server) LikeReview(c *fiber.Ctx) error {
	id, err := s.parseReviewID(c)
	if err != nil {
		return nil
	}

	review, err := s.reviews.LikeReview(c.Context(), id)
	if err != nil {
		return respondRegistryError(c, err)
	}
	return c.JSON(review)
}

// UnlikeReview handles DELETE /api/reviews/:id/like.
func (s *Server) UnlikeReview(c *fiber.Ctx) error {
	id, err := s.parseReviewID(c)
	if err != nil {
		return nil
	}

	review, err := s.reviews.UnlikeReview(c.Context(), id)
	if err != nil {
		return respondRegistryError(c, err)
	}
	return c.JSON(review)
}

// ToggleLikeReview handles POST /api/reviews/:id/toggle-like. Never a no-op:
// it likes or unlikes based on the caller's current membership.
func (s *Server) ToggleLikeReview(c *fiber.Ctx) error {
	id, err := s.parseReviewID(c)
	if err != nil {
		return nil
	}

	review, err := s.reviews.ToggleLike(c.Context(), id)
	if err != nil {
		return respondRegistryError(c, err)
	}
	return c.JSON(review)
}

// GetRecentReviews handles GET /api/reviews/recent?limit=.
func (s *Server) GetRecentReviews(c *fiber.Ctx) error {
	reviews, err := s.reviews.GetRecentReviews(c.Context(), parseLimit(c, 10))
	if err != nil {
		return respondRegistryError(c, err)
	}
	return c.JSON(reviews)
}

// GetGameReviews handles GET /api/games/:id/reviews.
func (s *Server) GetGameReviews(c *fiber.Ctx) error {
	reviews, err := s.reviews.GetReviewsByGame(c.Context(), c.Params("id"))
	if err != nil {
		return respondRegistryError(c, err)
	}
	return c.JSON(reviews)
}

// GetMyReviews handles GET /api/users/me/reviews.
func (s *Server) GetMyReviews(c *fiber.Ctx) error {
	reviews, err := s.reviews.GetReviewsByUser(c.Context(), sessionEmail(c))
	if err != nil {
		return respondRegistryError(c, err)
	}
	return c.JSON(reviews)
}
