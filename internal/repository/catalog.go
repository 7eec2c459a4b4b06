// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"

	"gamerate/internal/models"
	"gamerate/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogRepository defines the interface for catalog game data operations.
type CatalogRepository interface {
	List(ctx context.Context) ([]models.CatalogGame, error)
	GetByID(ctx context.Context, id int64) (*models.CatalogGame, error)
	Upsert(ctx context.Context, game *models.CatalogGame) error
	Count(ctx context.Context) (int64, error)
}

// catalogRepository implements CatalogRepository
type catalogRepository struct {
	db      *gorm.DB
	metrics *observability.DatabaseMetrics
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{
		db:      db,
		metrics: observability.NewDatabaseMetrics(db),
	}
}

func (r *catalogRepository) List(ctx context.Context) ([]models.CatalogGame, error) {
	defer r.metrics.TrackQuery("list", "games")()

	var games []models.CatalogGame
	if err := r.db.WithContext(ctx).Order("id").Find(&games).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return games, nil
}

func (r *catalogRepository) GetByID(ctx context.Context, id int64) (*models.CatalogGame, error) {
	defer r.metrics.TrackQuery("get", "games")()

	var game models.CatalogGame
	if err := r.db.WithContext(ctx).First(&game, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Game", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &game, nil
}

func (r *catalogRepository) Upsert(ctx context.Context, game *models.CatalogGame) error {
	defer r.metrics.TrackQuery("upsert", "games")()

	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(game).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *catalogRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.CatalogGame{}).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
