package registry

import (
	"context"
	"sort"
	"strings"
	"sync"

	"gamerate/internal/catalog"
	"gamerate/internal/models"
	"gamerate/internal/store"
)

// GameRegistry presents one queryable surface over locally-added games
// (normally empty) and the Steam catalog. Local records are persisted under
// their own store key; catalog records always come from the catalog registry.
type GameRegistry struct {
	store   store.Store
	catalog *catalog.Registry

	mu sync.Mutex
}

// NewGameRegistry creates a game registry over the given store and catalog.
func NewGameRegistry(s store.Store, cat *catalog.Registry) *GameRegistry {
	return &GameRegistry{store: s, catalog: cat}
}

func (r *GameRegistry) loadLocal(ctx context.Context) ([]models.Game, error) {
	var games []models.Game
	if _, err := store.GetJSON(ctx, r.store, store.KeyGames, &games); err != nil {
		return nil, models.NewInternalError(err)
	}
	// Catalog records that leaked into the local key on an older version
	// are dropped; the catalog registry is their only source of truth.
	local := games[:0]
	for _, g := range games {
		if !g.IsSteamGame {
			local = append(local, g)
		}
	}
	return local, nil
}

func (r *GameRegistry) saveLocal(ctx context.Context, games []models.Game) error {
	if err := store.SetJSON(ctx, r.store, store.KeyGames, games); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// AllGames returns local games followed by the catalog snapshot.
func (r *GameRegistry) AllGames(ctx context.Context) ([]models.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	local, err := r.loadLocal(ctx)
	if err != nil {
		return nil, err
	}
	return append(local, r.catalog.GetAll()...), nil
}

// GetByID checks local games by exact id first, then falls through to the
// catalog's id reconciliation.
func (r *GameRegistry) GetByID(ctx context.Context, id any) (models.Game, bool) {
	r.mu.Lock()
	local, err := r.loadLocal(ctx)
	r.mu.Unlock()

	if err == nil {
		if s, ok := id.(string); ok {
			for _, g := range local {
				if g.ID == s {
					return g, true
				}
			}
		}
	}
	return r.catalog.GetByID(id)
}

// AddGame appends a locally-added game.
func (r *GameRegistry) AddGame(ctx context.Context, game models.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	local, err := r.loadLocal(ctx)
	if err != nil {
		return err
	}
	return r.saveLocal(ctx, append(local, game))
}

// UpdateGame replaces a locally-added game by id. Catalog games cannot be
// edited here.
func (r *GameRegistry) UpdateGame(ctx context.Context, game models.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	local, err := r.loadLocal(ctx)
	if err != nil {
		return err
	}
	for i := range local {
		if local[i].ID == game.ID {
			local[i] = game
			return r.saveLocal(ctx, local)
		}
	}
	return models.NewNotFoundError("Game", game.ID)
}

// DeleteGame removes a locally-added game by id. Catalog games cannot be
// deleted.
func (r *GameRegistry) DeleteGame(ctx context.Context, gameID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	local, err := r.loadLocal(ctx)
	if err != nil {
		return err
	}
	kept := local[:0]
	for _, g := range local {
		if g.ID != gameID {
			kept = append(kept, g)
		}
	}
	return r.saveLocal(ctx, kept)
}

// Filter applies, in order, case-insensitive substring filters for platform,
// genre and free-text search (title or description), then the requested
// sort. An absent criterion is a no-op for that stage.
func (r *GameRegistry) Filter(ctx context.Context, f models.GameFilter) ([]models.Game, error) {
	games, err := r.AllGames(ctx)
	if err != nil {
		return nil, err
	}

	if f.Platform != "" {
		games = keep(games, func(g models.Game) bool {
			return containsFold(g.Platform, f.Platform)
		})
	}
	if f.Genre != "" {
		games = keep(games, func(g models.Game) bool {
			return containsFold(g.Genre, f.Genre)
		})
	}
	if f.Search != "" {
		games = keep(games, func(g models.Game) bool {
			return containsFold(g.Title, f.Search) || containsFold(g.Description, f.Search)
		})
	}

	switch f.Sort {
	case models.SortRatingDesc:
		sort.SliceStable(games, func(i, j int) bool { return games[i].Rating > games[j].Rating })
	case models.SortRatingAsc:
		sort.SliceStable(games, func(i, j int) bool { return games[i].Rating < games[j].Rating })
	case models.SortNameAsc:
		sort.SliceStable(games, func(i, j int) bool { return games[i].Title < games[j].Title })
	case models.SortNameDesc:
		sort.SliceStable(games, func(i, j int) bool { return games[i].Title > games[j].Title })
	}

	return games, nil
}

// Popular returns the limit highest-rated games.
func (r *GameRegistry) Popular(ctx context.Context, limit int) ([]models.Game, error) {
	return r.topByRating(ctx, limit)
}

// Recommended returns the limit highest-rated games. There is no
// personalization; the ordering matches Popular.
func (r *GameRegistry) Recommended(ctx context.Context, limit int) ([]models.Game, error) {
	return r.topByRating(ctx, limit)
}

func (r *GameRegistry) topByRating(ctx context.Context, limit int) ([]models.Game, error) {
	games, err := r.AllGames(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(games, func(i, j int) bool { return games[i].Rating > games[j].Rating })
	if limit > 0 && limit < len(games) {
		games = games[:limit]
	}
	return games, nil
}

func keep(games []models.Game, pred func(models.Game) bool) []models.Game {
	kept := games[:0]
	for _, g := range games {
		if pred(g) {
			kept = append(kept, g)
		}
	}
	return kept
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
