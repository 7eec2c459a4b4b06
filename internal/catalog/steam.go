// Package catalog implements the Steam game registry: it fetches the remote
// catalog once per process lifetime, normalizes each record into the unified
// Game shape and serves lookups with ID-format reconciliation.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"gamerate/internal/events"
	"gamerate/internal/models"
	"gamerate/internal/observability"
)

const defaultImageURL = "https://placehold.co/300x200?text=Steam+Game"

// record is the wire shape served by /api/steam-games.
type record struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
	Price int64  `json:"price"`
}

// Listener receives the catalog snapshot after every load attempt.
type Listener func([]models.Game)

// Registry holds the normalized Steam catalog. Loading happens at most once
// at a time; a Load issued while another is in flight is dropped, not queued.
type Registry struct {
	baseURL string
	httpc   *http.Client
	bus     *events.Bus
	logger  *slog.Logger

	mu        sync.Mutex
	games     []models.Game
	loading   bool
	loaded    bool
	listeners []Listener
}

// NewRegistry creates a registry that fetches from baseURL + /api/steam-games.
// bus may be nil when no event fan-out is wanted.
func NewRegistry(baseURL string, bus *events.Bus, logger *slog.Logger) *Registry {
	return &Registry{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 15 * time.Second},
		bus:     bus,
		logger:  logger,
	}
}

// AddListener registers a listener notified with the catalog snapshot after
// every load attempt, successful or not.
func (r *Registry) AddListener(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

// Load fetches and normalizes the remote catalog. A call made while another
// load is in flight is a no-op. On any failure the catalog resets to empty
// with loaded=false; listeners are notified on both paths.
func (r *Registry) Load(ctx context.Context) error {
	r.mu.Lock()
	if r.loading {
		r.mu.Unlock()
		r.logger.Debug("catalog load already in flight, dropping request")
		return nil
	}
	r.loading = true
	r.loaded = false
	r.mu.Unlock()

	games, err := r.fetch(ctx)

	r.mu.Lock()
	if err != nil {
		r.logger.Error("catalog load failed", slog.String("error", err.Error()))
		r.games = nil
		r.loaded = false
		observability.CatalogLoads.WithLabelValues("failure").Inc()
	} else {
		r.games = games
		r.loaded = true
		observability.CatalogLoads.WithLabelValues("success").Inc()
		r.logger.Info("catalog loaded", slog.Int("games", len(games)))
	}
	r.loading = false
	observability.CatalogGames.Set(float64(len(r.games)))
	snapshot := r.snapshotLocked()
	listeners := make([]Listener, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
	if r.bus != nil {
		r.bus.Publish(events.Event{Type: events.CatalogLoaded, Payload: snapshot})
	}

	if err != nil {
		return models.NewUpstreamError(err)
	}
	return nil
}

func (r *Registry) fetch(ctx context.Context) ([]models.Game, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/api/steam-games", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("catalog request failed: %d %s - %s",
			resp.StatusCode, http.StatusText(resp.StatusCode), strings.TrimSpace(string(body)))
	}

	var records []record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("invalid response format: expected array: %w", err)
	}

	games := make([]models.Game, 0, len(records))
	for _, rec := range records {
		games = append(games, transform(rec))
	}
	return games, nil
}

// transform maps a raw catalog record into the unified Game shape: the ID is
// prefixed to avoid collisions with locally-added games, genre and rating are
// derived from the title and the price converts from cents to currency.
func transform(rec record) models.Game {
	steamID := strconv.FormatInt(rec.ID, 10)

	imageURL := rec.Image
	if imageURL == "" {
		imageURL = defaultImageURL
	}

	return models.Game{
		ID:          models.SteamIDPrefix + steamID,
		SteamID:     steamID,
		Title:       rec.Name,
		Platform:    "PC (Steam)",
		Genre:       genreFromName(rec.Name),
		Description: rec.Name + " - Disponível na Steam",
		Rating:      ratingFromName(rec.Name),
		ImageURL:    imageURL,
		Price:       float64(rec.Price) / 100,
		IsSteamGame: true,
	}
}

// genreFromName derives a genre from title keywords.
func genreFromName(name string) string {
	lower := strings.ToLower(name)

	switch {
	case strings.Contains(lower, "ring"), strings.Contains(lower, "souls"), strings.Contains(lower, "rpg"):
		return "RPG, Ação, Mundo Aberto"
	case strings.Contains(lower, "cyberpunk"), strings.Contains(lower, "sci-fi"):
		return "RPG, Ação, Mundo Aberto, Sci-Fi"
	case strings.Contains(lower, "knight"), strings.Contains(lower, "hollow"):
		return "Metroidvania, Ação, Aventura, Indie"
	case strings.Contains(lower, "war"), strings.Contains(lower, "god"):
		return "Ação, Aventura"
	case strings.Contains(lower, "gate"), strings.Contains(lower, "baldur"):
		return "RPG, Estratégia, Fantasia"
	case strings.Contains(lower, "witcher"):
		return "RPG, Ação, Mundo Aberto"
	case strings.Contains(lower, "hades"):
		return "Roguelike, Ação, Indie"
	}

	return "Ação, Aventura"
}

// ratingFromName derives a 0-10 rating for well-known titles. The rating is
// fixed at ingestion and never influenced by user reviews.
func ratingFromName(name string) float64 {
	lower := strings.ToLower(name)

	switch {
	case strings.Contains(lower, "elden ring"), strings.Contains(lower, "baldur"):
		return 9.6
	case strings.Contains(lower, "witcher"), strings.Contains(lower, "hades"):
		return 9.5
	case strings.Contains(lower, "god of war"), strings.Contains(lower, "hollow knight"):
		return 9.4
	case strings.Contains(lower, "cyberpunk"):
		return 8.5
	}

	return 8.0
}

// GetAll returns the current catalog snapshot (empty before the first
// successful load).
func (r *Registry) GetAll() []models.Game {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Registry) snapshotLocked() []models.Game {
	snapshot := make([]models.Game, len(r.games))
	copy(snapshot, r.games)
	return snapshot
}

// GetByID resolves the three equivalent id shapes a caller may hold: the
// prefixed unified id ("steam_123"), the bare numeric-string steam id
// ("123") and the numeric steam id (123). Review records and UI handlers
// produced ids in different shapes over time, so no canonical shape can be
// assumed at this boundary.
func (r *Registry) GetByID(id any) (models.Game, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch v := id.(type) {
	case string:
		return r.getByStringLocked(v)
	case int:
		return r.getByNumberLocked(int64(v))
	case int64:
		return r.getByNumberLocked(v)
	case float64:
		return r.getByNumberLocked(int64(v))
	}
	return models.Game{}, false
}

func (r *Registry) getByStringLocked(id string) (models.Game, bool) {
	// Exact match on unified id or steam id.
	for _, g := range r.games {
		if g.ID == id || g.SteamID == id {
			return g, true
		}
	}

	if !strings.HasPrefix(id, models.SteamIDPrefix) {
		// Retry with the prefix added.
		for _, g := range r.games {
			if g.ID == models.SteamIDPrefix+id {
				return g, true
			}
		}
		return models.Game{}, false
	}

	// Strip the prefix and match against the steam id.
	numeric := strings.TrimPrefix(id, models.SteamIDPrefix)
	for _, g := range r.games {
		if g.SteamID == numeric {
			return g, true
		}
	}
	return models.Game{}, false
}

func (r *Registry) getByNumberLocked(n int64) (models.Game, bool) {
	s := strconv.FormatInt(n, 10)
	for _, g := range r.games {
		if g.ID == models.SteamIDPrefix+s || g.SteamID == s {
			return g, true
		}
	}
	return models.Game{}, false
}

// TopGames returns the limit highest-rated games.
func (r *Registry) TopGames(limit int) []models.Game {
	games := r.GetAll()
	sortByRatingDesc(games)
	if limit > 0 && limit < len(games) {
		games = games[:limit]
	}
	return games
}

func sortByRatingDesc(games []models.Game) {
	for i := 1; i < len(games); i++ {
		for j := i; j > 0 && games[j].Rating > games[j-1].Rating; j-- {
			games[j], games[j-1] = games[j-1], games[j]
		}
	}
}

// IsLoaded reports whether the last load attempt completed successfully.
func (r *Registry) IsLoaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded
}

// IsLoading reports whether a load is currently in flight.
func (r *Registry) IsLoading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loading
}
