package catalog

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"gamerate/internal/events"
	"gamerate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func catalogServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/steam-games" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const sampleBody = `[
	{"id": 450, "name": "Elden Ring", "image": "https://img/elden", "price": 22999},
	{"id": 1145360, "name": "Hades", "image": "", "price": 4699},
	{"id": 1091500, "name": "Cyberpunk 2077", "image": "https://img/cp", "price": 19999}
]`

func TestRegistry_LoadAndTransform(t *testing.T) {
	srv := catalogServer(t, sampleBody)
	reg := NewRegistry(srv.URL, nil, testLogger())

	require.NoError(t, reg.Load(context.Background()))
	require.True(t, reg.IsLoaded())

	games := reg.GetAll()
	require.Len(t, games, 3)

	elden := games[0]
	assert.Equal(t, "steam_450", elden.ID)
	assert.Equal(t, "450", elden.SteamID)
	assert.Equal(t, "Elden Ring", elden.Title)
	assert.Equal(t, "PC (Steam)", elden.Platform)
	assert.Equal(t, "RPG, Ação, Mundo Aberto", elden.Genre)
	assert.Equal(t, "Elden Ring - Disponível na Steam", elden.Description)
	assert.InDelta(t, 9.6, elden.Rating, 0.001)
	assert.InDelta(t, 229.99, elden.Price, 0.001)
	assert.True(t, elden.IsSteamGame)

	hades := games[1]
	assert.Equal(t, defaultImageURL, hades.ImageURL, "blank image falls back to placeholder")
	assert.Equal(t, "Roguelike, Ação, Indie", hades.Genre)
	assert.InDelta(t, 9.5, hades.Rating, 0.001)

	assert.InDelta(t, 8.5, games[2].Rating, 0.001)
}

func TestRegistry_GetByID_AcceptsAllShapes(t *testing.T) {
	srv := catalogServer(t, sampleBody)
	reg := NewRegistry(srv.URL, nil, testLogger())
	require.NoError(t, reg.Load(context.Background()))

	byPrefixed, ok := reg.GetByID("steam_450")
	require.True(t, ok)
	byString, ok := reg.GetByID("450")
	require.True(t, ok)
	byNumber, ok := reg.GetByID(450)
	require.True(t, ok)

	assert.Equal(t, byPrefixed, byString)
	assert.Equal(t, byPrefixed, byNumber)
	assert.Equal(t, "Elden Ring", byPrefixed.Title)

	_, ok = reg.GetByID("steam_999999")
	assert.False(t, ok)
	_, ok = reg.GetByID(true)
	assert.False(t, ok, "unsupported id type resolves to nothing")
}

func TestRegistry_Load_SingleFlight(t *testing.T) {
	var hits atomic.Int64
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			close(started)
		}
		<-release
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	reg := NewRegistry(srv.URL, nil, testLogger())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = reg.Load(context.Background())
	}()

	// Wait for the first load to reach the server, then issue overlapping
	// loads; each must be dropped without a second request.
	<-started
	assert.True(t, reg.IsLoading())
	require.NoError(t, reg.Load(context.Background()))
	require.NoError(t, reg.Load(context.Background()))

	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), hits.Load())
	assert.True(t, reg.IsLoaded())
	assert.False(t, reg.IsLoading())
}

func TestRegistry_Load_FailureResetsCatalog(t *testing.T) {
	srv := catalogServer(t, sampleBody)
	reg := NewRegistry(srv.URL, nil, testLogger())
	require.NoError(t, reg.Load(context.Background()))
	require.Len(t, reg.GetAll(), 3)

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	var notified []models.Game
	called := false
	reg.baseURL = failing.URL
	reg.AddListener(func(games []models.Game) {
		called = true
		notified = games
	})

	err := reg.Load(context.Background())
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeUpstream))
	assert.False(t, reg.IsLoaded())
	assert.Empty(t, reg.GetAll(), "failed load degrades to an empty catalog")
	assert.True(t, called, "listeners fire on failure too")
	assert.Empty(t, notified)
}

func TestRegistry_Load_PublishesEvent(t *testing.T) {
	srv := catalogServer(t, sampleBody)
	bus := events.NewBus()

	var payload any
	bus.Subscribe(events.CatalogLoaded, func(evt events.Event) { payload = evt.Payload })

	reg := NewRegistry(srv.URL, bus, testLogger())
	require.NoError(t, reg.Load(context.Background()))

	games, ok := payload.([]models.Game)
	require.True(t, ok)
	assert.Len(t, games, 3)
}

func TestRegistry_TopGames(t *testing.T) {
	srv := catalogServer(t, sampleBody)
	reg := NewRegistry(srv.URL, nil, testLogger())
	require.NoError(t, reg.Load(context.Background()))

	top := reg.TopGames(2)
	require.Len(t, top, 2)
	assert.Equal(t, "Elden Ring", top[0].Title)
	assert.Equal(t, "Hades", top[1].Title)

	all := reg.TopGames(0)
	assert.Len(t, all, 3)
}

func TestRegistry_Load_BadJSON(t *testing.T) {
	srv := catalogServer(t, `{"not":"an array"}`)
	reg := NewRegistry(srv.URL, nil, testLogger())

	err := reg.Load(context.Background())
	require.Error(t, err)
	assert.False(t, reg.IsLoaded())
}
