// Package seed provides catalog and demo-data seeding for development and
// testing.
package seed

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"gamerate/internal/events"
	"gamerate/internal/models"
	"gamerate/internal/registry"
	"gamerate/internal/repository"
	"gamerate/internal/store"

	"github.com/brianvoe/gofakeit/v6"
)

// defaultCatalog mirrors the game list the original database bootstrap
// fetched from the Steam storefront. Prices are in cents (BRL).
var defaultCatalog = []models.CatalogGame{
	{ID: 1245620, Name: "ELDEN RING", Image: "https://cdn.steamstatic.com/steam/apps/1245620/capsule_231x87.jpg", Price: 22999},
	{ID: 1145360, Name: "Hades", Image: "https://cdn.steamstatic.com/steam/apps/1145360/capsule_231x87.jpg", Price: 4699},
	{ID: 1091500, Name: "Cyberpunk 2077", Image: "https://cdn.steamstatic.com/steam/apps/1091500/capsule_231x87.jpg", Price: 19999},
	{ID: 367520, Name: "Hollow Knight", Image: "https://cdn.steamstatic.com/steam/apps/367520/capsule_231x87.jpg", Price: 2799},
	{ID: 1811260, Name: "EA SPORTS™ FIFA 23", Image: "https://cdn.steamstatic.com/steam/apps/1811260/capsule_231x87.jpg", Price: 29900},
	{ID: 271590, Name: "Grand Theft Auto V", Image: "https://cdn.steamstatic.com/steam/apps/271590/capsule_231x87.jpg", Price: 9900},
	{ID: 1593500, Name: "God of War", Image: "https://cdn.steamstatic.com/steam/apps/1593500/capsule_231x87.jpg", Price: 19990},
	{ID: 1245430, Name: "Zelda-like Adventures", Image: "https://cdn.steamstatic.com/steam/apps/1245430/capsule_231x87.jpg", Price: 5999},
	{ID: 1086940, Name: "Baldur's Gate 3", Image: "https://cdn.steamstatic.com/steam/apps/1086940/capsule_231x87.jpg", Price: 19999},
	{ID: 292030, Name: "The Witcher 3: Wild Hunt", Image: "https://cdn.steamstatic.com/steam/apps/292030/capsule_231x87.jpg", Price: 12999},
}

// sampleReviews are the activity-feed starters the application originally
// shipped with. They predate the timestamp field on purpose.
var sampleReviews = []models.Review{
	{
		ID: 1, GameID: "steam_1145360", UserID: "sample_user_1",
		Username: "Marcos Silva", UserAvatar: "M", Rating: 5,
		ReviewText: "Simplesmente o melhor jogo que já joguei! Os chefes são desafiadores e a trilha sonora é perfeita.",
		Date:       "15/05/2023",
		Likes:      []string{"sample_user_2", "sample_user_3"},
	},
	{
		ID: 2, GameID: "steam_1086940", UserID: "sample_user_2",
		Username: "Ana Costa", UserAvatar: "A", Rating: 5,
		ReviewText: "Um dos melhores RPGs que já joguei. As opções de diálogo são incríveis e cada escolha realmente importa.",
		Date:       "10/06/2023",
		Likes:      []string{"sample_user_1"},
	},
	{
		ID: 3, GameID: "steam_292030", UserID: "sample_user_3",
		Username: "Pedro Oliveira", UserAvatar: "P", Rating: 4,
		ReviewText: "Os gráficos são de tirar o fôlego e o combate é muito divertido. Vale muito a pena jogar!",
		Date:       "20/04/2023",
		Likes:      []string{},
	},
}

// Catalog upserts the default game rows. Existing rows win on conflict, so
// re-running the seeder is safe.
func Catalog(ctx context.Context, repo repository.CatalogRepository) (int, error) {
	for i := range defaultCatalog {
		game := defaultCatalog[i]
		if err := repo.Upsert(ctx, &game); err != nil {
			return 0, fmt.Errorf("failed to seed game %q: %w", game.Name, err)
		}
	}
	count, err := repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// SampleReviews writes the starter reviews when no reviews exist yet.
func SampleReviews(ctx context.Context, kv store.Store) error {
	_, found, err := kv.Get(ctx, store.KeyReviews)
	if err != nil {
		return err
	}
	if found {
		return nil
	}
	return store.SetJSON(ctx, kv, store.KeyReviews, sampleReviews)
}

// Demo registers fake users through the registries and has each of them
// review a few games, so every invariant the registries enforce holds for
// the generated data. The active session is cleared afterwards.
// All demo users share the password "password123".
func Demo(ctx context.Context, kv store.Store, numUsers, reviewsPerUser int) error {
	gofakeit.Seed(time.Now().UnixNano())

	bus := events.NewBus()
	logger := discardLogger()
	users := registry.NewUserRegistry(kv, bus, logger)
	reviews := registry.NewReviewRegistry(kv, users, bus, logger)

	gameIDs := make([]string, len(defaultCatalog))
	for i, g := range defaultCatalog {
		gameIDs[i] = fmt.Sprintf("%s%d", models.SteamIDPrefix, g.ID)
	}

	created := 0
	for i := 0; i < numUsers; i++ {
		username := strings.ToLower(gofakeit.Username())
		email := strings.ToLower(gofakeit.Email())
		if users.EmailExists(ctx, email) || users.UsernameExists(ctx, username) {
			continue
		}
		if _, err := users.Register(ctx, username, email, "password123", true); err != nil {
			return fmt.Errorf("failed to register demo user: %w", err)
		}
		created++

		for j := 0; j < reviewsPerUser; j++ {
			gameID := gameIDs[gofakeit.Number(0, len(gameIDs)-1)]
			if reviews.HasUserReviewedGame(ctx, gameID) {
				continue
			}
			rating := gofakeit.Number(1, 5)
			text := gofakeit.Sentence(gofakeit.Number(8, 20))
			if _, err := reviews.AddReview(ctx, gameID, rating, text); err != nil {
				return fmt.Errorf("failed to add demo review: %w", err)
			}
		}
	}

	if err := users.Logout(ctx); err != nil {
		return err
	}

	log.Printf("✓ %d demo users created", created)
	return nil
}
