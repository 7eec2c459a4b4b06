package seed

import (
	"context"
	"testing"

	"gamerate/internal/models"
	"gamerate/internal/repository"
	"gamerate/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestCatalog_Idempotent(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.CatalogGame{}))

	repo := repository.NewCatalogRepository(db)
	ctx := context.Background()

	count, err := Catalog(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, len(defaultCatalog), count)

	count, err = Catalog(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, len(defaultCatalog), count, "re-seeding does not duplicate rows")
}

func TestSampleReviews_OnlyWhenEmpty(t *testing.T) {
	kv := store.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, SampleReviews(ctx, kv))

	var reviews []models.Review
	found, err := store.GetJSON(ctx, kv, store.KeyReviews, &reviews)
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, reviews, 3)
	assert.Zero(t, reviews[0].Timestamp, "starter reviews predate the timestamp field")

	// Existing data is never overwritten.
	custom := []models.Review{{ID: 9, GameID: "steam_1", UserID: "x@y.com", Rating: 3, Date: "01/01/2024", Likes: []string{}}}
	require.NoError(t, store.SetJSON(ctx, kv, store.KeyReviews, custom))
	require.NoError(t, SampleReviews(ctx, kv))

	found, err = store.GetJSON(ctx, kv, store.KeyReviews, &reviews)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, reviews, 1)
	assert.Equal(t, 9, reviews[0].ID)
}

func TestDemo_GeneratesConsistentData(t *testing.T) {
	kv := store.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, Demo(ctx, kv, 5, 2))

	var users []models.User
	found, err := store.GetJSON(ctx, kv, store.KeyRegisteredUsers, &users)
	require.NoError(t, err)
	require.True(t, found)
	assert.NotEmpty(t, users)
	for _, u := range users {
		assert.Equal(t, "password123", u.Password)
		assert.NotEmpty(t, u.ID)
	}

	var reviews []models.Review
	if found, err := store.GetJSON(ctx, kv, store.KeyReviews, &reviews); err == nil && found {
		seen := map[int]bool{}
		for _, rev := range reviews {
			assert.GreaterOrEqual(t, rev.Rating, 1)
			assert.LessOrEqual(t, rev.Rating, 5)
			assert.False(t, seen[rev.ID], "review ids are unique")
			seen[rev.ID] = true
		}
	}

	// The seeder leaves no session behind.
	_, found, err = kv.Get(ctx, store.KeyCurrentUser)
	require.NoError(t, err)
	assert.False(t, found)
}
