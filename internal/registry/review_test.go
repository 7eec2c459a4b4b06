package registry

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"gamerate/internal/events"
	"gamerate/internal/models"
	"gamerate/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reviewFixture struct {
	store   store.Store
	users   *UserRegistry
	reviews *ReviewRegistry
	bus     *events.Bus
}

func newReviewFixture(t *testing.T) *reviewFixture {
	t.Helper()
	s := store.NewMemoryStore()
	bus := events.NewBus()
	logger := slog.New(slog.DiscardHandler)
	users := NewUserRegistry(s, bus, logger)
	return &reviewFixture{
		store:   s,
		users:   users,
		reviews: NewReviewRegistry(s, users, bus, logger),
		bus:     bus,
	}
}

func (f *reviewFixture) loginAs(t *testing.T, username, email string) {
	t.Helper()
	ctx := context.Background()
	if !f.users.EmailExists(ctx, email) {
		_, err := f.users.Register(ctx, username, email, "pw", true)
		require.NoError(t, err)
		return
	}
	_, err := f.users.Login(ctx, "", email, "pw", false)
	require.NoError(t, err)
}

func TestReviewRegistry_AddReview(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	now := time.Date(2024, 5, 15, 10, 30, 0, 0, time.UTC)
	f.reviews.now = func() time.Time { return now }

	var added *models.Review
	f.bus.Subscribe(events.ReviewAdded, func(evt events.Event) {
		rev := evt.Payload.(models.Review)
		added = &rev
	})

	f.loginAs(t, "marcos", "marcos@example.com")

	review, err := f.reviews.AddReview(ctx, "steam_1145360", 5, "Melhor roguelike que já joguei")
	require.NoError(t, err)

	assert.Equal(t, 1, review.ID)
	assert.Equal(t, "steam_1145360", review.GameID)
	assert.Equal(t, "marcos@example.com", review.UserID)
	assert.Equal(t, "marcos", review.Username)
	assert.Equal(t, "M", review.UserAvatar, "avatar falls back to the username initial")
	assert.Equal(t, "15/05/2024", review.Date)
	assert.Equal(t, now.UnixMilli(), review.Timestamp)
	assert.Empty(t, review.Likes)
	require.NotNil(t, added)
	assert.Equal(t, review.ID, added.ID)

	second, err := f.reviews.AddReview(ctx, "steam_292030", 4, "Bom")
	require.NoError(t, err)
	assert.Equal(t, 2, second.ID, "ids follow the record count")
}

func TestReviewRegistry_AddReview_RequiresSession(t *testing.T) {
	f := newReviewFixture(t)

	_, err := f.reviews.AddReview(context.Background(), "steam_450", 5, "ok")
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeUnauthorized))
}

func TestReviewRegistry_AddReview_RatingBounds(t *testing.T) {
	f := newReviewFixture(t)
	f.loginAs(t, "ana", "ana@example.com")

	for _, rating := range []int{0, 6, -1} {
		_, err := f.reviews.AddReview(context.Background(), "steam_450", rating, "ok")
		require.Error(t, err)
		assert.True(t, models.HasCode(err, models.CodeValidation))
	}
}

func TestReviewRegistry_UpdateReview_OwnershipEnforced(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	f.loginAs(t, "ana", "ana@example.com")
	review, err := f.reviews.AddReview(ctx, "steam_450", 5, "original")
	require.NoError(t, err)

	f.loginAs(t, "pedro", "pedro@example.com")
	_, err = f.reviews.UpdateReview(ctx, review.ID, 1, "hijacked")
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeForbidden))

	err = f.reviews.DeleteReview(ctx, review.ID)
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeForbidden))

	// The record is unmodified.
	all, err := f.reviews.GetAllReviews(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "original", all[0].ReviewText)
	assert.Equal(t, 5, all[0].Rating)
}

func TestReviewRegistry_UpdateReview(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	f.loginAs(t, "ana", "ana@example.com")
	review, err := f.reviews.AddReview(ctx, "steam_450", 3, "ok")
	require.NoError(t, err)

	updated, err := f.reviews.UpdateReview(ctx, review.ID, 5, "actually great")
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Rating)
	assert.Equal(t, "actually great", updated.ReviewText)
	assert.Equal(t, review.ID, updated.ID)
}

func TestReviewRegistry_DeleteReview(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	var deleted bool
	f.bus.Subscribe(events.ReviewDeleted, func(events.Event) { deleted = true })

	f.loginAs(t, "ana", "ana@example.com")
	review, err := f.reviews.AddReview(ctx, "steam_450", 3, "ok")
	require.NoError(t, err)

	require.NoError(t, f.reviews.DeleteReview(ctx, review.ID))
	assert.True(t, deleted)

	all, err := f.reviews.GetAllReviews(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestReviewRegistry_ToggleLike_RoundTrips(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	f.loginAs(t, "ana", "ana@example.com")
	review, err := f.reviews.AddReview(ctx, "steam_450", 4, "ok")
	require.NoError(t, err)

	f.loginAs(t, "pedro", "pedro@example.com")

	liked, err := f.reviews.ToggleLike(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"pedro@example.com"}, liked.Likes)
	assert.True(t, f.reviews.HasUserLikedReview(ctx, review.ID))

	unliked, err := f.reviews.ToggleLike(ctx, review.ID)
	require.NoError(t, err)
	assert.Empty(t, unliked.Likes, "two toggles restore the original state")
	assert.False(t, f.reviews.HasUserLikedReview(ctx, review.ID))
	assert.Zero(t, f.reviews.GetLikeCount(ctx, review.ID))
}

func TestReviewRegistry_LikeTwiceFails(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	f.loginAs(t, "ana", "ana@example.com")
	review, err := f.reviews.AddReview(ctx, "steam_450", 4, "ok")
	require.NoError(t, err)

	_, err = f.reviews.LikeReview(ctx, review.ID)
	require.NoError(t, err, "authors may like their own review")

	_, err = f.reviews.LikeReview(ctx, review.ID)
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeAlreadyLiked))
	assert.Equal(t, 1, f.reviews.GetLikeCount(ctx, review.ID))

	_, err = f.reviews.UnlikeReview(ctx, review.ID)
	require.NoError(t, err)
	_, err = f.reviews.UnlikeReview(ctx, review.ID)
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeNotLiked))
}

func TestReviewRegistry_Like_MissingReview(t *testing.T) {
	f := newReviewFixture(t)
	f.loginAs(t, "ana", "ana@example.com")

	_, err := f.reviews.LikeReview(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestReviewRegistry_GetRecentReviews_Ordering(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	seed := []models.Review{
		{ID: 1, GameID: "steam_1", UserID: "a@b.com", Rating: 4, Date: "01/01/2023", Timestamp: 100, Likes: []string{}},
		{ID: 2, GameID: "steam_2", UserID: "a@b.com", Rating: 5, Date: "02/01/2023", Timestamp: 300, Likes: []string{}},
		{ID: 3, GameID: "steam_3", UserID: "a@b.com", Rating: 3, Date: "03/01/2023", Timestamp: 200, Likes: []string{}},
	}
	require.NoError(t, store.SetJSON(ctx, f.store, store.KeyReviews, seed))

	recent, err := f.reviews.GetRecentReviews(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, int64(300), recent[0].Timestamp)
	assert.Equal(t, int64(200), recent[1].Timestamp)
}

func TestReviewRegistry_GetRecentReviews_BackfillsTimestamps(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	f.reviews.now = func() time.Time { return now }

	seed := []models.Review{
		{ID: 1, GameID: "steam_1", UserID: "a@b.com", Rating: 5, Date: "15/05/2023"},
		{ID: 2, GameID: "steam_2", UserID: "a@b.com", Rating: 4, Date: "not-a-date"},
	}
	require.NoError(t, store.SetJSON(ctx, f.store, store.KeyReviews, seed))

	recent, err := f.reviews.GetRecentReviews(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	want := time.Date(2023, 5, 15, 0, 0, 0, 0, time.Local).UnixMilli()
	byID := map[int]models.Review{recent[0].ID: recent[0], recent[1].ID: recent[1]}
	assert.Equal(t, want, byID[1].Timestamp, "dd/mm/yyyy date backfills the timestamp")
	assert.Equal(t, now.UnixMilli(), byID[2].Timestamp, "unparseable date falls back to now")

	// The migration is persisted, not recomputed on every read.
	var stored []models.Review
	found, err := store.GetJSON(ctx, f.store, store.KeyReviews, &stored)
	require.NoError(t, err)
	require.True(t, found)
	for _, rev := range stored {
		assert.NotZero(t, rev.Timestamp)
	}
}

func TestReviewRegistry_LegacyRecordsGetLikesList(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	seed := []models.Review{{ID: 1, GameID: "steam_1", UserID: "a@b.com", Rating: 5, Date: "15/05/2023", Timestamp: 1}}
	require.NoError(t, store.SetJSON(ctx, f.store, store.KeyReviews, seed))

	all, err := f.reviews.GetAllReviews(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.NotNil(t, all[0].Likes)
	assert.Empty(t, all[0].Likes)
}

func TestReviewRegistry_GetUserReviewForGame(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	f.loginAs(t, "ana", "ana@example.com")
	_, err := f.reviews.AddReview(ctx, "steam_450", 4, "mine")
	require.NoError(t, err)

	rev, err := f.reviews.GetUserReviewForGame(ctx, "steam_450")
	require.NoError(t, err)
	require.NotNil(t, rev)
	assert.Equal(t, "mine", rev.ReviewText)
	assert.True(t, f.reviews.HasUserReviewedGame(ctx, "steam_450"))

	rev, err = f.reviews.GetUserReviewForGame(ctx, "steam_999")
	require.NoError(t, err)
	assert.Nil(t, rev)

	f.loginAs(t, "pedro", "pedro@example.com")
	rev, err = f.reviews.GetUserReviewForGame(ctx, "steam_450")
	require.NoError(t, err)
	assert.Nil(t, rev, "another user's review does not count")
}

func TestReviewRegistry_QueriesByGameAndUser(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	f.loginAs(t, "ana", "ana@example.com")
	_, err := f.reviews.AddReview(ctx, "steam_450", 4, "a")
	require.NoError(t, err)
	_, err = f.reviews.AddReview(ctx, "steam_999", 3, "b")
	require.NoError(t, err)

	f.loginAs(t, "pedro", "pedro@example.com")
	_, err = f.reviews.AddReview(ctx, "steam_450", 5, "c")
	require.NoError(t, err)

	byGame, err := f.reviews.GetReviewsByGame(ctx, "steam_450")
	require.NoError(t, err)
	assert.Len(t, byGame, 2)

	byUser, err := f.reviews.GetReviewsByUser(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Len(t, byUser, 2)
}
