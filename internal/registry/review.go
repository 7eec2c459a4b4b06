package registry

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"gamerate/internal/events"
	"gamerate/internal/models"
	"gamerate/internal/store"
)

// dateLayout is the localized dd/mm/yyyy form stamped on every review.
const dateLayout = "02/01/2006"

// ReviewRegistry manages review records and their like lists. All mutations
// require an active session; updates and deletes additionally require the
// session user to own the review.
type ReviewRegistry struct {
	store  store.Store
	users  *UserRegistry
	bus    *events.Bus
	logger *slog.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewReviewRegistry creates a review registry over the given store. The user
// registry supplies the active session for ownership and like checks.
func NewReviewRegistry(s store.Store, users *UserRegistry, bus *events.Bus, logger *slog.Logger) *ReviewRegistry {
	return &ReviewRegistry{
		store:  s,
		users:  users,
		bus:    bus,
		logger: logger,
		now:    time.Now,
	}
}

func (r *ReviewRegistry) loadReviews(ctx context.Context) ([]models.Review, error) {
	var reviews []models.Review
	if _, err := store.GetJSON(ctx, r.store, store.KeyReviews, &reviews); err != nil {
		return nil, models.NewInternalError(err)
	}
	// Records written before likes existed carry no likes list.
	for i := range reviews {
		if reviews[i].Likes == nil {
			reviews[i].Likes = []string{}
		}
	}
	return reviews, nil
}

func (r *ReviewRegistry) saveReviews(ctx context.Context, reviews []models.Review) error {
	if err := store.SetJSON(ctx, r.store, store.KeyReviews, reviews); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *ReviewRegistry) requireSession(ctx context.Context, action string) (models.Session, error) {
	session := r.users.CurrentSession(ctx)
	if !session.IsLoggedIn {
		return models.Session{}, models.NewUnauthorizedError("You must be logged in to " + action)
	}
	return session, nil
}

// avatarFor returns the profile image when set, otherwise the uppercased
// first letter of the username.
func avatarFor(session models.Session) string {
	if session.ProfileImage != "" {
		return session.ProfileImage
	}
	if session.Username == "" {
		return ""
	}
	return strings.ToUpper(session.Username[:1])
}

// AddReview creates a review for the session user. The new id is the current
// record count plus one; ids of deleted reviews may be reused.
func (r *ReviewRegistry) AddReview(ctx context.Context, gameID string, rating int, reviewText string) (*models.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, err := r.requireSession(ctx, "add a review")
	if err != nil {
		return nil, err
	}
	if rating < 1 || rating > 5 {
		return nil, models.NewValidationError("Rating must be between 1 and 5")
	}

	reviews, err := r.loadReviews(ctx)
	if err != nil {
		return nil, err
	}

	now := r.now()
	review := models.Review{
		ID:         len(reviews) + 1,
		GameID:     gameID,
		UserID:     session.Email,
		Username:   session.Username,
		UserAvatar: avatarFor(session),
		Rating:     rating,
		ReviewText: reviewText,
		Date:       now.Format(dateLayout),
		Timestamp:  now.UnixMilli(),
		Likes:      []string{},
	}

	reviews = append(reviews, review)
	if err := r.saveReviews(ctx, reviews); err != nil {
		return nil, err
	}

	r.logger.Info("review added", slog.Int("id", review.ID), slog.String("game", gameID), slog.String("user", session.Email))
	r.publish(events.ReviewAdded, review)
	return &review, nil
}

// UpdateReview replaces the rating and text of a review owned by the session
// user, re-stamping date and timestamp.
func (r *ReviewRegistry) UpdateReview(ctx context.Context, reviewID, rating int, reviewText string) (*models.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, err := r.requireSession(ctx, "update a review")
	if err != nil {
		return nil, err
	}

	reviews, err := r.loadReviews(ctx)
	if err != nil {
		return nil, err
	}

	idx := r.findOwnedLocked(reviews, reviewID, session.Email)
	if idx == -1 {
		return nil, models.NewForbiddenError("Review not found or you do not have permission to edit it")
	}

	now := r.now()
	reviews[idx].Rating = rating
	reviews[idx].ReviewText = reviewText
	reviews[idx].Date = now.Format(dateLayout)
	reviews[idx].Timestamp = now.UnixMilli()

	if err := r.saveReviews(ctx, reviews); err != nil {
		return nil, err
	}

	updated := reviews[idx]
	r.publish(events.ReviewUpdated, updated)
	return &updated, nil
}

// DeleteReview removes a review owned by the session user.
func (r *ReviewRegistry) DeleteReview(ctx context.Context, reviewID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, err := r.requireSession(ctx, "delete a review")
	if err != nil {
		return err
	}

	reviews, err := r.loadReviews(ctx)
	if err != nil {
		return err
	}

	idx := r.findOwnedLocked(reviews, reviewID, session.Email)
	if idx == -1 {
		return models.NewForbiddenError("Review not found or you do not have permission to delete it")
	}

	deleted := reviews[idx]
	reviews = append(reviews[:idx], reviews[idx+1:]...)
	if err := r.saveReviews(ctx, reviews); err != nil {
		return err
	}

	r.publish(events.ReviewDeleted, deleted)
	return nil
}

// findOwnedLocked returns the index of the review matching both id and owner,
// or -1. A review owned by someone else is indistinguishable from a missing
// one at this boundary.
func (r *ReviewRegistry) findOwnedLocked(reviews []models.Review, reviewID int, ownerEmail string) int {
	for i, rev := range reviews {
		if rev.ID == reviewID && rev.UserID == ownerEmail {
			return i
		}
	}
	return -1
}

// GetAllReviews returns every review.
func (r *ReviewRegistry) GetAllReviews(ctx context.Context) ([]models.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadReviews(ctx)
}

// GetReviewsByGame returns all reviews for gameID in insertion order.
func (r *ReviewRegistry) GetReviewsByGame(ctx context.Context, gameID string) ([]models.Review, error) {
	reviews, err := r.GetAllReviews(ctx)
	if err != nil {
		return nil, err
	}
	matched := []models.Review{}
	for _, rev := range reviews {
		if rev.GameID == gameID {
			matched = append(matched, rev)
		}
	}
	return matched, nil
}

// GetReviewsByUser returns all reviews authored by userID (an email).
func (r *ReviewRegistry) GetReviewsByUser(ctx context.Context, userID string) ([]models.Review, error) {
	reviews, err := r.GetAllReviews(ctx)
	if err != nil {
		return nil, err
	}
	matched := []models.Review{}
	for _, rev := range reviews {
		if rev.UserID == userID {
			matched = append(matched, rev)
		}
	}
	return matched, nil
}

// GetUserReviewForGame returns the session user's review for gameID, or nil
// when logged out or no review exists.
func (r *ReviewRegistry) GetUserReviewForGame(ctx context.Context, gameID string) (*models.Review, error) {
	session := r.users.CurrentSession(ctx)
	if !session.IsLoggedIn {
		return nil, nil
	}
	reviews, err := r.GetAllReviews(ctx)
	if err != nil {
		return nil, err
	}
	for _, rev := range reviews {
		if rev.GameID == gameID && rev.UserID == session.Email {
			return &rev, nil
		}
	}
	return nil, nil
}

// HasUserReviewedGame reports whether the session user already reviewed
// gameID. Used to route to edit instead of create; AddReview itself does not
// enforce uniqueness.
func (r *ReviewRegistry) HasUserReviewedGame(ctx context.Context, gameID string) bool {
	rev, err := r.GetUserReviewForGame(ctx, gameID)
	return err == nil && rev != nil
}

// GetRecentReviews returns the limit most recent reviews by timestamp
// descending. Legacy records missing a timestamp get one backfilled from the
// dd/mm/yyyy date field (or "now" when unparseable) and are persisted.
func (r *ReviewRegistry) GetRecentReviews(ctx context.Context, limit int) ([]models.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reviews, err := r.loadReviews(ctx)
	if err != nil {
		return nil, err
	}

	migrated := false
	for i := range reviews {
		if reviews[i].Timestamp == 0 {
			reviews[i].Timestamp = r.timestampFromDate(reviews[i].Date)
			migrated = true
		}
	}
	if migrated {
		if err := r.saveReviews(ctx, reviews); err != nil {
			return nil, err
		}
	}

	recent := make([]models.Review, len(reviews))
	copy(recent, reviews)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Timestamp > recent[j].Timestamp
	})
	if limit > 0 && limit < len(recent) {
		recent = recent[:limit]
	}
	return recent, nil
}

func (r *ReviewRegistry) timestampFromDate(date string) int64 {
	parts := strings.Split(date, "/")
	if len(parts) == 3 {
		day, errD := strconv.Atoi(parts[0])
		month, errM := strconv.Atoi(parts[1])
		year, errY := strconv.Atoi(parts[2])
		if errD == nil && errM == nil && errY == nil {
			return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local).UnixMilli()
		}
	}
	return r.now().UnixMilli()
}

// LikeReview adds the session user to the review's likes list.
func (r *ReviewRegistry) LikeReview(ctx context.Context, reviewID int) (*models.Review, error) {
	return r.mutateLike(ctx, reviewID, "like a review", func(rev *models.Review, email string) error {
		if rev.HasLike(email) {
			return models.NewAlreadyLikedError()
		}
		rev.Likes = append(rev.Likes, email)
		return nil
	})
}

// UnlikeReview removes the session user from the review's likes list.
func (r *ReviewRegistry) UnlikeReview(ctx context.Context, reviewID int) (*models.Review, error) {
	return r.mutateLike(ctx, reviewID, "unlike a review", func(rev *models.Review, email string) error {
		for i, id := range rev.Likes {
			if id == email {
				rev.Likes = append(rev.Likes[:i], rev.Likes[i+1:]...)
				return nil
			}
		}
		return models.NewNotLikedError()
	})
}

// ToggleLike likes or unlikes based on the session user's current membership.
// It is never a no-op: two calls in a row restore the original state.
func (r *ReviewRegistry) ToggleLike(ctx context.Context, reviewID int) (*models.Review, error) {
	if r.HasUserLikedReview(ctx, reviewID) {
		return r.UnlikeReview(ctx, reviewID)
	}
	return r.LikeReview(ctx, reviewID)
}

func (r *ReviewRegistry) mutateLike(ctx context.Context, reviewID int, action string, apply func(*models.Review, string) error) (*models.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, err := r.requireSession(ctx, action)
	if err != nil {
		return nil, err
	}

	reviews, err := r.loadReviews(ctx)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, rev := range reviews {
		if rev.ID == reviewID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, models.NewNotFoundError("Review", reviewID)
	}

	if err := apply(&reviews[idx], session.Email); err != nil {
		return nil, err
	}
	if err := r.saveReviews(ctx, reviews); err != nil {
		return nil, err
	}

	liked := reviews[idx]
	r.publish(events.ReviewLiked, liked)
	return &liked, nil
}

// HasUserLikedReview reports whether the session user liked the review,
// defaulting to false when logged out or the review is missing.
func (r *ReviewRegistry) HasUserLikedReview(ctx context.Context, reviewID int) bool {
	session := r.users.CurrentSession(ctx)
	if !session.IsLoggedIn {
		return false
	}
	reviews, err := r.GetAllReviews(ctx)
	if err != nil {
		return false
	}
	for _, rev := range reviews {
		if rev.ID == reviewID {
			return rev.HasLike(session.Email)
		}
	}
	return false
}

// GetLikeCount returns the number of likes on the review, 0 when missing.
func (r *ReviewRegistry) GetLikeCount(ctx context.Context, reviewID int) int {
	reviews, err := r.GetAllReviews(ctx)
	if err != nil {
		return 0
	}
	for _, rev := range reviews {
		if rev.ID == reviewID {
			return rev.LikeCount()
		}
	}
	return 0
}

func (r *ReviewRegistry) publish(t events.Type, payload any) {
	if r.bus != nil {
		r.bus.Publish(events.Event{Type: t, Payload: payload})
	}
}
