// Package registry contains the domain registries: users (sessions and
// collections), reviews (CRUD plus likes) and the aggregated game view.
// Each registry exclusively owns its backing store keys; cross-registry
// references are by id only.
package registry

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"gamerate/internal/events"
	"gamerate/internal/models"
	"gamerate/internal/store"

	"github.com/rs/xid"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// UserRegistry manages registered users, the active session and per-user
// game collections. The session is a projection persisted under its own key,
// independent of the full user record; collection writes keep both in sync.
type UserRegistry struct {
	store  store.Store
	bus    *events.Bus
	logger *slog.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewUserRegistry creates a user registry over the given store.
func NewUserRegistry(s store.Store, bus *events.Bus, logger *slog.Logger) *UserRegistry {
	return &UserRegistry{
		store:  s,
		bus:    bus,
		logger: logger,
		now:    time.Now,
	}
}

func (r *UserRegistry) loadUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if _, err := store.GetJSON(ctx, r.store, store.KeyRegisteredUsers, &users); err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *UserRegistry) saveUsers(ctx context.Context, users []models.User) error {
	if err := store.SetJSON(ctx, r.store, store.KeyRegisteredUsers, users); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *UserRegistry) loadSession(ctx context.Context) (models.Session, bool) {
	var session models.Session
	found, err := store.GetJSON(ctx, r.store, store.KeyCurrentUser, &session)
	if err != nil || !found {
		if err != nil {
			r.logger.Error("failed to read session", slog.String("error", err.Error()))
			// A corrupt session record is dropped rather than poisoning
			// every later read.
			_ = r.store.Remove(ctx, store.KeyCurrentUser)
		}
		return models.Session{}, false
	}
	session.IsLoggedIn = true
	if session.Collection == nil {
		session.Collection = []string{}
	}
	return session, true
}

func (r *UserRegistry) saveSession(ctx context.Context, session models.Session) error {
	if err := store.SetJSON(ctx, r.store, store.KeyCurrentUser, session); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Register validates the input, appends a full user record and establishes a
// session immediately (auto-login). Email and username uniqueness are
// case-insensitive.
func (r *UserRegistry) Register(ctx context.Context, username, email, password string, termsAccepted bool) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if username == "" || email == "" || password == "" {
		return nil, models.NewValidationError("All fields are required")
	}
	if !termsAccepted {
		return nil, models.NewValidationError("You must accept the terms of use")
	}
	if !emailPattern.MatchString(email) {
		return nil, models.NewValidationError("Invalid email format")
	}

	users, err := r.loadUsers(ctx)
	if err != nil {
		return nil, err
	}

	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return nil, models.NewDuplicateEmailError()
		}
		if strings.EqualFold(u.Username, username) {
			return nil, models.NewDuplicateUsernameError()
		}
	}

	now := r.now()
	user := models.User{
		ID:         xid.New().String(),
		Username:   strings.TrimSpace(username),
		Email:      strings.ToLower(strings.TrimSpace(email)),
		Password:   password,
		Collection: []string{},
		CreatedAt:  now,
		LastLogin:  &now,
	}
	users = append(users, user)
	if err := r.saveUsers(ctx, users); err != nil {
		return nil, err
	}

	session := models.Session{
		Username:     user.Username,
		Email:        user.Email,
		ProfileImage: user.ProfileImage,
		Collection:   []string{},
		IsLoggedIn:   true,
	}
	if err := r.saveSession(ctx, session); err != nil {
		return nil, err
	}

	r.logger.Info("user registered", slog.String("username", user.Username), slog.String("email", user.Email))
	r.publish(events.UserRegistered, session)
	return &session, nil
}

// Login authenticates by email (case-insensitive) and password. When a
// username is supplied it must match the registered one exactly.
func (r *UserRegistry) Login(ctx context.Context, username, email, password string, remember bool) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if email == "" || password == "" {
		return nil, models.NewValidationError("Email and password are required")
	}

	users, err := r.loadUsers(ctx)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, u := range users {
		if strings.EqualFold(u.Email, email) {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, models.NewNotFoundError("User", email)
	}

	user := &users[idx]
	if user.Password != password {
		return nil, models.NewUnauthorizedError("Incorrect password")
	}
	if username != "" && user.Username != username {
		return nil, models.NewValidationError("Username does not match the registered account")
	}

	now := r.now()
	user.LastLogin = &now
	if err := r.saveUsers(ctx, users); err != nil {
		return nil, err
	}

	session := models.Session{
		Username:     user.Username,
		Email:        user.Email,
		ProfileImage: user.ProfileImage,
		Collection:   user.Collection,
		IsLoggedIn:   true,
	}
	if session.Collection == nil {
		session.Collection = []string{}
	}
	if err := r.saveSession(ctx, session); err != nil {
		return nil, err
	}

	_ = remember // sessions are always persisted; remember is accepted for API compatibility

	r.logger.Info("user logged in", slog.String("email", user.Email))
	r.publish(events.UserLoggedIn, session)
	return &session, nil
}

// Logout clears the session. Calling it without an active session is a no-op.
func (r *UserRegistry) Logout(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.Remove(ctx, store.KeyCurrentUser); err != nil {
		return models.NewInternalError(err)
	}
	r.publish(events.UserLoggedOut, nil)
	return nil
}

// CurrentSession returns the active session, or a zero session with
// IsLoggedIn=false when nobody is logged in.
func (r *UserRegistry) CurrentSession(ctx context.Context) models.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, _ := r.loadSession(ctx)
	return session
}

// IsLoggedIn reports whether a session is active.
func (r *UserRegistry) IsLoggedIn(ctx context.Context) bool {
	return r.CurrentSession(ctx).IsLoggedIn
}

// UpdateProfileImage sets the session user's profile image on both the
// session record and the full user record.
func (r *UserRegistry) UpdateProfileImage(ctx context.Context, imageURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.loadSession(ctx)
	if !ok {
		return models.NewUnauthorizedError("You must be logged in to update your profile image")
	}

	session.ProfileImage = imageURL
	if err := r.saveSession(ctx, session); err != nil {
		return err
	}
	return r.updateUserRecord(ctx, session.Email, func(u *models.User) {
		u.ProfileImage = imageURL
	})
}

// AddToCollection appends gameID to the session user's collection and returns
// the updated collection. Each game appears at most once.
func (r *UserRegistry) AddToCollection(ctx context.Context, gameID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.loadSession(ctx)
	if !ok {
		return nil, models.NewUnauthorizedError("You must be logged in to add games to your collection")
	}

	for _, id := range session.Collection {
		if id == gameID {
			return nil, models.NewAlreadyInCollectionError()
		}
	}

	session.Collection = append(session.Collection, gameID)
	return r.persistCollection(ctx, session)
}

// RemoveFromCollection removes gameID from the session user's collection and
// returns the updated collection.
func (r *UserRegistry) RemoveFromCollection(ctx context.Context, gameID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.loadSession(ctx)
	if !ok {
		return nil, models.NewUnauthorizedError("You must be logged in to remove games from your collection")
	}

	idx := -1
	for i, id := range session.Collection {
		if id == gameID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, models.NewNotInCollectionError()
	}

	session.Collection = append(session.Collection[:idx], session.Collection[idx+1:]...)
	return r.persistCollection(ctx, session)
}

// persistCollection writes the collection into the session record and into
// the matching full user record. Two independent store keys kept in sync by
// the same write.
func (r *UserRegistry) persistCollection(ctx context.Context, session models.Session) ([]string, error) {
	if err := r.saveSession(ctx, session); err != nil {
		return nil, err
	}
	if err := r.updateUserRecord(ctx, session.Email, func(u *models.User) {
		u.Collection = session.Collection
	}); err != nil {
		return nil, err
	}
	r.publish(events.CollectionUpdated, session.Collection)
	return session.Collection, nil
}

func (r *UserRegistry) updateUserRecord(ctx context.Context, email string, mutate func(*models.User)) error {
	users, err := r.loadUsers(ctx)
	if err != nil {
		return err
	}
	for i := range users {
		if users[i].Email == email {
			mutate(&users[i])
			return r.saveUsers(ctx, users)
		}
	}
	// Session without a matching user record: the session write already
	// happened, matching the original last-writer-wins behavior.
	return nil
}

// IsGameInCollection reports membership, defaulting to false when logged out.
func (r *UserRegistry) IsGameInCollection(ctx context.Context, gameID string) bool {
	session := r.CurrentSession(ctx)
	if !session.IsLoggedIn {
		return false
	}
	for _, id := range session.Collection {
		if id == gameID {
			return true
		}
	}
	return false
}

// Collection returns the session user's collection, empty when logged out.
func (r *UserRegistry) Collection(ctx context.Context) []string {
	session := r.CurrentSession(ctx)
	if !session.IsLoggedIn || session.Collection == nil {
		return []string{}
	}
	return session.Collection
}

// CollectionSize returns the number of games in the session user's collection.
func (r *UserRegistry) CollectionSize(ctx context.Context) int {
	return len(r.Collection(ctx))
}

// EmailExists reports whether email is registered (case-insensitive).
func (r *UserRegistry) EmailExists(ctx context.Context, email string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	users, err := r.loadUsers(ctx)
	if err != nil {
		return false
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

// UsernameExists reports whether username is taken (case-insensitive).
func (r *UserRegistry) UsernameExists(ctx context.Context, username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	users, err := r.loadUsers(ctx)
	if err != nil {
		return false
	}
	for _, u := range users {
		if strings.EqualFold(u.Username, username) {
			return true
		}
	}
	return false
}

// AllUsers returns every registered user record.
func (r *UserRegistry) AllUsers(ctx context.Context) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadUsers(ctx)
}

func (r *UserRegistry) publish(t events.Type, payload any) {
	if r.bus != nil {
		r.bus.Publish(events.Event{Type: t, Payload: payload})
	}
}
