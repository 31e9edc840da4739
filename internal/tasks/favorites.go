package tasks

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moovie/internal/models"
	"github.com/desertthunder/moovie/internal/services"
	"github.com/desertthunder/moovie/internal/shared"
)

// FavoritesCache stores a user's favorites set between requests.
// repositories.FavoriteRepository implements it.
type FavoritesCache interface {
	Get(userID string, maxAge time.Duration, now time.Time) (ids []string, ok bool, err error)
	Replace(userID string, ids []string, at time.Time) error
	Set(userID, movieID string, on bool) error
	Invalidate(userID string) error
}

// FavoriteSyncOpts configures a [FavoriteSync].
type FavoriteSyncOpts struct {
	Cache     FavoritesCache // optional; without it every check hits the API
	TTL       time.Duration  // cache freshness; zero never expires
	Reconcile bool           // re-fetch the set after every toggle
	Logger    *log.Logger
}

// FavoriteSync keeps a user's favorite flags in step with the server.
//
// The server exposes only a flip, so the new state is computed from the state the caller
// last rendered. A failed flip leaves that state untouched.
type FavoriteSync struct {
	api    services.FavoritesAPI
	userID string
	opts   FavoriteSyncOpts
	now    func() time.Time
}

// NewFavoriteSync creates a FavoriteSync for userID.
func NewFavoriteSync(api services.FavoritesAPI, userID string, opts FavoriteSyncOpts) *FavoriteSync {
	return &FavoriteSync{api: api, userID: userID, opts: opts, now: time.Now}
}

// UserID returns the user whose favorites are tracked.
func (s *FavoriteSync) UserID() string {
	return s.userID
}

func (s *FavoriteSync) warn(msg string, err error) {
	if s.opts.Logger != nil {
		s.opts.Logger.Warn(msg, "user", s.userID, "error", err)
	}
}

// Favorites fetches the full set from the server and refreshes the cache.
func (s *FavoriteSync) Favorites(ctx context.Context) (models.Favorites, error) {
	if s.userID == "" {
		return nil, fmt.Errorf("%w: no user in session", shared.ErrNotAuthenticated)
	}

	favs, err := s.api.Favorites(ctx, s.userID)
	if err != nil {
		return nil, err
	}

	if s.opts.Cache != nil {
		if err := s.opts.Cache.Replace(s.userID, favs.IDs(), s.now()); err != nil {
			s.warn("failed to cache favorites", err)
		}
	}
	return favs, nil
}

// IDs returns the favorite movie ids, from the cache when fresh.
func (s *FavoriteSync) IDs(ctx context.Context) ([]string, error) {
	if ids, ok := s.cached(); ok {
		return ids, nil
	}

	favs, err := s.Favorites(ctx)
	if err != nil {
		return nil, err
	}
	return favs.IDs(), nil
}

func (s *FavoriteSync) cached() ([]string, bool) {
	if s.opts.Cache == nil || s.userID == "" {
		return nil, false
	}
	ids, ok, err := s.opts.Cache.Get(s.userID, s.opts.TTL, s.now())
	if err != nil {
		s.warn("failed to read favorites cache", err)
		return nil, false
	}
	return ids, ok
}

// IsFavorite reports whether movieID is in the user's favorites.
func (s *FavoriteSync) IsFavorite(ctx context.Context, movieID string) (bool, error) {
	ids, err := s.IDs(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, movieID), nil
}

// Toggle flips movieID and returns the new state.
//
// current is the state the caller is showing. On success the result is the server's
// membership when the response carries the list, otherwise !current. With Reconcile set the
// set is re-fetched and wins over both. On failure current is returned with the error.
func (s *FavoriteSync) Toggle(ctx context.Context, movieID string, current bool) (bool, error) {
	if s.userID == "" {
		return current, fmt.Errorf("%w: no user in session", shared.ErrNotAuthenticated)
	}

	result, err := s.api.ToggleFavorite(ctx, s.userID, movieID)
	if err != nil {
		return current, fmt.Errorf("failed to toggle favorite: %w", err)
	}

	next := !current
	if fav, ok := result.IsFavorite(movieID); ok {
		next = fav
		if s.opts.Cache != nil {
			if err := s.opts.Cache.Replace(s.userID, result.Favorites.IDs(), s.now()); err != nil {
				s.warn("failed to cache favorites", err)
			}
		}
	} else {
		s.patchCache(movieID, current, next)
	}

	if s.opts.Reconcile {
		favs, err := s.Favorites(ctx)
		if err != nil {
			s.warn("failed to reconcile favorites", err)
			return next, nil
		}
		next = favs.Contains(movieID)
	}

	return next, nil
}

// patchCache applies an unconfirmed flip. The cached set is patched only when it agrees
// with what the caller showed; otherwise it is dropped.
func (s *FavoriteSync) patchCache(movieID string, current, next bool) {
	if s.opts.Cache == nil {
		return
	}

	ids, ok := s.cached()
	var err error
	if ok && slices.Contains(ids, movieID) == current {
		err = s.opts.Cache.Set(s.userID, movieID, next)
	} else {
		err = s.opts.Cache.Invalidate(s.userID)
	}
	if err != nil {
		s.warn("failed to update favorites cache", err)
	}
}
