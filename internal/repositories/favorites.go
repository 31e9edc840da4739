package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/moovie/internal/shared"
)

// FavoriteRepository caches each user's favorites set for the life of a session.
//
// A favorite_syncs row marks the set as fetched at a point in time, so an empty set is
// still a hit. Entries older than the caller's max age are reported stale, not deleted.
type FavoriteRepository struct {
	db *sql.DB
}

// NewFavoriteRepository creates a new FavoriteRepository with the given database connection
func NewFavoriteRepository(db *sql.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Replace stores ids as the complete favorites set for userID, fetched at at.
func (r *FavoriteRepository) Replace(userID string, ids []string, at time.Time) error {
	if userID == "" {
		return fmt.Errorf("%w: user id is required", shared.ErrInvalidInput)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM favorites WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to clear favorites: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO favorite_syncs (user_id, fetched_at) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET fetched_at = excluded.fetched_at
	`, userID, at)
	if err != nil {
		return fmt.Errorf("failed to record sync: %w", err)
	}

	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, err := tx.Exec("INSERT OR IGNORE INTO favorites (user_id, movie_id) VALUES (?, ?)", userID, id); err != nil {
			return fmt.Errorf("failed to insert favorite: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit favorites: %w", err)
	}
	return nil
}

// Get returns the cached set for userID in insertion order. ok is false when nothing was
// ever cached for the user or the cached set is older than maxAge. A non-positive maxAge
// never expires.
func (r *FavoriteRepository) Get(userID string, maxAge time.Duration, now time.Time) (ids []string, ok bool, err error) {
	var fetchedAt time.Time
	err = r.db.QueryRow("SELECT fetched_at FROM favorite_syncs WHERE user_id = ?", userID).Scan(&fetchedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to scan sync: %w", err)
	}

	if maxAge > 0 && now.Sub(fetchedAt) > maxAge {
		return nil, false, nil
	}

	rows, err := r.db.Query("SELECT movie_id FROM favorites WHERE user_id = ? ORDER BY rowid ASC", userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	ids = []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, false, fmt.Errorf("failed to scan favorite: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("row iteration error: %w", err)
	}
	return ids, true, nil
}

// Set adds or removes a single membership without touching the sync time.
// It is a no-op when the user's set was never cached.
func (r *FavoriteRepository) Set(userID, movieID string, on bool) error {
	var exists int
	err := r.db.QueryRow("SELECT COUNT(*) FROM favorite_syncs WHERE user_id = ?", userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to scan sync: %w", err)
	}
	if exists == 0 {
		return nil
	}

	if on {
		_, err = r.db.Exec("INSERT OR IGNORE INTO favorites (user_id, movie_id) VALUES (?, ?)", userID, movieID)
	} else {
		_, err = r.db.Exec("DELETE FROM favorites WHERE user_id = ? AND movie_id = ?", userID, movieID)
	}
	if err != nil {
		return fmt.Errorf("failed to update favorite: %w", err)
	}
	return nil
}

// Invalidate drops the cached set for userID.
func (r *FavoriteRepository) Invalidate(userID string) error {
	for _, query := range []string{
		"DELETE FROM favorites WHERE user_id = ?",
		"DELETE FROM favorite_syncs WHERE user_id = ?",
	} {
		if _, err := r.db.Exec(query, userID); err != nil {
			return fmt.Errorf("failed to invalidate favorites: %w", err)
		}
	}
	return nil
}

// Clear drops every cached set.
func (r *FavoriteRepository) Clear() error {
	for _, query := range []string{"DELETE FROM favorites", "DELETE FROM favorite_syncs"} {
		if _, err := r.db.Exec(query); err != nil {
			return fmt.Errorf("failed to clear favorites: %w", err)
		}
	}
	return nil
}

// Users returns the number of users with a cached set.
func (r *FavoriteRepository) Users() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM favorite_syncs").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count favorite syncs: %w", err)
	}
	return n, nil
}
