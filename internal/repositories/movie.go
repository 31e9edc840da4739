package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/moovie/internal/models"
	"github.com/desertthunder/moovie/internal/shared"
)

// MovieRepository implements models.Repository[*models.Movie] as a local catalog cache.
//
// Indexed columns mirror the fields used for filtering; the full movie (comments and
// subtitles included) is kept as a JSON payload and is what Get and List return.
type MovieRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewMovieRepository creates a new MovieRepository with the given database connection
func NewMovieRepository(db *sql.DB) *MovieRepository {
	return &MovieRepository{db: db, now: time.Now}
}

// Upsert caches movie, replacing any previous copy. New rows get the next sequence number;
// existing rows keep theirs so list order stays stable across refreshes.
func (r *MovieRepository) Upsert(movie *models.Movie) error {
	if movie == nil || movie.ID == "" {
		return fmt.Errorf("%w: movie id is required", shared.ErrInvalidInput)
	}

	payload, err := json.Marshal(movie)
	if err != nil {
		return fmt.Errorf("failed to encode movie: %w", err)
	}

	var sequence int
	err = r.db.QueryRow("SELECT sequence FROM movies WHERE id = ?", movie.ID).Scan(&sequence)
	switch {
	case err == sql.ErrNoRows:
		if sequence, err = NextSequence(r.db, "movies"); err != nil {
			return fmt.Errorf("failed to generate sequence: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to look up movie: %w", err)
	}

	now := r.now()
	query := `
		INSERT INTO movies (id, sequence, title, description, genre, image, video_url, rating, payload, fetched_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			genre = excluded.genre,
			image = excluded.image,
			video_url = excluded.video_url,
			rating = excluded.rating,
			payload = excluded.payload,
			fetched_at = excluded.fetched_at,
			updated_at = excluded.updated_at
	`

	_, err = r.db.Exec(query,
		movie.ID,
		sequence,
		movie.Title,
		movie.Description,
		movie.Genre,
		movie.Image,
		movie.VideoURL,
		movie.Rating,
		string(payload),
		now,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert movie: %w", err)
	}

	return nil
}

// UpsertAll caches every movie in a catalog listing.
func (r *MovieRepository) UpsertAll(movies []models.Movie) error {
	for i := range movies {
		if err := r.Upsert(&movies[i]); err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves a cached movie by id. A miss returns [shared.ErrMovieNotFound].
func (r *MovieRepository) Get(id string) (*models.Movie, error) {
	var payload string
	err := r.db.QueryRow("SELECT payload FROM movies WHERE id = ?", id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrMovieNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan movie: %w", err)
	}
	return decodePayload(payload)
}

// FetchedAt returns when the movie was last cached.
func (r *MovieRepository) FetchedAt(id string) (time.Time, error) {
	var at time.Time
	err := r.db.QueryRow("SELECT fetched_at FROM movies WHERE id = ?", id).Scan(&at)
	if err == sql.ErrNoRows {
		return time.Time{}, fmt.Errorf("%w: %s", shared.ErrMovieNotFound, id)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to scan movie: %w", err)
	}
	return at, nil
}

// Delete removes a movie from the cache
func (r *MovieRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM movies WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete movie: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrMovieNotFound, id)
	}

	return nil
}

// List retrieves cached movies in the order they were first seen.
//
// Supported criteria:
//   - "genre" (string): exact match, case-insensitive
//   - "query" (string): substring of title or description, case-insensitive
func (r *MovieRepository) List(criteria map[string]any) ([]*models.Movie, error) {
	query := "SELECT payload FROM movies WHERE 1 = 1"
	args := []any{}

	if genre, ok := criteria["genre"].(string); ok && strings.TrimSpace(genre) != "" {
		query += " AND lower(genre) = ?"
		args = append(args, shared.NormalizeText(genre))
	}

	if q, ok := criteria["query"].(string); ok && strings.TrimSpace(q) != "" {
		query += " AND (instr(lower(title), ?) > 0 OR instr(lower(description), ?) > 0)"
		needle := shared.NormalizeText(q)
		args = append(args, needle, needle)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}
	defer rows.Close()

	var movies []*models.Movie
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan movie: %w", err)
		}
		movie, err := decodePayload(payload)
		if err != nil {
			return nil, err
		}
		movies = append(movies, movie)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return movies, nil
}

// Count returns the number of cached movies.
func (r *MovieRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM movies").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count movies: %w", err)
	}
	return n, nil
}

// Clear empties the catalog cache.
func (r *MovieRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM movies"); err != nil {
		return fmt.Errorf("failed to clear movies: %w", err)
	}
	return nil
}

func decodePayload(payload string) (*models.Movie, error) {
	var movie models.Movie
	if err := json.Unmarshal([]byte(payload), &movie); err != nil {
		return nil, fmt.Errorf("failed to decode cached movie: %w", err)
	}
	if movie.Comments == nil {
		movie.Comments = []models.Comment{}
	}
	return &movie, nil
}
