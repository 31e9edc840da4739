package tasks

import (
	"context"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moovie/internal/models"
	"github.com/desertthunder/moovie/internal/services"
	"github.com/desertthunder/moovie/internal/shared"
)

// MovieCache stores catalog listings for offline use.
// repositories.MovieRepository implements it.
type MovieCache interface {
	UpsertAll(movies []models.Movie) error
	List(criteria map[string]any) ([]*models.Movie, error)
}

// Catalog is the browsable movie list with favorite flags applied.
type Catalog struct {
	api       services.Catalog
	favorites *FavoriteSync
	cache     MovieCache
	logger    *log.Logger

	movies []models.Movie
}

// NewCatalog creates a Catalog. favorites, cache and logger may be nil.
func NewCatalog(api services.Catalog, favorites *FavoriteSync, cache MovieCache, logger *log.Logger) *Catalog {
	return &Catalog{api: api, favorites: favorites, cache: cache, logger: logger}
}

func (c *Catalog) warn(msg string, err error) {
	if c.logger != nil {
		c.logger.Warn(msg, "error", err)
	}
}

// Load fetches the catalog and marks favorites. A favorites failure leaves every flag off.
func (c *Catalog) Load(ctx context.Context, progress chan<- ProgressUpdate) ([]models.Movie, error) {
	sendProgress(progress, fetchingCatalogUpdate(1, 2))
	movies, err := c.api.Movies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	if c.cache != nil {
		if err := c.cache.UpsertAll(movies); err != nil {
			c.warn("failed to cache catalog", err)
		}
	}

	var ids []string
	if c.favorites != nil && c.favorites.UserID() != "" {
		sendProgress(progress, ProgressUpdate{Phase: FetchFavorites, Step: 2, Total: 2, Message: "Fetching favorites..."})
		if ids, err = c.favorites.IDs(ctx); err != nil {
			c.warn("failed to load favorites", err)
		}
	}

	c.movies = markFavorites(movies, ids)
	return c.movies, nil
}

// FavoriteMovies lists the user's favorites with one favorites fetch. Entries the server
// embeds are used as-is; bare ids are looked up in the catalog, then in the local cache
// when the catalog is unreachable. Ids found nowhere come back as id-only placeholders
// and are counted in unresolved.
func (c *Catalog) FavoriteMovies(ctx context.Context) (movies []models.Movie, unresolved int, err error) {
	if c.favorites == nil {
		return nil, 0, fmt.Errorf("%w: no user in session", shared.ErrNotAuthenticated)
	}

	favs, err := c.favorites.Favorites(ctx)
	if err != nil {
		return nil, 0, err
	}

	var bare []string
	for _, ref := range favs {
		if ref.Movie == nil || ref.Movie.Title == "" {
			bare = append(bare, ref.ID)
		}
	}

	known := map[string]models.Movie{}
	if len(bare) > 0 {
		for _, m := range c.lookup(ctx) {
			known[m.ID] = m
		}
	}

	movies = make([]models.Movie, 0, len(favs))
	for _, ref := range favs {
		var m models.Movie
		switch found, ok := known[ref.ID]; {
		case ref.Movie != nil && ref.Movie.Title != "":
			m = *ref.Movie
		case ok:
			m = found
		default:
			m = models.Movie{ID: ref.ID}
			unresolved++
		}
		m.Favorite = true
		movies = append(movies, m)
	}

	c.movies = markFavorites(movies, favs.IDs())
	return c.movies, unresolved, nil
}

// lookup returns the catalog, falling back to the cache when the API fails.
func (c *Catalog) lookup(ctx context.Context) []models.Movie {
	movies, err := c.api.Movies(ctx)
	if err == nil {
		if c.cache != nil {
			if err := c.cache.UpsertAll(movies); err != nil {
				c.warn("failed to cache catalog", err)
			}
		}
		return movies
	}

	c.warn("catalog unavailable, using cached titles", err)
	if c.cache == nil {
		return nil
	}
	cached, err := c.cache.List(nil)
	if err != nil {
		c.warn("failed to read movie cache", err)
		return nil
	}
	out := make([]models.Movie, 0, len(cached))
	for _, m := range cached {
		out = append(out, *m)
	}
	return out
}

// LoadCached reads the catalog from the local cache without touching the network.
func (c *Catalog) LoadCached(genre, query string) ([]models.Movie, error) {
	if c.cache == nil {
		return nil, fmt.Errorf("no local cache configured")
	}

	cached, err := c.cache.List(map[string]any{"genre": genre, "query": query})
	if err != nil {
		return nil, err
	}

	movies := make([]models.Movie, 0, len(cached))
	for _, m := range cached {
		movies = append(movies, *m)
	}
	c.movies = movies
	return movies, nil
}

func markFavorites(movies []models.Movie, ids []string) []models.Movie {
	for i := range movies {
		movies[i].Favorite = slices.Contains(ids, movies[i].ID)
		if movies[i].Comments == nil {
			movies[i].Comments = []models.Comment{}
		}
	}
	return movies
}

// Movies returns the last loaded listing.
func (c *Catalog) Movies() []models.Movie {
	return c.movies
}

// Filter narrows the listing by genre and free-text query.
func (c *Catalog) Filter(genre, query string) []models.Movie {
	return models.FilterMovies(c.movies, genre, query)
}

// Genres lists the distinct genres in the listing.
func (c *Catalog) Genres() []string {
	return models.Genres(c.movies)
}

// Favorites returns the movies flagged as favorite.
func (c *Catalog) Favorites() []models.Movie {
	out := []models.Movie{}
	for _, m := range c.movies {
		if m.Favorite {
			out = append(out, m)
		}
	}
	return out
}

// SetFavorite updates the local flag of movieID after a toggle.
func (c *Catalog) SetFavorite(movieID string, on bool) {
	for i := range c.movies {
		if c.movies[i].ID == movieID {
			c.movies[i].Favorite = on
		}
	}
}

// Find returns the listed movie with the given id.
func (c *Catalog) Find(movieID string) (models.Movie, bool) {
	for _, m := range c.movies {
		if m.ID == movieID {
			return m, true
		}
	}
	return models.Movie{}, false
}
