package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moovie/internal/models"
	"github.com/desertthunder/moovie/internal/services"
	"github.com/desertthunder/moovie/internal/shared"
)

// PlayerSession is the state behind a movie detail/player view: the server's copy of the
// movie, the resolved video link, and the viewer's favorite flag.
//
// Every mutation replaces Movie with the server's response. The resolved video link
// survives those replacements.
type PlayerSession struct {
	catalog   services.Catalog
	media     services.StockMedia
	favorites *FavoriteSync
	viewer    models.Viewer
	baseURL   string
	logger    *log.Logger

	Movie    *models.Movie
	VideoErr error // why no video was resolved; nil when VideoURL is set
	Favorite bool
}

// PlayerOpts carries the collaborators of a [PlayerSession].
type PlayerOpts struct {
	Catalog   services.Catalog
	Media     services.StockMedia
	Favorites *FavoriteSync // nil for anonymous viewers
	Viewer    models.Viewer
	BaseURL   string
	Logger    *log.Logger
}

// NewPlayerSession creates an empty session. Call Load before anything else.
func NewPlayerSession(opts PlayerOpts) *PlayerSession {
	return &PlayerSession{
		catalog:   opts.Catalog,
		media:     opts.Media,
		favorites: opts.Favorites,
		viewer:    opts.Viewer,
		baseURL:   opts.BaseURL,
		logger:    opts.Logger,
	}
}

// Load fetches the movie, resolves a playable video and reads the favorite flag.
//
// The video comes from the stock-media search, falling back to the movie's own videoUrl.
// Only the movie fetch is fatal. A missing video is recorded in VideoErr and the poster
// is shown instead; a failed favorites lookup leaves the flag off.
func (p *PlayerSession) Load(ctx context.Context, movieID string, progress chan<- ProgressUpdate) error {
	sendProgress(progress, fetchingMovieUpdate(1, 1, movieID))
	movie, err := p.catalog.Movie(ctx, movieID)
	if err != nil {
		return err
	}
	p.Movie = movie
	own := movie.VideoURL
	p.Movie.VideoURL = ""
	p.VideoErr = nil
	sendProgress(progress, foundMovieUpdate(1, 1, movie))

	if p.media != nil {
		sendProgress(progress, resolvingVideoUpdate(models.PlaybackQuery(movie)))
		link, err := services.ResolveVideo(ctx, p.media, movie)
		if err != nil {
			p.VideoErr = err
		} else {
			p.Movie.VideoURL = link
		}
	} else {
		p.VideoErr = fmt.Errorf("%w: no stock-media client", shared.ErrVideoUnavailable)
	}

	// The catalog's own video link is used only when the stock search found nothing.
	if p.Movie.VideoURL == "" && own != "" {
		p.Movie.VideoURL = shared.ResolveMediaURL(p.baseURL, own)
		p.VideoErr = nil
	}
	if p.VideoErr != nil && p.logger != nil {
		p.logger.Warn("video not available", "movie", movie.ID, "error", p.VideoErr)
	}

	p.Favorite = false
	if p.favorites != nil && p.favorites.UserID() != "" {
		sendProgress(progress, ProgressUpdate{Phase: FetchFavorites, Step: 1, Total: 1, Message: "Checking favorites..."})
		fav, err := p.favorites.IsFavorite(ctx, movie.ID)
		if err != nil {
			if p.logger != nil {
				p.logger.Warn("failed to read favorites", "movie", movie.ID, "error", err)
			}
		} else {
			p.Favorite = fav
		}
	}
	return nil
}

func (p *PlayerSession) loaded() error {
	if p.Movie == nil {
		return fmt.Errorf("%w: no movie loaded", shared.ErrInvalidInput)
	}
	return nil
}

// VideoURL returns the resolved video link, empty when unavailable.
func (p *PlayerSession) VideoURL() string {
	if p.Movie == nil {
		return ""
	}
	return p.Movie.VideoURL
}

// PosterURL returns the poster resolved against the API base URL.
func (p *PlayerSession) PosterURL() string {
	if p.Movie == nil {
		return shared.ResolveImageURL(p.baseURL, "")
	}
	return p.Movie.PosterURL(p.baseURL)
}

// Subtitles returns the subtitle tracks with sources resolved against the API base URL.
func (p *PlayerSession) Subtitles() []models.Subtitle {
	if p.Movie == nil {
		return nil
	}
	return p.Movie.SubtitleURLs(p.baseURL)
}

// Viewer returns who the session acts as.
func (p *PlayerSession) Viewer() models.Viewer {
	return p.viewer
}

// ToggleFavorite flips the favorite flag. On failure the flag is unchanged.
func (p *PlayerSession) ToggleFavorite(ctx context.Context) error {
	if err := p.loaded(); err != nil {
		return err
	}
	if p.favorites == nil {
		return fmt.Errorf("%w: log in to manage favorites", shared.ErrNotAuthenticated)
	}

	next, err := p.favorites.Toggle(ctx, p.Movie.ID, p.Favorite)
	p.Favorite = next
	return err
}

// PostComment posts a comment as the viewer and adopts the server's movie.
// Input is validated before anything is sent; on failure the movie is unchanged.
func (p *PlayerSession) PostComment(ctx context.Context, text string, rating int) error {
	if err := p.loaded(); err != nil {
		return err
	}

	in := models.CommentInput{User: p.viewer.AuthorName(), Text: text, Rating: rating}
	if err := models.ValidateComment(&in); err != nil {
		return err
	}

	updated, err := p.catalog.PostComment(ctx, p.Movie.ID, in)
	if err != nil {
		return err
	}
	p.Movie = models.ApplyServerMovie(p.Movie, updated)
	return nil
}

// CanDelete reports whether the viewer may delete c.
func (p *PlayerSession) CanDelete(c models.Comment) bool {
	return models.CanDelete(p.viewer, c)
}

// DeleteComment deletes one of the viewer's comments and adopts the server's movie.
func (p *PlayerSession) DeleteComment(ctx context.Context, commentID string) error {
	if err := p.loaded(); err != nil {
		return err
	}

	c, ok := p.Movie.FindComment(commentID)
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrCommentNotFound, commentID)
	}
	if !p.CanDelete(c) {
		return fmt.Errorf("%w: comment %s belongs to %s", shared.ErrForbidden, commentID, c.User)
	}

	updated, err := p.catalog.DeleteComment(ctx, p.Movie.ID, commentID)
	if err != nil {
		return err
	}
	p.Movie = models.ApplyServerMovie(p.Movie, updated)
	return nil
}

// VideoUnavailable reports whether the player should fall back to the poster.
func (p *PlayerSession) VideoUnavailable() bool {
	return p.VideoURL() == ""
}

// Clone returns a copy of the session sharing its collaborators.
// Mutating operations on the copy leave p untouched.
func (p *PlayerSession) Clone() *PlayerSession {
	c := *p
	return &c
}
