package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/moovie/internal/models"
	"github.com/desertthunder/moovie/internal/shared"
)

// MovieService implements [Catalog] against the catalog API.
type MovieService struct {
	api *APIService
}

// NewMovieService creates a [MovieService] backed by api.
func NewMovieService(api *APIService) *MovieService {
	return &MovieService{api: api}
}

func moviePath(movieID string) string {
	return "/api/movies/" + url.PathEscape(movieID)
}

// Movies calls GET /api/movies. The body may be a bare array or {"movies": [...]}.
func (s *MovieService) Movies(ctx context.Context) ([]models.Movie, error) {
	body, err := s.api.doJSON(ctx, http.MethodGet, "/api/movies", nil)
	if err != nil {
		return nil, err
	}

	var movies []models.Movie
	if err := decodeEnvelope(body, "movies", &movies); err != nil {
		return nil, fmt.Errorf("failed to decode movies: %w", err)
	}
	return movies, nil
}

// Movie calls GET /api/movies/:id.
func (s *MovieService) Movie(ctx context.Context, movieID string) (*models.Movie, error) {
	if movieID == "" {
		return nil, fmt.Errorf("%w: movie id", shared.ErrMissingArgument)
	}

	body, err := s.api.doJSON(ctx, http.MethodGet, moviePath(movieID), nil)
	if NotFound(err) {
		return nil, fmt.Errorf("%w: %s", shared.ErrMovieNotFound, movieID)
	} else if err != nil {
		return nil, err
	}
	return decodeMovie(body)
}

// PostComment validates in and calls POST /api/movies/:id/comments.
// Invalid input never reaches the network.
func (s *MovieService) PostComment(ctx context.Context, movieID string, in models.CommentInput) (*models.Movie, error) {
	if movieID == "" {
		return nil, fmt.Errorf("%w: movie id", shared.ErrMissingArgument)
	}
	if err := models.ValidateComment(&in); err != nil {
		return nil, err
	}

	body, err := s.api.doJSON(ctx, http.MethodPost, moviePath(movieID)+"/comments", in)
	if NotFound(err) {
		return nil, fmt.Errorf("%w: %s", shared.ErrMovieNotFound, movieID)
	} else if err != nil {
		return nil, err
	}
	return decodeMovie(body)
}

// DeleteComment calls DELETE /api/movies/:id/comments/:commentId.
func (s *MovieService) DeleteComment(ctx context.Context, movieID, commentID string) (*models.Movie, error) {
	if movieID == "" || commentID == "" {
		return nil, fmt.Errorf("%w: movie id and comment id", shared.ErrMissingArgument)
	}

	body, err := s.api.doJSON(ctx, http.MethodDelete, moviePath(movieID)+"/comments/"+url.PathEscape(commentID), nil)
	if NotFound(err) {
		return nil, fmt.Errorf("%w: %s", shared.ErrCommentNotFound, commentID)
	} else if err != nil {
		return nil, err
	}
	return decodeMovie(body)
}

// decodeMovie accepts a bare movie or {"movie": {...}}.
func decodeMovie(body []byte) (*models.Movie, error) {
	var movie models.Movie
	if err := decodeEnvelope(body, "movie", &movie); err != nil {
		return nil, fmt.Errorf("failed to decode movie: %w", err)
	}
	if movie.ID == "" && movie.Title == "" {
		return nil, fmt.Errorf("%w: response carried no movie", shared.ErrAPIRequest)
	}
	if movie.Comments == nil {
		movie.Comments = []models.Comment{}
	}
	return &movie, nil
}
