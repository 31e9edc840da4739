package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moovie/internal/models"
	"github.com/desertthunder/moovie/internal/shared"
	gobreaker "github.com/sony/gobreaker/v2"
)

// StockMediaService implements [StockMedia] against the backend's stock-media proxy.
//
// Calls go through a circuit breaker: after three consecutive transport or 5xx failures
// the proxy is skipped for BreakerTimeout, failing fast with [shared.ErrServiceUnavailable].
// 4xx responses and cancellations do not count as failures.
type StockMediaService struct {
	api    *APIService
	cb     *gobreaker.CircuitBreaker[[]byte]
	logger *log.Logger
}

// BreakerTimeout is how long the breaker stays open before probing the proxy again.
var BreakerTimeout = 30 * time.Second

// NewStockMediaService creates a [StockMediaService] backed by api. logger may be nil.
func NewStockMediaService(api *APIService, logger *log.Logger) *StockMediaService {
	s := &StockMediaService{api: api, logger: logger}
	s.cb = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "stock-media",
		MaxRequests: 1,
		Timeout:     BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsSuccessful: func(err error) bool {
			return err == nil || clientError(err) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if s.logger != nil {
				s.logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			}
		},
	})
	return s
}

// State reports the breaker state, for status output.
func (s *StockMediaService) State() string {
	return s.cb.State().String()
}

func (s *StockMediaService) fetch(ctx context.Context, path string) ([]byte, error) {
	body, err := s.cb.Execute(func() ([]byte, error) {
		return s.api.doJSON(ctx, http.MethodGet, path, nil)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: stock-media proxy: %w", shared.ErrServiceUnavailable, err)
	}
	return body, err
}

// Videos calls GET /api/pexels/videos and returns its "videos" array.
// Zero-valued query fields are omitted.
func (s *StockMediaService) Videos(ctx context.Context, q models.VideoQuery) ([]models.StockVideo, error) {
	params := url.Values{}
	params.Set("query", q.Query)
	if q.PerPage > 0 {
		params.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if q.MinDuration > 0 {
		params.Set("min_duration", strconv.Itoa(q.MinDuration))
	}
	if q.MaxDuration > 0 {
		params.Set("max_duration", strconv.Itoa(q.MaxDuration))
	}

	body, err := s.fetch(ctx, "/api/pexels/videos?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var payload struct {
		Videos []models.StockVideo `json:"videos"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode videos: %w", err)
	}
	return payload.Videos, nil
}

// Photos calls GET /api/pexels/photos and returns its "photos" array.
func (s *StockMediaService) Photos(ctx context.Context, query string, perPage int) ([]models.StockPhoto, error) {
	params := url.Values{}
	params.Set("query", query)
	if perPage > 0 {
		params.Set("per_page", strconv.Itoa(perPage))
	}

	body, err := s.fetch(ctx, "/api/pexels/photos?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var payload struct {
		Photos []models.StockPhoto `json:"photos"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode photos: %w", err)
	}
	return payload.Photos, nil
}

// ResolveVideo finds a playable video link for movie: the first search result's "hd" file,
// else its first file. It returns [shared.ErrVideoUnavailable] when nothing is found.
func ResolveVideo(ctx context.Context, media StockMedia, movie *models.Movie) (string, error) {
	query := models.PlaybackQuery(movie)
	videos, err := media.Videos(ctx, models.VideoQuery{Query: query, PerPage: 1})
	if err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrVideoUnavailable, err)
	}

	if len(videos) == 0 {
		return "", fmt.Errorf("%w: no results for %q", shared.ErrVideoUnavailable, query)
	}

	file, ok := videos[0].BestFile()
	if !ok || file.Link == "" {
		return "", fmt.Errorf("%w: no files for %q", shared.ErrVideoUnavailable, query)
	}
	return file.Link, nil
}

// Trailers fetches the landing carousel videos. Failures degrade to an empty list.
func Trailers(ctx context.Context, media StockMedia, cfg shared.MediaConfig, logger *log.Logger) []models.StockVideo {
	videos, err := media.Videos(ctx, models.VideoQuery{
		Query:       cfg.Query,
		PerPage:     cfg.PerPage,
		MinDuration: cfg.MinDuration,
		MaxDuration: cfg.MaxDuration,
	})
	if err != nil {
		if logger != nil {
			logger.Warn("failed to fetch trailers", "error", err)
		}
		return []models.StockVideo{}
	}
	return videos
}
