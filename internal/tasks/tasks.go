// package tasks implements the client-side workflows on top of the Moovie API.
//
// The core abstraction is Engine, which wires the catalog, favorites and stock-media clients
// into catalog browsing, the player session, bulk exports and raw data dumps.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moovie/internal/models"
	"github.com/desertthunder/moovie/internal/services"
	"github.com/desertthunder/moovie/internal/shared"
)

// EndpointResult represents the result of fetching data from a single API endpoint.
type EndpointResult struct {
	Endpoint string
	Data     any
	Error    error
}

// DumpResult contains all data fetched from the API.
type DumpResult struct {
	Movies    any              // Catalog listing
	Profile   any              // Current user
	Favorites any              // Current user's favorites
	Trailers  any              // Stock trailer search
	Errors    []EndpointResult // Failed endpoint fetches
}

// DumpData is the serializable form of a [DumpResult].
type DumpData struct {
	Movies    any   `json:"movies"`
	Profile   any   `json:"profile,omitempty"`
	Favorites any   `json:"favorites,omitempty"`
	Trailers  any   `json:"trailers,omitempty"`
	Errors    []any `json:"errors,omitempty"`
}

// Data converts the result for JSON output.
func (r *DumpResult) Data() DumpData {
	data := DumpData{
		Movies:    r.Movies,
		Profile:   r.Profile,
		Favorites: r.Favorites,
		Trailers:  r.Trailers,
	}
	for _, e := range r.Errors {
		data.Errors = append(data.Errors, map[string]string{"endpoint": e.Endpoint, "error": e.Error.Error()})
	}
	return data
}

type endpointOperation struct {
	name    string
	path    string
	target  *any
	phase   Phase
	message string
}

// APIClient defines the raw request interface of the API.
// services.APIService implements it.
type APIClient interface {
	Get(ctx context.Context, path string) (*services.APIResponse, error)
}

// Engine ties the API clients together for the CLI and TUI.
type Engine struct {
	catalog services.Catalog
	media   services.StockMedia
	api     APIClient
	baseURL string
	logger  *log.Logger

	favorites *FavoriteSync
	viewer    models.Viewer
	movies    MovieCache
}

// EngineOpts contains the collaborators of an [Engine]. Only Catalog is required.
type EngineOpts struct {
	Catalog   services.Catalog
	Media     services.StockMedia
	API       APIClient
	BaseURL   string
	Logger    *log.Logger
	Favorites *FavoriteSync
	Viewer    models.Viewer
	Movies    MovieCache
}

// NewEngine creates a new Engine with the provided services.
func NewEngine(opts EngineOpts) *Engine {
	return &Engine{
		catalog:   opts.Catalog,
		media:     opts.Media,
		api:       opts.API,
		baseURL:   opts.BaseURL,
		logger:    opts.Logger,
		favorites: opts.Favorites,
		viewer:    opts.Viewer,
		movies:    opts.Movies,
	}
}

// Catalog returns a browsable catalog bound to the engine's favorites and cache.
func (e *Engine) Catalog() *Catalog {
	return NewCatalog(e.catalog, e.favorites, e.movies, e.logger)
}

// Player returns a fresh player session for the current viewer.
func (e *Engine) Player() *PlayerSession {
	return NewPlayerSession(PlayerOpts{
		Catalog:   e.catalog,
		Media:     e.media,
		Favorites: e.favorites,
		Viewer:    e.viewer,
		BaseURL:   e.baseURL,
		Logger:    e.logger,
	})
}

// Favorites returns the favorites sync of the logged-in user, nil when anonymous.
func (e *Engine) Favorites() *FavoriteSync {
	return e.favorites
}

// Viewer returns who the engine acts as.
func (e *Engine) Viewer() models.Viewer {
	return e.viewer
}

// Trailers lists stock trailers for the configured query. Failures yield an empty list.
func (e *Engine) Trailers(ctx context.Context, cfg shared.MediaConfig, progress chan<- ProgressUpdate) []models.StockVideo {
	sendProgress(progress, ProgressUpdate{Phase: FetchTrailers, Step: 1, Total: 1, Message: "Fetching trailers..."})
	if e.media == nil {
		return []models.StockVideo{}
	}
	return services.Trailers(ctx, e.media, cfg, e.logger)
}

// Dump fetches the raw API data visible to the current session.
//
// Failed endpoints are collected in Errors; the dump itself only fails without a client.
func (e *Engine) Dump(ctx context.Context, progress chan<- ProgressUpdate) (*DumpResult, error) {
	if e.api == nil {
		return nil, fmt.Errorf("%w: API client not initialized", shared.ErrServiceUnavailable)
	}

	result := &DumpResult{
		Errors: []EndpointResult{},
	}

	endpoints := []endpointOperation{
		{name: "movies", path: "/api/movies", target: &result.Movies, phase: FetchCatalog, message: "Fetching catalog..."},
	}
	if e.favorites != nil && e.favorites.UserID() != "" {
		endpoints = append(endpoints,
			endpointOperation{name: "profile", path: "/api/profile", target: &result.Profile, phase: FetchProfile, message: "Fetching profile..."},
			endpointOperation{name: "favorites", path: "/api/users/" + e.favorites.UserID() + "/favorites", target: &result.Favorites, phase: FetchFavorites, message: "Fetching favorites..."},
		)
	}
	endpoints = append(endpoints, endpointOperation{
		name: "trailers", path: "/api/pexels/videos?query=movie+trailer&per_page=5", target: &result.Trailers, phase: FetchTrailers, message: "Fetching trailers...",
	})

	totalSteps := len(endpoints)

	for i, endpoint := range endpoints {
		sendProgress(progress, operationUpdate(endpoint, i+1, totalSteps))

		resp, err := e.api.Get(ctx, endpoint.path)
		if err != nil || !resp.OK() {
			errMsg := ""
			if err != nil {
				errMsg = err.Error()
			} else {
				errMsg = fmt.Sprintf("status %d", resp.StatusCode)
			}
			result.Errors = append(result.Errors, EndpointResult{
				Endpoint: endpoint.path,
				Error:    fmt.Errorf("%s", errMsg),
			})
		} else {
			*endpoint.target = resp.JSONData
		}
	}

	return result, nil
}
