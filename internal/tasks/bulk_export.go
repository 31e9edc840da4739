package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/moovie/internal/formatter"
	"github.com/desertthunder/moovie/internal/models"
	"github.com/desertthunder/moovie/internal/shared"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// BulkExportOpts contains configuration for bulk movie exports.
type BulkExportOpts struct {
	Format     string  // Export format: json, csv, markdown, txt
	OutputDir  string  // Base output directory (default: moovie_export_{epoch})
	NumWorkers int     // Concurrent workers (default: 5, max: 10)
	RateLimit  float64 // Movie fetches per second (default: 5)
	Posters    bool    // Download posters for markdown exports
}

// MovieExportJob is a fetched movie waiting to be written.
type MovieExportJob struct {
	MovieID string
	Movie   *models.Movie
}

// MovieExportResult is the outcome of exporting one movie.
type MovieExportResult struct {
	MovieID      string   `json:"movie_id"`
	Title        string   `json:"title"`
	Success      bool     `json:"success"`
	Files        []string `json:"files,omitempty"`
	Error        error    `json:"-"`
	ErrorMessage string   `json:"error,omitempty"`
}

// BulkExportResult summarizes a bulk export run.
type BulkExportResult struct {
	ExportID          string              `json:"export_id"`
	TotalMovies       int                 `json:"total_movies"`
	SuccessfulExports int                 `json:"successful_exports"`
	FailedExports     int                 `json:"failed_exports"`
	OutputDirectory   string              `json:"output_directory"`
	ManifestPath      string              `json:"manifest_path,omitempty"`
	Results           []MovieExportResult `json:"results"`
	StartedAt         time.Time           `json:"started_at"`
	CompletedAt       time.Time           `json:"completed_at"`
}

// BulkExport exports movies and their comments concurrently with rate limiting and progress tracking.
//
// An empty ids list exports the whole catalog. Movies are fetched one at a time under the rate
// limit and written by a worker pool. Partial failures are recorded per movie, and a manifest
// summarizing the run is written to the output directory.
func (e *Engine) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, ids []string, opts BulkExportOpts) (*BulkExportResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	if len(ids) == 0 {
		sendProgress(prog, fetchingCatalogUpdate(1, 1))
		movies, err := e.catalog.Movies(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list catalog: %w", err)
		}
		for _, m := range movies {
			ids = append(ids, m.ID)
		}
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("moovie_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		ExportID:        uuid.NewString(),
		TotalMovies:     len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]MovieExportResult, 0, len(ids)),
		StartedAt:       time.Now().UTC(),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan MovieExportJob, len(ids))
	results := make(chan MovieExportResult, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, movieID := range ids {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if err := limiter.Wait(ctx); err != nil {
				return
			}

			sendProgress(prog, fetchingMovieUpdate(i+1, len(ids), movieID))
			movie, err := e.catalog.Movie(ctx, movieID)
			if err != nil {
				results <- MovieExportResult{
					MovieID: movieID,
					Title:   fmt.Sprintf("Unknown (%s)", movieID),
					Error:   fmt.Errorf("failed to fetch movie: %w", err),
				}
				continue
			}

			jobs <- MovieExportJob{MovieID: movieID, Movie: movie}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		if res.Error != nil {
			res.ErrorMessage = res.Error.Error()
		}
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			sendProgress(prog, exportCompletedUpdate(completed, len(ids), res.Title, len(res.Files)))
		} else {
			result.FailedExports++
			sendProgress(prog, exportFailedUpdate(completed, len(ids), res.Title, res.Error))
		}
	}
	result.CompletedAt = time.Now().UTC()

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("export interrupted: %w", err)
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	sendProgress(prog, manifestUpdate(manifestPath))
	result.ManifestPath = manifestPath
	if err := formatter.WriteBulkExportManifest(result, opts.Format, manifestPath); err != nil {
		result.ManifestPath = ""
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	return result, nil
}

// exportWorker is a worker goroutine that writes movies from the jobs channel.
func (e *Engine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan MovieExportJob,
	results chan<- MovieExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- e.exportSingleMovie(job, opts)
	}
}

// exportSingleMovie writes one movie in the requested format.
func (e *Engine) exportSingleMovie(j MovieExportJob, opts BulkExportOpts) MovieExportResult {
	result := MovieExportResult{
		MovieID: j.MovieID,
		Title:   j.Movie.Title,
		Files:   []string{},
	}

	name, err := formatter.FileName(j.Movie.ID)
	if err != nil {
		result.Error = err
		return result
	}

	switch opts.Format {
	case "csv":
		base := filepath.Join(opts.OutputDir, name)
		csvRes, err := formatter.WriteCSVExport(j.Movie, base)
		if err != nil {
			result.Error = fmt.Errorf("CSV export failed: %w", err)
			return result
		}
		result.Files = []string{csvRes.CommentsFile, csvRes.MetadataFile}

	case "markdown":
		outputDir := filepath.Join(opts.OutputDir, name)

		var imageURL string
		if opts.Posters && j.Movie.Image != "" {
			imageURL = j.Movie.PosterURL(e.baseURL)
		}

		mdRes, err := formatter.WriteMarkdownExport(j.Movie, outputDir, imageURL)
		if err != nil {
			result.Error = fmt.Errorf("markdown export failed: %w", err)
			return result
		}
		result.Files = mdRes.Files

	case "txt":
		txtPath := filepath.Join(opts.OutputDir, name+"_comments.txt")
		path, err := formatter.WriteTextExport(j.Movie, txtPath)
		if err != nil {
			result.Error = fmt.Errorf("text export failed: %w", err)
			return result
		}
		result.Files = []string{path}

	case "json":
		fallthrough
	default:
		jsonPath := filepath.Join(opts.OutputDir, name+".json")
		data, err := shared.MarshalJSON(j.Movie, true)
		if err != nil {
			result.Error = fmt.Errorf("JSON marshal failed: %w", err)
			return result
		}
		if err := os.WriteFile(jsonPath, data, 0644); err != nil {
			result.Error = fmt.Errorf("JSON write failed: %w", err)
			return result
		}
		result.Files = []string{jsonPath}
	}

	result.Success = true
	return result
}
