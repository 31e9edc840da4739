package tasks

import (
	"fmt"

	"github.com/desertthunder/moovie/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchCatalog Phase = iota
	FetchMovie
	FetchFavorites
	FetchProfile
	FetchTrailers
	ResolveVideo
	ExportMovie
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case FetchCatalog:
		return "fetch_catalog"
	case FetchMovie:
		return "fetch_movie"
	case FetchFavorites:
		return "fetch_favorites"
	case FetchProfile:
		return "fetch_profile"
	case FetchTrailers:
		return "fetch_trailers"
	case ResolveVideo:
		return "resolve_video"
	case ExportMovie:
		return "export_movie"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
// A full or nil channel drops the update.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func fetchingCatalogUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCatalog,
		Step:    step,
		Total:   total,
		Message: "Fetching catalog...",
	}
}

func fetchingMovieUpdate(step, total int, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchMovie,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching movie %s...", step, total, id),
	}
}

func foundMovieUpdate(step, total int, movie *models.Movie) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchMovie,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Found movie: %s (%d comments)", movie.Title, len(movie.Comments)),
		Data:    movie,
	}
}

func operationUpdate(endpoint endpointOperation, step int, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   endpoint.phase,
		Step:    step,
		Total:   total,
		Message: endpoint.message,
	}
}

func resolvingVideoUpdate(query string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveVideo,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Searching stock video for %q...", query),
	}
}

func exportCompletedUpdate(step, total int, title string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportMovie,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, title, filesCount),
	}
}

func exportFailedUpdate(step, total int, title string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportMovie,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, title, err),
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing manifest %s", path),
	}
}
