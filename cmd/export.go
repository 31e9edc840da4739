package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/desertthunder/moovie/internal/shared"
	"github.com/desertthunder/moovie/internal/tasks"
	"github.com/urfave/cli/v3"
)

var exportFormats = []string{"json", "csv", "markdown", "txt"}

// Export writes movies (all of them when no ids are given) with their comments to disk.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.Args().Slice()
	opts := tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate"),
		Posters:    cmd.Bool("posters"),
	}

	if !slices.Contains(exportFormats, opts.Format) {
		return fmt.Errorf("%w: --format must be one of %v", shared.ErrInvalidFlag, exportFormats)
	}

	r.logger.Info("exporting movies", "count", len(ids), "format", opts.Format)

	progress := make(chan tasks.ProgressUpdate, 100)
	done := r.printProgress(progress)
	result, err := r.engine().BulkExport(ctx, progress, ids, opts)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlainln("✓ Exported %d/%d movies to %s", result.SuccessfulExports, result.TotalMovies, result.OutputDirectory)
	if result.FailedExports > 0 {
		r.writePlain("✗ %d failed:\n", result.FailedExports)
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  %s: %s\n", res.MovieID, res.ErrorMessage)
			}
		}
	}
	return r.writePlain("Manifest: %s\n", result.ManifestPath)
}
