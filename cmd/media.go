package main

import (
	"context"

	"github.com/desertthunder/moovie/internal/models"
	"github.com/urfave/cli/v3"
)

// MediaVideos searches the stock-media proxy for videos.
func (r *Runner) MediaVideos(ctx context.Context, cmd *cli.Command) error {
	q := models.VideoQuery{
		Query:       cmd.String("query"),
		PerPage:     int(cmd.Int("per-page")),
		MinDuration: int(cmd.Int("min-duration")),
		MaxDuration: int(cmd.Int("max-duration")),
	}

	r.logger.Info("searching stock videos", "query", q.Query)

	videos, err := r.media.Videos(ctx, q)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(videos, cmd.Bool("pretty"))
	}
	r.printVideos(videos)
	return nil
}

func (r *Runner) printVideos(videos []models.StockVideo) {
	if len(videos) == 0 {
		r.writePlain("No videos found\n")
		return
	}
	for _, v := range videos {
		link := "(no files)"
		if f, ok := v.BestFile(); ok {
			link = f.Link
		}
		r.writePlain("%-10d %3ds  %s\n", v.ID, v.Duration, link)
	}
}

// MediaPhotos searches the stock-media proxy for photos.
func (r *Runner) MediaPhotos(ctx context.Context, cmd *cli.Command) error {
	query := cmd.String("query")
	r.logger.Info("searching stock photos", "query", query)

	photos, err := r.media.Photos(ctx, query, int(cmd.Int("per-page")))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(photos, cmd.Bool("pretty"))
	}

	if len(photos) == 0 {
		return r.writePlain("No photos found\n")
	}
	for _, p := range photos {
		r.writePlain("%-10d %-24s %s\n", p.ID, truncate(p.Photographer, 24), p.Src.Medium)
	}
	return nil
}

// MediaTrailers lists the landing-page trailers configured under [media].
// A failing proxy yields an empty list.
func (r *Runner) MediaTrailers(ctx context.Context, cmd *cli.Command) error {
	videos := r.engine().Trailers(ctx, r.config.Media, nil)
	if cmd.Bool("json") {
		return r.writeJSON(videos, cmd.Bool("pretty"))
	}
	r.printVideos(videos)
	return nil
}
