package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/moovie/internal/formatter"
	"github.com/desertthunder/moovie/internal/models"
	"github.com/desertthunder/moovie/internal/shared"
	"github.com/desertthunder/moovie/internal/tasks"
	"github.com/urfave/cli/v3"
)

// MoviesList prints the catalog, optionally filtered, from the API or the local cache.
func (r *Runner) MoviesList(ctx context.Context, cmd *cli.Command) error {
	genre := cmd.String("genre")
	query := cmd.String("query")

	catalog := r.engine().Catalog()

	var movies []models.Movie
	var err error
	if cmd.Bool("cached") {
		movies, err = catalog.LoadCached(genre, query)
		if err != nil {
			return err
		}
	} else {
		if _, err = catalog.Load(ctx, nil); err != nil {
			return err
		}
		movies = catalog.Filter(genre, query)
	}

	if cmd.Bool("favorites") {
		if _, err := r.requireUser(); err != nil {
			return err
		}
		movies = onlyFavorites(movies)
	}

	if path := cmd.String("csv"); path != "" {
		data, err := formatter.ExportCatalogCSV(movies)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}
		r.logger.Info("catalog exported", "file", path, "movies", len(movies))
	}

	if cmd.Bool("json") {
		return r.writeJSON(movies, cmd.Bool("pretty"))
	}

	if len(movies) == 0 {
		return r.writePlain("No movies found\n")
	}
	r.printMovieTable(movies)
	return r.writePlainln("%d movies", len(movies))
}

func onlyFavorites(movies []models.Movie) []models.Movie {
	out := []models.Movie{}
	for _, m := range movies {
		if m.Favorite {
			out = append(out, m)
		}
	}
	return out
}

func (r *Runner) printMovieTable(movies []models.Movie) {
	for _, m := range movies {
		mark := " "
		if m.Favorite {
			mark = "♥"
		}
		title := m.Title
		if title == "" {
			title = "(unavailable)"
		}
		r.writePlain("%s %-26s %-24s %-12s %s\n", mark, m.ID, truncate(title, 24), truncate(m.Genre, 12), formatter.Stars(m.Rating))
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

// MoviesShow prints one movie with its subtitles and comments.
func (r *Runner) MoviesShow(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}

	if cmd.Bool("cached") {
		return r.showCached(cmd, id)
	}

	movie, err := r.catalog.Movie(ctx, id)
	if errors.Is(err, shared.ErrMovieNotFound) && r.openCache() {
		if derr := r.movies.Delete(id); derr == nil {
			r.logger.Debug("dropped stale cached movie", "id", id)
		}
		return err
	} else if err != nil {
		return err
	}

	if cmd.Bool("save") {
		if err := r.saveJSON(id+".json", movie); err != nil {
			r.logger.Warn("failed to save movie", "error", err)
		}
	}
	if cmd.Bool("json") {
		return r.writeJSON(movie, cmd.Bool("pretty"))
	}

	r.printMovie(movie, r.viewer())
	return nil
}

func (r *Runner) showCached(cmd *cli.Command, id string) error {
	if err := r.requireCache(); err != nil {
		return err
	}

	movie, err := r.movies.Get(id)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(movie, cmd.Bool("pretty"))
	}

	r.printMovie(movie, r.viewer())
	if at, err := r.movies.FetchedAt(id); err == nil {
		r.writePlain("\n(cached %s)\n", at.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func (r *Runner) printMovie(movie *models.Movie, viewer models.Viewer) {
	base := r.api.BaseURL()

	r.writePlainHeader(movie.Title)
	r.writePlain("ID:      %s\n", movie.ID)
	if movie.Genre != "" {
		r.writePlain("Genre:   %s\n", movie.Genre)
	}
	r.writePlain("Rating:  %s %s\n", formatter.Stars(movie.Rating), formatter.FormatRating(movie.Rating))
	r.writePlain("Poster:  %s\n", movie.PosterURL(base))
	if desc := strings.TrimSpace(movie.Description); desc != "" {
		r.writePlainln("%s", desc)
	}

	if subs := movie.SubtitleURLs(base); len(subs) > 0 {
		r.writePlainln("Subtitles:")
		for _, s := range subs {
			r.writePlain("  %-4s %s\n", s.Lang, s.Src)
		}
	}
	r.printComments(movie, viewer)
}

func (r *Runner) printComments(movie *models.Movie, viewer models.Viewer) {
	if len(movie.Comments) == 0 {
		r.writePlainln("No comments yet.")
		return
	}

	r.writePlainln("Comments (%d):", len(movie.Comments))
	for _, c := range movie.Comments {
		own := ""
		if models.CanDelete(viewer, c) {
			own = " (you)"
		}
		r.writePlain("  [%s] %s %s%s\n", c.ID, c.User, formatter.Stars(float64(c.Rating)), own)
		r.writePlain("      %s\n", c.Text)
	}
}

// MoviesGenres lists distinct genres.
func (r *Runner) MoviesGenres(ctx context.Context, cmd *cli.Command) error {
	catalog := r.engine().Catalog()
	if _, err := catalog.Load(ctx, nil); err != nil {
		return err
	}

	genres := catalog.Genres()
	if cmd.Bool("json") {
		return r.writeJSON(genres, cmd.Bool("pretty"))
	}

	groups := models.GroupByGenre(catalog.Movies())
	for _, g := range genres {
		r.writePlain("%-20s %d\n", g, len(groups[g]))
	}
	return nil
}

// Play loads a movie into a player session, prints the resolved source and optionally opens it.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}

	player := r.engine().Player()
	if cmd.Bool("json") {
		err = player.Load(ctx, id, nil)
	} else {
		progress := make(chan tasks.ProgressUpdate, 10)
		done := r.printProgress(progress)
		err = player.Load(ctx, id, progress)
		close(progress)
		<-done
	}
	if err != nil {
		return err
	}

	target := player.VideoURL()
	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"movie":     player.Movie,
			"videoUrl":  target,
			"poster":    player.PosterURL(),
			"favorite":  player.Favorite,
			"subtitles": player.Subtitles(),
		}, cmd.Bool("pretty"))
	}

	r.printMovie(player.Movie, player.Viewer())
	if player.Favorite {
		r.writePlain("♥ In your favorites\n")
	}
	if player.VideoUnavailable() {
		r.logger.Warn("video not available, showing poster", "movie", id, "reason", player.VideoErr)
		target = player.PosterURL()
		r.writePlainln("Video not available. Poster: %s", target)
	} else {
		r.writePlainln("▶ %s", target)
	}

	if !cmd.Bool("open") {
		return nil
	}
	if err := r.open(target, cmd.String("player")); err != nil {
		return err
	}
	return r.writePlain("✓ Opened\n")
}
