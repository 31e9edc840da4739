package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/moovie/internal/shared"
	"github.com/urfave/cli/v3"
)

func idArg(cmd *cli.Command, name string) (string, error) {
	id := cmd.StringArg(name)
	if id == "" {
		return "", fmt.Errorf("%w: %s id", shared.ErrMissingArgument, name)
	}
	return id, nil
}

// FavoritesList prints the movies the user has marked.
func (r *Runner) FavoritesList(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.requireUser(); err != nil {
		return err
	}

	movies, unresolved, err := r.engine().Catalog().FavoriteMovies(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(movies, cmd.Bool("pretty"))
	}
	if len(movies) == 0 {
		return r.writePlain("No favorites yet. Add one with 'moovie favorites toggle <id>'.\n")
	}

	r.printMovieTable(movies)
	if unresolved > 0 {
		r.logger.Warn("some favorites could not be resolved to catalog movies", "count", unresolved)
	}
	return r.writePlainln("%d favorites", len(movies))
}

// FavoritesToggle flips a movie's membership, starting from the state the server last reported.
func (r *Runner) FavoritesToggle(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.requireUser(); err != nil {
		return err
	}
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}

	movie, err := r.catalog.Movie(ctx, id)
	if err != nil {
		return err
	}

	sync := r.engine().Favorites()
	current, err := sync.IsFavorite(ctx, id)
	if err != nil {
		return err
	}

	next, err := sync.Toggle(ctx, id, current)
	if err != nil {
		return fmt.Errorf("favorite unchanged: %w", err)
	}

	if next {
		return r.writePlain("♥ Added %s to favorites\n", movie.Title)
	}
	return r.writePlain("♡ Removed %s from favorites\n", movie.Title)
}

// FavoritesCheck reports whether a movie is in the user's favorites.
func (r *Runner) FavoritesCheck(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.requireUser(); err != nil {
		return err
	}
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}

	ok, err := r.engine().Favorites().IsFavorite(ctx, id)
	if err != nil {
		return err
	}
	if ok {
		return r.writePlain("♥ %s is a favorite\n", id)
	}
	return r.writePlain("♡ %s is not a favorite\n", id)
}
