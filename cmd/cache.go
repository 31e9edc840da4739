package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/moovie/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) requireCache() error {
	if !r.openCache() {
		return fmt.Errorf("%w: cache database unavailable, run 'moovie setup database'", shared.ErrServiceUnavailable)
	}
	return nil
}

// CacheStatus prints how much the local cache holds.
func (r *Runner) CacheStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCache(); err != nil {
		return err
	}

	movies, err := r.movies.Count()
	if err != nil {
		return err
	}
	users, err := r.faves.Users()
	if err != nil {
		return err
	}

	r.writePlainHeader("Cache: " + r.config.Database.Path)
	r.writePlain("Movies:          %d\n", movies)
	r.writePlain("Favorite sets:   %d\n", users)
	if ttl := r.config.Cache.TTL(); ttl > 0 {
		r.writePlain("Favorites TTL:   %s\n", ttl)
	} else {
		r.writePlain("Favorites TTL:   disabled\n")
	}
	return nil
}

// CacheClear empties cached movies, favorites or both.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCache(); err != nil {
		return err
	}

	onlyMovies, onlyFaves := cmd.Bool("movies"), cmd.Bool("favorites")
	all := !onlyMovies && !onlyFaves

	if all || onlyMovies {
		if err := r.movies.Clear(); err != nil {
			return err
		}
		r.logger.Info("cleared cached movies")
	}
	if all || onlyFaves {
		if err := r.faves.Clear(); err != nil {
			return err
		}
		r.logger.Info("cleared cached favorites")
	}
	return r.writePlain("✓ Cache cleared\n")
}
