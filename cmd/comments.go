package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/moovie/internal/formatter"
	"github.com/desertthunder/moovie/internal/models"
	"github.com/desertthunder/moovie/internal/shared"
	"github.com/urfave/cli/v3"
)

// CommentsList prints a movie's comments, marking the viewer's own.
func (r *Runner) CommentsList(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "movie")
	if err != nil {
		return err
	}

	movie, err := r.catalog.Movie(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(movie.Comments, cmd.Bool("pretty"))
	}
	r.writePlainHeader(movie.Title)
	r.printComments(movie, r.viewer())
	return nil
}

// CommentsPost validates and posts a comment under the viewer's display name.
// Anonymous viewers post as [models.AnonymousAuthor].
func (r *Runner) CommentsPost(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "movie")
	if err != nil {
		return err
	}

	in := models.CommentInput{
		User:   r.viewer().AuthorName(),
		Text:   cmd.String("text"),
		Rating: int(cmd.Int("rating")),
	}
	if err := models.ValidateComment(&in); err != nil {
		return err
	}

	movie, err := r.catalog.PostComment(ctx, id, in)
	if err != nil {
		return err
	}

	r.logger.Info("comment posted", "movie", id, "rating", in.Rating)
	return r.writePlain("✓ Comment posted. %s now has %d comments (%s)\n",
		movie.Title, len(movie.Comments), formatter.FormatRating(movie.Rating))
}

// CommentsDelete deletes one of the viewer's comments. Comments by anyone else are refused
// before a request is sent.
func (r *Runner) CommentsDelete(ctx context.Context, cmd *cli.Command) error {
	movieID, err := idArg(cmd, "movie")
	if err != nil {
		return err
	}
	commentID, err := idArg(cmd, "comment")
	if err != nil {
		return err
	}

	movie, err := r.catalog.Movie(ctx, movieID)
	if err != nil {
		return err
	}

	c, ok := movie.FindComment(commentID)
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrCommentNotFound, commentID)
	}
	if !models.CanDelete(r.viewer(), c) {
		return fmt.Errorf("%w: comment %s belongs to %s", shared.ErrForbidden, commentID, c.User)
	}

	updated, err := r.catalog.DeleteComment(ctx, movieID, commentID)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Comment deleted. %s now has %d comments\n", movie.Title, len(updated.Comments))
}
