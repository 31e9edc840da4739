package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/moovie/internal/formatter"
	"github.com/desertthunder/moovie/internal/models"
)

var (
	_ list.Item = movieItem{}
	_ list.Item = commentItem{}
)

// movieItem wraps [models.Movie] to implement [list.Item].
type movieItem struct {
	movie models.Movie
}

func (i movieItem) FilterValue() string { return i.movie.Title + " " + i.movie.Genre }
func (i movieItem) Title() string {
	if i.movie.Favorite {
		return "♥ " + i.movie.Title
	}
	return i.movie.Title
}
func (i movieItem) Description() string {
	desc := fmt.Sprintf("%s %s", formatter.Stars(i.movie.Rating), formatter.FormatRating(i.movie.Rating))
	if i.movie.Genre != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.movie.Genre)
	}
	return fmt.Sprintf("%s • %d comments", desc, len(i.movie.Comments))
}

// commentItem wraps [models.Comment] to implement [list.Item].
type commentItem struct {
	comment models.Comment
	own     bool
}

func (i commentItem) FilterValue() string { return i.comment.Text }
func (i commentItem) Title() string {
	title := fmt.Sprintf("%s %s", i.comment.User, formatter.Stars(float64(i.comment.Rating)))
	if i.own {
		title += " (you)"
	}
	return title
}
func (i commentItem) Description() string { return i.comment.Text }

func movieItems(movies []models.Movie) []list.Item {
	items := make([]list.Item, len(movies))
	for i, m := range movies {
		items[i] = movieItem{movie: m}
	}
	return items
}

func commentItems(movie *models.Movie, viewer models.Viewer) []list.Item {
	items := make([]list.Item, len(movie.Comments))
	for i, c := range movie.Comments {
		items[i] = commentItem{comment: c, own: models.CanDelete(viewer, c)}
	}
	return items
}
