package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/moovie/internal/models"
	"github.com/desertthunder/moovie/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgCatalogLoaded MsgKind = iota
	MsgMovieLoaded
	MsgProgressUpdate
	MsgSessionUpdated
	MsgPlaybackStarted
)

type catalogLoaded struct {
	movies []models.Movie
	err    error
}

// sessionResult carries a player session back from a command. Commands work on a copy
// of the session so the view never reads state that is being mutated.
type sessionResult struct {
	player *tasks.PlayerSession
	status string
	err    error
}

// catalogLoadedMsg is the constructor for [MsgCatalogLoaded]
func catalogLoadedMsg(movies []models.Movie, err error) Msg {
	return Msg{kind: MsgCatalogLoaded, data: catalogLoaded{movies, err}}
}

// movieLoadedMsg is the constructor for [MsgMovieLoaded]
func movieLoadedMsg(player *tasks.PlayerSession, err error) Msg {
	return Msg{kind: MsgMovieLoaded, data: sessionResult{player: player, err: err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// sessionUpdatedMsg is the constructor for [MsgSessionUpdated]
func sessionUpdatedMsg(player *tasks.PlayerSession, status string, err error) Msg {
	return Msg{kind: MsgSessionUpdated, data: sessionResult{player, status, err}}
}

// playbackStartedMsg is the constructor for [MsgPlaybackStarted]
func playbackStartedMsg(target string, err error) Msg {
	return Msg{kind: MsgPlaybackStarted, data: sessionResult{status: target, err: err}}
}
