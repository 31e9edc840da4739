package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/moovie/internal/formatter"
	"github.com/desertthunder/moovie/internal/models"
	"github.com/desertthunder/moovie/internal/shared"
	"github.com/desertthunder/moovie/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	CatalogView ViewState = iota
	LoadingView
	PlayerView
	ComposeView
	ConfirmDeleteView
)

// Options configures a [Model].
type Options struct {
	Engine      *tasks.Engine
	MediaPlayer string // external player command; empty opens the system handler
	Open        func(url, player string) error
}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	view        ViewState
	engine      *tasks.Engine
	catalog     *tasks.Catalog
	player      *tasks.PlayerSession
	mediaPlayer string
	open        func(url, player string) error
	width       int
	height      int
	movieList   list.Model
	commentList list.Model
	input       textinput.Model
	rating      int
	wait        tea.Cmd
	progress    tasks.ProgressUpdate
	busy        bool
	status      string
	err         error
	help        help.Model
	keys        keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	if opts.Open == nil {
		opts.Open = shared.OpenMedia
	}

	input := textinput.New()
	input.Placeholder = "Write a comment..."
	input.CharLimit = 500

	m := &Model{
		ctx:         ctx,
		view:        CatalogView,
		engine:      opts.Engine,
		catalog:     opts.Engine.Catalog(),
		mediaPlayer: opts.MediaPlayer,
		open:        opts.Open,
		movieList:   list.New(nil, list.NewDefaultDelegate(), 0, 0),
		commentList: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		input:       input,
		rating:      5,
		help:        help.New(),
		keys:        newKeyMap(),
	}
	m.movieList.Title = "Moovie"
	m.commentList.Title = "Comments"
	m.commentList.SetFilteringEnabled(false)
	m.commentList.SetShowHelp(false)
	return m
}

// Init initializes the TUI by fetching the catalog.
func (m *Model) Init() tea.Cmd {
	return m.fetchCatalog()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.movieList.SetSize(msg.Width-4, msg.Height-4)
		m.commentList.SetSize(msg.Width-4, max(msg.Height/2-4, 4))
		m.input.Width = max(msg.Width-10, 20)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case CatalogView:
			return m.handleCatalogKeys(msg)
		case PlayerView:
			return m.handlePlayerKeys(msg)
		case ComposeView:
			return m.handleComposeKeys(msg)
		case ConfirmDeleteView:
			return m.handleConfirmKeys(msg)
		case LoadingView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgCatalogLoaded:
		data := msg.data.(catalogLoaded)
		m.busy = false
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.err = nil
		cmd := m.movieList.SetItems(movieItems(data.movies))
		return m, cmd

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.wait

	case MsgMovieLoaded:
		data := msg.data.(sessionResult)
		m.wait = nil
		if data.err != nil {
			m.err = data.err
			m.view = CatalogView
			return m, nil
		}
		m.err = nil
		m.status = ""
		m.setPlayer(data.player)
		m.view = PlayerView
		return m, nil

	case MsgSessionUpdated:
		data := msg.data.(sessionResult)
		m.busy = false
		if data.err != nil {
			m.status = styles.err.Render(data.err.Error())
			return m, nil
		}
		m.status = styles.ok.Render(data.status)
		m.setPlayer(data.player)
		return m, nil

	case MsgPlaybackStarted:
		data := msg.data.(sessionResult)
		if data.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Playback failed: %v", data.err))
		} else {
			m.status = styles.ok.Render("Opened " + data.status)
		}
		return m, nil
	}
	return m, nil
}

// setPlayer adopts a session and mirrors its favorite flag into the catalog list.
func (m *Model) setPlayer(p *tasks.PlayerSession) {
	m.player = p
	if p == nil || p.Movie == nil {
		return
	}
	m.commentList.SetItems(commentItems(p.Movie, p.Viewer()))
	m.catalog.SetFavorite(p.Movie.ID, p.Favorite)
	m.movieList.SetItems(movieItems(m.catalog.Movies()))
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view == CatalogView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress r to reload, q to quit", m.err))
	}

	switch m.view {
	case CatalogView:
		return m.renderCatalog()
	case LoadingView:
		return m.renderLoading()
	case PlayerView:
		return m.renderPlayer()
	case ComposeView:
		return m.renderCompose()
	case ConfirmDeleteView:
		return m.renderConfirm()
	default:
		return ""
	}
}

func (m *Model) handleCatalogKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.movieList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.movieList, cmd = m.movieList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.reload):
		m.err = nil
		return m, m.fetchCatalog()
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.movieList.SelectedItem().(movieItem); ok {
			m.view = LoadingView
			return m, m.loadMovie(item.movie.ID)
		}
	}

	var cmd tea.Cmd
	m.movieList, cmd = m.movieList.Update(msg)
	return m, cmd
}

func (m *Model) handlePlayerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = CatalogView
		m.status = ""
		return m, nil
	case m.busy:
		return m, nil
	case key.Matches(msg, m.keys.favorite):
		return m, m.toggleFavorite()
	case key.Matches(msg, m.keys.comment):
		m.view = ComposeView
		m.input.Reset()
		m.rating = 5
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.remove):
		if item, ok := m.commentList.SelectedItem().(commentItem); ok && item.own {
			m.view = ConfirmDeleteView
		}
		return m, nil
	case key.Matches(msg, m.keys.play):
		return m, m.play()
	}

	var cmd tea.Cmd
	m.commentList, cmd = m.commentList.Update(msg)
	return m, cmd
}

func (m *Model) handleComposeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.input.Blur()
		m.view = PlayerView
		return m, nil
	case "tab":
		m.rating = m.rating%5 + 1
		return m, nil
	case "enter":
		text := m.input.Value()
		if strings.TrimSpace(text) == "" {
			m.status = styles.warn.Render("Comment text is required")
			return m, nil
		}
		m.input.Blur()
		m.view = PlayerView
		return m, m.postComment(text, m.rating)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.view = PlayerView
		if item, ok := m.commentList.SelectedItem().(commentItem); ok {
			return m, m.deleteComment(item.comment.ID)
		}
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		m.view = PlayerView
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case CatalogView:
		m.movieList, cmd = m.movieList.Update(msg)
	case PlayerView:
		m.commentList, cmd = m.commentList.Update(msg)
	case ComposeView:
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchCatalog() tea.Cmd {
	m.busy = true
	catalog := m.catalog
	return func() tea.Msg {
		movies, err := catalog.Load(m.ctx, nil)
		return catalogLoadedMsg(movies, err)
	}
}

func (m *Model) loadMovie(movieID string) tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 10)
	done := make(chan Msg, 1)
	m.progress = tasks.ProgressUpdate{Message: "Loading..."}

	go func() {
		player := m.engine.Player()
		err := player.Load(m.ctx, movieID, progress)
		done <- movieLoadedMsg(player, err)
		close(progress)
	}()

	m.wait = relayProgress(progress, done)
	return m.wait
}

// relayProgress delivers progress updates until the channel closes, then the final message.
func relayProgress(progress <-chan tasks.ProgressUpdate, done <-chan Msg) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) toggleFavorite() tea.Cmd {
	if m.player == nil {
		return nil
	}
	m.busy = true
	p := m.player.Clone()
	return func() tea.Msg {
		err := p.ToggleFavorite(m.ctx)
		status := "Removed from favorites"
		if p.Favorite {
			status = "Added to favorites"
		}
		return sessionUpdatedMsg(p, status, err)
	}
}

func (m *Model) postComment(text string, rating int) tea.Cmd {
	if m.player == nil {
		return nil
	}
	m.busy = true
	p := m.player.Clone()
	return func() tea.Msg {
		err := p.PostComment(m.ctx, text, rating)
		return sessionUpdatedMsg(p, "Comment posted", err)
	}
}

func (m *Model) deleteComment(commentID string) tea.Cmd {
	if m.player == nil {
		return nil
	}
	m.busy = true
	p := m.player.Clone()
	return func() tea.Msg {
		err := p.DeleteComment(m.ctx, commentID)
		return sessionUpdatedMsg(p, "Comment deleted", err)
	}
}

// play opens the resolved video, or the poster when no video is available.
func (m *Model) play() tea.Cmd {
	if m.player == nil {
		return nil
	}
	target := m.player.VideoURL()
	player := m.mediaPlayer
	if target == "" {
		target = m.player.PosterURL()
		player = ""
	}
	open := m.open
	return func() tea.Msg {
		return playbackStartedMsg(target, open(target, player))
	}
}

func (m *Model) renderCatalog() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.reload, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	if m.busy && len(m.movieList.Items()) == 0 {
		return fmt.Sprintf("%s\n\n%s", styles.title.Render("Moovie"), "Fetching catalog...")
	}
	return fmt.Sprintf("%s\n\n%s", m.movieList.View(), helpView)
}

func (m *Model) renderLoading() string {
	title := styles.title.Render("Loading movie")
	return fmt.Sprintf("%s\n\n%s", title, m.progress.Message)
}

func (m *Model) renderPlayer() string {
	p := m.player
	if p == nil || p.Movie == nil {
		return styles.err.Render("No movie loaded\n\nPress esc to go back")
	}
	movie := p.Movie

	heart := "♡"
	if p.Favorite {
		heart = styles.err.Render("♥")
	}
	title := styles.title.Render(fmt.Sprintf("%s %s", movie.Title, heart))

	var info strings.Builder
	if movie.Genre != "" {
		fmt.Fprintf(&info, "Genre: %s\n", movie.Genre)
	}
	fmt.Fprintf(&info, "Rating: %s %s\n", styles.rating.Render(formatter.Stars(movie.Rating)), formatter.FormatRating(movie.Rating))
	if movie.Description != "" {
		fmt.Fprintf(&info, "\n%s\n", movie.Description)
	}

	var media string
	if p.VideoUnavailable() {
		media = styles.warn.Render("Video not available. Poster: " + p.PosterURL())
	} else {
		media = "Video: " + p.VideoURL()
	}
	for _, s := range p.Subtitles() {
		media += fmt.Sprintf("\nSubtitles: %s (%s)", s.Label, s.Lang)
	}

	helpKeys := []key.Binding{m.keys.play, m.keys.favorite, m.keys.comment}
	if item, ok := m.commentList.SelectedItem().(commentItem); ok && item.own {
		helpKeys = append(helpKeys, m.keys.remove)
	}
	helpKeys = append(helpKeys, m.keys.back, m.keys.quit)

	var comments string
	if len(movie.Comments) == 0 {
		comments = styles.help.Render("No comments yet.")
	} else {
		comments = m.commentList.View()
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		title,
		styles.panel.Render(strings.TrimRight(info.String(), "\n")),
		media,
		"",
		comments,
	)

	status := m.status
	if m.busy {
		status = styles.help.Render("Working...")
	}
	return fmt.Sprintf("%s\n%s\n\n%s", body, status, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderCompose() string {
	title := styles.title.Render("New comment")
	if m.player != nil && m.player.Movie != nil {
		title = styles.title.Render("Comment on " + m.player.Movie.Title)
	}
	author := models.AnonymousAuthor
	if m.player != nil {
		author = m.player.Viewer().AuthorName()
	}
	rating := fmt.Sprintf("Rating: %s (%d/5)", styles.rating.Render(formatter.Stars(float64(m.rating))), m.rating)

	submit := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "post"))
	helpView := m.help.ShortHelpView([]key.Binding{submit, m.keys.rating, m.keys.back})

	return fmt.Sprintf("%s\nPosting as %s\n\n%s\n%s\n%s\n\n%s", title, author, m.input.View(), rating, m.status, helpView)
}

func (m *Model) renderConfirm() string {
	item, _ := m.commentList.SelectedItem().(commentItem)
	title := styles.title.Render("Delete this comment?")
	info := fmt.Sprintf("\n%s: %s\n", item.comment.User, item.comment.Text)

	helpKeys := []key.Binding{m.keys.yes, m.keys.no}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}
