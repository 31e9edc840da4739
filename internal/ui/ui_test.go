package ui

import (
	"context"
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/moovie/internal/models"
	"github.com/desertthunder/moovie/internal/services"
	"github.com/desertthunder/moovie/internal/tasks"
	tu "github.com/desertthunder/moovie/internal/testing"
)

type uiFixture struct {
	srv    *tu.FakeAPI
	model  *Model
	movie  *models.Movie
	opened []string
}

func newUIFixture(t *testing.T) *uiFixture {
	t.Helper()

	srv := tu.NewFakeAPI(t)
	user := models.User{FirstName: "Ana", LastName: "Díaz", Email: "ana@example.com"}
	user.ID = srv.AddUser(user)
	movie := srv.AddMovie(models.Movie{Title: "Dune", Genre: "Sci-Fi", Image: "/img/dune.png"})
	srv.AddMovie(models.Movie{Title: "Heat", Genre: "Crime"})
	srv.Videos = []models.StockVideo{tu.SampleVideo(1)}

	store := services.NewTokenStore(srv.IssueToken(t, user.ID))
	api := services.NewAPIService(srv.URL, services.NewAuthorizedClient(store, srv.Client()))

	engine := tasks.NewEngine(tasks.EngineOpts{
		Catalog:   services.NewMovieService(api),
		Media:     services.NewStockMediaService(api, nil),
		API:       api,
		BaseURL:   srv.URL,
		Favorites: tasks.NewFavoriteSync(services.NewFavoritesService(api), user.ID, tasks.FavoriteSyncOpts{}),
		Viewer:    models.ViewerOf(&user),
	})

	f := &uiFixture{srv: srv, movie: movie}
	f.model = NewModel(context.Background(), Options{
		Engine: engine,
		Open: func(url, player string) error {
			f.opened = append(f.opened, url)
			return nil
		},
	})
	f.model.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return f
}

// run executes cmd and feeds every resulting message back into the model until it settles.
func (f *uiFixture) run(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	for i := 0; cmd != nil; i++ {
		if i > 20 {
			t.Fatal("command chain did not settle")
		}
		msg := cmd()
		if _, ok := msg.(Msg); !ok {
			return
		}
		_, cmd = f.model.Update(msg)
	}
}

func (f *uiFixture) press(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		_, cmd := f.model.Update(msg)
		f.run(t, cmd)
	}
}

func (f *uiFixture) openFirstMovie(t *testing.T) {
	t.Helper()
	f.run(t, f.model.Init())
	f.press(t, "enter")
	if f.model.view != PlayerView {
		t.Fatalf("expected player view, got %d (err=%v)", f.model.view, f.model.err)
	}
}

func TestModel_Catalog(t *testing.T) {
	f := newUIFixture(t)
	f.run(t, f.model.Init())

	if got := len(f.model.movieList.Items()); got != 2 {
		t.Fatalf("expected 2 movies, got %d", got)
	}
	if !strings.Contains(f.model.View(), "Dune") {
		t.Error("catalog should list Dune")
	}
}

func TestModel_Catalog_Error(t *testing.T) {
	f := newUIFixture(t)
	f.srv.Fail("GET /api/movies", 500)
	f.run(t, f.model.Init())

	if f.model.err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(f.model.View(), "Press r to reload") {
		t.Error("error view should offer reload")
	}

	f.srv.Fail("GET /api/movies", 0)
	f.press(t, "r")
	if f.model.err != nil || len(f.model.movieList.Items()) != 2 {
		t.Errorf("reload should recover, err=%v", f.model.err)
	}
}

func TestModel_Player(t *testing.T) {
	t.Run("Open movie", func(t *testing.T) {
		f := newUIFixture(t)
		f.openFirstMovie(t)

		view := f.model.View()
		if !strings.Contains(view, "Dune") || !strings.Contains(view, "https://cdn.example/1-hd.mp4") {
			t.Errorf("unexpected player view:\n%s", view)
		}
		if !strings.Contains(view, "No comments yet.") {
			t.Error("expected empty comment notice")
		}
	})

	t.Run("Toggle favorite", func(t *testing.T) {
		f := newUIFixture(t)
		f.openFirstMovie(t)
		userID := f.model.engine.Favorites().UserID()

		f.press(t, "f")
		if !f.model.player.Favorite {
			t.Fatal("expected favorite after toggle")
		}
		if !slices.Contains(f.srv.FavoriteIDs(userID), f.movie.ID) {
			t.Error("server should store the favorite")
		}
		if m, ok := f.model.catalog.Find(f.movie.ID); !ok || !m.Favorite {
			t.Error("catalog flag should follow the toggle")
		}

		f.press(t, "f")
		if f.model.player.Favorite {
			t.Error("second toggle should clear the flag")
		}
	})

	t.Run("Failed toggle keeps flag", func(t *testing.T) {
		f := newUIFixture(t)
		f.openFirstMovie(t)
		userID := f.model.engine.Favorites().UserID()
		f.srv.Fail("PATCH /api/users/"+userID+"/favorites/"+f.movie.ID, 500)

		f.press(t, "f")
		if f.model.player.Favorite {
			t.Error("flag should be unchanged")
		}
		if f.model.status == "" {
			t.Error("expected an error status")
		}
	})

	t.Run("Post and delete comment", func(t *testing.T) {
		f := newUIFixture(t)
		f.openFirstMovie(t)
		video := f.model.player.VideoURL()

		f.press(t, "c")
		if f.model.view != ComposeView {
			t.Fatalf("expected compose view, got %d", f.model.view)
		}
		f.press(t, "G", "r", "e", "a", "t", "tab", "enter")

		if f.model.view != PlayerView {
			t.Fatalf("expected player view, got %d", f.model.view)
		}
		comments := f.model.player.Movie.Comments
		if len(comments) != 1 || comments[0].Text != "Great" || comments[0].Rating != 1 {
			t.Fatalf("unexpected comments %+v", comments)
		}
		if comments[0].User != "Ana Díaz" {
			t.Errorf("unexpected author %q", comments[0].User)
		}
		if f.model.player.VideoURL() != video {
			t.Error("video should survive the update")
		}

		f.press(t, "d")
		if f.model.view != ConfirmDeleteView {
			t.Fatalf("expected confirm view, got %d", f.model.view)
		}
		f.press(t, "y")
		if len(f.model.player.Movie.Comments) != 0 {
			t.Error("comment should be deleted")
		}
	})

	t.Run("Blank comment is not sent", func(t *testing.T) {
		f := newUIFixture(t)
		f.openFirstMovie(t)
		f.srv.ResetCalls()

		f.press(t, "c", " ", "enter")
		if f.model.view != ComposeView {
			t.Error("should stay in compose view")
		}
		if f.srv.CallCount("POST /api/movies/"+f.movie.ID+"/comments") != 0 {
			t.Error("no request should be sent")
		}
	})

	t.Run("Play", func(t *testing.T) {
		f := newUIFixture(t)
		f.openFirstMovie(t)

		f.press(t, "p")
		if len(f.opened) != 1 || f.opened[0] != "https://cdn.example/1-hd.mp4" {
			t.Errorf("unexpected opened %v", f.opened)
		}
	})

	t.Run("Play falls back to the poster", func(t *testing.T) {
		f := newUIFixture(t)
		f.srv.Videos = nil
		f.openFirstMovie(t)

		if !strings.Contains(f.model.View(), "Video not available") {
			t.Error("expected poster notice")
		}
		f.press(t, "p")
		if len(f.opened) != 1 || f.opened[0] != f.srv.URL+"/img/dune.png" {
			t.Errorf("unexpected opened %v", f.opened)
		}
	})

	t.Run("Back to catalog", func(t *testing.T) {
		f := newUIFixture(t)
		f.openFirstMovie(t)
		f.press(t, "esc")
		if f.model.view != CatalogView {
			t.Errorf("expected catalog view, got %d", f.model.view)
		}
	})
}
