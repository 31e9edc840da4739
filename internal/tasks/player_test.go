package tasks

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/moovie/internal/models"
	"github.com/desertthunder/moovie/internal/shared"
	tu "github.com/desertthunder/moovie/internal/testing"
)

const testBaseURL = "http://api.test"

type playerFixture struct {
	catalog *mockCatalog
	media   *mockMedia
	favs    *mockFavorites
	player  *PlayerSession
}

func newPlayerFixture(viewer models.Viewer) *playerFixture {
	f := &playerFixture{
		catalog: newMockCatalog(sampleMovies()...),
		media:   &mockMedia{videos: []models.StockVideo{tu.SampleVideo(7)}},
		favs:    &mockFavorites{},
	}

	var favorites *FavoriteSync
	if viewer.ID != "" {
		favorites = NewFavoriteSync(f.favs, viewer.ID, FavoriteSyncOpts{})
	}
	f.player = NewPlayerSession(PlayerOpts{
		Catalog:   f.catalog,
		Media:     f.media,
		Favorites: favorites,
		Viewer:    viewer,
		BaseURL:   testBaseURL,
	})
	return f
}

var ana = models.Viewer{ID: "u1", Name: "Ana Díaz"}

func TestPlayerSession_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("Resolves stock video and favorite flag", func(t *testing.T) {
		f := newPlayerFixture(ana)
		f.favs.ids = []string{"m1"}

		progress := make(chan ProgressUpdate, 10)
		if err := f.player.Load(ctx, "m1", progress); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		close(progress)

		if got := f.player.VideoURL(); got != "https://cdn.example/7-hd.mp4" {
			t.Errorf("unexpected video %q", got)
		}
		if f.player.VideoErr != nil || f.player.VideoUnavailable() {
			t.Errorf("video should be available, err=%v", f.player.VideoErr)
		}
		if !f.player.Favorite {
			t.Error("expected favorite flag")
		}
		if got := f.player.PosterURL(); got != testBaseURL+"/img/dune.png" {
			t.Errorf("unexpected poster %q", got)
		}

		phases := map[Phase]bool{}
		for u := range progress {
			phases[u.Phase] = true
		}
		for _, p := range []Phase{FetchMovie, ResolveVideo, FetchFavorites} {
			if !phases[p] {
				t.Errorf("missing %s progress", p)
			}
		}
	})

	t.Run("Falls back to the movie's own video", func(t *testing.T) {
		f := newPlayerFixture(ana)
		f.media.err = shared.ErrServiceUnavailable

		if err := f.player.Load(ctx, "m1", nil); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if got := f.player.VideoURL(); got != testBaseURL+"/videos/dune.mp4" {
			t.Errorf("unexpected fallback %q", got)
		}
		if f.player.VideoErr != nil {
			t.Errorf("fallback should clear VideoErr, got %v", f.player.VideoErr)
		}
	})

	t.Run("Poster when no video", func(t *testing.T) {
		logger, buf := bufLogger()
		f := newPlayerFixture(ana)
		f.media.videos = nil
		f.player.logger = logger

		if err := f.player.Load(ctx, "m2", nil); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if !f.player.VideoUnavailable() {
			t.Error("expected video to be unavailable")
		}
		if !errors.Is(f.player.VideoErr, shared.ErrVideoUnavailable) {
			t.Errorf("expected ErrVideoUnavailable, got %v", f.player.VideoErr)
		}
		if got := f.player.PosterURL(); got != shared.DefaultPoster {
			t.Errorf("expected default poster, got %q", got)
		}
		if !strings.Contains(buf.String(), "video not available") {
			t.Errorf("expected warning, got %q", buf.String())
		}
	})

	t.Run("No media client", func(t *testing.T) {
		f := newPlayerFixture(ana)
		f.player.media = nil

		if err := f.player.Load(ctx, "m3", nil); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if !errors.Is(f.player.VideoErr, shared.ErrVideoUnavailable) {
			t.Errorf("expected ErrVideoUnavailable, got %v", f.player.VideoErr)
		}
	})

	t.Run("Favorites failure leaves flag off", func(t *testing.T) {
		f := newPlayerFixture(ana)
		f.favs.ids = []string{"m1"}
		f.favs.listErr = shared.ErrServiceUnavailable

		if err := f.player.Load(ctx, "m1", nil); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if f.player.Favorite {
			t.Error("flag should be off")
		}
	})

	t.Run("Unknown movie", func(t *testing.T) {
		f := newPlayerFixture(ana)
		err := f.player.Load(ctx, "nope", nil)
		if !errors.Is(err, shared.ErrMovieNotFound) {
			t.Errorf("expected ErrMovieNotFound, got %v", err)
		}
		if f.player.VideoURL() != "" || f.player.Subtitles() != nil {
			t.Error("empty session should expose nothing")
		}
	})

	t.Run("Subtitles resolve against the base URL", func(t *testing.T) {
		f := newPlayerFixture(ana)
		f.catalog.movies["m2"].Subtitles = []models.Subtitle{{Lang: "es", Label: "Español", Src: "/subs/heat.vtt", Default: true}}

		if err := f.player.Load(ctx, "m2", nil); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		subs := f.player.Subtitles()
		if len(subs) != 1 || subs[0].Src != testBaseURL+"/subs/heat.vtt" {
			t.Errorf("unexpected subtitles %+v", subs)
		}
	})
}

func TestPlayerSession_Favorites(t *testing.T) {
	ctx := context.Background()

	t.Run("Toggle twice", func(t *testing.T) {
		f := newPlayerFixture(ana)
		if err := f.player.Load(ctx, "m1", nil); err != nil {
			t.Fatalf("Load failed: %v", err)
		}

		if err := f.player.ToggleFavorite(ctx); err != nil || !f.player.Favorite {
			t.Fatalf("first toggle: favorite=%v err=%v", f.player.Favorite, err)
		}
		if err := f.player.ToggleFavorite(ctx); err != nil || f.player.Favorite {
			t.Fatalf("second toggle: favorite=%v err=%v", f.player.Favorite, err)
		}
		if f.favs.toggles != 2 {
			t.Errorf("expected 2 toggles, got %d", f.favs.toggles)
		}
	})

	t.Run("Failure keeps the flag", func(t *testing.T) {
		f := newPlayerFixture(ana)
		f.favs.ids = []string{"m1"}
		if err := f.player.Load(ctx, "m1", nil); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		f.favs.toggleErr = shared.ErrServiceUnavailable

		if err := f.player.ToggleFavorite(ctx); err == nil {
			t.Fatal("expected error")
		}
		if !f.player.Favorite {
			t.Error("flag should be unchanged")
		}
	})

	t.Run("Anonymous viewer", func(t *testing.T) {
		f := newPlayerFixture(models.Viewer{})
		if err := f.player.Load(ctx, "m1", nil); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if err := f.player.ToggleFavorite(ctx); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Before load", func(t *testing.T) {
		f := newPlayerFixture(ana)
		if err := f.player.ToggleFavorite(ctx); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestPlayerSession_Comments(t *testing.T) {
	ctx := context.Background()

	load := func(t *testing.T, viewer models.Viewer) *playerFixture {
		t.Helper()
		f := newPlayerFixture(viewer)
		f.catalog.movies["m1"].Comments = []models.Comment{
			{ID: "c-ana", UserID: "u1", User: "Ana Díaz", Text: "Great", Rating: 5},
			{ID: "c-bob", UserID: "u2", User: "Bob", Text: "Meh", Rating: 2},
		}
		if err := f.player.Load(ctx, "m1", nil); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		return f
	}

	t.Run("Post keeps the playing video", func(t *testing.T) {
		f := load(t, ana)
		video := f.player.VideoURL()

		if err := f.player.PostComment(ctx, "  Loved it  ", 4); err != nil {
			t.Fatalf("PostComment failed: %v", err)
		}
		if f.player.VideoURL() != video {
			t.Errorf("video changed to %q", f.player.VideoURL())
		}
		if len(f.player.Movie.Comments) != 3 {
			t.Fatalf("expected 3 comments, got %d", len(f.player.Movie.Comments))
		}
		if f.catalog.lastPost != (models.CommentInput{User: "Ana Díaz", Text: "Loved it", Rating: 4}) {
			t.Errorf("unexpected body %+v", f.catalog.lastPost)
		}
	})

	t.Run("Anonymous posts under the default name", func(t *testing.T) {
		f := load(t, models.Viewer{})
		if err := f.player.PostComment(ctx, "ok", 3); err != nil {
			t.Fatalf("PostComment failed: %v", err)
		}
		if f.catalog.lastPost.User != models.AnonymousAuthor {
			t.Errorf("expected %q, got %q", models.AnonymousAuthor, f.catalog.lastPost.User)
		}
	})

	t.Run("Invalid input is not sent", func(t *testing.T) {
		tests := []struct {
			name   string
			text   string
			rating int
		}{
			{"rating too high", "fine", 6},
			{"rating zero", "fine", 0},
			{"blank text", "   ", 3},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := load(t, ana)
				err := f.player.PostComment(ctx, tt.text, tt.rating)
				if !errors.Is(err, shared.ErrValidation) {
					t.Errorf("expected ErrValidation, got %v", err)
				}
				if f.catalog.posts != 0 {
					t.Errorf("expected no request, got %d", f.catalog.posts)
				}
				if len(f.player.Movie.Comments) != 2 {
					t.Error("movie should be unchanged")
				}
			})
		}
	})

	t.Run("Server failure leaves movie unchanged", func(t *testing.T) {
		f := load(t, ana)
		f.catalog.postErr = shared.ErrServiceUnavailable
		if err := f.player.PostComment(ctx, "hi", 3); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
		if len(f.player.Movie.Comments) != 2 {
			t.Error("movie should be unchanged")
		}
	})

	t.Run("Delete own comment", func(t *testing.T) {
		f := load(t, ana)
		video := f.player.VideoURL()

		c, _ := f.player.Movie.FindComment("c-ana")
		if !f.player.CanDelete(c) {
			t.Fatal("viewer should be able to delete own comment")
		}
		if err := f.player.DeleteComment(ctx, "c-ana"); err != nil {
			t.Fatalf("DeleteComment failed: %v", err)
		}
		if _, ok := f.player.Movie.FindComment("c-ana"); ok {
			t.Error("comment should be gone")
		}
		if f.player.VideoURL() != video {
			t.Error("video should survive the update")
		}
	})

	t.Run("Delete someone else's comment", func(t *testing.T) {
		f := load(t, ana)
		if err := f.player.DeleteComment(ctx, "c-bob"); !errors.Is(err, shared.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
		if f.catalog.deletes != 0 {
			t.Error("no request should be sent")
		}
	})

	t.Run("Delete unknown comment", func(t *testing.T) {
		f := load(t, ana)
		if err := f.player.DeleteComment(ctx, "c-none"); !errors.Is(err, shared.ErrCommentNotFound) {
			t.Errorf("expected ErrCommentNotFound, got %v", err)
		}
	})

	t.Run("Anonymous cannot delete", func(t *testing.T) {
		f := load(t, models.Viewer{})
		if err := f.player.DeleteComment(ctx, "c-ana"); !errors.Is(err, shared.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})
}
