package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/desertthunder/moovie/internal/shared"
)

func TestFavorites(t *testing.T) {
	t.Run("DecodeFavorites", func(t *testing.T) {
		tt := []struct {
			name string
			body string
			want []string
		}{
			{name: "envelope of ids", body: `{"message":"ok","favorites":["m1","m2"]}`, want: []string{"m1", "m2"}},
			{name: "bare array of ids", body: `["m1"]`, want: []string{"m1"}},
			{name: "embedded objects with _id", body: `[{"_id":"m1","title":"Alien"},{"_id":"m2"}]`, want: []string{"m1", "m2"}},
			{name: "embedded objects with id", body: `{"favorites":[{"id":"m3","title":"Heat"}]}`, want: []string{"m3"}},
			{name: "mixed with nulls", body: `["m1",null,{"id":"m2"},{}]`, want: []string{"m1", "m2"}},
			{name: "empty envelope", body: `{"message":"none"}`, want: []string{}},
			{name: "empty body", body: ``, want: []string{}},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				favs, err := DecodeFavorites([]byte(tc.body))
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}

				ids := favs.IDs()
				if len(ids) != len(tc.want) {
					t.Fatalf("expected %v, got %v", tc.want, ids)
				}
				for i := range ids {
					if ids[i] != tc.want[i] {
						t.Errorf("expected %v, got %v", tc.want, ids)
					}
				}
			})
		}
	})

	t.Run("DecodeFavorites Invalid", func(t *testing.T) {
		if _, err := DecodeFavorites([]byte(`"m1"`)); err == nil {
			t.Error("expected error for scalar body")
		}
		if _, err := DecodeFavorites([]byte(`[1, 2]`)); err == nil {
			t.Error("expected error for numeric entries")
		}
	})

	t.Run("Contains", func(t *testing.T) {
		bare, _ := DecodeFavorites([]byte(`["m1","m2"]`))
		embedded, _ := DecodeFavorites([]byte(`[{"_id":"m1"},{"id":"m2"}]`))

		for name, favs := range map[string]Favorites{"bare": bare, "embedded": embedded} {
			if !favs.Contains("m2") {
				t.Errorf("%s: expected m2 to be a favorite", name)
			}
			if favs.Contains("m3") {
				t.Errorf("%s: m3 should not be a favorite", name)
			}
			if favs.Contains("") {
				t.Errorf("%s: empty id should never match", name)
			}
		}
	})

	t.Run("Embedded Movie Retained", func(t *testing.T) {
		favs, err := DecodeFavorites([]byte(`[{"_id":"m1","title":"Alien","genre":"Horror"}]`))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if favs[0].Movie == nil || favs[0].Movie.Title != "Alien" {
			t.Errorf("expected embedded movie, got %+v", favs[0])
		}
	})

	t.Run("Badly Typed Movie Field Keeps Membership", func(t *testing.T) {
		favs, err := DecodeFavorites([]byte(`{"favorites":[{"_id":"m1","rating":"4.5"},{"_id":"m2","title":"Heat"}]}`))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !favs.Contains("m1") || !favs.Contains("m2") {
			t.Fatalf("expected both ids, got %v", favs.IDs())
		}
		if favs[0].Movie != nil {
			t.Errorf("undecodable movie should be left out, got %+v", favs[0].Movie)
		}
		if favs[1].Movie == nil || favs[1].Movie.Title != "Heat" {
			t.Errorf("expected embedded movie for m2, got %+v", favs[1])
		}
	})

	t.Run("MarshalJSON", func(t *testing.T) {
		data, err := json.Marshal(Favorites{{ID: "m1"}, {ID: "m2", Movie: &Movie{ID: "m2", Title: "Heat"}}})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		back, err := DecodeFavorites(data)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !back.Contains("m1") || !back.Contains("m2") || back[1].Movie == nil {
			t.Errorf("unexpected favorites after encode/decode: %+v", back)
		}
	})
}

func TestMovie(t *testing.T) {
	t.Run("Unmarshal Identifier Aliases", func(t *testing.T) {
		var a, b Movie
		if err := json.Unmarshal([]byte(`{"_id":"m1","title":"Alien","comments":[{"id":"c1","user":"Ana","text":"ok","rating":4}]}`), &a); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := json.Unmarshal([]byte(`{"id":"m2","title":"Heat"}`), &b); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if a.ID != "m1" || b.ID != "m2" {
			t.Errorf("expected ids m1/m2, got %s/%s", a.ID, b.ID)
		}
		if a.Comments[0].ID != "c1" {
			t.Errorf("expected comment id c1, got %s", a.Comments[0].ID)
		}
	})

	t.Run("ApplyServerMovie Preserves VideoURL", func(t *testing.T) {
		current := &Movie{ID: "m1", VideoURL: "https://videos/hd.mp4", Rating: 3}
		updated := &Movie{ID: "m1", Rating: 4.5, Comments: []Comment{{ID: "c1", Rating: 5}}}

		next := ApplyServerMovie(current, updated)
		if next.VideoURL != "https://videos/hd.mp4" {
			t.Errorf("expected video URL to survive, got %q", next.VideoURL)
		}
		if next.Rating != 4.5 || len(next.Comments) != 1 {
			t.Errorf("expected server state to replace local state, got %+v", next)
		}
		if updated.VideoURL != "" {
			t.Error("ApplyServerMovie must not mutate the server copy")
		}
	})

	t.Run("ApplyServerMovie Uses Server VideoURL When None Resolved", func(t *testing.T) {
		next := ApplyServerMovie(&Movie{ID: "m1"}, &Movie{ID: "m1", VideoURL: "/uploads/a.mp4"})
		if next.VideoURL != "/uploads/a.mp4" {
			t.Errorf("expected server video URL, got %q", next.VideoURL)
		}
	})

	t.Run("ApplyServerMovie Nil Update", func(t *testing.T) {
		current := &Movie{ID: "m1"}
		if ApplyServerMovie(current, nil) != current {
			t.Error("nil update should keep current state")
		}
		if next := ApplyServerMovie(nil, &Movie{ID: "m2"}); next.Comments == nil {
			t.Error("comments should be normalized to an empty slice")
		}
	})

	t.Run("FindComment", func(t *testing.T) {
		m := &Movie{Comments: []Comment{{ID: "c1"}, {ID: "c2", Text: "two"}}}
		if c, ok := m.FindComment("c2"); !ok || c.Text != "two" {
			t.Errorf("expected to find c2, got %+v", c)
		}
		if _, ok := m.FindComment("c9"); ok {
			t.Error("c9 should not be found")
		}
	})

	t.Run("Resolved URLs", func(t *testing.T) {
		m := &Movie{Subtitles: []Subtitle{{Lang: "es", Src: "/subs/es.vtt"}, {Lang: "en", Src: "https://cdn/en.vtt"}}}
		subs := m.SubtitleURLs("http://api/")
		if subs[0].Src != "http://api/subs/es.vtt" || subs[1].Src != "https://cdn/en.vtt" {
			t.Errorf("unexpected subtitle URLs %+v", subs)
		}
		if m.Subtitles[0].Src != "/subs/es.vtt" {
			t.Error("SubtitleURLs must not mutate the movie")
		}
		if got := m.PosterURL("http://api"); got != shared.DefaultPoster {
			t.Errorf("expected default poster, got %s", got)
		}
	})
}

func TestCatalogFilters(t *testing.T) {
	movies := []Movie{
		{ID: "1", Title: "Alien", Genre: "Horror", Description: "In space no one can hear you scream"},
		{ID: "2", Title: "Heat", Genre: "Crime"},
		{ID: "3", Title: "The Thing", Genre: "horror"},
		{ID: "4", Title: "Untitled"},
	}

	t.Run("FilterMovies", func(t *testing.T) {
		tt := []struct {
			name  string
			genre string
			query string
			want  []string
		}{
			{name: "no filters", want: []string{"1", "2", "3", "4"}},
			{name: "genre case-insensitive", genre: "HORROR", want: []string{"1", "3"}},
			{name: "title substring", query: "thing", want: []string{"3"}},
			{name: "description substring", query: "SPACE", want: []string{"1"}},
			{name: "genre and query", genre: "horror", query: "alien", want: []string{"1"}},
			{name: "no match", query: "zzz", want: []string{}},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				got := FilterMovies(movies, tc.genre, tc.query)
				if len(got) != len(tc.want) {
					t.Fatalf("expected %d movies, got %d", len(tc.want), len(got))
				}
				for i, m := range got {
					if m.ID != tc.want[i] {
						t.Errorf("position %d: expected %s, got %s", i, tc.want[i], m.ID)
					}
				}
			})
		}
	})

	t.Run("Genres", func(t *testing.T) {
		got := Genres(movies)
		if len(got) != 2 || got[0] != "Crime" || got[1] != "Horror" {
			t.Errorf("unexpected genres %v", got)
		}
	})

	t.Run("GroupByGenre", func(t *testing.T) {
		groups := GroupByGenre(movies)
		if len(groups["Other"]) != 1 || groups["Other"][0].ID != "4" {
			t.Errorf("expected untitled movie under Other, got %+v", groups["Other"])
		}
		if len(groups["Horror"]) != 1 || len(groups["horror"]) != 1 {
			t.Errorf("genres are grouped verbatim, got %+v", groups)
		}
	})
}

func TestUser(t *testing.T) {
	t.Run("DisplayName", func(t *testing.T) {
		tt := []struct {
			name string
			user *User
			want string
		}{
			{name: "first and last", user: &User{FirstName: "Ana", LastName: "Diaz", Email: "a@x.io"}, want: "Ana Diaz"},
			{name: "first only", user: &User{FirstName: "Ana", Email: "a@x.io"}, want: "Ana"},
			{name: "email fallback", user: &User{Email: "a@x.io"}, want: "a@x.io"},
			{name: "nothing", user: &User{}, want: ""},
			{name: "nil", user: nil, want: ""},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				if got := tc.user.DisplayName(); got != tc.want {
					t.Errorf("DisplayName() = %q, want %q", got, tc.want)
				}
			})
		}
	})

	t.Run("AuthorName Fallback", func(t *testing.T) {
		if got := (&User{}).AuthorName(); got != AnonymousAuthor {
			t.Errorf("expected anonymous author, got %q", got)
		}
		if got := (Viewer{ID: "u1", Name: "  "}).AuthorName(); got != AnonymousAuthor {
			t.Errorf("expected anonymous author for blank viewer name, got %q", got)
		}
		if got := (Viewer{Name: " Ana "}).AuthorName(); got != "Ana" {
			t.Errorf("expected trimmed viewer name, got %q", got)
		}
	})

	t.Run("Unmarshal id", func(t *testing.T) {
		var u User
		if err := json.Unmarshal([]byte(`{"id":"u1","firstName":"Ana","favorites":["m1"]}`), &u); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if u.ID != "u1" || !u.Favorites.Contains("m1") {
			t.Errorf("unexpected user %+v", u)
		}
	})

	t.Run("Password Not Marshalled When Empty", func(t *testing.T) {
		data, _ := json.Marshal(User{ID: "u1", Email: "a@x.io"})
		var raw map[string]any
		json.Unmarshal(data, &raw)
		if _, ok := raw["password"]; ok {
			t.Error("empty password should be omitted")
		}
	})
}

func TestCanDelete(t *testing.T) {
	tt := []struct {
		name    string
		viewer  Viewer
		comment Comment
		want    bool
	}{
		{name: "same display name", viewer: Viewer{Name: "Ana Diaz"}, comment: Comment{User: "Ana Diaz"}, want: true},
		{name: "different author", viewer: Viewer{Name: "Ana Diaz"}, comment: Comment{User: "Bo Li"}, want: false},
		{name: "anonymous viewer", viewer: Viewer{}, comment: Comment{User: ""}, want: false},
		{name: "ids match despite renamed author", viewer: Viewer{ID: "u1", Name: "Ana"}, comment: Comment{UserID: "u1", User: "Old Name"}, want: true},
		{name: "ids differ despite same name", viewer: Viewer{ID: "u1", Name: "Ana"}, comment: Comment{UserID: "u2", User: "Ana"}, want: false},
		{name: "comment without id falls back to name", viewer: Viewer{ID: "u1", Name: "Ana"}, comment: Comment{User: "Ana"}, want: true},
		{name: "whitespace tolerated", viewer: Viewer{Name: "Ana "}, comment: Comment{User: " Ana"}, want: true},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanDelete(tc.viewer, tc.comment); got != tc.want {
				t.Errorf("CanDelete() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestStockVideo(t *testing.T) {
	t.Run("BestFile Prefers HD", func(t *testing.T) {
		v := StockVideo{VideoFiles: []VideoFile{{Quality: "sd", Link: "sd"}, {Quality: "hd", Link: "hd"}}}
		if f, ok := v.BestFile(); !ok || f.Link != "hd" {
			t.Errorf("expected hd file, got %+v", f)
		}
	})

	t.Run("BestFile Falls Back To First", func(t *testing.T) {
		v := StockVideo{VideoFiles: []VideoFile{{Quality: "sd", Link: "first"}, {Quality: "uhd", Link: "second"}}}
		if f, ok := v.BestFile(); !ok || f.Link != "first" {
			t.Errorf("expected first file, got %+v", f)
		}
	})

	t.Run("BestFile Empty", func(t *testing.T) {
		if _, ok := (StockVideo{}).BestFile(); ok {
			t.Error("expected no file")
		}
	})

	t.Run("PlaybackQuery", func(t *testing.T) {
		if got := PlaybackQuery(&Movie{Title: "Alien", Genre: "Horror"}); got != "Alien" {
			t.Errorf("expected title, got %s", got)
		}
		if got := PlaybackQuery(&Movie{Genre: "Horror"}); got != "Horror" {
			t.Errorf("expected genre, got %s", got)
		}
		if got := PlaybackQuery(&Movie{}); got != "movie" {
			t.Errorf("expected movie, got %s", got)
		}
	})
}

func TestValidation(t *testing.T) {
	t.Run("Password Rules", func(t *testing.T) {
		failed := PasswordRuleFailures("abc")
		names := map[string]bool{}
		for _, r := range failed {
			names[r.Name] = true
		}
		for _, want := range []string{"length", "upper", "digit", "symbol"} {
			if !names[want] {
				t.Errorf("expected %q to fail for abc", want)
			}
		}
		if names["lower"] {
			t.Error("abc has a lowercase letter")
		}

		if failed := PasswordRuleFailures("Abcdefg1!"); len(failed) != 0 {
			t.Errorf("expected Abcdefg1! to pass all rules, failed %v", failed)
		}
	})

	t.Run("Email", func(t *testing.T) {
		tt := []struct {
			email string
			want  bool
		}{
			{"ana@example.com", true},
			{"ana.diaz@mail.example.co", true},
			{"ana-d@ex.io", true},
			{"ana@", false},
			{"@example.com", false},
			{"ana@example", false},
			{"ana diaz@example.com", false},
			{"ana@example.abcdefgh", false},
		}

		for _, tc := range tt {
			if got := ValidEmail(tc.email); got != tc.want {
				t.Errorf("ValidEmail(%q) = %v, want %v", tc.email, got, tc.want)
			}
		}
	})

	t.Run("Comment", func(t *testing.T) {
		tt := []struct {
			name    string
			input   CommentInput
			field   string
			wantErr bool
		}{
			{name: "valid", input: CommentInput{User: "Ana", Text: "great", Rating: 5}},
			{name: "rating too high", input: CommentInput{User: "Ana", Text: "great", Rating: 6}, field: "Rating", wantErr: true},
			{name: "rating zero", input: CommentInput{User: "Ana", Text: "great", Rating: 0}, field: "Rating", wantErr: true},
			{name: "blank text", input: CommentInput{User: "Ana", Text: "   ", Rating: 3}, field: "Text", wantErr: true},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				in := tc.input
				err := ValidateComment(&in)
				if !tc.wantErr {
					if err != nil {
						t.Fatalf("expected no error, got %v", err)
					}
					return
				}

				if !errors.Is(err, shared.ErrValidation) {
					t.Fatalf("expected ErrValidation, got %v", err)
				}
				var ve *ValidationError
				if !errors.As(err, &ve) || !ve.Has(tc.field) {
					t.Errorf("expected %s to fail, got %v", tc.field, err)
				}
			})
		}
	})

	t.Run("NewCommentInput Trims", func(t *testing.T) {
		in := NewCommentInput(&User{FirstName: "Ana", LastName: "Diaz"}, "  hi  ", 4)
		if in.User != "Ana Diaz" || in.Text != "hi" || in.Rating != 4 {
			t.Errorf("unexpected input %+v", in)
		}
	})

	t.Run("Registration", func(t *testing.T) {
		valid := Registration{
			FirstName: "Ana", LastName: "Diaz", Age: 30, Email: "ana@example.com",
			Password: "Abcdefg1!", ConfirmPassword: "Abcdefg1!",
		}
		if err := ValidateRegistration(&valid); err != nil {
			t.Fatalf("expected valid registration, got %v", err)
		}

		mismatch := valid
		mismatch.ConfirmPassword = "Abcdefg1?"
		err := ValidateRegistration(&mismatch)
		var ve *ValidationError
		if !errors.As(err, &ve) || !ve.Has("ConfirmPassword") {
			t.Errorf("expected confirmation mismatch, got %v", err)
		}

		weak := valid
		weak.Password, weak.ConfirmPassword = "abc", "abc"
		err = ValidateRegistration(&weak)
		if !errors.As(err, &ve) || !ve.Has("Password") {
			t.Errorf("expected weak password to fail, got %v", err)
		}

		badEmail := valid
		badEmail.Email = "ana@"
		if err := ValidateRegistration(&badEmail); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected invalid email to fail, got %v", err)
		}

		badAge := valid
		badAge.Age = 0
		if err := ValidateRegistration(&badAge); !errors.As(err, &ve) || !ve.Has("Age") {
			t.Errorf("expected age to fail, got %v", err)
		}
	})

	t.Run("ProfileUpdate", func(t *testing.T) {
		if !(ProfileUpdate{}).Empty() {
			t.Error("zero update should be empty")
		}
		if err := Validate(&ProfileUpdate{FirstName: "Ana"}); err != nil {
			t.Errorf("partial update should be valid, got %v", err)
		}
		if err := Validate(&ProfileUpdate{Email: "nope"}); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected invalid email to fail, got %v", err)
		}
	})

	t.Run("Credentials", func(t *testing.T) {
		if err := Validate(&Credentials{Email: "ana@example.com", Password: "x"}); err != nil {
			t.Errorf("expected valid credentials, got %v", err)
		}
		if err := Validate(&Credentials{Email: "ana@example.com"}); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected missing password to fail, got %v", err)
		}
	})
}
