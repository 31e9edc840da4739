package models

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/desertthunder/moovie/internal/shared"
)

// Subtitle is a caption track attached to a movie.
type Subtitle struct {
	Lang    string `json:"lang"`
	Label   string `json:"label"`
	Src     string `json:"src"`
	Default bool   `json:"default,omitempty"`
}

// Comment is a rated viewer comment. User holds the author's display name as posted.
type Comment struct {
	ID        string     `json:"_id,omitempty"`
	UserID    string     `json:"userId,omitempty"`
	User      string     `json:"user"`
	Text      string     `json:"text"`
	Rating    int        `json:"rating"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// UnmarshalJSON accepts either "_id" or "id" as the comment identifier.
func (c *Comment) UnmarshalJSON(data []byte) error {
	type alias Comment
	if err := json.Unmarshal(data, (*alias)(c)); err != nil {
		return err
	}
	if c.ID == "" {
		id, err := decodeID(data)
		if err != nil {
			return err
		}
		c.ID = id
	}
	return nil
}

// Movie is a catalog entry.
//
// Rating is the server-computed aggregate of comment ratings. Favorite is a hint some endpoints
// include; favorite state is always re-derived from the user's favorites list.
type Movie struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Genre       string     `json:"genre"`
	Image       string     `json:"image"`
	VideoURL    string     `json:"videoUrl,omitempty"`
	Subtitles   []Subtitle `json:"subtitles,omitempty"`
	Rating      float64    `json:"rating"`
	Comments    []Comment  `json:"comments"`
	Favorite    bool       `json:"favorite,omitempty"`
}

// UnmarshalJSON accepts either "_id" or "id" as the movie identifier.
func (m *Movie) UnmarshalJSON(data []byte) error {
	type alias Movie
	if err := json.Unmarshal(data, (*alias)(m)); err != nil {
		return err
	}
	if m.ID == "" {
		id, err := decodeID(data)
		if err != nil {
			return err
		}
		m.ID = id
	}
	return nil
}

// Key implements [Identifiable].
func (m *Movie) Key() string { return m.ID }

// PosterURL resolves the movie image against baseURL, falling back to the default poster.
func (m *Movie) PosterURL(baseURL string) string {
	return shared.ResolveImageURL(baseURL, m.Image)
}

// SubtitleURLs resolves each subtitle source against baseURL.
func (m *Movie) SubtitleURLs(baseURL string) []Subtitle {
	out := make([]Subtitle, len(m.Subtitles))
	for i, s := range m.Subtitles {
		s.Src = shared.ResolveMediaURL(baseURL, s.Src)
		out[i] = s
	}
	return out
}

// FindComment returns the comment with the given id.
func (m *Movie) FindComment(id string) (Comment, bool) {
	for _, c := range m.Comments {
		if c.ID == id {
			return c, true
		}
	}
	return Comment{}, false
}

// ApplyServerMovie returns the server's copy of a movie as the new local state.
//
// A previously resolved VideoURL always survives, so a mutation response never
// interrupts playback. The server's VideoURL is used only when none was resolved.
func ApplyServerMovie(current, updated *Movie) *Movie {
	if updated == nil {
		return current
	}

	next := *updated
	if next.Comments == nil {
		next.Comments = []Comment{}
	}
	if current != nil && current.VideoURL != "" {
		next.VideoURL = current.VideoURL
	}
	return &next
}

// FilterMovies returns movies matching genre (exact, case-insensitive) and query
// (substring of title or description, case-insensitive). Empty filters match everything.
func FilterMovies(movies []Movie, genre, query string) []Movie {
	genre = shared.NormalizeText(genre)
	query = shared.NormalizeText(query)

	out := make([]Movie, 0, len(movies))
	for _, m := range movies {
		if genre != "" && shared.NormalizeText(m.Genre) != genre {
			continue
		}
		if query != "" &&
			!strings.Contains(shared.NormalizeText(m.Title), query) &&
			!strings.Contains(shared.NormalizeText(m.Description), query) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Genres lists the distinct non-empty genres of movies, sorted.
func Genres(movies []Movie) []string {
	seen := make(map[string]bool)
	var genres []string
	for _, m := range movies {
		g := strings.TrimSpace(m.Genre)
		if g == "" || seen[strings.ToLower(g)] {
			continue
		}
		seen[strings.ToLower(g)] = true
		genres = append(genres, g)
	}
	sort.Strings(genres)
	return genres
}

// GroupByGenre buckets movies by genre, preserving catalog order within each bucket.
// Movies without a genre land under "Other".
func GroupByGenre(movies []Movie) map[string][]Movie {
	groups := make(map[string][]Movie)
	for _, m := range movies {
		g := strings.TrimSpace(m.Genre)
		if g == "" {
			g = "Other"
		}
		groups[g] = append(groups[g], m)
	}
	return groups
}
