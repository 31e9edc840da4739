package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/moovie/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// FakeSecret signs the tokens issued by [FakeAPI].
var FakeSecret = []byte("moovie-test-secret")

// Response shapes used by [FakeAPI] for favorites endpoints.
const (
	ShapeEnvelope = "envelope" // {"message", "favorites": ["id", ...]}
	ShapeArray    = "array"    // ["id", ...]
	ShapeObjects  = "objects"  // {"favorites": [{movie}, ...]}
	ShapeMessage  = "message"  // {"message"} only
)

// FakeAPI is an in-memory catalog server backed by [httptest.Server].
//
// Failures can be injected per "METHOD /path" with [FakeAPI.Fail]. Every request is recorded
// in Calls. Tokens issued by login are HS256 JWTs carrying the user id and email.
type FakeAPI struct {
	*httptest.Server

	mu        sync.Mutex
	movies    []*models.Movie
	users     map[string]*models.User
	favorites map[string][]string
	failures  map[string]int
	calls     []string
	nextID    int

	// FavoritesShape selects the GET favorites body; ToggleShape the PATCH body.
	FavoritesShape string
	ToggleShape    string
	// EnvelopeMovies wraps movie mutation responses in {"movie": ...}.
	EnvelopeMovies bool
	// Videos and Photos are returned by the stock-media proxy.
	Videos []models.StockVideo
	Photos []models.StockPhoto
}

// NewFakeAPI starts a fake server. It is closed when the test ends.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()

	f := &FakeAPI{
		users:          map[string]*models.User{},
		favorites:      map[string][]string{},
		failures:       map[string]int{},
		FavoritesShape: ShapeEnvelope,
		ToggleShape:    ShapeMessage,
	}
	f.Server = httptest.NewServer(f.routes())
	t.Cleanup(f.Server.Close)
	return f
}

func (f *FakeAPI) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", f.login)
	mux.HandleFunc("POST /api/users", f.register)
	mux.HandleFunc("POST /api/users/recover-password", f.recover)
	mux.HandleFunc("GET /api/profile", f.authed(f.profile))
	mux.HandleFunc("PUT /api/users/{id}", f.authed(f.updateUser))
	mux.HandleFunc("DELETE /api/users/{id}", f.authed(f.deleteUser))
	mux.HandleFunc("GET /api/users/{id}/favorites", f.authed(f.listFavorites))
	mux.HandleFunc("PATCH /api/users/{id}/favorites/{movieId}", f.authed(f.toggleFavorite))
	mux.HandleFunc("GET /api/movies", f.listMovies)
	mux.HandleFunc("GET /api/movies/{id}", f.getMovie)
	mux.HandleFunc("POST /api/movies/{id}/comments", f.postComment)
	mux.HandleFunc("DELETE /api/movies/{id}/comments/{commentId}", f.deleteComment)
	mux.HandleFunc("GET /api/pexels/videos", f.videos)
	mux.HandleFunc("GET /api/pexels/photos", f.photos)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		f.mu.Lock()
		f.calls = append(f.calls, key)
		status, fail := f.failures[key]
		f.mu.Unlock()

		if fail {
			writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
			return
		}
		mux.ServeHTTP(w, r)
	})
}

// AddMovie seeds the catalog and returns the stored copy.
func (f *FakeAPI) AddMovie(m models.Movie) *models.Movie {
	f.mu.Lock()
	defer f.mu.Unlock()

	if m.ID == "" {
		m.ID = f.id("m")
	}
	if m.Comments == nil {
		m.Comments = []models.Comment{}
	}
	stored := m
	f.movies = append(f.movies, &stored)
	return &stored
}

// AddUser seeds an account and returns its id.
func (f *FakeAPI) AddUser(u models.User) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if u.ID == "" {
		u.ID = f.id("u")
	}
	stored := u
	f.users[u.ID] = &stored
	return u.ID
}

// SetFavorites replaces a user's favorites.
func (f *FakeAPI) SetFavorites(userID string, movieIDs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.favorites[userID] = append([]string{}, movieIDs...)
}

// FavoriteIDs returns a user's favorites as stored on the server.
func (f *FakeAPI) FavoriteIDs(userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.favorites[userID]...)
}

// Movie returns the stored copy of a movie.
func (f *FakeAPI) Movie(id string) *models.Movie {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m := f.findMovie(id); m != nil {
		cp := *m
		cp.Comments = append([]models.Comment{}, m.Comments...)
		return &cp
	}
	return nil
}

// Fail makes every request matching "METHOD /path" answer with status. A zero status clears it.
func (f *FakeAPI) Fail(methodPath string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if status == 0 {
		delete(f.failures, methodPath)
		return
	}
	f.failures[methodPath] = status
}

// Calls returns the recorded "METHOD /path" keys in order.
func (f *FakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.calls...)
}

// CallCount counts recorded requests matching methodPath exactly.
func (f *FakeAPI) CallCount(methodPath string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == methodPath {
			n++
		}
	}
	return n
}

// ResetCalls clears the request log.
func (f *FakeAPI) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// IssueToken signs a token for userID the same way login does.
func (f *FakeAPI) IssueToken(t *testing.T, userID string) string {
	t.Helper()
	f.mu.Lock()
	u := f.users[userID]
	f.mu.Unlock()

	email := ""
	if u != nil {
		email = u.Email
	}
	token, err := signToken(userID, email)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func signToken(userID, email string) (string, error) {
	claims := jwt.MapClaims{
		"id":    userID,
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(FakeSecret)
}

// id must be called with mu held.
func (f *FakeAPI) id(prefix string) string {
	f.nextID++
	return prefix + strconv.Itoa(f.nextID)
}

// findMovie must be called with mu held.
func (f *FakeAPI) findMovie(id string) *models.Movie {
	for _, m := range f.movies {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (f *FakeAPI) authed(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing token"})
			return
		}

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return FakeSecret, nil })
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}
		userID, _ := claims["id"].(string)
		next(w, r, userID)
	}
}

func (f *FakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	f.mu.Lock()
	var found *models.User
	for _, u := range f.users {
		if u.Email == creds.Email && u.Password == creds.Password {
			found = u
			break
		}
	}
	f.mu.Unlock()

	if found == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Credenciales inválidas"})
		return
	}

	token, err := signToken(found.ID, found.Email)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	public := *found
	public.Password = ""
	writeJSON(w, http.StatusOK, map[string]any{"message": "Login exitoso", "token": token, "user": public})
}

func (f *FakeAPI) register(w http.ResponseWriter, r *http.Request) {
	var u models.User
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	f.mu.Lock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			f.mu.Unlock()
			writeJSON(w, http.StatusConflict, map[string]string{"error": "El correo ya está registrado"})
			return
		}
	}
	u.ID = f.id("u")
	stored := u
	f.users[u.ID] = &stored
	f.mu.Unlock()

	u.Password = ""
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Usuario creado", "user": u})
}

func (f *FakeAPI) recover(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	json.NewDecoder(r.Body).Decode(&body)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Correo enviado a " + body.Email})
}

func (f *FakeAPI) profile(w http.ResponseWriter, _ *http.Request, userID string) {
	f.mu.Lock()
	u := f.users[userID]
	f.mu.Unlock()

	if u == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Usuario no encontrado"})
		return
	}
	public := *u
	public.Password = ""
	public.Favorites = models.FromIDs(f.FavoriteIDs(userID))
	writeJSON(w, http.StatusOK, map[string]any{"user": public})
}

func (f *FakeAPI) updateUser(w http.ResponseWriter, r *http.Request, userID string) {
	if r.PathValue("id") != userID {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
		return
	}

	var update models.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	f.mu.Lock()
	u := f.users[userID]
	if u == nil {
		f.mu.Unlock()
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Usuario no encontrado"})
		return
	}
	if update.FirstName != "" {
		u.FirstName = update.FirstName
	}
	if update.LastName != "" {
		u.LastName = update.LastName
	}
	if update.Age != 0 {
		u.Age = update.Age
	}
	if update.Email != "" {
		u.Email = update.Email
	}
	if update.Password != "" {
		u.Password = update.Password
	}
	public := *u
	f.mu.Unlock()

	public.Password = ""
	writeJSON(w, http.StatusOK, map[string]any{"message": "Usuario actualizado", "user": public})
}

func (f *FakeAPI) deleteUser(w http.ResponseWriter, r *http.Request, userID string) {
	if r.PathValue("id") != userID {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
		return
	}

	f.mu.Lock()
	delete(f.users, userID)
	delete(f.favorites, userID)
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Usuario eliminado"})
}

func (f *FakeAPI) favoritesBody(userID, shape, message string) any {
	ids := f.FavoriteIDs(userID)

	switch shape {
	case ShapeArray:
		return ids
	case ShapeObjects:
		f.mu.Lock()
		defer f.mu.Unlock()
		out := []models.Movie{}
		for _, id := range ids {
			if m := f.findMovie(id); m != nil {
				out = append(out, *m)
			}
		}
		return map[string]any{"message": message, "favorites": out}
	case ShapeMessage:
		return map[string]string{"message": message}
	default:
		return map[string]any{"message": message, "favorites": ids}
	}
}

func (f *FakeAPI) listFavorites(w http.ResponseWriter, r *http.Request, userID string) {
	if r.PathValue("id") != userID {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
		return
	}
	shape := f.FavoritesShape
	if shape == ShapeMessage {
		shape = ShapeEnvelope
	}
	writeJSON(w, http.StatusOK, f.favoritesBody(userID, shape, "ok"))
}

func (f *FakeAPI) toggleFavorite(w http.ResponseWriter, r *http.Request, userID string) {
	if r.PathValue("id") != userID {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
		return
	}
	movieID := r.PathValue("movieId")

	f.mu.Lock()
	if f.findMovie(movieID) == nil {
		f.mu.Unlock()
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Película no encontrada"})
		return
	}

	ids := f.favorites[userID]
	message := "Película agregada a favoritos"
	removed := false
	for i, id := range ids {
		if id == movieID {
			ids = append(ids[:i:i], ids[i+1:]...)
			removed = true
			break
		}
	}
	if removed {
		message = "Película eliminada de favoritos"
	} else {
		ids = append(ids, movieID)
	}
	f.favorites[userID] = ids
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, f.favoritesBody(userID, f.ToggleShape, message))
}

func (f *FakeAPI) listMovies(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	out := make([]models.Movie, 0, len(f.movies))
	for _, m := range f.movies {
		out = append(out, *m)
	}
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) getMovie(w http.ResponseWriter, r *http.Request) {
	m := f.Movie(r.PathValue("id"))
	if m == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Película no encontrada"})
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// movieResponse omits videoUrl, as the server does on mutations.
func (f *FakeAPI) movieResponse(w http.ResponseWriter, status int, m models.Movie, message string) {
	m.VideoURL = ""
	if f.EnvelopeMovies {
		writeJSON(w, status, map[string]any{"message": message, "movie": m})
		return
	}
	writeJSON(w, status, m)
}

func recomputeRating(m *models.Movie) {
	if len(m.Comments) == 0 {
		m.Rating = 0
		return
	}
	total := 0
	for _, c := range m.Comments {
		total += c.Rating
	}
	m.Rating = float64(total) / float64(len(m.Comments))
}

func (f *FakeAPI) postComment(w http.ResponseWriter, r *http.Request) {
	var in models.CommentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	if in.Rating < 1 || in.Rating > 5 || strings.TrimSpace(in.Text) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Comentario inválido"})
		return
	}

	f.mu.Lock()
	m := f.findMovie(r.PathValue("id"))
	if m == nil {
		f.mu.Unlock()
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Película no encontrada"})
		return
	}

	now := time.Now().UTC()
	c := models.Comment{ID: f.id("c"), User: in.User, Text: in.Text, Rating: in.Rating, CreatedAt: &now}
	for id, u := range f.users {
		if u.DisplayName() == in.User {
			c.UserID = id
			break
		}
	}
	m.Comments = append(m.Comments, c)
	recomputeRating(m)
	out := *m
	out.Comments = append([]models.Comment{}, m.Comments...)
	f.mu.Unlock()

	f.movieResponse(w, http.StatusCreated, out, "Comentario agregado")
}

func (f *FakeAPI) deleteComment(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	m := f.findMovie(r.PathValue("id"))
	if m == nil {
		f.mu.Unlock()
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Película no encontrada"})
		return
	}

	commentID := r.PathValue("commentId")
	idx := -1
	for i, c := range m.Comments {
		if c.ID == commentID {
			idx = i
			break
		}
	}
	if idx < 0 {
		f.mu.Unlock()
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Comentario no encontrado"})
		return
	}
	m.Comments = append(m.Comments[:idx:idx], m.Comments[idx+1:]...)
	recomputeRating(m)
	out := *m
	out.Comments = append([]models.Comment{}, m.Comments...)
	f.mu.Unlock()

	f.movieResponse(w, http.StatusOK, out, "Comentario eliminado")
}

func perPage(r *http.Request, n int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && v > 0 && v < n {
		return v
	}
	return n
}

func (f *FakeAPI) videos(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("query") == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}
	f.mu.Lock()
	videos := append([]models.StockVideo{}, f.Videos...)
	f.mu.Unlock()

	videos = videos[:perPage(r, len(videos))]
	writeJSON(w, http.StatusOK, map[string]any{"page": 1, "total_results": len(videos), "videos": videos})
}

func (f *FakeAPI) photos(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	photos := append([]models.StockPhoto{}, f.Photos...)
	f.mu.Unlock()

	photos = photos[:perPage(r, len(photos))]
	writeJSON(w, http.StatusOK, map[string]any{"page": 1, "photos": photos})
}

// SampleVideo returns a stock video with an "sd" and an "hd" rendition.
func SampleVideo(id int) models.StockVideo {
	return models.StockVideo{
		ID:       id,
		URL:      fmt.Sprintf("https://stock.example/video/%d", id),
		Duration: 12,
		VideoFiles: []models.VideoFile{
			{ID: id*10 + 1, Quality: "sd", FileType: "video/mp4", Link: fmt.Sprintf("https://cdn.example/%d-sd.mp4", id)},
			{ID: id*10 + 2, Quality: "hd", FileType: "video/mp4", Link: fmt.Sprintf("https://cdn.example/%d-hd.mp4", id)},
		},
	}
}
