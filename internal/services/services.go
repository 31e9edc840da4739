// package services defines the clients for the Moovie catalog API and its stock-media proxy
package services

import (
	"context"

	"github.com/desertthunder/moovie/internal/models"
)

// Accounts covers registration, login and profile management.
type Accounts interface {
	// Login exchanges credentials for a bearer token.
	Login(ctx context.Context, creds models.Credentials) (*LoginResult, error)

	// Register creates an account. It does not log in.
	Register(ctx context.Context, reg models.Registration) (*models.User, error)

	// Profile returns the user the current token belongs to.
	Profile(ctx context.Context) (*models.User, error)

	// UpdateUser applies a partial profile update.
	UpdateUser(ctx context.Context, userID string, update models.ProfileUpdate) (*models.User, error)

	// DeleteUser removes the account.
	DeleteUser(ctx context.Context, userID string) (string, error)

	// RecoverPassword asks the server to send a recovery email.
	RecoverPassword(ctx context.Context, email string) (string, error)
}

// Catalog covers movies and their comments.
type Catalog interface {
	Movies(ctx context.Context) ([]models.Movie, error)
	Movie(ctx context.Context, movieID string) (*models.Movie, error)

	// PostComment adds a comment and returns the server's updated movie.
	PostComment(ctx context.Context, movieID string, in models.CommentInput) (*models.Movie, error)

	// DeleteComment removes a comment and returns the server's updated movie.
	DeleteComment(ctx context.Context, movieID, commentID string) (*models.Movie, error)
}

// FavoritesAPI covers the per-user favorites relation.
type FavoritesAPI interface {
	Favorites(ctx context.Context, userID string) (models.Favorites, error)

	// ToggleFavorite flips membership of movieID. It never sets an explicit target state.
	ToggleFavorite(ctx context.Context, userID, movieID string) (*ToggleResult, error)
}

// StockMedia covers the stock-media proxy.
type StockMedia interface {
	Videos(ctx context.Context, q models.VideoQuery) ([]models.StockVideo, error)
	Photos(ctx context.Context, query string, perPage int) ([]models.StockPhoto, error)
}

// LoginResult is the body of a successful login.
type LoginResult struct {
	Token   string       `json:"token"`
	User    *models.User `json:"user,omitempty"`
	Message string       `json:"message,omitempty"`
}

// ToggleResult is the outcome of a favorites toggle.
//
// Confirmed is set when the response carried the updated favorites list, in which
// case Favorites is authoritative. Otherwise the caller must negate its previous state.
type ToggleResult struct {
	Message   string
	Favorites models.Favorites
	Confirmed bool
}

// IsFavorite reports authoritative membership of movieID, or ok=false when the server didn't say.
func (r *ToggleResult) IsFavorite(movieID string) (favorite, ok bool) {
	if r == nil || !r.Confirmed {
		return false, false
	}
	return r.Favorites.Contains(movieID), true
}
