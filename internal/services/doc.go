// Package services implements the clients for the Moovie catalog API and its stock-media proxy.
//
// # Transport
//
// [APIService] performs every request. It prefixes the configured base URL, tags each
// request with an X-Request-ID, and waits on an optional rate limiter. Bearer authentication
// is a transport concern: [NewAuthorizedClient] wraps an [http.Client] so that the token held
// by a [TokenStore] is attached through [oauth2.Transport]. Requests made while the store is
// empty go out unauthenticated (login, registration, public catalog reads).
//
// # Clients
//
//   - [AuthService] implements [Accounts]: login, registration, profile, update, delete, recovery
//   - [MovieService] implements [Catalog]: movies and the comment lifecycle
//   - [FavoritesService] implements [FavoritesAPI]: list and toggle
//   - [StockMediaService] implements [StockMedia]: video and photo search behind a circuit breaker
//
// Inputs are validated with the models package before any request is sent.
//
// # Response Shapes
//
// The API is inconsistent about envelopes. Movie mutations return either the movie or
// {"movie": ...}; the profile and user endpoints wrap in {"user": ...}; favorites come as
// {"message", "favorites"} or a bare array. Decoding accepts every variant.
//
// # Error Handling
//
// Non-2xx responses become [*APIError], which unwraps to:
//   - [shared.ErrAPIRequest] : always
//   - [shared.ErrNotAuthenticated] : 401
//   - [shared.ErrForbidden] : 403
//   - [shared.ErrServiceUnavailable] : 5xx, or an open circuit breaker
//
// 404s are translated to [shared.ErrMovieNotFound] or [shared.ErrCommentNotFound] where the
// resource is known. Nothing is retried.
package services
