// Package tasks orchestrates the Moovie client workflows with real-time progress reporting.
//
// # Core Operations
//
//  1. [Catalog] : Browse the movie list
//     - Fetches the catalog and marks the user's favorites
//     - Filters by genre and free text, lists genres
//     - Falls back to the local cache for offline listings
//
//  2. [PlayerSession] : The movie detail/player view
//     - Loads one movie and resolves a playable stock video, else the poster
//     - Toggles the favorite flag without ever setting an explicit target state
//     - Posts and deletes comments, adopting the server's copy of the movie each time
//
//  3. [FavoriteSync] : Keep favorite flags in step with the server
//     - The server only flips membership, so the next state is derived from the last shown one
//     - A failed flip leaves the shown state untouched
//     - Confirmed responses and reconciliation re-fetches win over local guesses
//
//  4. [Engine.BulkExport] : Export movies and comments to json, csv, markdown or txt
//
//  5. [Engine.Dump] : Fetch raw API data for backup or debugging
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Caching
//
// The optional [MovieCache] and [FavoritesCache] interfaces persist listings and favorites sets
// (repositories.MovieRepository and repositories.FavoriteRepository). Cache errors are logged
// and never fail the operation.
package tasks
