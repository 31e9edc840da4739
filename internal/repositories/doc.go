// Package repositories implements the SQLite cache behind the Moovie CLI.
//
// The cache is a convenience for offline listing and for avoiding repeated favorites
// lookups; the API remains the source of truth and every entry can be dropped at any time.
//
// Key Implementations:
//   - [MovieRepository] : catalog cache keyed by server id, with genre and text filters
//   - [FavoriteRepository] : per-user favorites sets with a fetch timestamp for TTL checks
//
// Sequence numbers record the order movies were first seen so cached listings keep the
// server's ordering. The [NextSequence] function atomically increments per-table sequence
// counters in dedicated sequence tables.
package repositories
