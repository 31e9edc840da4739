// Package models defines domain entities and validation rules for the Moovie catalog client.
//
// The package contains two categories of types:
//
// 1. API entities: decoded from the catalog API, owned by the server
//   - [Movie] : Catalog entry with comments, subtitles and the server-computed rating
//   - [Comment] : A viewer's rated comment, carrying the author's display name
//   - [User] : Account profile returned by /api/profile and /api/login
//   - [FavoriteRef], [Favorites] : Favorites list items, either bare ids or embedded movies
//   - [StockVideo], [StockPhoto] : Stock-media proxy payloads
//
// 2. Client inputs: request bodies validated locally before any network call
//   - [Credentials], [Registration], [ProfileUpdate], [CommentInput]
//
// The server is the authority for every entity. The client never predicts aggregate ratings
// and replaces its local copy of a movie wholesale after each successful mutation
// (see [ApplyServerMovie]).
//
// Identifiers arrive as either "_id" or "id" depending on the endpoint; decoding accepts both.
package models
