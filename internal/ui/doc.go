// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI mirrors the catalog and player pages:
//  1. [CatalogView] : Browse and filter the movie list, favorites marked with ♥
//  2. [LoadingView] : Progress while a movie and its video are resolved
//  3. [PlayerView] : Movie details, video or poster fallback, subtitles and comments
//  4. [ComposeView] : Write a comment and pick a 1-5 rating
//  5. [ConfirmDeleteView] : Confirm deleting one of your own comments
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Commands operate on a copy of the player session and hand it back in a message, so the
// view only ever renders settled state.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, f, c, d, p, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
