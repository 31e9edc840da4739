package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FavoriteRef is one element of a favorites list. The API sends either a bare movie id
// or an embedded movie object; Movie is set only in the latter case.
type FavoriteRef struct {
	ID    string
	Movie *Movie
}

// UnmarshalJSON accepts a JSON string or an object with "_id"/"id".
func (f *FavoriteRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = FavoriteRef{}
		return nil
	}

	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*f = FavoriteRef{ID: id}
		return nil
	}

	if data[0] != '{' {
		return fmt.Errorf("unsupported favorite entry: %q", string(data[:1]))
	}

	id, err := decodeID(data)
	if err != nil {
		return fmt.Errorf("unsupported favorite entry: %w", err)
	}
	*f = FavoriteRef{ID: id}

	// Membership only needs the id; a movie body that does not decode is left out.
	var m Movie
	if json.Unmarshal(data, &m) == nil && m.ID != "" {
		f.Movie = &m
	}
	return nil
}

// MarshalJSON writes the embedded movie when present, otherwise the bare id.
func (f FavoriteRef) MarshalJSON() ([]byte, error) {
	if f.Movie != nil {
		return json.Marshal(f.Movie)
	}
	return json.Marshal(f.ID)
}

// Favorites is a user's favorites list.
type Favorites []FavoriteRef

// Contains reports whether movieID is in the list, by identifier equality.
func (fs Favorites) Contains(movieID string) bool {
	if movieID == "" {
		return false
	}
	for _, f := range fs {
		if f.ID == movieID {
			return true
		}
	}
	return false
}

// IDs returns the non-empty identifiers in list order.
func (fs Favorites) IDs() []string {
	ids := make([]string, 0, len(fs))
	for _, f := range fs {
		if f.ID != "" {
			ids = append(ids, f.ID)
		}
	}
	return ids
}

// FromIDs builds a bare-id favorites list.
func FromIDs(ids []string) Favorites {
	fs := make(Favorites, 0, len(ids))
	for _, id := range ids {
		fs = append(fs, FavoriteRef{ID: id})
	}
	return fs
}

// DecodeFavorites parses a favorites response: either {"message", "favorites": [...]}
// or a bare array. Null entries and entries without an id are dropped.
func DecodeFavorites(data []byte) (Favorites, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Favorites{}, nil
	}

	var raw Favorites
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to decode favorites: %w", err)
		}
	case '{':
		var envelope struct {
			Message   string    `json:"message"`
			Favorites Favorites `json:"favorites"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			return nil, fmt.Errorf("failed to decode favorites: %w", err)
		}
		raw = envelope.Favorites
	default:
		return nil, fmt.Errorf("failed to decode favorites: unexpected body %q", string(data[:1]))
	}

	out := make(Favorites, 0, len(raw))
	for _, f := range raw {
		if f.ID != "" {
			out = append(out, f)
		}
	}
	return out, nil
}
