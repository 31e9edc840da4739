// package models defines the data model for the Moovie catalog client
package models

import "encoding/json"

// Identifiable is implemented by entities keyed by a server-assigned identifier.
type Identifiable interface {
	Key() string // Key returns the server identifier
}

// Repository defines the interface for local cache access.
// Implementations handle database interactions for specific entity types.
type Repository[T Identifiable] interface {
	Upsert(model T) error                      // Upsert inserts or replaces a cached entity
	Get(id string) (T, error)                  // Get retrieves an entity by its identifier
	Delete(id string) error                    // Delete removes an entity from the cache
	List(criteria map[string]any) ([]T, error) // List retrieves all entities matching the given criteria
}

// idAliases decodes the two identifier spellings the API uses.
type idAliases struct {
	MongoID string `json:"_id"`
	ID      string `json:"id"`
}

func (a idAliases) value() string {
	if a.MongoID != "" {
		return a.MongoID
	}
	return a.ID
}

// decodeID extracts "_id" (preferred) or "id" from a JSON object.
func decodeID(data []byte) (string, error) {
	var ids idAliases
	if err := json.Unmarshal(data, &ids); err != nil {
		return "", err
	}
	return ids.value(), nil
}
