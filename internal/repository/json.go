package repository

import (
	"encoding/json"
	"fmt"
)

// Slice- and map-typed fields are stored as JSON text columns. SQLite has no
// native array type and the snapshots are read back whole, never queried by
// element.

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal json column: %w", err)
	}
	return string(b), nil
}

func fromJSON[T any](s string, dest *T) error {
	if s == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return fmt.Errorf("failed to unmarshal json column: %w", err)
	}
	return nil
}
