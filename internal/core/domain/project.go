package domain

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"
)

// ProjectID uniquely identifies a project
type ProjectID string

// Project is one saved ideation board. Tree holds the serialized idea tree
// exactly as the client sent it; the core never interprets it.
type Project struct {
	ID        ProjectID       `json:"id"`
	Name      string          `json:"name"`
	Tree      json.RawMessage `json:"tree"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrInvalidTree     = errors.New("project tree must be valid JSON")
)

// NewProjectID generates a compact random project ID (proj-<12 hex>)
func NewProjectID() ProjectID {
	b := make([]byte, 6)
	_, _ = rand.Read(b)
	return ProjectID("proj-" + hex.EncodeToString(b))
}

// NormalizeTree validates a serialized tree, substituting an empty object for nil.
func NormalizeTree(tree json.RawMessage) (json.RawMessage, error) {
	if len(tree) == 0 {
		return json.RawMessage(`{}`), nil
	}
	if !json.Valid(tree) {
		return nil, ErrInvalidTree
	}
	return tree, nil
}
