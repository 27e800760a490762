// Package store provides the memory storage interface and SQLite implementation.
package store

import (
	"context"
	"errors"

	"github.com/rcliao/agent-pipeline/internal/model"
)

// DefaultRetrieveLimit is used when a retrieval asks for zero or fewer results.
const DefaultRetrieveLimit = 5

// ErrNotFound is returned when a memory id does not exist.
var ErrNotFound = errors.New("memory not found")

// SearchParams holds parameters for a relevance-ranked read.
type SearchParams struct {
	Query string
	Limit int
}

// Store defines the memory storage interface used by the pipeline.
type Store interface {
	// Put scores and persists a memory derived from the perception.
	// The write is atomic: on error nothing is stored.
	Put(ctx context.Context, p model.Perception) (*model.Memory, error)

	// Retrieve returns memories whose content contains query, most important
	// first. Failures are logged and reported as an empty result.
	Retrieve(ctx context.Context, query string, limit int) []model.Memory

	// Close closes the store.
	Close() error
}
