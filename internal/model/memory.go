// Package model defines the pipeline record types: perceptions, memories,
// decisions and actions.
package model

import "time"

// Memory represents a stored memory entry derived from a Perception.
// LastAccessed is the only field that changes after creation.
type Memory struct {
	ID              string         `json:"id"`
	Content         string         `json:"content"`
	Context         map[string]any `json:"context"`
	CreatedAt       time.Time      `json:"created_at"`
	LastAccessed    time.Time      `json:"last_accessed"`
	ImportanceScore float64        `json:"importance_score"`
}

// Clone returns a deep copy of m.
func (m Memory) Clone() Memory {
	m.Context = CloneMap(m.Context)
	return m
}

// Memory context keys.
const (
	ContextPerceptionType   = "perception_type"
	ContextOriginalMetadata = "original_metadata"
)
