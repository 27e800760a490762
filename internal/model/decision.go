package model

import (
	"slices"
	"time"
)

// Decision records one action choice, the menu it was chosen from and the
// justification. SelectedOption is always a member of Options.
type Decision struct {
	ID              string         `json:"id"`
	Context         map[string]any `json:"context"`
	Options         []string       `json:"options"`
	SelectedOption  string         `json:"selected_option"`
	ConfidenceScore float64        `json:"confidence_score"`
	Reasoning       string         `json:"reasoning"`
	Timestamp       time.Time      `json:"timestamp"`
}

// Decision context keys.
const (
	DecisionCurrentPerception  = "current_perception"
	DecisionRelevantMemories   = "relevant_memories"
	DecisionTimestamp          = "timestamp"
	DecisionError              = "error"
	DecisionUnmatchedSelection = "unmatched_selection"
)

// Clone returns a deep copy of d.
func (d Decision) Clone() Decision {
	d.Context = CloneMap(d.Context)
	d.Options = slices.Clone(d.Options)
	return d
}
