package store

import (
	"unicode/utf8"

	"github.com/rcliao/agent-pipeline/internal/model"
)

// ImportanceScore rates a perception in [0, 1]. It is computed once when the
// memory is stored and never recomputed.
func ImportanceScore(p model.Perception) float64 {
	score := 0.5

	switch p.InputType {
	case model.InputText:
		score += 0.1
	case model.InputImage:
		score += 0.2
	case model.InputAudio, model.InputSensor:
	}

	switch n := utf8.RuneCountInString(p.Content); {
	case n > 100:
		score += 0.2
	case n > 50:
		score += 0.1
	}

	if _, ok := p.Metadata[model.MetaEnhancedAnalysis]; ok {
		score += 0.2
	}

	return min(1.0, max(0.0, score))
}
