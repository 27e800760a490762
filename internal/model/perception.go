package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidPerceptionType is returned when an input type tag is not one of
// the known variants.
var ErrInvalidPerceptionType = errors.New("invalid perception type")

// InputType is the kind of raw input a Perception was built from.
type InputType string

const (
	InputText   InputType = "text"
	InputImage  InputType = "image"
	InputAudio  InputType = "audio"
	InputSensor InputType = "sensor"
)

// Valid reports whether t is one of the four known input types.
func (t InputType) Valid() bool {
	switch t {
	case InputText, InputImage, InputAudio, InputSensor:
		return true
	}
	return false
}

// ParseInputType converts a tag such as "text" or "TEXT" into an InputType.
func ParseInputType(s string) (InputType, error) {
	t := InputType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPerceptionType, s)
	}
	return t, nil
}

// Metadata keys written by the perception stage.
const (
	MetaRawType          = "raw_type"
	MetaInitialAnalysis  = "initial_analysis"
	MetaLength           = "length"
	MetaWordCount        = "word_count"
	MetaError            = "error"
	MetaEnhancedAnalysis = "enhanced_analysis"
	MetaRawAnalysis      = "raw_analysis"
	MetaLLMResponse      = "llm_response"
	MetaEnhancementError = "enhancement_error"
)

// Perception is a structured, timestamped representation of one input event.
// Metadata only ever gains keys.
type Perception struct {
	InputType InputType      `json:"input_type"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata"`
	Timestamp time.Time      `json:"timestamp"`
}

// Clone returns a deep copy of p.
func (p Perception) Clone() Perception {
	p.Metadata = CloneMap(p.Metadata)
	return p
}
