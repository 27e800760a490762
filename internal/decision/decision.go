// Package decision picks one action from a closed menu by asking the
// reasoning service, falling back to the first option when it is unavailable.
package decision

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rcliao/agent-pipeline/internal/model"
	"github.com/rcliao/agent-pipeline/internal/reasoning"
)

const (
	// DefaultConfidence is reported whenever the service picks an action on
	// the menu. It is a placeholder: the service gives no real certainty.
	DefaultConfidence = 0.8

	// FallbackConfidence is reported when the service could not be reached.
	FallbackConfidence = 0.1

	// UnmatchedConfidence is reported when the service answered with an
	// action that is not on the menu.
	UnmatchedConfidence = 0.0

	// FallbackReasoning prefixes the reasoning of fallback decisions.
	FallbackReasoning = "Fallback decision due to LLM error"
)

// ErrEmptyMenu is returned when Decide is called without options.
var ErrEmptyMenu = errors.New("decision: empty action menu")

// Stage is the decision stage.
type Stage struct {
	svc    reasoning.Service
	logger *zap.Logger
}

// New creates a decision stage.
func New(svc reasoning.Service, logger *zap.Logger) *Stage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stage{svc: svc, logger: logger}
}

// Decide selects one of options for the perception given the retrieved
// memories. The returned Decision always selects a member of options; a
// reasoning failure produces a fallback decision instead of an error.
func (s *Stage) Decide(ctx context.Context, p model.Perception, memories []model.Memory, options []string) (model.Decision, error) {
	if len(options) == 0 {
		return model.Decision{}, ErrEmptyMenu
	}

	now := time.Now().UTC()
	d := model.Decision{
		ID:        model.NewID(),
		Context:   buildContext(p, memories, now),
		Options:   append([]string(nil), options...),
		Timestamp: now,
	}

	res := reasoning.Call(ctx, s.svc, buildPrompt(p, memories, options))
	if !res.OK() {
		s.logger.Warn("decision service failed, using fallback",
			zap.String("fallback", options[0]), zap.Error(res.Err))
		d.SelectedOption = options[0]
		d.ConfidenceScore = FallbackConfidence
		d.Reasoning = fmt.Sprintf("%s: %v", FallbackReasoning, res.Err)
		d.Context[model.DecisionError] = res.Err.Error()
		return d, nil
	}

	action, reasoningText := parseResponse(res.Text)
	d.Reasoning = reasoningText

	if selected, ok := matchOption(action, options); ok {
		d.SelectedOption = selected
		d.ConfidenceScore = DefaultConfidence
		return d, nil
	}

	s.logger.Warn("service selected an action outside the menu",
		zap.String("selected", action), zap.Strings("options", options))
	d.SelectedOption = options[0]
	d.ConfidenceScore = UnmatchedConfidence
	d.Context[model.DecisionUnmatchedSelection] = action
	return d, nil
}

func buildContext(p model.Perception, memories []model.Memory, now time.Time) map[string]any {
	snap := make([]model.Memory, len(memories))
	for i, m := range memories {
		snap[i] = m.Clone()
	}
	return map[string]any{
		model.DecisionCurrentPerception: p.Clone(),
		model.DecisionRelevantMemories:  snap,
		model.DecisionTimestamp:         now,
	}
}

// matchOption finds action on the menu, exactly first and then ignoring case.
func matchOption(action string, options []string) (string, bool) {
	if action == "" {
		return "", false
	}
	for _, o := range options {
		if o == action {
			return o, true
		}
	}
	for _, o := range options {
		if strings.EqualFold(o, action) {
			return o, true
		}
	}
	return "", false
}
