// Package perception turns raw input into timestamped Perception records,
// enriched by the reasoning service when it is reachable.
package perception

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/rcliao/agent-pipeline/internal/model"
	"github.com/rcliao/agent-pipeline/internal/reasoning"
)

const analysisType = "structured_enhancement"

const enhancePrompt = `Analyze the following input and provide a structured response in JSON format:

Input: %s

Please provide analysis in the following format:
{
    "key_concepts": [],
    "main_topics": [],
    "entities": [],
    "sentiment": "",
    "intentions": [],
    "implications": [],
    "context": {},
    "suggested_actions": []
}`

// Stage is the perception stage.
type Stage struct {
	svc    reasoning.Service
	model  string
	logger *zap.Logger
	now    func() time.Time
}

// New creates a perception stage. modelName is recorded alongside
// enhancement results.
func New(svc reasoning.Service, modelName string, logger *zap.Logger) *Stage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stage{
		svc:    svc,
		model:  modelName,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Process builds a Perception from input. A reasoning failure does not fail
// the call: the returned perception then carries only an "error" metadata
// field. Only an unknown input type is an error.
func (s *Stage) Process(ctx context.Context, input any, inputType model.InputType) (model.Perception, error) {
	if !inputType.Valid() {
		return model.Perception{}, fmt.Errorf("%w: %q", model.ErrInvalidPerceptionType, string(inputType))
	}

	content := toText(input)
	res := reasoning.Call(ctx, s.svc, content)
	if !res.OK() {
		s.logger.Warn("initial analysis failed, continuing without enrichment",
			zap.String("input_type", string(inputType)), zap.Error(res.Err))
		return model.Perception{
			InputType: inputType,
			Content:   content,
			Metadata:  map[string]any{model.MetaError: res.Err.Error()},
			Timestamp: s.now(),
		}, nil
	}

	return model.Perception{
		InputType: inputType,
		Content:   content,
		Metadata: map[string]any{
			model.MetaRawType:         fmt.Sprintf("%T", input),
			model.MetaInitialAnalysis: res.Text,
			model.MetaLength:          utf8.RuneCountInString(content),
			model.MetaWordCount:       len(strings.Fields(content)),
		},
		Timestamp: s.now(),
	}, nil
}

// Enhance asks for a structured analysis of a text perception and records it
// under "enhanced_analysis". Unparseable analyses are kept as raw text. The
// timestamp moves to the enhancement time on success; on failure only
// "enhancement_error" is added. Non-text perceptions are returned unchanged.
func (s *Stage) Enhance(ctx context.Context, p model.Perception) model.Perception {
	if p.InputType != model.InputText {
		return p
	}
	if p.Metadata == nil {
		p.Metadata = map[string]any{}
	}

	res := reasoning.Call(ctx, s.svc, fmt.Sprintf(enhancePrompt, p.Content))
	if !res.OK() {
		s.logger.Warn("enhancement failed", zap.Error(res.Err))
		p.Metadata[model.MetaEnhancementError] = res.Err.Error()
		return p
	}

	analysis, ok := parseAnalysis(res.Text)
	if !ok {
		s.logger.Debug("enhancement was not JSON, keeping raw text")
		analysis = map[string]any{model.MetaRawAnalysis: res.Text}
	}

	now := s.now()
	p.Metadata[model.MetaEnhancedAnalysis] = analysis
	p.Metadata[model.MetaLLMResponse] = map[string]any{
		"content": res.Text,
		"metadata": map[string]any{
			"model":         s.model,
			"analysis_type": analysisType,
		},
		"timestamp": now,
	}
	p.Timestamp = now
	return p
}

func toText(input any) string {
	switch v := input.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	case nil:
		return ""
	}
	if b, err := json.Marshal(input); err == nil {
		return string(b)
	}
	return fmt.Sprint(input)
}

// parseAnalysis decodes a JSON object, tolerating a markdown code fence.
func parseAnalysis(text string) (map[string]any, bool) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimPrefix(text, "json")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(text), &out); err != nil || out == nil {
		return nil, false
	}
	return out, true
}
