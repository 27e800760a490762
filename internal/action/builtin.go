package action

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rcliao/agent-pipeline/internal/model"
	"github.com/rcliao/agent-pipeline/internal/store"
)

// Builtin action names, in menu order.
const (
	SendMessage  = "send_message"
	StoreData    = "store_data"
	RetrieveData = "retrieve_data"
	AnalyzeData  = "analyze_data"
)

const decisionRecordKind = "decision"

// DataStore persists action data for store_data and retrieve_data.
type DataStore interface {
	PutRecord(ctx context.Context, kind string, payload map[string]any) (*store.Record, error)
	Records(ctx context.Context, kind string, limit int) ([]store.Record, error)
}

// Messenger delivers send_message output.
type Messenger interface {
	Send(ctx context.Context, msg string) error
}

// LogMessenger delivers messages to a zap logger.
type LogMessenger struct {
	Logger *zap.Logger
}

func (m LogMessenger) Send(ctx context.Context, msg string) error {
	if m.Logger != nil {
		m.Logger.Info("message", zap.String("text", msg))
	}
	return nil
}

// Builtins returns the default handler table.
func Builtins(data DataStore, msg Messenger) []Binding {
	return []Binding{
		{Name: SendMessage, Handler: sendMessage(msg)},
		{Name: StoreData, Handler: storeData(data)},
		{Name: RetrieveData, Handler: retrieveData(data)},
		{Name: AnalyzeData, Handler: analyzeData},
	}
}

func sendMessage(msg Messenger) Handler {
	return func(ctx context.Context, params map[string]any) (map[string]any, error) {
		if msg == nil {
			return nil, errors.New("no messenger configured")
		}
		text, _ := params[ParamReasoning].(string)
		if text == "" {
			text = fmt.Sprintf("decision made with confidence %.2f", params[ParamConfidence])
		}
		if err := msg.Send(ctx, text); err != nil {
			return nil, fmt.Errorf("send message: %w", err)
		}
		return map[string]any{
			"message_sent": true,
			"message":      text,
			"timestamp":    decisionContext(params)[model.DecisionTimestamp],
		}, nil
	}
}

func storeData(data DataStore) Handler {
	return func(ctx context.Context, params map[string]any) (map[string]any, error) {
		if data == nil {
			return nil, errors.New("no data store configured")
		}
		payload := map[string]any{
			ParamReasoning:  params[ParamReasoning],
			ParamConfidence: params[ParamConfidence],
		}
		if p, ok := decisionContext(params)[model.DecisionCurrentPerception].(model.Perception); ok {
			payload["content"] = p.Content
			payload["input_type"] = string(p.InputType)
		}
		rec, err := data.PutRecord(ctx, decisionRecordKind, payload)
		if err != nil {
			return nil, fmt.Errorf("store data: %w", err)
		}
		return map[string]any{
			"data_stored": true,
			"location":    "database",
			"record_id":   rec.ID,
		}, nil
	}
}

func retrieveData(data DataStore) Handler {
	return func(ctx context.Context, params map[string]any) (map[string]any, error) {
		if data == nil {
			return nil, errors.New("no data store configured")
		}
		recs, err := data.Records(ctx, decisionRecordKind, 5)
		if err != nil {
			return nil, fmt.Errorf("retrieve data: %w", err)
		}
		return map[string]any{
			"data_retrieved": true,
			"count":          len(recs),
			"data":           recs,
		}, nil
	}
}

func analyzeData(ctx context.Context, params map[string]any) (map[string]any, error) {
	memories, _ := decisionContext(params)[model.DecisionRelevantMemories].([]model.Memory)

	var total float64
	for _, m := range memories {
		total += m.ImportanceScore
	}
	avg := 0.0
	if len(memories) > 0 {
		avg = total / float64(len(memories))
	}

	out := map[string]any{
		"analysis_complete":  true,
		"memory_count":       len(memories),
		"average_importance": avg,
	}
	if p, ok := decisionContext(params)[model.DecisionCurrentPerception].(model.Perception); ok {
		if wc, ok := p.Metadata[model.MetaWordCount]; ok {
			out["word_count"] = wc
		}
		_, enhanced := p.Metadata[model.MetaEnhancedAnalysis]
		out["enhanced"] = enhanced
	}
	return out, nil
}

func decisionContext(params map[string]any) map[string]any {
	c, _ := params[ParamDecisionContext].(map[string]any)
	return c
}
