// Package action dispatches decisions to registered handlers and records the
// outcome as an Action.
package action

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rcliao/agent-pipeline/internal/model"
)

// Parameter keys passed to every handler.
const (
	ParamDecisionContext = "decision_context"
	ParamConfidence      = "confidence_score"
	ParamReasoning       = "reasoning"
)

// Handler performs one action. It receives parameters derived from the
// decision and returns a structured result.
type Handler func(ctx context.Context, params map[string]any) (map[string]any, error)

// Binding names a handler.
type Binding struct {
	Name    string
	Handler Handler
}

// Option configures the stage.
type Option func(*Stage)

// WithTimeout bounds every handler invocation.
func WithTimeout(d time.Duration) Option {
	return func(s *Stage) {
		s.timeout = d
	}
}

// WithLogger sets the stage logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Stage) {
		if l != nil {
			s.logger = l
		}
	}
}

// Stage holds a handler table that is fixed at construction and safe to share
// between concurrent runs.
type Stage struct {
	handlers map[string]Handler
	names    []string
	timeout  time.Duration
	logger   *zap.Logger
}

// New builds a stage from bindings. Registration order defines the menu order.
func New(bindings []Binding, opts ...Option) (*Stage, error) {
	s := &Stage{
		handlers: make(map[string]Handler, len(bindings)),
		logger:   zap.NewNop(),
	}
	for _, b := range bindings {
		if b.Name == "" || b.Handler == nil {
			return nil, fmt.Errorf("action: invalid binding %q", b.Name)
		}
		if _, dup := s.handlers[b.Name]; dup {
			return nil, fmt.Errorf("action: duplicate handler %q", b.Name)
		}
		s.handlers[b.Name] = b.Handler
		s.names = append(s.names, b.Name)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Names returns the action menu in registration order.
func (s *Stage) Names() []string {
	return append([]string(nil), s.names...)
}

// Execute runs the handler for d.SelectedOption. The returned action is
// always completed or failed, never pending.
func (s *Stage) Execute(ctx context.Context, d model.Decision) model.Action {
	params := map[string]any{
		ParamDecisionContext: model.CloneMap(d.Context),
		ParamConfidence:      d.ConfidenceScore,
		ParamReasoning:       d.Reasoning,
	}
	a := model.NewAction(d.SelectedOption, params)

	h, ok := s.handlers[a.ActionType]
	if !ok {
		a.Fail(fmt.Sprintf("Unknown action type: %s", a.ActionType))
		s.logger.Warn("unknown action", zap.String("action", a.ActionType))
		return *a
	}

	result, err := s.invoke(ctx, h, model.CloneMap(params))
	if err != nil {
		a.Fail(err.Error())
		s.logger.Warn("action failed", zap.String("action", a.ActionType), zap.Error(err))
		return *a
	}

	a.Complete(result)
	s.logger.Debug("action completed", zap.String("action", a.ActionType), zap.String("id", a.ID))
	return *a
}

type outcome struct {
	result map[string]any
	err    error
}

func (s *Stage) invoke(ctx context.Context, h Handler, params map[string]any) (map[string]any, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%v", r)}
			}
		}()
		res, err := h(ctx, params)
		done <- outcome{result: res, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("action timed out after %s", s.timeout)
		}
		return o.result, o.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("action timed out after %s", s.timeout)
		}
		return nil, ctx.Err()
	}
}
