// Package pipeline runs Perception, Memory, Decision and Action in order for
// one input and assembles the result envelope.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rcliao/agent-pipeline/internal/model"
	"github.com/rcliao/agent-pipeline/internal/store"
)

// ErrStoreUnavailable is returned when the perception could not be persisted.
var ErrStoreUnavailable = errors.New("memory store unavailable")

// Perceiver is the perception stage.
type Perceiver interface {
	Process(ctx context.Context, input any, inputType model.InputType) (model.Perception, error)
	Enhance(ctx context.Context, p model.Perception) model.Perception
}

// Decider is the decision stage.
type Decider interface {
	Decide(ctx context.Context, p model.Perception, memories []model.Memory, options []string) (model.Decision, error)
}

// Executor is the action stage.
type Executor interface {
	Names() []string
	Execute(ctx context.Context, d model.Decision) model.Action
}

// Option configures an Agent.
type Option func(*Agent)

// WithStoreTimeout bounds each store and retrieve call.
func WithStoreTimeout(d time.Duration) Option {
	return func(a *Agent) { a.storeTimeout = d }
}

// WithRetrieveLimit sets how many memories feed each decision.
func WithRetrieveLimit(n int) Option {
	return func(a *Agent) { a.retrieveLimit = n }
}

// WithLogger sets the agent logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Agent) {
		if l != nil {
			a.logger = l
		}
	}
}

// Agent sequences the four stages. It holds no per-run state and may serve
// concurrent runs; the store is shared between them.
type Agent struct {
	perception Perceiver
	memory     store.Store
	decision   Decider
	actions    Executor

	storeTimeout  time.Duration
	retrieveLimit int
	logger        *zap.Logger
}

// New creates an Agent.
func New(p Perceiver, m store.Store, d Decider, a Executor, opts ...Option) *Agent {
	ag := &Agent{
		perception:    p,
		memory:        m,
		decision:      d,
		actions:       a,
		storeTimeout:  5 * time.Second,
		retrieveLimit: store.DefaultRetrieveLimit,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(ag)
	}
	return ag
}

// Actions returns the action menu.
func (a *Agent) Actions() []string {
	return a.actions.Names()
}

// Run processes one input. Degraded stages do not fail the run; an invalid
// input type, a store write failure or a cancelled context do.
func (a *Agent) Run(ctx context.Context, input any, inputType model.InputType) (*model.Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	p, err := a.perception.Process(ctx, input, inputType)
	if err != nil {
		return nil, fmt.Errorf("perception: %w", err)
	}
	p = a.perception.Enhance(ctx, p)

	mem, err := a.store(ctx, p.Clone())
	if err != nil {
		return nil, err
	}

	memories := a.retrieve(ctx, p.Content)

	d, err := a.decision.Decide(ctx, p.Clone(), memories, a.actions.Names())
	if err != nil {
		return nil, fmt.Errorf("decision: %w", err)
	}

	act := a.actions.Execute(ctx, d.Clone())

	a.logger.Info("run complete",
		zap.String("memory_id", mem.ID),
		zap.Int("memories", len(memories)),
		zap.String("action", d.SelectedOption),
		zap.Float64("confidence", d.ConfidenceScore),
		zap.String("status", string(act.Status)),
		zap.Duration("elapsed", time.Since(start)))

	return &model.Envelope{
		Perception:   &p,
		Decision:     &d,
		ActionResult: &act,
		Timestamp:    time.Now().UTC(),
	}, nil
}

// ProcessInput runs the pipeline for a raw input and a type tag. It always
// returns an envelope: the result on success, an error envelope otherwise.
func (a *Agent) ProcessInput(ctx context.Context, input any, typeTag string) (env *model.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("run panicked", zap.Any("panic", r))
			env = model.ErrorEnvelope(fmt.Errorf("panic: %v", r), input)
		}
	}()

	inputType, err := model.ParseInputType(typeTag)
	if err != nil {
		a.logger.Warn("rejected input", zap.Error(err))
		return model.ErrorEnvelope(err, input)
	}

	env, err = a.Run(ctx, input, inputType)
	if err != nil {
		a.logger.Error("run failed", zap.Error(err))
		return model.ErrorEnvelope(err, input)
	}
	return env
}

func (a *Agent) store(ctx context.Context, p model.Perception) (*model.Memory, error) {
	ctx, cancel := a.bounded(ctx)
	defer cancel()

	mem, err := a.memory.Put(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return mem, nil
}

func (a *Agent) retrieve(ctx context.Context, query string) []model.Memory {
	ctx, cancel := a.bounded(ctx)
	defer cancel()

	memories := a.memory.Retrieve(ctx, query, a.retrieveLimit)
	if memories == nil {
		memories = []model.Memory{}
	}
	return memories
}

func (a *Agent) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.storeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.storeTimeout)
}
