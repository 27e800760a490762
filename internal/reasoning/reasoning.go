// Package reasoning provides the completion service the perception and
// decision stages call out to.
package reasoning

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnavailable marks every failure of the reasoning service: transport
// errors, API errors, empty completions and timeouts.
var ErrUnavailable = errors.New("reasoning service unavailable")

// Service turns a text prompt into generated text.
type Service interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Func adapts a plain function to Service.
type Func func(ctx context.Context, prompt string) (string, error)

func (f Func) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Result is the outcome of one service call. Err is nil on success and wraps
// ErrUnavailable otherwise.
type Result struct {
	Text string
	Err  error
}

// OK reports whether the call produced text.
func (r Result) OK() bool { return r.Err == nil }

// Call invokes svc and folds every failure into Result.Err.
func Call(ctx context.Context, svc Service, prompt string) Result {
	if svc == nil {
		return Result{Err: fmt.Errorf("%w: no service configured", ErrUnavailable)}
	}
	text, err := svc.Complete(ctx, prompt)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("empty completion")
	}
	if err != nil {
		if !errors.Is(err, ErrUnavailable) {
			err = fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return Result{Err: err}
	}
	return Result{Text: text}
}

// WithTimeout bounds every call to svc by d. The call returns once d elapses
// even if svc ignores its context.
func WithTimeout(svc Service, d time.Duration) Service {
	if d <= 0 {
		return svc
	}
	return &timeoutService{svc: svc, timeout: d}
}

type timeoutService struct {
	svc     Service
	timeout time.Duration
}

type completion struct {
	text string
	err  error
}

func (t *timeoutService) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	done := make(chan completion, 1)
	go func() {
		text, err := t.svc.Complete(ctx, prompt)
		done <- completion{text: text, err: err}
	}()

	select {
	case c := <-done:
		if c.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: timed out after %s", ErrUnavailable, t.timeout)
		}
		return c.text, c.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: timed out after %s", ErrUnavailable, t.timeout)
		}
		return "", fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
	}
}
