package model

import "time"

// ActionStatus is the lifecycle state of an Action. It only moves forward,
// from pending to completed or failed.
type ActionStatus string

const (
	StatusPending   ActionStatus = "pending"
	StatusCompleted ActionStatus = "completed"
	StatusFailed    ActionStatus = "failed"
)

// Action records one dispatched handler execution and its outcome.
type Action struct {
	ID         string         `json:"id"`
	ActionType string         `json:"action_type"`
	Parameters map[string]any `json:"parameters"`
	Status     ActionStatus   `json:"status"`
	Result     map[string]any `json:"result"`
	Timestamp  time.Time      `json:"timestamp"`
}

// NewAction returns a pending action with a fresh ID.
func NewAction(actionType string, params map[string]any) *Action {
	return &Action{
		ID:         NewID(),
		ActionType: actionType,
		Parameters: params,
		Status:     StatusPending,
		Timestamp:  time.Now().UTC(),
	}
}

// Complete moves a pending action to completed. It is a no-op once the
// action has left pending.
func (a *Action) Complete(result map[string]any) {
	if a.Status != StatusPending {
		return
	}
	if result == nil {
		result = map[string]any{}
	}
	a.Status = StatusCompleted
	a.Result = result
}

// Fail moves a pending action to failed with the given message.
func (a *Action) Fail(msg string) {
	if a.Status != StatusPending {
		return
	}
	a.Status = StatusFailed
	a.Result = map[string]any{"error": msg}
}
