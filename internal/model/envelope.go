package model

import "time"

// PhaseProcessInput is the phase reported by error envelopes.
const PhaseProcessInput = "process_input"

// Envelope is the serializable outcome of one orchestration run. Exactly one
// of the success fields (Perception, Decision, ActionResult) or the error
// fields (Error, Phase, InputData) is populated.
type Envelope struct {
	Perception   *Perception `json:"perception,omitempty"`
	Decision     *Decision   `json:"decision,omitempty"`
	ActionResult *Action     `json:"action_result,omitempty"`

	Error     string `json:"error,omitempty"`
	Phase     string `json:"phase,omitempty"`
	InputData any    `json:"input_data,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Failed reports whether e is an error envelope.
func (e *Envelope) Failed() bool {
	return e.Error != ""
}

// ErrorEnvelope builds the envelope returned when a run fails.
func ErrorEnvelope(err error, input any) *Envelope {
	return &Envelope{
		Error:     err.Error(),
		Phase:     PhaseProcessInput,
		InputData: input,
		Timestamp: time.Now().UTC(),
	}
}
