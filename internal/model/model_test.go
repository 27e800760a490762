package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInputType(t *testing.T) {
	for _, tag := range []string{"text", "TEXT", " Image ", "audio", "sensor"} {
		_, err := ParseInputType(tag)
		assert.NoError(t, err, tag)
	}

	_, err := ParseInputType("video")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidPerceptionType))
}

func TestPerceptionCloneIsDeep(t *testing.T) {
	p := Perception{
		InputType: InputText,
		Content:   "hello",
		Metadata: map[string]any{
			"nested": map[string]any{"a": 1},
			"list":   []any{"x"},
		},
	}
	c := p.Clone()
	c.Metadata["added"] = true
	c.Metadata["nested"].(map[string]any)["a"] = 2
	c.Metadata["list"].([]any)[0] = "y"

	assert.NotContains(t, p.Metadata, "added")
	assert.Equal(t, 1, p.Metadata["nested"].(map[string]any)["a"])
	assert.Equal(t, "x", p.Metadata["list"].([]any)[0])
}

func TestActionStatusIsMonotonic(t *testing.T) {
	a := NewAction("store_data", nil)
	require.Equal(t, StatusPending, a.Status)
	require.Nil(t, a.Result)

	a.Complete(map[string]any{"ok": true})
	assert.Equal(t, StatusCompleted, a.Status)

	a.Fail("too late")
	assert.Equal(t, StatusCompleted, a.Status)
	assert.Equal(t, true, a.Result["ok"])
}

func TestEnvelopeJSON(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	env := &Envelope{
		Perception: &Perception{InputType: InputImage, Content: "x", Timestamp: ts},
		Timestamp:  ts,
	}
	b, err := json.Marshal(env)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, "2024-03-01T10:00:00Z", out["timestamp"])
	assert.Equal(t, "image", out["perception"].(map[string]any)["input_type"])
	assert.NotContains(t, out, "error")

	errEnv := ErrorEnvelope(errors.New("boom"), "raw input")
	assert.True(t, errEnv.Failed())
	assert.Equal(t, PhaseProcessInput, errEnv.Phase)
	assert.Equal(t, "raw input", errEnv.InputData)
}
