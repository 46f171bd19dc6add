package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted over the life of a run.
const (
	TypeRunStarted   = "run.started"
	TypeStageReached = "run.stage_reached"
	TypeRunCompleted = "run.completed"
	TypeRunFailed    = "run.failed"
)

// RunEvent reports progress of one orchestrator run.
type RunEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the Type* constants
	Type string `json:"type"`

	// RunID identifies the run that produced the event
	RunID uuid.UUID `json:"run_id"`

	// Stage is the run stage the event was emitted from
	Stage string `json:"stage"`

	// Payload carries the type-specific body serialized as JSON
	Payload json.RawMessage `json:"payload,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Progress is the payload of stage events: item counts at that point of
// the run.
type Progress struct {
	Round     int    `json:"round"`
	Contexts  int    `json:"contexts"`
	Questions int    `json:"questions"`
	Approved  int    `json:"approved"`
	Forced    int    `json:"forced"`
	Pending   int    `json:"pending"`
	Failed    int    `json:"failed"`
	Error     string `json:"error,omitempty"`
}

// UnmarshalPayload decodes the event payload into v.
func (e *RunEvent) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewRunEvent creates an event of the given type for a run. A nil payload
// leaves Payload empty.
func NewRunEvent(eventType string, runID uuid.UUID, stage string, payload any) (*RunEvent, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}

	return &RunEvent{
		ID:        uuid.New(),
		Type:      eventType,
		RunID:     runID,
		Stage:     stage,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// EventHandler receives run events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *RunEvent) error
}

// EventEmitter publishes run events to whoever is listening.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *RunEvent) error
}
