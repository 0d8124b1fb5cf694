package events

import "time"

// Event defines the contract for all journal events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "BEAD_FINALIZED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

const (
	BeadCaptured   = "BEAD_CAPTURED"
	BeadEdited     = "BEAD_EDITED"
	BeadFinalized  = "BEAD_FINALIZED"
	EchoAdded      = "ECHO_ADDED"
	QueueAdvanced  = "QUEUE_ADVANCED"
	QueueImported  = "QUEUE_IMPORTED"
	QuestionsReady = "QUESTIONS_READY"
)

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewBeadEvent builds an event about one bead of one journal. Extra keys are
// merged into the payload.
func NewBeadEvent(eventType, userId, beadId string, extra map[string]interface{}) BaseEvent {
	data := map[string]interface{}{
		"user_id": userId,
	}
	if beadId != "" {
		data["bead_id"] = beadId
	}
	for k, v := range extra {
		data[k] = v
	}
	now := time.Now()
	data["occurred_at"] = now.Format(time.RFC3339Nano)
	return BaseEvent{Type: eventType, Data: data, OccurredAt: now}
}
