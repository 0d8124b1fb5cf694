package dto

import (
	"memory-beads-be/pkg/bead"

	"github.com/google/uuid"
)

const (
	StreamTypeJournal   = "journal"
	StreamTypeEchoFrame = "echo_frame"
)

// StreamMessage is one websocket frame sent to the client.
type StreamMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// JournalEvent is pushed after every committed change.
type JournalEvent struct {
	Transition bead.Transition  `json:"transition,omitempty"`
	Applied    bool             `json:"applied"`
	Journal    *JournalResponse `json:"journal"`
}

// QuestionRequestMessage asks the worker to generate reflection questions.
type QuestionRequestMessage struct {
	UserId uuid.UUID `json:"user_id"`
	BeadId string    `json:"bead_id"`
	Title  string    `json:"title"`
	Story  string    `json:"story"`
}
