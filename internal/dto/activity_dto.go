package dto

import "time"

// ActivityEntry is one lifecycle event in a user's recent activity feed.
type ActivityEntry struct {
	Type       string                 `json:"type"`
	BeadId     string                 `json:"beadId,omitempty"`
	OccurredAt time.Time              `json:"occurredAt"`
	Details    map[string]interface{} `json:"details,omitempty"`
}
