package entity

import (
	"time"

	"memory-beads-be/pkg/bead"

	"github.com/google/uuid"
)

// Journal is one user's bead store plus the view state every device shares.
type Journal struct {
	UserId    uuid.UUID
	State     bead.State
	View      bead.View
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewJournal seeds a fresh journal with the fallback bead and the echo tab.
func NewJournal(userId uuid.UUID) *Journal {
	return &Journal{
		UserId: userId,
		State:  bead.NewJournalState(),
		View:   bead.DefaultView(),
	}
}

func (j *Journal) Clone() *Journal {
	if j == nil {
		return nil
	}
	out := *j
	out.State = j.State.Clone()
	if j.View.SelectedId != nil {
		id := *j.View.SelectedId
		out.View.SelectedId = &id
	}
	return &out
}
