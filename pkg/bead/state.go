package bead

import "strconv"

// Slot names the store slice that owns a bead.
type Slot string

const (
	SlotNone       Slot = ""
	SlotCollection Slot = "collection"
	SlotQueue      Slot = "queue"
	SlotFallback   Slot = "fallback"
)

// State is the bead store: the finalized collection, the daily draft queue and
// the fallback draft. Values are never mutated in place; every Replace call
// returns a new State and leaves the receiver untouched.
type State struct {
	Collection []Bead `json:"collection"`
	Queue      []Bead `json:"queue"`
	Fallback   Bead   `json:"fallback"`
}

func NewState(collection, queue []Bead, fallback Bead) State {
	return State{
		Collection: cloneBeads(collection),
		Queue:      cloneBeads(queue),
		Fallback:   fallback.Clone(),
	}
}

func (s State) ReplaceCollection(collection []Bead) State {
	s.Collection = cloneBeads(collection)
	return s
}

func (s State) ReplaceQueue(queue []Bead) State {
	s.Queue = cloneBeads(queue)
	return s
}

// AdmitDrafts prepares drafts to become the new queue. An id already taken by
// the collection, the fallback or an earlier draft gets the first free
// numeric suffix, so every id in the store keeps naming exactly one bead.
func (s State) AdmitDrafts(drafts []Bead) []Bead {
	taken := make(map[string]bool, len(s.Collection)+len(drafts)+1)
	for _, b := range s.Collection {
		taken[b.Id] = true
	}
	taken[s.Fallback.Id] = true

	out := cloneBeads(drafts)
	for i := range out {
		id := out[i].Id
		for n := 2; taken[id]; n++ {
			id = out[i].Id + "-" + strconv.Itoa(n)
		}
		out[i].Id = id
		taken[id] = true
	}
	return out
}

func (s State) ReplaceFallback(fallback Bead) State {
	s.Fallback = fallback.Clone()
	return s
}

// Locate finds the slot and index owning id. The fallback reports index 0.
func (s State) Locate(id string) (Slot, int) {
	if id == "" {
		return SlotNone, -1
	}
	if i := indexOf(s.Collection, id); i >= 0 {
		return SlotCollection, i
	}
	if i := indexOf(s.Queue, id); i >= 0 {
		return SlotQueue, i
	}
	if s.Fallback.Id == id {
		return SlotFallback, 0
	}
	return SlotNone, -1
}

// Find returns a copy of the bead with id, or nil.
func (s State) Find(id string) *Bead {
	slot, i := s.Locate(id)
	var b Bead
	switch slot {
	case SlotCollection:
		b = s.Collection[i]
	case SlotQueue:
		b = s.Queue[i]
	case SlotFallback:
		b = s.Fallback
	default:
		return nil
	}
	c := b.Clone()
	return &c
}

func (s State) QueueHead() *Bead {
	if len(s.Queue) == 0 {
		return nil
	}
	c := s.Queue[0].Clone()
	return &c
}

func (s State) Clone() State {
	return NewState(s.Collection, s.Queue, s.Fallback)
}

// Validate checks the store invariants: ids are unique across all slots, every
// queue member and the fallback are drafts, no collection member is.
func (s State) Validate() error {
	seen := make(map[string]bool, len(s.Collection)+len(s.Queue)+1)
	for _, b := range append(append([]Bead{s.Fallback}, s.Collection...), s.Queue...) {
		if seen[b.Id] {
			return errDuplicateId(b.Id)
		}
		seen[b.Id] = true
	}
	for _, b := range s.Collection {
		if err := b.Validate(); err != nil {
			return err
		}
		if b.IsDraft() {
			return errDraftInCollection(b.Id)
		}
	}
	for _, b := range s.Queue {
		if err := b.Validate(); err != nil {
			return err
		}
		if !b.IsDraft() {
			return errFinalizedInQueue(b.Id)
		}
	}
	if err := s.Fallback.Validate(); err != nil {
		return err
	}
	if !s.Fallback.IsDraft() {
		return errFinalizedInQueue(s.Fallback.Id)
	}
	return nil
}

// withBead writes b back into the slot it was found in.
func (s State) withBead(slot Slot, i int, b Bead) State {
	switch slot {
	case SlotCollection:
		s.Collection = replaceAt(s.Collection, i, b)
	case SlotQueue:
		s.Queue = replaceAt(s.Queue, i, b)
	case SlotFallback:
		s.Fallback = b
	}
	return s
}

func indexOf(beads []Bead, id string) int {
	for i := range beads {
		if beads[i].Id == id {
			return i
		}
	}
	return -1
}

func cloneBeads(in []Bead) []Bead {
	if in == nil {
		return nil
	}
	out := make([]Bead, len(in))
	for i, b := range in {
		out[i] = b.Clone()
	}
	return out
}

func replaceAt(in []Bead, i int, b Bead) []Bead {
	out := make([]Bead, len(in))
	copy(out, in)
	out[i] = b
	return out
}

func removeAt(in []Bead, i int) []Bead {
	out := make([]Bead, 0, len(in)-1)
	out = append(out, in[:i]...)
	return append(out, in[i+1:]...)
}

func prepend(b Bead, in []Bead) []Bead {
	out := make([]Bead, 0, len(in)+1)
	out = append(out, b)
	return append(out, in...)
}
