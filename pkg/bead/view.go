package bead

import "fmt"

// Tab is the view the client is currently showing.
type Tab string

const (
	TabCollection Tab = "collection"
	TabEcho       Tab = "echo"
	TabCreate     Tab = "create"
)

func (t Tab) Valid() bool {
	switch t {
	case TabCollection, TabEcho, TabCreate:
		return true
	}
	return false
}

// View is the per-user selection state the resolver works from.
//
// QuestionIndex is only the position a rotation starts from: Queue-Advance and
// imports reset it to 0. The live index while frames rotate belongs to the
// echo scheduler of each instance and is not written back.
type View struct {
	Tab           Tab     `json:"tab"`
	SelectedId    *string `json:"selectedId"`
	QuestionIndex int     `json:"questionIndex"`
	Editing       bool    `json:"editing"`
}

func DefaultView() View {
	return View{Tab: TabEcho}
}

func (v View) Select(id *string) View {
	if id == nil {
		v.SelectedId = nil
		return v
	}
	sel := *id
	v.SelectedId = &sel
	return v
}

const (
	FallbackTitle  = "Morning Light"
	FallbackPrompt = "What is a small moment of peace you found today?"
	FallbackColor  = "#f3e5ab"
	FallbackDate   = "Today"

	// SeedFallbackId is the id of the fallback a fresh journal starts with.
	SeedFallbackId = "daily-1"
)

var fallbackQuestions = []string{
	"Where were you standing?",
	"What was the light touching?",
	"Why did this moment stand out?",
}

// NewFallback builds the always-present daily draft. Story, media and echoes
// are always empty.
func NewFallback(id string) Bead {
	return Bead{
		Id:            id,
		Variant:       DailyDraft,
		Title:         FallbackTitle,
		Prompt:        FallbackPrompt,
		Date:          FallbackDate,
		DominantColor: FallbackColor,
		Shape:         CircleShape,
		EchoQuestions: cloneStrings(fallbackQuestions),
		Echoes:        []Echo{},
	}
}

// NewJournalState is the store of a user who has never captured anything.
func NewJournalState() State {
	return State{
		Collection: []Bead{},
		Queue:      []Bead{},
		Fallback:   NewFallback(SeedFallbackId),
	}
}

func errDraftInCollection(id string) error {
	return fmt.Errorf("bead %s: draft in collection", id)
}

func errDuplicateId(id string) error {
	return fmt.Errorf("bead %s: id used more than once", id)
}

func errFinalizedInQueue(id string) error {
	return fmt.Errorf("bead %s: finalized bead outside collection", id)
}
