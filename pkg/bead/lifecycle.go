package bead

import "time"

// Transition names a lifecycle operation.
type Transition string

const (
	TransitionCapture   Transition = "capture"
	TransitionEdit      Transition = "edit"
	TransitionFinalize  Transition = "finalize"
	TransitionEcho      Transition = "echo"
	TransitionAdvance   Transition = "advance"
	TransitionQuestions Transition = "questions"
)

// Submission is what the expand/edit modal hands back.
type Submission struct {
	Title    string
	Text     string
	Images   []string
	AudioUrl string
}

// CaptureInput is an analysed photo plus the optional note typed under it.
type CaptureInput struct {
	ImageUrl string
	Title    string
	Prompt   string
	Color    string
	Story    string
}

// Outcome describes what a transition did. Applied is false for every no-op,
// including stale ids; the returned State is then the input State.
type Outcome struct {
	Transition Transition `json:"transition"`
	Applied    bool       `json:"applied"`
	Slot       Slot       `json:"slot,omitempty"`
	Bead       *Bead      `json:"bead,omitempty"`
	Echo       *Echo      `json:"echo,omitempty"`
}

// Engine applies lifecycle transitions. Every method is a pure function of its
// inputs plus the clock and appearance generator; none mutates the given State.
type Engine struct {
	now  func() time.Time
	look *Appearance
}

func NewEngine(now func() time.Time, look *Appearance) *Engine {
	if now == nil {
		now = time.Now
	}
	if look == nil {
		look = NewAppearance(nil)
	}
	return &Engine{now: now, look: look}
}

func (e *Engine) Appearance() *Appearance {
	return e.look
}

// Capture prepends a new scanned bead to the collection.
func (e *Engine) Capture(s State, in CaptureInput) (State, Outcome) {
	color := in.Color
	if color == "" {
		color = e.look.PastelColor()
	}
	b := Bead{
		Id:               e.look.NewId(),
		Variant:          ScannedFinalized,
		Title:            in.Title,
		Prompt:           in.Prompt,
		UserStory:        in.Story,
		Date:             BeadDate(e.now()),
		DominantColor:    color,
		Shape:            e.look.Shape(),
		ImageUrl:         in.ImageUrl,
		AdditionalImages: []string{},
		EchoQuestions:    []string{},
		Echoes:           []Echo{},
	}

	s.Collection = prepend(b, s.Collection)
	return s, applied(TransitionCapture, SlotCollection, b)
}

// Edit rewrites title, story, audio and images of the bead in place. The first
// image becomes the cover, the rest become attachments.
func (e *Engine) Edit(s State, id string, sub Submission) (State, Outcome) {
	slot, i := s.Locate(id)
	if slot == SlotNone {
		return s, Outcome{Transition: TransitionEdit}
	}

	b := s.Find(id)
	b.Title = sub.Title
	b.UserStory = sub.Text
	b.AudioUrl = sub.AudioUrl
	b.ImageUrl = ""
	b.AdditionalImages = []string{}
	if len(sub.Images) > 0 {
		b.ImageUrl = sub.Images[0]
		b.AdditionalImages = cloneStrings(sub.Images[1:])
	}

	return s.withBead(slot, i, *b), applied(TransitionEdit, slot, *b)
}

// Reflect is the expand-modal save: drafts are finalized, finalized beads
// receive an echo.
func (e *Engine) Reflect(s State, id string, sub Submission) (State, Outcome) {
	b := s.Find(id)
	if b == nil {
		return s, Outcome{Transition: TransitionEcho}
	}
	if b.IsDraft() {
		return e.FinalizeDraft(s, id, sub)
	}
	return e.AddEcho(s, id, sub)
}

// FinalizeDraft moves a draft from the queue (or the fallback slot) to the
// head of the collection. A finalized fallback is replaced by a fresh draft.
func (e *Engine) FinalizeDraft(s State, id string, sub Submission) (State, Outcome) {
	slot, i := s.Locate(id)
	if slot != SlotQueue && slot != SlotFallback {
		return s, Outcome{Transition: TransitionFinalize}
	}

	b := s.Find(id)
	if !b.IsDraft() {
		return s, Outcome{Transition: TransitionFinalize}
	}

	b.Variant = DailyFinalized
	b.Shape = e.look.Shape()
	b.Date = BeadDate(e.now())
	b.UserStory = sub.Text
	if sub.Title != "" {
		b.Title = sub.Title
	}
	additional := make([]string, 0, len(b.AdditionalImages)+len(sub.Images))
	additional = append(additional, b.AdditionalImages...)
	b.AdditionalImages = append(additional, sub.Images...)
	if sub.AudioUrl != "" {
		b.AudioUrl = sub.AudioUrl
	}
	b.Echoes = []Echo{}

	next := s
	next.Collection = prepend(*b, s.Collection)
	if slot == SlotQueue {
		next.Queue = removeAt(s.Queue, i)
	} else {
		next.Fallback = NewFallback("daily-" + e.look.NewId())
	}
	return next, applied(TransitionFinalize, slot, *b)
}

// AddEcho appends an echo to a finalized bead in the collection.
func (e *Engine) AddEcho(s State, id string, sub Submission) (State, Outcome) {
	slot, i := s.Locate(id)
	if slot != SlotCollection {
		return s, Outcome{Transition: TransitionEcho}
	}

	b := s.Find(id)
	if b.IsDraft() {
		return s, Outcome{Transition: TransitionEcho}
	}

	echo := Echo{
		Id:       e.look.NewId(),
		Date:     EchoDate(e.now()),
		Text:     sub.Text,
		Images:   cloneStrings(sub.Images),
		AudioUrl: sub.AudioUrl,
	}
	if echo.Images == nil {
		echo.Images = []string{}
	}
	b.Echoes = append(b.Echoes, echo)

	out := applied(TransitionEcho, slot, *b)
	out.Echo = &echo
	return s.withBead(slot, i, *b), out
}

// AdvanceQueue moves the queue head to the tail.
func (e *Engine) AdvanceQueue(s State) (State, Outcome) {
	if len(s.Queue) <= 1 {
		return s, Outcome{Transition: TransitionAdvance}
	}
	queue := make([]Bead, 0, len(s.Queue))
	queue = append(queue, s.Queue[1:]...)
	queue = append(queue, s.Queue[0])
	s.Queue = queue
	return s, applied(TransitionAdvance, SlotQueue, queue[0])
}

// ApplyQuestions stores lazily generated reflection questions. It is a no-op
// when the bead is gone or already has questions, so late results from an
// abandoned request never clobber newer state.
func (e *Engine) ApplyQuestions(s State, id string, questions []string) (State, Outcome) {
	slot, i := s.Locate(id)
	if slot == SlotNone || len(questions) == 0 {
		return s, Outcome{Transition: TransitionQuestions}
	}
	b := s.Find(id)
	if len(b.EchoQuestions) > 0 {
		return s, Outcome{Transition: TransitionQuestions}
	}
	b.EchoQuestions = cloneStrings(questions)
	return s.withBead(slot, i, *b), applied(TransitionQuestions, slot, *b)
}

func applied(t Transition, slot Slot, b Bead) Outcome {
	c := b.Clone()
	return Outcome{Transition: t, Applied: true, Slot: slot, Bead: &c}
}
