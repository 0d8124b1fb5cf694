package echo

import (
	"context"
	"slices"
	"sync"
	"time"

	"memory-beads-be/pkg/bead"
)

const (
	DefaultPeriod = 7 * time.Second
	DefaultFade   = 500 * time.Millisecond
)

// Frame is what the echo view should display right now.
type Frame struct {
	BeadId   string `json:"bead_id"`
	Index    int    `json:"index"`
	Question string `json:"question"`
	Fading   bool   `json:"fading"`
}

// Scheduler rotates the reflective question of one rotating bead. It runs
// only while a bead is set and no edit is in progress; callers just report the
// current bead and editing flag through Update.
type Scheduler struct {
	period  time.Duration
	fade    time.Duration
	onFrame func(Frame)

	mu      sync.Mutex
	bead    *bead.Bead
	editing bool
	index   int
	fading  bool
	running bool
	gen     uint64
	cancel  context.CancelFunc
	closed  bool

	wg sync.WaitGroup
}

func NewScheduler(period, fade time.Duration, onFrame func(Frame)) *Scheduler {
	if period <= 0 {
		period = DefaultPeriod
	}
	if fade < 0 || fade >= period {
		fade = DefaultFade
	}
	if onFrame == nil {
		onFrame = func(Frame) {}
	}
	return &Scheduler{period: period, fade: fade, onFrame: onFrame}
}

// Update reports the current rotating bead (nil when there is none) and
// whether an edit modal is open. Rotation restarts when the bead changes and
// stops while editing or without a bead.
func (s *Scheduler) Update(b *bead.Bead, editing bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	changed := !sameBead(s.bead, b) || s.editing != editing
	if b != nil {
		c := b.Clone()
		s.bead = &c
	} else {
		s.bead = nil
	}
	s.editing = editing

	if !changed && (s.running || s.bead == nil || editing) {
		s.mu.Unlock()
		return
	}

	s.stopLocked()
	if s.bead != nil && !editing {
		s.startLocked()
	}
	s.mu.Unlock()
}

// Reset puts the rotation back on the first question.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	s.index = 0
	s.fading = false
	frame, ok := s.frameLocked()
	s.mu.Unlock()
	if ok {
		s.onFrame(frame)
	}
}

// Current returns the frame to display, false when there is no bead.
func (s *Scheduler) Current() (Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameLocked()
}

// Close stops rotation for good and waits for the worker to exit.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.stopLocked()
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Scheduler) startLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	s.gen++
	s.cancel = cancel
	s.running = true
	s.wg.Add(1)
	go s.rotate(ctx, s.gen)
}

func (s *Scheduler) stopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.running = false
	s.fading = false
}

func (s *Scheduler) rotate(ctx context.Context, gen uint64) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if !s.step(gen, func() { s.fading = true }) {
			return
		}

		fade := time.NewTimer(s.fade)
		select {
		case <-ctx.Done():
			fade.Stop()
			return
		case <-fade.C:
		}

		if !s.step(gen, func() {
			s.index = (s.index + 1) % max(len(s.bead.EchoQuestions), 1)
			s.fading = false
		}) {
			return
		}
	}
}

// step applies fn and emits a frame unless this worker has been superseded.
func (s *Scheduler) step(gen uint64, fn func()) bool {
	s.mu.Lock()
	if gen != s.gen || !s.running || s.bead == nil {
		s.mu.Unlock()
		return false
	}
	fn()
	frame, _ := s.frameLocked()
	s.mu.Unlock()
	s.onFrame(frame)
	return true
}

func (s *Scheduler) frameLocked() (Frame, bool) {
	f, ok := FrameFor(s.bead, s.index)
	f.Fading = ok && s.fading
	return f, ok
}

// FrameFor is the frame shown for b at rotation index i, with i bounded by the
// question count. Without questions the prompt is shown.
func FrameFor(b *bead.Bead, i int) (Frame, bool) {
	if b == nil {
		return Frame{}, false
	}
	questions := b.EchoQuestions
	i = i % max(len(questions), 1)
	question := b.Prompt
	if i < len(questions) {
		question = questions[i]
	}
	return Frame{BeadId: b.Id, Index: i, Question: question}, true
}

func sameBead(a, b *bead.Bead) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Id == b.Id && a.Prompt == b.Prompt && slices.Equal(a.EchoQuestions, b.EchoQuestions)
}
