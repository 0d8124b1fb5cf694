package service

import (
	"encoding/json"
	"sync"
	"time"

	"memory-beads-be/internal/dto"
	"memory-beads-be/internal/pkg/logger"
	"memory-beads-be/pkg/bead"
	"memory-beads-be/pkg/echo"

	"github.com/google/uuid"
)

// FrameSender delivers echo frames to the clients of this instance.
type FrameSender interface {
	SendLocal(userId uuid.UUID, msgType string, data interface{})
}

// IEchoService runs one question rotation per user with at least one open
// stream on this instance.
type IEchoService interface {
	IEchoFrames
	Attach(userId uuid.UUID, journal *dto.JournalResponse)
	Detach(userId uuid.UUID)
	Observe(userId uuid.UUID, msgType string, data json.RawMessage)
	Close()
}

type userRotation struct {
	scheduler *echo.Scheduler
	refs      int
}

type echoService struct {
	period time.Duration
	fade   time.Duration
	sender FrameSender
	logger logger.ILogger

	mu        sync.Mutex
	rotations map[uuid.UUID]*userRotation
}

func NewEchoService(period, fade time.Duration, sender FrameSender, log logger.ILogger) IEchoService {
	return &echoService{
		period:    period,
		fade:      fade,
		sender:    sender,
		logger:    log,
		rotations: make(map[uuid.UUID]*userRotation),
	}
}

// Attach registers a stream for the user and feeds the journal it was opened
// with into the rotation.
func (s *echoService) Attach(userId uuid.UUID, journal *dto.JournalResponse) {
	s.mu.Lock()
	r, ok := s.rotations[userId]
	if !ok {
		r = &userRotation{
			scheduler: echo.NewScheduler(s.period, s.fade, func(f echo.Frame) {
				s.sender.SendLocal(userId, dto.StreamTypeEchoFrame, f)
			}),
		}
		s.rotations[userId] = r
	}
	r.refs++
	s.mu.Unlock()

	if journal != nil {
		update(r.scheduler, journal)
	}
}

// Detach releases a stream. The rotation stops with the last one.
func (s *echoService) Detach(userId uuid.UUID) {
	s.mu.Lock()
	r, ok := s.rotations[userId]
	if !ok {
		s.mu.Unlock()
		return
	}
	r.refs--
	if r.refs > 0 {
		s.mu.Unlock()
		return
	}
	delete(s.rotations, userId)
	s.mu.Unlock()

	r.scheduler.Close()
	s.logger.Debug("EchoService", "Rotation stopped", map[string]interface{}{"user_id": userId})
}

func (s *echoService) Current(userId uuid.UUID) (echo.Frame, bool) {
	r := s.rotation(userId)
	if r == nil {
		return echo.Frame{}, false
	}
	return r.scheduler.Current()
}

// Observe is a hub listener. Journal updates, local or relayed from another
// instance, retarget the user's rotation.
func (s *echoService) Observe(userId uuid.UUID, msgType string, data json.RawMessage) {
	if msgType != dto.StreamTypeJournal {
		return
	}
	r := s.rotation(userId)
	if r == nil {
		return
	}

	var ev dto.JournalEvent
	if err := json.Unmarshal(data, &ev); err != nil || ev.Journal == nil {
		s.logger.Warn("EchoService", "Undecodable journal event", map[string]interface{}{"user_id": userId})
		return
	}
	update(r.scheduler, ev.Journal)
	if ev.Applied && ev.Transition == bead.TransitionAdvance {
		r.scheduler.Reset()
	}
}

func (s *echoService) Close() {
	s.mu.Lock()
	rotations := s.rotations
	s.rotations = make(map[uuid.UUID]*userRotation)
	s.mu.Unlock()

	for _, r := range rotations {
		r.scheduler.Close()
	}
}

func (s *echoService) rotation(userId uuid.UUID) *userRotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rotations[userId]
}

// update points the scheduler at the journal's rotating bead. Rotation only
// runs on the echo tab.
func update(sch *echo.Scheduler, j *dto.JournalResponse) {
	var current *bead.Bead
	if j.View.Tab == bead.TabEcho && j.Rotating != nil {
		current = &bead.Bead{
			Id:            j.Rotating.Id,
			Prompt:        j.Rotating.Prompt,
			EchoQuestions: j.Rotating.EchoQuestions,
		}
	}
	sch.Update(current, j.View.Editing)
}
