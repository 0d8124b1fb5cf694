package service

import (
	"encoding/json"
	"testing"
	"time"

	"memory-beads-be/internal/dto"
	"memory-beads-be/internal/pkg/logger"
	"memory-beads-be/pkg/bead"
	"memory-beads-be/pkg/echo"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func journalWith(tab bead.Tab, editing bool, rotating *dto.BeadResponse) *dto.JournalResponse {
	return &dto.JournalResponse{
		View:     dto.ViewResponse{Tab: tab, Editing: editing},
		Rotating: rotating,
	}
}

func rotatingBead(id string, questions ...string) *dto.BeadResponse {
	return &dto.BeadResponse{Id: id, Prompt: "prompt " + id, EchoQuestions: questions}
}

func framesFor(sender *fakeNotifier, userId uuid.UUID) []echo.Frame {
	var out []echo.Frame
	for _, m := range sender.messages() {
		if m.UserId == userId && m.Type == dto.StreamTypeEchoFrame {
			out = append(out, m.Data.(echo.Frame))
		}
	}
	return out
}

func TestEchoRotationFollowsAttachedStreams(t *testing.T) {
	sender := &fakeNotifier{}
	svc := NewEchoService(20*time.Millisecond, 5*time.Millisecond, sender, logger.NewNopLogger())
	defer svc.Close()
	userId := uuid.New()

	_, ok := svc.Current(userId)
	assert.False(t, ok, "no rotation without a stream")

	svc.Attach(userId, journalWith(bead.TabEcho, false, rotatingBead("a", "Q1", "Q2")))
	svc.Attach(userId, nil)

	assert.Eventually(t, func() bool {
		for _, f := range framesFor(sender, userId) {
			if f.Question == "Q2" && !f.Fading {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	svc.Detach(userId)
	_, ok = svc.Current(userId)
	assert.True(t, ok, "one stream still open")

	svc.Detach(userId)
	_, ok = svc.Current(userId)
	assert.False(t, ok)
}

func TestEchoObservePausesWhileEditing(t *testing.T) {
	sender := &fakeNotifier{}
	svc := NewEchoService(20*time.Millisecond, 5*time.Millisecond, sender, logger.NewNopLogger())
	defer svc.Close()
	userId := uuid.New()

	svc.Attach(userId, journalWith(bead.TabEcho, false, rotatingBead("a", "Q1", "Q2", "Q3")))

	raw, err := json.Marshal(dto.JournalEvent{Journal: journalWith(bead.TabEcho, true, rotatingBead("a", "Q1", "Q2", "Q3"))})
	require.NoError(t, err)
	svc.Observe(userId, dto.StreamTypeJournal, raw)

	time.Sleep(10 * time.Millisecond)
	before := len(framesFor(sender, userId))
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, before, len(framesFor(sender, userId)), "no frames while the modal is open")

	raw, err = json.Marshal(dto.JournalEvent{
		Transition: bead.TransitionAdvance,
		Applied:    true,
		Journal:    journalWith(bead.TabEcho, false, rotatingBead("b", "B1")),
	})
	require.NoError(t, err)
	svc.Observe(userId, dto.StreamTypeJournal, raw)

	frame, ok := svc.Current(userId)
	require.True(t, ok)
	assert.Equal(t, "b", frame.BeadId)
	assert.Equal(t, 0, frame.Index)
	assert.Equal(t, "B1", frame.Question)
}

func TestEchoStopsOutsideEchoTab(t *testing.T) {
	sender := &fakeNotifier{}
	svc := NewEchoService(20*time.Millisecond, 5*time.Millisecond, sender, logger.NewNopLogger())
	defer svc.Close()
	userId := uuid.New()

	svc.Attach(userId, journalWith(bead.TabCollection, false, rotatingBead("a", "Q1", "Q2")))
	_, ok := svc.Current(userId)
	assert.False(t, ok)

	svc.Observe(userId, dto.StreamTypeEchoFrame, json.RawMessage(`{}`))
	svc.Observe(userId, dto.StreamTypeJournal, json.RawMessage(`not json`))
	_, ok = svc.Current(userId)
	assert.False(t, ok)
}
