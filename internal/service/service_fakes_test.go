package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"memory-beads-be/internal/dto"
	"memory-beads-be/internal/pkg/logger"
	"memory-beads-be/internal/pkg/metrics"
	"memory-beads-be/internal/repository/unitofwork"
	"memory-beads-be/pkg/bead"
	"memory-beads-be/pkg/echo"
	"memory-beads-be/pkg/events"
	"memory-beads-be/pkg/gemini"

	"github.com/google/uuid"
)

type sentMessage struct {
	UserId uuid.UUID
	Type   string
	Data   interface{}
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (f *fakeNotifier) Send(userId uuid.UUID, msgType string, data interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{userId, msgType, data})
}

func (f *fakeNotifier) SendLocal(userId uuid.UUID, msgType string, data interface{}) {
	f.Send(userId, msgType, data)
}

func (f *fakeNotifier) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

type fakeEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (f *fakeEvents) Publish(_ context.Context, e events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func (f *fakeEvents) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.EventType()
	}
	return out
}

type fakeQuestions struct {
	mu       sync.Mutex
	requests []dto.QuestionRequestMessage
}

func (f *fakeQuestions) RequestQuestions(_ context.Context, req dto.QuestionRequestMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return nil
}

func (f *fakeQuestions) beadIds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.requests))
	for i, r := range f.requests {
		out[i] = r.BeadId
	}
	return out
}

type fakeDevices struct {
	aborted []string
}

func (f *fakeDevices) Abort(owner string) bool {
	f.aborted = append(f.aborted, owner)
	return true
}

type fakeTasks struct {
	mu        sync.Mutex
	inFlight  map[string]bool
	cancelled []string
}

func (f *fakeTasks) InFlight(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inFlight[key]
}

func (f *fakeTasks) Cancel(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, key)
}

func (f *fakeTasks) busy(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight[key] = true
}

type noFrames struct{}

func (noFrames) Current(uuid.UUID) (echo.Frame, bool) { return echo.Frame{}, false }

type fakeAI struct {
	analysis  gemini.ImageAnalysis
	questions []string
	err       error
}

func (f *fakeAI) AnalyzeImage(context.Context, []byte, string) (gemini.ImageAnalysis, error) {
	return f.analysis, f.err
}

func (f *fakeAI) ReflectionQuestions(context.Context, string, string) ([]string, error) {
	return f.questions, f.err
}

var errUpstream = errors.New("upstream down")

type journalFixture struct {
	svc       IJournalService
	factory   *unitofwork.MemoryRepositoryFactory
	stream    *fakeNotifier
	events    *fakeEvents
	questions *fakeQuestions
	devices   *fakeDevices
	tasks     *fakeTasks
	metrics   *metrics.Collector
}

func newJournalFixture(t *testing.T) *journalFixture {
	t.Helper()
	f := &journalFixture{
		factory:   unitofwork.NewMemoryRepositoryFactory(),
		stream:    &fakeNotifier{},
		events:    &fakeEvents{},
		questions: &fakeQuestions{},
		devices:   &fakeDevices{},
		tasks:     &fakeTasks{inFlight: make(map[string]bool)},
		metrics:   metrics.NewCollector("test"),
	}
	engine := bead.NewEngine(
		func() time.Time { return time.Date(2024, time.June, 15, 9, 30, 0, 0, time.UTC) },
		bead.NewAppearance(rand.New(rand.NewPCG(1, 2))),
	)
	f.svc = NewJournalService(f.factory, engine, f.events, f.questions, f.stream, noFrames{}, f.devices, f.tasks, logger.NewNopLogger(), f.metrics)
	return f
}

func draftBead(id, story string) bead.Bead {
	return bead.Bead{
		Id:               id,
		Variant:          bead.DailyDraft,
		Title:            "Imported " + id,
		Prompt:           "What else do you remember?",
		UserStory:        story,
		Date:             "Jan 3",
		DominantColor:    "#aabbcc",
		Shape:            bead.CircleShape,
		AdditionalImages: []string{},
		EchoQuestions:    []string{},
		Echoes:           []bead.Echo{},
	}
}
