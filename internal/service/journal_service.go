package service

import (
	"context"
	"errors"
	"fmt"

	"memory-beads-be/internal/dto"
	"memory-beads-be/internal/entity"
	"memory-beads-be/internal/pkg/logger"
	"memory-beads-be/internal/pkg/metrics"
	"memory-beads-be/internal/repository/contract"
	"memory-beads-be/internal/repository/specification"
	"memory-beads-be/internal/repository/unitofwork"
	"memory-beads-be/internal/tracer"
	"memory-beads-be/pkg/apperr"
	"memory-beads-be/pkg/bead"
	"memory-beads-be/pkg/echo"
	"memory-beads-be/pkg/events"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// IStreamNotifier pushes messages to a user's connected clients.
type IStreamNotifier interface {
	Send(userId uuid.UUID, msgType string, data interface{})
}

// IEchoFrames reports the live echo frame of a user, if one is rotating.
type IEchoFrames interface {
	Current(userId uuid.UUID) (echo.Frame, bool)
}

// DeviceReleaser frees a user's capture device. *media.Recorder implements it.
type DeviceReleaser interface {
	Abort(owner string) bool
}

// QuestionTasks tracks in-flight question generation. *task.Runner implements
// it; keys come from questionTaskKey.
type QuestionTasks interface {
	InFlight(key string) bool
	Cancel(key string)
}

type IJournalService interface {
	Snapshot(ctx context.Context, userId uuid.UUID) (*dto.JournalResponse, error)
	SetTab(ctx context.Context, userId uuid.UUID, req *dto.SetTabRequest) (*dto.JournalResponse, error)
	Select(ctx context.Context, userId uuid.UUID, req *dto.SelectBeadRequest) (*dto.JournalResponse, error)
	SetEditing(ctx context.Context, userId uuid.UUID, req *dto.SetEditingRequest) (*dto.JournalResponse, error)

	Edit(ctx context.Context, userId uuid.UUID, beadId string, req *dto.EditBeadRequest) (*dto.TransitionResponse, error)
	Reflect(ctx context.Context, userId uuid.UUID, beadId string, req *dto.ReflectRequest) (*dto.TransitionResponse, error)
	AdvanceQueue(ctx context.Context, userId uuid.UUID) (*dto.TransitionResponse, error)
	Capture(ctx context.Context, userId uuid.UUID, in bead.CaptureInput) (*dto.TransitionResponse, error)
	ReplaceQueue(ctx context.Context, userId uuid.UUID, drafts []bead.Bead) (*dto.JournalResponse, error)
	ApplyQuestions(ctx context.Context, userId uuid.UUID, beadId string, questions []string) (bool, error)
}

type journalService struct {
	uowFactory unitofwork.RepositoryFactory
	engine     *bead.Engine
	events     IEventPublisher
	questions  IPublisherService
	stream     IStreamNotifier
	frames     IEchoFrames
	devices    DeviceReleaser
	tasks      QuestionTasks
	logger     logger.ILogger
	metrics    *metrics.Collector
}

func NewJournalService(
	uowFactory unitofwork.RepositoryFactory,
	engine *bead.Engine,
	eventPublisher IEventPublisher,
	questions IPublisherService,
	stream IStreamNotifier,
	frames IEchoFrames,
	devices DeviceReleaser,
	tasks QuestionTasks,
	log logger.ILogger,
	collector *metrics.Collector,
) IJournalService {
	return &journalService{
		uowFactory: uowFactory,
		engine:     engine,
		events:     eventPublisher,
		questions:  questions,
		stream:     stream,
		frames:     frames,
		devices:    devices,
		tasks:      tasks,
		logger:     log,
		metrics:    collector,
	}
}

// change is one read-modify-write of a journal. It edits j in place and
// returns the lifecycle outcome, or a zero Outcome for view-only changes.
type change func(j *entity.Journal) (bead.Outcome, error)

func (s *journalService) Snapshot(ctx context.Context, userId uuid.UUID) (*dto.JournalResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	j, err := uow.JournalRepository().FindOne(ctx, specification.ByUserId{UserId: userId})
	if err != nil {
		return nil, fmt.Errorf("load journal: %w", err)
	}
	if j == nil {
		j = entity.NewJournal(userId)
	}
	s.requestMissingQuestions(ctx, j)
	return s.present(j), nil
}

func (s *journalService) SetTab(ctx context.Context, userId uuid.UUID, req *dto.SetTabRequest) (*dto.JournalResponse, error) {
	j, _, err := s.apply(ctx, userId, "set_tab", func(j *entity.Journal) (bead.Outcome, error) {
		j.View.Tab = bead.Tab(req.Tab)
		return bead.Outcome{}, nil
	})
	if err != nil {
		return nil, err
	}
	return s.present(j), nil
}

func (s *journalService) Select(ctx context.Context, userId uuid.UUID, req *dto.SelectBeadRequest) (*dto.JournalResponse, error) {
	j, _, err := s.apply(ctx, userId, "select", func(j *entity.Journal) (bead.Outcome, error) {
		j.View = j.View.Select(req.BeadId)
		if req.Tab != "" {
			j.View.Tab = bead.Tab(req.Tab)
		}
		return bead.Outcome{}, nil
	})
	if err != nil {
		return nil, err
	}
	return s.present(j), nil
}

func (s *journalService) SetEditing(ctx context.Context, userId uuid.UUID, req *dto.SetEditingRequest) (*dto.JournalResponse, error) {
	editing := *req.Editing
	j, _, err := s.apply(ctx, userId, "set_editing", func(j *entity.Journal) (bead.Outcome, error) {
		j.View.Editing = editing
		return bead.Outcome{}, nil
	})
	if err != nil {
		return nil, err
	}
	if !editing {
		s.releaseDevice(userId)
	}
	return s.present(j), nil
}

func (s *journalService) Edit(ctx context.Context, userId uuid.UUID, beadId string, req *dto.EditBeadRequest) (*dto.TransitionResponse, error) {
	sub := bead.Submission{Title: req.Title, Text: req.Text, Images: req.Images, AudioUrl: req.AudioUrl}
	return s.transition(ctx, userId, func(j *entity.Journal) (bead.Outcome, error) {
		next, out := s.engine.Edit(j.State, beadId, sub)
		j.State = next
		if out.Applied {
			j.View.Editing = false
		}
		return out, nil
	})
}

func (s *journalService) Reflect(ctx context.Context, userId uuid.UUID, beadId string, req *dto.ReflectRequest) (*dto.TransitionResponse, error) {
	sub := bead.Submission{Title: req.Title, Text: req.Text, Images: req.Images, AudioUrl: req.AudioUrl}
	return s.transition(ctx, userId, func(j *entity.Journal) (bead.Outcome, error) {
		next, out := s.engine.Reflect(j.State, beadId, sub)
		j.State = next
		if out.Applied {
			j.View.Editing = false
		}
		return out, nil
	})
}

func (s *journalService) AdvanceQueue(ctx context.Context, userId uuid.UUID) (*dto.TransitionResponse, error) {
	return s.transition(ctx, userId, func(j *entity.Journal) (bead.Outcome, error) {
		next, out := s.engine.AdvanceQueue(j.State)
		j.State = next
		if out.Applied {
			j.View.QuestionIndex = 0
		}
		return out, nil
	})
}

// Capture saves an analysed photo, then shows it: the new bead is selected and
// the echo tab opened.
func (s *journalService) Capture(ctx context.Context, userId uuid.UUID, in bead.CaptureInput) (*dto.TransitionResponse, error) {
	return s.transition(ctx, userId, func(j *entity.Journal) (bead.Outcome, error) {
		next, out := s.engine.Capture(j.State, in)
		j.State = next
		j.View = j.View.Select(&out.Bead.Id)
		j.View.Tab = bead.TabEcho
		return out, nil
	})
}

// ReplaceQueue installs imported drafts as the new queue and shows the echo
// view with no selection. Draft ids already used by the journal are renamed,
// and question tasks for the replaced drafts are cancelled.
func (s *journalService) ReplaceQueue(ctx context.Context, userId uuid.UUID, drafts []bead.Bead) (*dto.JournalResponse, error) {
	var dropped []string
	j, _, err := s.apply(ctx, userId, "import", func(j *entity.Journal) (bead.Outcome, error) {
		for _, d := range drafts {
			if !d.IsDraft() {
				return bead.Outcome{}, fmt.Errorf("import: bead %s is not a draft", d.Id)
			}
		}
		dropped = dropped[:0]
		for _, old := range j.State.Queue {
			dropped = append(dropped, old.Id)
		}
		j.State = j.State.ReplaceQueue(j.State.AdmitDrafts(drafts))
		j.View = j.View.Select(nil)
		j.View.Tab = bead.TabEcho
		j.View.QuestionIndex = 0
		return bead.Outcome{}, nil
	})
	if err != nil {
		return nil, err
	}
	if s.tasks != nil {
		for _, id := range dropped {
			s.tasks.Cancel(questionTaskKey(userId, id))
		}
	}
	s.publish(ctx, events.NewBeadEvent(events.QueueImported, userId.String(), "", map[string]interface{}{
		"count": len(drafts),
	}))
	return s.present(j), nil
}

// ApplyQuestions stores generated questions unless the bead vanished or
// already has some. It reports whether anything changed.
func (s *journalService) ApplyQuestions(ctx context.Context, userId uuid.UUID, beadId string, questions []string) (bool, error) {
	res, err := s.transition(ctx, userId, func(j *entity.Journal) (bead.Outcome, error) {
		next, out := s.engine.ApplyQuestions(j.State, beadId, questions)
		j.State = next
		return out, nil
	})
	if err != nil {
		return false, err
	}
	return res.Applied, nil
}

func (s *journalService) transition(ctx context.Context, userId uuid.UUID, fn change) (*dto.TransitionResponse, error) {
	j, out, err := s.apply(ctx, userId, "transition", fn)
	if err != nil {
		return nil, err
	}
	return toTransitionResponse(out, s.present(j)), nil
}

// apply runs fn inside a transaction holding the journal row lock. A
// transition that does not apply leaves the stored journal untouched.
func (s *journalService) apply(ctx context.Context, userId uuid.UUID, op string, fn change) (*entity.Journal, bead.Outcome, error) {
	ctx, span := tracer.Tracer().Start(ctx, "journal."+op)
	defer span.End()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, bead.Outcome{}, fmt.Errorf("begin: %w", err)
	}
	defer uow.Rollback()

	repo := uow.JournalRepository()
	j, err := s.lockJournal(ctx, repo, userId)
	if err != nil {
		return nil, bead.Outcome{}, err
	}

	out, err := fn(j)
	if err != nil {
		return nil, bead.Outcome{}, err
	}

	if out.Transition != "" {
		span.SetAttributes(
			attribute.String("bead.transition", string(out.Transition)),
			attribute.Bool("bead.applied", out.Applied),
		)
		if s.metrics != nil {
			s.metrics.RecordTransition(string(out.Transition), out.Applied)
		}
		if !out.Applied {
			s.logger.Debug("JournalService", "Transition skipped", map[string]interface{}{
				"user_id":    userId,
				"transition": out.Transition,
			})
			return j, out, nil
		}
	}

	if err := j.State.Validate(); err != nil {
		return nil, bead.Outcome{}, fmt.Errorf("journal invariant broken: %w", err)
	}
	if err := repo.Save(ctx, j); err != nil {
		if errors.Is(err, contract.ErrVersionConflict) {
			return nil, bead.Outcome{}, apperr.New(apperr.KindStaleReference, "journal changed concurrently, retry").WithCause(err)
		}
		return nil, bead.Outcome{}, fmt.Errorf("save journal: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, bead.Outcome{}, fmt.Errorf("commit: %w", err)
	}

	s.afterCommit(ctx, j, out)
	return j, out, nil
}

// lockJournal loads the user's journal under a row lock. A first transition
// inserts the seed journal if absent and locks the row that won, so
// concurrent first writes serialize instead of overwriting each other.
func (s *journalService) lockJournal(ctx context.Context, repo contract.JournalRepository, userId uuid.UUID) (*entity.Journal, error) {
	byUser := specification.ByUserId{UserId: userId}
	j, err := repo.FindOne(ctx, byUser, specification.ForUpdate{})
	if err != nil {
		return nil, fmt.Errorf("load journal: %w", err)
	}
	if j != nil {
		return j, nil
	}

	if _, err := repo.Create(ctx, entity.NewJournal(userId)); err != nil {
		return nil, fmt.Errorf("create journal: %w", err)
	}
	j, err = repo.FindOne(ctx, byUser, specification.ForUpdate{})
	if err != nil {
		return nil, fmt.Errorf("load journal: %w", err)
	}
	if j == nil {
		return nil, fmt.Errorf("journal for %s vanished after create", userId)
	}
	return j, nil
}

func (s *journalService) afterCommit(ctx context.Context, j *entity.Journal, out bead.Outcome) {
	if out.Applied {
		s.logger.Info("JournalService", "Bead transition applied", map[string]interface{}{
			"user_id":    j.UserId,
			"transition": out.Transition,
			"bead_id":    out.Bead.Id,
			"slot":       out.Slot,
		})
		if eventType, ok := transitionEvents[out.Transition]; ok {
			extra := map[string]interface{}{"slot": string(out.Slot)}
			if out.Echo != nil {
				extra["echo_id"] = out.Echo.Id
			}
			s.publish(ctx, events.NewBeadEvent(eventType, j.UserId.String(), out.Bead.Id, extra))
		}
	}

	s.stream.Send(j.UserId, dto.StreamTypeJournal, dto.JournalEvent{
		Transition: out.Transition,
		Applied:    out.Applied,
		Journal:    s.present(j),
	})
	s.requestMissingQuestions(ctx, j)
}

var transitionEvents = map[bead.Transition]string{
	bead.TransitionCapture:   events.BeadCaptured,
	bead.TransitionEdit:      events.BeadEdited,
	bead.TransitionFinalize:  events.BeadFinalized,
	bead.TransitionEcho:      events.EchoAdded,
	bead.TransitionAdvance:   events.QueueAdvanced,
	bead.TransitionQuestions: events.QuestionsReady,
}

func (s *journalService) publish(ctx context.Context, e events.Event) {
	if err := s.events.Publish(ctx, e); err != nil {
		s.logger.Warn("JournalService", "Failed to publish event", map[string]interface{}{
			"type":  e.EventType(),
			"error": err.Error(),
		})
	}
}

// requestMissingQuestions asks for reflection questions for the beads the
// user is looking at when they have a story but no questions yet.
func (s *journalService) requestMissingQuestions(ctx context.Context, j *entity.Journal) {
	resolution := bead.Resolve(j.View, j.State)
	seen := make(map[string]bool, 2)
	for _, b := range []*bead.Bead{resolution.ActiveModal, resolution.Rotating} {
		if b == nil || seen[b.Id] || b.UserStory == "" || len(b.EchoQuestions) > 0 {
			continue
		}
		if s.tasks != nil && s.tasks.InFlight(questionTaskKey(j.UserId, b.Id)) {
			continue
		}
		seen[b.Id] = true
		err := s.questions.RequestQuestions(ctx, dto.QuestionRequestMessage{
			UserId: j.UserId,
			BeadId: b.Id,
			Title:  b.Title,
			Story:  b.UserStory,
		})
		if err != nil {
			s.logger.Warn("JournalService", "Failed to queue question generation", map[string]interface{}{
				"bead_id": b.Id,
				"error":   err.Error(),
			})
		}
	}
}

func (s *journalService) present(j *entity.Journal) *dto.JournalResponse {
	var frame *echo.Frame
	if s.frames != nil {
		if f, ok := s.frames.Current(j.UserId); ok {
			frame = &f
		}
	}
	return toJournalResponse(j, frame)
}

func (s *journalService) releaseDevice(userId uuid.UUID) {
	if s.devices != nil && s.devices.Abort(userId.String()) {
		s.logger.Info("JournalService", "Recording aborted on modal close", map[string]interface{}{"user_id": userId})
	}
}
