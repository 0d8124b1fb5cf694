package service

import (
	"context"
	"sync"
	"time"

	"memory-beads-be/internal/dto"
	"memory-beads-be/internal/pkg/logger"
	"memory-beads-be/pkg/events"
	pktNats "memory-beads-be/pkg/nats"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const (
	ActivityDurable  = "bead-activity"
	ActivityCapacity = 50
	ActivityTTL      = 24 * time.Hour
)

// EventSubscriber attaches durable handlers to the event bus.
// *nats.Subscriber implements it.
type EventSubscriber interface {
	Subscribe(ctx context.Context, subject, durableName string, handler pktNats.EventHandler) error
}

type IActivityService interface {
	Start(ctx context.Context) error
	HandleEvent(ctx context.Context, event events.Event) error
	Recent(userId uuid.UUID, limit int) []dto.ActivityEntry
}

// activityService keeps the most recent lifecycle events of each user, fed
// from the bus so every instance sees events raised anywhere.
type activityService struct {
	subscriber EventSubscriber
	feeds      *cache.Cache
	mu         sync.Mutex
	logger     logger.ILogger
}

func NewActivityService(subscriber EventSubscriber, log logger.ILogger) IActivityService {
	return &activityService{
		subscriber: subscriber,
		feeds:      cache.New(ActivityTTL, time.Hour),
		logger:     log,
	}
}

func (s *activityService) Start(ctx context.Context) error {
	if s.subscriber == nil {
		s.logger.Warn("ActivityService", "No event subscriber, activity feed stays empty", nil)
		return nil
	}
	subject := pktNats.Subject(">")
	if err := s.subscriber.Subscribe(ctx, subject, ActivityDurable, s.HandleEvent); err != nil {
		return err
	}
	s.logger.Info("ActivityService", "Activity feed listening", map[string]interface{}{"subject": subject})
	return nil
}

// HandleEvent records an event in its user's feed. Events without a user are
// acknowledged and dropped.
func (s *activityService) HandleEvent(_ context.Context, event events.Event) error {
	payload := event.Payload()
	rawUser, _ := payload["user_id"].(string)
	userId, err := uuid.Parse(rawUser)
	if err != nil {
		s.logger.Warn("ActivityService", "Event without user_id", map[string]interface{}{"type": event.EventType()})
		return nil
	}

	entry := dto.ActivityEntry{
		Type:       event.EventType(),
		OccurredAt: event.Timestamp(),
		Details:    map[string]interface{}{},
	}
	for k, v := range payload {
		switch k {
		case "user_id", "occurred_at":
		case "bead_id":
			entry.BeadId, _ = v.(string)
		default:
			entry.Details[k] = v
		}
	}

	s.mu.Lock()
	feed := s.feed(userId)
	feed = append([]dto.ActivityEntry{entry}, feed...)
	if len(feed) > ActivityCapacity {
		feed = feed[:ActivityCapacity]
	}
	s.feeds.Set(userId.String(), feed, cache.DefaultExpiration)
	s.mu.Unlock()

	s.logger.Debug("ActivityService", "Event recorded", map[string]interface{}{
		"user_id": userId,
		"type":    entry.Type,
		"bead_id": entry.BeadId,
	})
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *activityService) Recent(userId uuid.UUID, limit int) []dto.ActivityEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	feed := s.feed(userId)
	if limit <= 0 || limit > len(feed) {
		limit = len(feed)
	}
	out := make([]dto.ActivityEntry, limit)
	copy(out, feed)
	return out
}

func (s *activityService) feed(userId uuid.UUID) []dto.ActivityEntry {
	if cached, ok := s.feeds.Get(userId.String()); ok {
		return cached.([]dto.ActivityEntry)
	}
	return nil
}
