package service

import (
	"context"
	"fmt"
	"testing"

	"memory-beads-be/internal/pkg/logger"
	"memory-beads-be/pkg/events"
	pktNats "memory-beads-be/pkg/nats"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubscriber struct {
	subject string
	durable string
	handler pktNats.EventHandler
}

func (f *fakeSubscriber) Subscribe(_ context.Context, subject, durable string, handler pktNats.EventHandler) error {
	f.subject, f.durable, f.handler = subject, durable, handler
	return nil
}

func TestActivityFeed(t *testing.T) {
	sub := &fakeSubscriber{}
	svc := NewActivityService(sub, logger.NewNopLogger())
	require.NoError(t, svc.Start(context.Background()))
	assert.Equal(t, "beads.>", sub.subject)
	assert.Equal(t, ActivityDurable, sub.durable)

	userId := uuid.New()
	for i := 0; i < ActivityCapacity+5; i++ {
		ev := events.NewBeadEvent(events.EchoAdded, userId.String(), fmt.Sprintf("b%d", i), map[string]interface{}{"slot": "collection"})
		require.NoError(t, sub.handler(context.Background(), ev))
	}

	feed := svc.Recent(userId, 0)
	require.Len(t, feed, ActivityCapacity)
	assert.Equal(t, fmt.Sprintf("b%d", ActivityCapacity+4), feed[0].BeadId, "newest first")
	assert.Equal(t, "collection", feed[0].Details["slot"])
	assert.NotContains(t, feed[0].Details, "user_id")

	assert.Len(t, svc.Recent(userId, 3), 3)
	assert.Empty(t, svc.Recent(uuid.New(), 10))
}

func TestActivityIgnoresAnonymousEvents(t *testing.T) {
	svc := NewActivityService(nil, logger.NewNopLogger())
	require.NoError(t, svc.Start(context.Background()))

	err := svc.HandleEvent(context.Background(), events.BaseEvent{Type: "X", Data: map[string]interface{}{}})
	assert.NoError(t, err)
}
