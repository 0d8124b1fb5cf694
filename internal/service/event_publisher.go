package service

import (
	"context"

	"memory-beads-be/pkg/events"
)

// IEventPublisher ships domain events to the bus. *nats.Publisher implements it.
type IEventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type nopEventPublisher struct{}

// NewNopEventPublisher is used when NATS is unreachable at startup.
func NewNopEventPublisher() IEventPublisher {
	return nopEventPublisher{}
}

func (nopEventPublisher) Publish(context.Context, events.Event) error {
	return nil
}
