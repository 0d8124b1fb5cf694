package service

import (
	"context"
	"encoding/json"

	"memory-beads-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

const QuestionTopic = "GENERATE_REFLECTION_QUESTIONS"

type IPublisherService interface {
	RequestQuestions(ctx context.Context, req dto.QuestionRequestMessage) error
}

type publisherService struct {
	topicName string
	publisher message.Publisher
}

func NewPublisherService(topicName string, publisher message.Publisher) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
	}
}

func (s *publisherService) RequestQuestions(ctx context.Context, req dto.QuestionRequestMessage) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return s.publisher.Publish(s.topicName, msg)
}
