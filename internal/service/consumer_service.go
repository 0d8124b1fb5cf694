package service

import (
	"context"
	"encoding/json"

	"memory-beads-be/internal/dto"
	"memory-beads-be/internal/pkg/logger"
	"memory-beads-be/internal/pkg/metrics"
	"memory-beads-be/pkg/task"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// IConsumerService generates reflection questions requested through the
// question topic.
type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	runner     *task.Runner
	insight    IInsightService
	journal    IJournalService
	logger     logger.ILogger
	metrics    *metrics.Collector
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	runner *task.Runner,
	insight IInsightService,
	journal IJournalService,
	log logger.ILogger,
	collector *metrics.Collector,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		runner:     runner,
		insight:    insight,
		journal:    journal,
		logger:     log,
		metrics:    collector,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

// processMessage hands the request to the runner and acks at once. A request
// for a bead that already has a task in flight is dropped.
func (cs *consumerService) processMessage(msg *message.Message) {
	defer msg.Ack()

	var req dto.QuestionRequestMessage
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal question request", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		cs.count("invalid")
		return
	}

	if !cs.runner.Go(questionTaskKey(req.UserId, req.BeadId), func(ctx context.Context) { cs.generate(ctx, req) }) {
		cs.count("duplicate")
	}
}

func (cs *consumerService) generate(ctx context.Context, req dto.QuestionRequestMessage) {
	questions, fallback := cs.insight.ReflectionQuestions(ctx, req.Story, req.Title)
	if ctx.Err() != nil {
		cs.count("cancelled")
		return
	}

	applied, err := cs.journal.ApplyQuestions(ctx, req.UserId, req.BeadId, questions)
	switch {
	case err != nil:
		cs.logger.Error("ConsumerService", "Failed to store reflection questions", map[string]interface{}{
			"user_id": req.UserId,
			"bead_id": req.BeadId,
			"error":   err.Error(),
		})
		cs.count("failed")
	case !applied:
		cs.logger.Debug("ConsumerService", "Discarded questions for stale bead", map[string]interface{}{
			"user_id": req.UserId,
			"bead_id": req.BeadId,
		})
		cs.count("stale")
	case fallback:
		cs.count("fallback")
	default:
		cs.logger.Info("ConsumerService", "Reflection questions stored", map[string]interface{}{
			"user_id": req.UserId,
			"bead_id": req.BeadId,
			"count":   len(questions),
		})
		cs.count("generated")
	}
}

func questionTaskKey(userId uuid.UUID, beadId string) string {
	return userId.String() + "/" + beadId
}

func (cs *consumerService) count(result string) {
	if cs.metrics != nil {
		cs.metrics.QuestionTasks.WithLabelValues(result).Inc()
	}
}
