package service

import (
	"context"
	"strings"

	"memory-beads-be/internal/pkg/logger"
	"memory-beads-be/internal/pkg/metrics"
	"memory-beads-be/pkg/apperr"
	"memory-beads-be/pkg/gemini"
)

const (
	FallbackAnalysisTitle  = "Untitled Fragment"
	FallbackAnalysisPrompt = "What does this object remind you of?"
	FallbackAnalysisColor  = "#a3b1c6"
)

var FallbackQuestions = []string{
	"What details are you forgetting?",
	"How did you feel in that exact moment?",
	"Who else was there with you?",
}

// AIClient is the generative collaborator. *gemini.Client implements it.
type AIClient interface {
	AnalyzeImage(ctx context.Context, image []byte, mimeType string) (gemini.ImageAnalysis, error)
	ReflectionQuestions(ctx context.Context, story, title string) ([]string, error)
}

// IInsightService never fails: collaborator errors turn into fallback values.
type IInsightService interface {
	AnalyzeImage(ctx context.Context, image []byte, mimeType string) (analysis gemini.ImageAnalysis, fallback bool)
	ReflectionQuestions(ctx context.Context, story, title string) (questions []string, fallback bool)
}

type insightService struct {
	client  AIClient
	logger  logger.ILogger
	metrics *metrics.Collector
}

func NewInsightService(client AIClient, log logger.ILogger, collector *metrics.Collector) IInsightService {
	return &insightService{
		client:  client,
		logger:  log,
		metrics: collector,
	}
}

func (s *insightService) AnalyzeImage(ctx context.Context, image []byte, mimeType string) (gemini.ImageAnalysis, bool) {
	analysis, err := s.client.AnalyzeImage(ctx, image, mimeType)
	if err != nil {
		s.degraded("analyze_image", err)
		return gemini.ImageAnalysis{
			Title:  FallbackAnalysisTitle,
			Prompt: FallbackAnalysisPrompt,
			Color:  FallbackAnalysisColor,
		}, true
	}
	if !strings.HasPrefix(analysis.Color, "#") {
		analysis.Color = FallbackAnalysisColor
	}
	return analysis, false
}

func (s *insightService) ReflectionQuestions(ctx context.Context, story, title string) ([]string, bool) {
	questions, err := s.client.ReflectionQuestions(ctx, story, title)
	if err != nil || len(questions) == 0 {
		s.degraded("reflection_questions", err)
		out := make([]string, len(FallbackQuestions))
		copy(out, FallbackQuestions)
		return out, true
	}
	return questions, false
}

func (s *insightService) degraded(operation string, err error) {
	wrapped := apperr.External(operation+" failed, using fallback", err)
	s.logger.Warn("InsightService", wrapped.Message, map[string]interface{}{
		"operation": operation,
		"error":     errString(err),
	})
	if s.metrics != nil {
		s.metrics.RecordFallback(operation)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
