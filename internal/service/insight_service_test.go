package service

import (
	"context"
	"testing"

	"memory-beads-be/internal/pkg/logger"
	"memory-beads-be/internal/pkg/metrics"
	"memory-beads-be/pkg/gemini"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestInsightFallbacks(t *testing.T) {
	collector := metrics.NewCollector("test")
	svc := NewInsightService(&fakeAI{err: errUpstream}, logger.NewNopLogger(), collector)

	questions, fallback := svc.ReflectionQuestions(context.Background(), "story", "title")
	assert.True(t, fallback)
	assert.Equal(t, FallbackQuestions, questions)
	questions[0] = "mutated"
	assert.NotEqual(t, "mutated", FallbackQuestions[0])

	_, fallback = svc.AnalyzeImage(context.Background(), []byte("x"), "image/png")
	assert.True(t, fallback)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Fallbacks.WithLabelValues("analyze_image")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Fallbacks.WithLabelValues("reflection_questions")))
}

func TestInsightFixesMissingColour(t *testing.T) {
	ai := &fakeAI{analysis: gemini.ImageAnalysis{Title: "T", Prompt: "P", Color: "blue"}}
	svc := NewInsightService(ai, logger.NewNopLogger(), nil)

	analysis, fallback := svc.AnalyzeImage(context.Background(), []byte("x"), "image/png")
	assert.False(t, fallback)
	assert.Equal(t, FallbackAnalysisColor, analysis.Color)
}
