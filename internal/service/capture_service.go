package service

import (
	"context"
	"fmt"

	"memory-beads-be/internal/dto"
	"memory-beads-be/internal/pkg/logger"
	"memory-beads-be/pkg/apperr"
	"memory-beads-be/pkg/bead"
	"memory-beads-be/pkg/media"

	"github.com/google/uuid"
)

// MediaStore persists uploaded media. *media.DiskStore implements it.
type MediaStore interface {
	Save(kind, ext string, data []byte) (string, error)
}

type ICaptureService interface {
	Analyze(ctx context.Context, image []byte, mimeType string) (*dto.AnalyzeImageResponse, error)
	Create(ctx context.Context, userId uuid.UUID, req *dto.CaptureRequest) (*dto.TransitionResponse, error)
}

type captureService struct {
	store   MediaStore
	insight IInsightService
	journal IJournalService
	logger  logger.ILogger
}

func NewCaptureService(store MediaStore, insight IInsightService, journal IJournalService, log logger.ILogger) ICaptureService {
	return &captureService{
		store:   store,
		insight: insight,
		journal: journal,
		logger:  log,
	}
}

// Analyze stores the photo and asks for a title, prompt and colour. Analysis
// never fails; a broken collaborator yields the fallback analysis.
func (s *captureService) Analyze(ctx context.Context, image []byte, mimeType string) (*dto.AnalyzeImageResponse, error) {
	if len(image) == 0 {
		return nil, apperr.UserInput("image is empty")
	}
	ext, ok := media.ImageExtension(mimeType)
	if !ok {
		return nil, apperr.UserInput("unsupported image type %q", mimeType)
	}

	imageUrl, err := s.store.Save("images", ext, image)
	if err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	analysis, fallback := s.insight.AnalyzeImage(ctx, image, mimeType)
	return &dto.AnalyzeImageResponse{
		ImageUrl: imageUrl,
		Title:    analysis.Title,
		Prompt:   analysis.Prompt,
		Color:    analysis.Color,
		Fallback: fallback,
	}, nil
}

func (s *captureService) Create(ctx context.Context, userId uuid.UUID, req *dto.CaptureRequest) (*dto.TransitionResponse, error) {
	res, err := s.journal.Capture(ctx, userId, bead.CaptureInput{
		ImageUrl: req.ImageUrl,
		Title:    req.Title,
		Prompt:   req.Prompt,
		Color:    req.Color,
		Story:    req.Story,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("CaptureService", "Bead captured", map[string]interface{}{
		"user_id": userId,
		"bead_id": res.Bead.Id,
	})
	return res, nil
}
