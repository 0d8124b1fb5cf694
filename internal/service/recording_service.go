package service

import (
	"memory-beads-be/internal/dto"
	"memory-beads-be/internal/pkg/logger"
	"memory-beads-be/pkg/media"

	"github.com/google/uuid"
)

// IRecordingService drives the per-user audio capture device. The device is
// claimed by Start and released by Stop, Cancel, an oversized chunk or the
// edit modal closing.
type IRecordingService interface {
	Start(userId uuid.UUID, req *dto.StartRecordingRequest) (*dto.StartRecordingResponse, error)
	Write(userId uuid.UUID, chunk []byte) error
	Stop(userId uuid.UUID, req *dto.StopRecordingRequest) (*dto.RecordingResponse, error)
	Cancel(userId uuid.UUID) bool
}

type recordingService struct {
	recorder *media.Recorder
	logger   logger.ILogger
}

func NewRecordingService(recorder *media.Recorder, log logger.ILogger) IRecordingService {
	return &recordingService{recorder: recorder, logger: log}
}

func (s *recordingService) Start(userId uuid.UUID, req *dto.StartRecordingRequest) (*dto.StartRecordingResponse, error) {
	mimeType, err := s.recorder.Start(userId.String(), req.MimeTypes)
	if err != nil {
		s.logger.Warn("RecordingService", "Recording refused", map[string]interface{}{
			"user_id": userId,
			"error":   err.Error(),
		})
		return nil, err
	}
	return &dto.StartRecordingResponse{MimeType: mimeType}, nil
}

func (s *recordingService) Write(userId uuid.UUID, chunk []byte) error {
	return s.recorder.Write(userId.String(), chunk)
}

func (s *recordingService) Stop(userId uuid.UUID, req *dto.StopRecordingRequest) (*dto.RecordingResponse, error) {
	rec, err := s.recorder.Stop(userId.String(), req.MimeType)
	if err != nil {
		return nil, err
	}
	s.logger.Info("RecordingService", "Recording stored", map[string]interface{}{
		"user_id":   userId,
		"mime_type": rec.MimeType,
		"size":      rec.Size,
	})
	return &dto.RecordingResponse{AudioUrl: rec.Handle, MimeType: rec.MimeType, Size: rec.Size}, nil
}

func (s *recordingService) Cancel(userId uuid.UUID) bool {
	return s.recorder.Abort(userId.String())
}
