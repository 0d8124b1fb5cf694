package service

import (
	"context"
	"io"
	"time"

	"memory-beads-be/internal/dto"
	"memory-beads-be/internal/pkg/logger"
	"memory-beads-be/internal/pkg/metrics"
	"memory-beads-be/pkg/apperr"
	"memory-beads-be/pkg/bead"
	"memory-beads-be/pkg/importer"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// PendingImportTTL bounds how long a multi-player import waits for a choice.
const PendingImportTTL = 30 * time.Minute

type IImportService interface {
	Import(ctx context.Context, userId uuid.UUID, r io.Reader) (*dto.ImportResponse, error)
	ChooseOwner(ctx context.Context, userId uuid.UUID, req *dto.ChooseOwnerRequest) (*dto.ImportResponse, error)
}

type importService struct {
	adapter *importer.Adapter
	journal IJournalService
	pending *cache.Cache
	logger  logger.ILogger
	metrics *metrics.Collector
}

func NewImportService(adapter *importer.Adapter, journal IJournalService, log logger.ILogger, collector *metrics.Collector) IImportService {
	return &importService{
		adapter: adapter,
		journal: journal,
		pending: cache.New(PendingImportTTL, 10*time.Minute),
		logger:  log,
		metrics: collector,
	}
}

// Import reads an exported story file. With one player the queue is replaced
// right away; with several the stories are parked until ChooseOwner.
func (s *importService) Import(ctx context.Context, userId uuid.UUID, r io.Reader) (*dto.ImportResponse, error) {
	records, err := importer.Parse(r)
	if err != nil {
		return nil, err
	}
	plan, err := s.adapter.Plan(records)
	if err != nil {
		return nil, err
	}

	s.logger.Info("ImportService", "Import file parsed", map[string]interface{}{
		"user_id": userId,
		"records": len(records),
		"summary": plan.Summary(),
	})

	if plan.NeedsOwner() {
		s.pending.Set(userId.String(), plan.Stories, cache.DefaultExpiration)
		return &dto.ImportResponse{Imported: false, Owners: plan.Owners}, nil
	}

	s.pending.Delete(userId.String())
	return s.install(ctx, userId, plan.Beads)
}

func (s *importService) ChooseOwner(ctx context.Context, userId uuid.UUID, req *dto.ChooseOwnerRequest) (*dto.ImportResponse, error) {
	cached, ok := s.pending.Get(userId.String())
	if !ok {
		return nil, apperr.New(apperr.KindStaleReference, "no import is waiting for a player choice")
	}
	beads, err := s.adapter.Choose(cached.([]importer.Record), req.PlayerId)
	if err != nil {
		return nil, err
	}
	s.pending.Delete(userId.String())
	return s.install(ctx, userId, beads)
}

func (s *importService) install(ctx context.Context, userId uuid.UUID, beads []bead.Bead) (*dto.ImportResponse, error) {
	journal, err := s.journal.ReplaceQueue(ctx, userId, beads)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.BeadsImported.Add(float64(len(beads)))
	}
	return &dto.ImportResponse{Imported: true, Count: len(beads), Journal: journal}, nil
}
