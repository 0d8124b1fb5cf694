package contract

import (
	"context"
	"errors"

	"memory-beads-be/internal/entity"
	"memory-beads-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ErrVersionConflict means the stored journal changed since it was loaded.
var ErrVersionConflict = errors.New("journal version conflict")

type JournalRepository interface {
	// FindOne returns nil, nil when no journal matches.
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Journal, error)
	// Create inserts journal unless the user already has one. It reports
	// whether a row was written.
	Create(ctx context.Context, journal *entity.Journal) (bool, error)
	// Save replaces the stored journal whose version equals journal.Version and
	// bumps the version. It returns ErrVersionConflict when no such row exists.
	Save(ctx context.Context, journal *entity.Journal) error
	Delete(ctx context.Context, userId uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}
