package unitofwork

import (
	"context"

	"memory-beads-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	JournalRepository() contract.JournalRepository
}
