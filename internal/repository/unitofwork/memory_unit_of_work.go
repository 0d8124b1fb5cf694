package unitofwork

import (
	"context"
	"fmt"
	"sync"

	"memory-beads-be/internal/repository/contract"
	"memory-beads-be/internal/repository/memory"
)

// MemoryRepositoryFactory backs every unit of work with one in-process store.
// Transactions are serialized by a single mutex, standing in for row locks.
type MemoryRepositoryFactory struct {
	store *memory.JournalStore
	mu    sync.Mutex
}

func NewMemoryRepositoryFactory() *MemoryRepositoryFactory {
	return &MemoryRepositoryFactory{store: memory.NewJournalStore()}
}

func (f *MemoryRepositoryFactory) NewUnitOfWork(ctx context.Context) UnitOfWork {
	return &memoryUnitOfWork{
		factory: f,
		repo:    memory.NewJournalRepository(f.store),
	}
}

type memoryUnitOfWork struct {
	factory *MemoryRepositoryFactory
	repo    *memory.JournalRepository
	inTx    bool
}

func (u *memoryUnitOfWork) Begin(ctx context.Context) error {
	if u.inTx {
		return fmt.Errorf("transaction already started")
	}
	u.factory.mu.Lock()
	u.inTx = true
	u.repo.Stage()
	return nil
}

func (u *memoryUnitOfWork) Commit() error {
	if !u.inTx {
		return fmt.Errorf("no transaction to commit")
	}
	u.repo.Flush()
	u.inTx = false
	u.factory.mu.Unlock()
	return nil
}

func (u *memoryUnitOfWork) Rollback() error {
	if !u.inTx {
		return fmt.Errorf("no transaction to rollback")
	}
	u.repo.Discard()
	u.inTx = false
	u.factory.mu.Unlock()
	return nil
}

func (u *memoryUnitOfWork) JournalRepository() contract.JournalRepository {
	return u.repo
}
