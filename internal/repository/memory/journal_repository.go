package memory

import (
	"context"
	"fmt"
	"time"

	"memory-beads-be/internal/entity"
	"memory-beads-be/internal/repository/contract"
	"memory-beads-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// JournalStore keeps journals in process memory. Entries never expire.
type JournalStore struct {
	cache *cache.Cache
}

func NewJournalStore() *JournalStore {
	return &JournalStore{cache: cache.New(cache.NoExpiration, 0)}
}

func (s *JournalStore) get(userId uuid.UUID) (*entity.Journal, bool) {
	if x, found := s.cache.Get(userId.String()); found {
		return x.(*entity.Journal).Clone(), true
	}
	return nil, false
}

func (s *JournalStore) set(j *entity.Journal) {
	s.cache.Set(j.UserId.String(), j.Clone(), cache.NoExpiration)
}

// JournalRepository reads through to the store and, inside a transaction,
// stages writes until the unit of work commits.
type JournalRepository struct {
	store   *JournalStore
	staged  map[uuid.UUID]*entity.Journal
	deleted map[uuid.UUID]bool
}

func NewJournalRepository(store *JournalStore) *JournalRepository {
	return &JournalRepository{store: store}
}

// Stage switches the repository into transactional mode.
func (r *JournalRepository) Stage() {
	r.staged = make(map[uuid.UUID]*entity.Journal)
	r.deleted = make(map[uuid.UUID]bool)
}

// Flush applies staged writes to the store.
func (r *JournalRepository) Flush() {
	for id := range r.deleted {
		r.store.cache.Delete(id.String())
	}
	for _, j := range r.staged {
		r.store.set(j)
	}
	r.Discard()
}

func (r *JournalRepository) Discard() {
	r.staged = nil
	r.deleted = nil
}

func (r *JournalRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Journal, error) {
	var userId *uuid.UUID
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByUserId:
			id := s.UserId
			userId = &id
		case specification.ForUpdate:
			// The memory unit of work already serializes transactions.
		default:
			return nil, fmt.Errorf("memory journal repository: unsupported specification %T", spec)
		}
	}
	if userId == nil {
		return nil, fmt.Errorf("memory journal repository: user id required")
	}

	j, ok := r.current(*userId)
	if !ok {
		return nil, nil
	}
	return j, nil
}

// current reads a journal as this repository sees it, staged writes first.
func (r *JournalRepository) current(userId uuid.UUID) (*entity.Journal, bool) {
	if r.staged != nil {
		if r.deleted[userId] {
			return nil, false
		}
		if j, ok := r.staged[userId]; ok {
			return j.Clone(), true
		}
	}
	return r.store.get(userId)
}

func (r *JournalRepository) Create(ctx context.Context, journal *entity.Journal) (bool, error) {
	if _, exists := r.current(journal.UserId); exists {
		return false, nil
	}
	now := time.Now()
	journal.CreatedAt = now
	journal.UpdatedAt = now
	r.write(journal)
	return true, nil
}

func (r *JournalRepository) Save(ctx context.Context, journal *entity.Journal) error {
	stored, ok := r.current(journal.UserId)
	if !ok || stored.Version != journal.Version {
		return contract.ErrVersionConflict
	}
	journal.UpdatedAt = time.Now()
	journal.Version++
	r.write(journal)
	return nil
}

func (r *JournalRepository) write(journal *entity.Journal) {
	if r.staged != nil {
		delete(r.deleted, journal.UserId)
		r.staged[journal.UserId] = journal.Clone()
		return
	}
	r.store.set(journal)
}

func (r *JournalRepository) Delete(ctx context.Context, userId uuid.UUID) error {
	if r.staged != nil {
		delete(r.staged, userId)
		r.deleted[userId] = true
		return nil
	}
	r.store.cache.Delete(userId.String())
	return nil
}

func (r *JournalRepository) Count(ctx context.Context) (int64, error) {
	return int64(r.store.cache.ItemCount()), nil
}

var _ contract.JournalRepository = (*JournalRepository)(nil)
