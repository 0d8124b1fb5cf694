package implementation

import (
	"context"
	"errors"
	"time"

	"memory-beads-be/internal/entity"
	"memory-beads-be/internal/mapper"
	"memory-beads-be/internal/model"
	"memory-beads-be/internal/repository/contract"
	"memory-beads-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type JournalRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.JournalMapper
}

func NewJournalRepository(db *gorm.DB) contract.JournalRepository {
	return &JournalRepositoryImpl{
		db:     db,
		mapper: mapper.NewJournalMapper(),
	}
}

func (r *JournalRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *JournalRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Journal, error) {
	var m model.Journal
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *JournalRepositoryImpl) Create(ctx context.Context, journal *entity.Journal) (bool, error) {
	m := r.mapper.ToModel(journal)
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(m)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	*journal = *r.mapper.ToEntity(m)
	return true, nil
}

func (r *JournalRepositoryImpl) Save(ctx context.Context, journal *entity.Journal) error {
	m := r.mapper.ToModel(journal)
	m.Version = journal.Version + 1
	m.UpdatedAt = time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.Journal{}).
		Where("user_id = ? AND version = ?", journal.UserId, journal.Version).
		Select("collection", "queue", "fallback", "view", "version", "updated_at").
		Updates(m)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return contract.ErrVersionConflict
	}
	journal.Version = m.Version
	journal.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *JournalRepositoryImpl) Delete(ctx context.Context, userId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userId).Delete(&model.Journal{}).Error
}

func (r *JournalRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Journal{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
