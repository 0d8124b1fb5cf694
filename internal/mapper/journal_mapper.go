package mapper

import (
	"memory-beads-be/internal/entity"
	"memory-beads-be/internal/model"
	"memory-beads-be/pkg/bead"

	"gorm.io/datatypes"
)

type JournalMapper struct{}

func NewJournalMapper() *JournalMapper {
	return &JournalMapper{}
}

func (m *JournalMapper) ToEntity(j *model.Journal) *entity.Journal {
	if j == nil {
		return nil
	}
	return &entity.Journal{
		UserId:    j.UserId,
		State:     bead.NewState(j.Collection.Data(), j.Queue.Data(), j.Fallback.Data()),
		View:      j.View.Data(),
		Version:   j.Version,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

func (m *JournalMapper) ToModel(j *entity.Journal) *model.Journal {
	if j == nil {
		return nil
	}
	collection := j.State.Collection
	if collection == nil {
		collection = []bead.Bead{}
	}
	queue := j.State.Queue
	if queue == nil {
		queue = []bead.Bead{}
	}
	return &model.Journal{
		UserId:     j.UserId,
		Collection: datatypes.NewJSONType(collection),
		Queue:      datatypes.NewJSONType(queue),
		Fallback:   datatypes.NewJSONType(j.State.Fallback),
		View:       datatypes.NewJSONType(j.View),
		Version:    j.Version,
		CreatedAt:  j.CreatedAt,
		UpdatedAt:  j.UpdatedAt,
	}
}
