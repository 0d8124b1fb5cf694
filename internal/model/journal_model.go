package model

import (
	"time"

	"memory-beads-be/pkg/bead"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Journal struct {
	UserId     uuid.UUID                        `gorm:"type:uuid;primaryKey"`
	Collection datatypes.JSONType[[]bead.Bead] `gorm:"type:jsonb;not null"`
	Queue      datatypes.JSONType[[]bead.Bead] `gorm:"type:jsonb;not null"`
	Fallback   datatypes.JSONType[bead.Bead]   `gorm:"type:jsonb;not null"`
	View       datatypes.JSONType[bead.View]   `gorm:"type:jsonb;not null"`
	Version    int64                            `gorm:"not null;default:0"`
	CreatedAt  time.Time                        `gorm:"autoCreateTime"`
	UpdatedAt  time.Time                        `gorm:"autoUpdateTime"`
}

func (Journal) TableName() string {
	return "journals"
}
