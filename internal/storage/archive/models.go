package archive

import (
	"time"

	"github.com/google/uuid"
)

// ArchivedPlan is one stored plan. The summary columns allow listing without
// decoding the full plan.
type ArchivedPlan struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	Name        string    `gorm:"column:name" json:"name"`
	Runtime     int       `gorm:"column:runtime" json:"runtime"`
	DecoMinutes int       `gorm:"column:deco_minutes" json:"deco_minutes"`
	MaxDepth    float64   `gorm:"column:max_depth" json:"max_depth"`
	CNS         float64   `gorm:"column:cns" json:"cns"`
	OTU         float64   `gorm:"column:otu" json:"otu"`
	Plan        string    `gorm:"column:plan;type:jsonb" json:"-"`
}

// TableName specifies the table name for ArchivedPlan
func (ArchivedPlan) TableName() string {
	return "dive_plans"
}
