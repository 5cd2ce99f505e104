package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	SourceModeCombined = "combined"
	SourceModeDual     = "dual"
)

// ReconciliationRun is the header of one ingestion. Runs are never updated
// after creation; deleting a run removes its rows.
type ReconciliationRun struct {
	ID                  uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	Label               *string             `json:"label"`
	PeriodStart         string              `gorm:"type:varchar(10);not null;index" json:"period_start"`
	PeriodEnd           string              `gorm:"type:varchar(10);not null;index" json:"period_end"`
	SourceMode          string              `gorm:"type:varchar(16);not null" json:"source_mode"`
	TotalHours          float64             `json:"total_hours"`
	TotalCarecentaHours float64             `json:"total_carecenta_hours"`
	TotalHhaHours       float64             `json:"total_hha_hours"`
	VarianceHours       float64             `json:"variance_hours"`
	VariancePercent     *float64            `json:"variance_percent"`
	RowCount            int                 `json:"row_count"`
	Rows                []ReconciliationRow `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt           time.Time           `gorm:"index" json:"created_at"`
}
