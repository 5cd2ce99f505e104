package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ReconciliationRow struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	RunID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"run_id"`
	ClientName     *string        `gorm:"index" json:"client_name"`
	EmployeeName   *string        `gorm:"index" json:"employee_name"`
	ServiceDate    *string        `gorm:"type:varchar(10);index" json:"service_date"`
	CarecentaHours *float64       `json:"carecenta_hours"`
	HhaHours       *float64       `json:"hha_hours"`
	VarianceHours  *float64       `json:"variance_hours"`
	ConfirmedAppts *int           `json:"confirmed_appts"`
	Units          *float64       `json:"units"`
	Notes          *string        `gorm:"type:text" json:"notes"`
	RawPayload     datatypes.JSON `json:"raw_payload,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Client returns the client name or "" when unset.
func (r ReconciliationRow) Client() string {
	return deref(r.ClientName)
}

func (r ReconciliationRow) Employee() string {
	return deref(r.EmployeeName)
}

func (r ReconciliationRow) Date() string {
	return deref(r.ServiceDate)
}

func (r ReconciliationRow) Care() float64 {
	if r.CarecentaHours == nil {
		return 0
	}
	return *r.CarecentaHours
}

func (r ReconciliationRow) Hha() float64 {
	if r.HhaHours == nil {
		return 0
	}
	return *r.HhaHours
}

func (r ReconciliationRow) Appts() int {
	if r.ConfirmedAppts == nil {
		return 0
	}
	return *r.ConfirmedAppts
}

func (r ReconciliationRow) UnitCount() float64 {
	if r.Units == nil {
		return 0
	}
	return *r.Units
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
