package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hours-reconciliation-backend/internal/apperrors"
	"hours-reconciliation-backend/internal/models"
)

type RowRepository struct {
	db *gorm.DB
}

func NewRowRepository(db *gorm.DB) *RowRepository {
	return &RowRepository{db: db}
}

// QueryRows returns the rows matching the filter ordered by service date.
func (r *RowRepository) QueryRows(ctx context.Context, filter models.RowFilter) ([]models.ReconciliationRow, error) {
	f := filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.ReconciliationRow{})

	if f.RunID != nil {
		query = query.Where("run_id = ?", *f.RunID)
	}
	if f.From != "" {
		query = query.Where("service_date >= ?", f.From)
	}
	if f.To != "" {
		query = query.Where("service_date <= ?", f.To)
	}
	if f.Client != "" {
		query = query.Where("client_name = ?", f.Client)
	}
	if f.Employee != "" {
		query = query.Where("employee_name = ?", f.Employee)
	}

	var rows []models.ReconciliationRow
	err := query.
		Order("service_date ASC NULLS LAST").
		Order("client_name ASC").
		Order("employee_name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.NewPersistenceError("query reconciliation rows", err)
	}
	return rows, nil
}

// UpdateRowNotes sets or clears the notes of one row.
func (r *RowRepository) UpdateRowNotes(ctx context.Context, id uuid.UUID, notes *string) (*models.ReconciliationRow, error) {
	var row models.ReconciliationRow
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ReconciliationRow{}).Where("id = ?", id).Update("notes", notes)
		if result.Error != nil {
			return apperrors.NewPersistenceError("update row notes", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			return apperrors.NewPersistenceError("reload row", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}
