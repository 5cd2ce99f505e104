package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hours-reconciliation-backend/internal/apperrors"
	"hours-reconciliation-backend/internal/models"
)

const insertBatchSize = 500

type RunRepository struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

// CreateRunWithRows inserts the run header and all of its rows in one
// transaction. Either both land or neither does.
func (r *RunRepository) CreateRunWithRows(ctx context.Context, run *models.ReconciliationRun, rows []models.ReconciliationRow) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(run).Error; err != nil {
			return apperrors.NewPersistenceError("create reconciliation run", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, insertBatchSize).Error; err != nil {
			return apperrors.NewPersistenceError("insert reconciliation rows", err)
		}
		return nil
	})
}

// GetRun fetches a single run header.
func (r *RunRepository) GetRun(ctx context.Context, id uuid.UUID) (*models.ReconciliationRun, error) {
	var run models.ReconciliationRun
	err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, apperrors.NewPersistenceError("get reconciliation run", err)
	}
	return &run, nil
}

// ListRuns returns every run, newest first.
func (r *RunRepository) ListRuns(ctx context.Context) ([]models.ReconciliationRun, error) {
	var runs []models.ReconciliationRun
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&runs).Error; err != nil {
		return nil, apperrors.NewPersistenceError("list reconciliation runs", err)
	}
	return runs, nil
}

// DeleteRun removes the rows and then the header inside one transaction.
func (r *RunRepository) DeleteRun(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", id).Delete(&models.ReconciliationRow{}).Error; err != nil {
			return apperrors.NewPersistenceError("delete reconciliation rows", err)
		}
		result := tx.Where("id = ?", id).Delete(&models.ReconciliationRun{})
		if result.Error != nil {
			return apperrors.NewPersistenceError("delete reconciliation run", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
}
