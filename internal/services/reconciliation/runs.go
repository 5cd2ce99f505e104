package reconciliation

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"hours-reconciliation-backend/internal/config"
	"hours-reconciliation-backend/internal/models"
)

func (s *ReconciliationService) ListRuns(ctx context.Context) ([]models.ReconciliationRun, error) {
	runs, err := s.store.ListRuns(ctx)
	if err != nil {
		config.LogError(s.log, moduleName, "ListRuns", "list runs", nil, err)
		return nil, err
	}
	if runs == nil {
		runs = []models.ReconciliationRun{}
	}
	return runs, nil
}

func (s *ReconciliationService) GetRun(ctx context.Context, id uuid.UUID) (*models.ReconciliationRun, error) {
	return s.store.GetRun(ctx, id)
}

// ListRunRows returns the rows of one run ordered by service date.
func (s *ReconciliationService) ListRunRows(ctx context.Context, id uuid.UUID) ([]models.ReconciliationRow, error) {
	if _, err := s.store.GetRun(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.store.QueryRows(ctx, models.RowFilter{RunID: &id})
	if err != nil {
		config.LogError(s.log, moduleName, "ListRunRows", "query rows", logrus.Fields{"runId": id}, err)
		return nil, err
	}
	if rows == nil {
		rows = []models.ReconciliationRow{}
	}
	return rows, nil
}

// DeleteRun removes a run and all of its rows.
func (s *ReconciliationService) DeleteRun(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteRun(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, "DeleteRun")
	s.log.WithFields(logrus.Fields{"module": moduleName, "runId": id}).Info("reconciliation run deleted")
	return nil
}

// UpdateRowNotes sets the free-text notes of a row. Blank notes clear it.
func (s *ReconciliationService) UpdateRowNotes(ctx context.Context, rowID uuid.UUID, notes *string) (*models.ReconciliationRow, error) {
	if notes != nil {
		trimmed := strings.TrimSpace(*notes)
		if trimmed == "" {
			notes = nil
		} else {
			notes = &trimmed
		}
	}
	row, err := s.store.UpdateRowNotes(ctx, rowID, notes)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, "UpdateRowNotes")
	return row, nil
}
