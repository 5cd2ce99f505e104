package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hours-reconciliation-backend/internal/apperrors"
	"hours-reconciliation-backend/internal/models"
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func row(client, employee, date string, care, hha float64) models.ReconciliationRow {
	r := models.ReconciliationRow{
		ClientName:     strPtr(client),
		EmployeeName:   strPtr(employee),
		CarecentaHours: floatPtr(care),
		HhaHours:       floatPtr(hha),
	}
	if date != "" {
		r.ServiceDate = strPtr(date)
	}
	return r
}

func TestMemoryStore_CreateAndQuery(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	run := &models.ReconciliationRun{PeriodStart: "2024-01-01", PeriodEnd: "2024-01-31", SourceMode: models.SourceModeDual}
	rows := []models.ReconciliationRow{
		row("Zed", "Bo", "2024-01-03", 1, 1),
		row("Amy", "Al", "2024-01-02", 2, 3),
		row("Amy", "Al", "", 1, 0),
	}
	require.NoError(t, s.CreateRunWithRows(ctx, run, rows))
	assert.NotEqual(t, uuid.Nil, run.ID)

	got, err := s.QueryRows(ctx, models.RowFilter{RunID: &run.ID})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "2024-01-02", got[0].Date())
	assert.Equal(t, "2024-01-03", got[1].Date())
	assert.Equal(t, "", got[2].Date())
	for _, r := range got {
		assert.Equal(t, run.ID, r.RunID)
		assert.NotEqual(t, uuid.Nil, r.ID)
	}

	dated, err := s.QueryRows(ctx, models.RowFilter{From: "2024-01-01", Client: "Amy"})
	require.NoError(t, err)
	require.Len(t, dated, 1)
	assert.Equal(t, "Al", dated[0].Employee())
}

func TestMemoryStore_ListRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	older := &models.ReconciliationRun{CreatedAt: base}
	newer := &models.ReconciliationRun{CreatedAt: base.Add(time.Hour)}
	require.NoError(t, s.CreateRunWithRows(ctx, older, nil))
	require.NoError(t, s.CreateRunWithRows(ctx, newer, nil))

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer.ID, runs[0].ID)
	assert.Equal(t, older.ID, runs[1].ID)
}

func TestMemoryStore_FailedInsertLeavesNothing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.FailRowInsert = errors.New("disk full")

	err := s.CreateRunWithRows(ctx, &models.ReconciliationRun{}, []models.ReconciliationRow{row("A", "B", "2024-01-01", 1, 1)})
	require.Error(t, err)
	assert.True(t, apperrors.IsPersistence(err))

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)
	rows, err := s.QueryRows(ctx, models.RowFilter{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMemoryStore_DeleteRun(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	keep := &models.ReconciliationRun{}
	drop := &models.ReconciliationRun{}
	require.NoError(t, s.CreateRunWithRows(ctx, keep, []models.ReconciliationRow{row("A", "B", "2024-01-01", 1, 1)}))
	require.NoError(t, s.CreateRunWithRows(ctx, drop, []models.ReconciliationRow{row("C", "D", "2024-01-01", 1, 1)}))

	require.NoError(t, s.DeleteRun(ctx, drop.ID))

	_, err := s.GetRun(ctx, drop.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	rows, err := s.QueryRows(ctx, models.RowFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, keep.ID, rows[0].RunID)

	assert.ErrorIs(t, s.DeleteRun(ctx, drop.ID), apperrors.ErrNotFound)
}

func TestMemoryStore_UpdateRowNotes(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	run := &models.ReconciliationRun{}
	require.NoError(t, s.CreateRunWithRows(ctx, run, []models.ReconciliationRow{row("A", "B", "2024-01-01", 1, 1)}))

	rows, err := s.QueryRows(ctx, models.RowFilter{})
	require.NoError(t, err)
	id := rows[0].ID

	updated, err := s.UpdateRowNotes(ctx, id, strPtr("called family"))
	require.NoError(t, err)
	assert.Equal(t, "called family", *updated.Notes)

	cleared, err := s.UpdateRowNotes(ctx, id, nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.Notes)

	_, err = s.UpdateRowNotes(ctx, uuid.New(), nil)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
