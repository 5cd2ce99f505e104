package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"hours-reconciliation-backend/internal/apperrors"
	"hours-reconciliation-backend/internal/models"
)

// MemoryStore keeps runs and rows in process memory. It backs local runs
// without a database and the service tests.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]models.ReconciliationRun
	rows []models.ReconciliationRow
	now  func() time.Time

	// FailRowInsert makes the next CreateRunWithRows fail after the header
	// would have been written.
	FailRowInsert error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs: make(map[uuid.UUID]models.ReconciliationRun),
		now:  time.Now,
	}
}

func (s *MemoryStore) CreateRunWithRows(_ context.Context, run *models.ReconciliationRun, rows []models.ReconciliationRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.FailRowInsert; err != nil {
		s.FailRowInsert = nil
		return apperrors.NewPersistenceError("insert reconciliation rows", err)
	}

	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.now()
	}
	header := *run
	header.Rows = nil
	s.runs[run.ID] = header

	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		row.RunID = run.ID
		if row.CreatedAt.IsZero() {
			row.CreatedAt = run.CreatedAt
		}
		s.rows = append(s.rows, row)
	}
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id uuid.UUID) (*models.ReconciliationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &run, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]models.ReconciliationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]models.ReconciliationRun, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].CreatedAt.After(runs[j].CreatedAt) })
	return runs, nil
}

func (s *MemoryStore) DeleteRun(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[id]; !ok {
		return apperrors.ErrNotFound
	}
	kept := s.rows[:0]
	for _, row := range s.rows {
		if row.RunID != id {
			kept = append(kept, row)
		}
	}
	s.rows = kept
	delete(s.runs, id)
	return nil
}

func (s *MemoryStore) QueryRows(_ context.Context, filter models.RowFilter) ([]models.ReconciliationRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.ReconciliationRow
	for _, row := range s.rows {
		if filter.Matches(row) {
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Date() != b.Date() {
			// undated rows last, like NULLS LAST
			if a.Date() == "" || b.Date() == "" {
				return b.Date() == ""
			}
			return a.Date() < b.Date()
		}
		if c := strings.Compare(a.Client(), b.Client()); c != 0 {
			return c < 0
		}
		return a.Employee() < b.Employee()
	})
	return out, nil
}

func (s *MemoryStore) UpdateRowNotes(_ context.Context, id uuid.UUID, notes *string) (*models.ReconciliationRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows[i].Notes = notes
			row := s.rows[i]
			return &row, nil
		}
	}
	return nil, apperrors.ErrNotFound
}
