package reconciliation

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"hours-reconciliation-backend/internal/apperrors"
	"hours-reconciliation-backend/internal/config"
	"hours-reconciliation-backend/internal/models"
	"hours-reconciliation-backend/internal/services/aggregation"
	"hours-reconciliation-backend/internal/services/comparison"
)

// Summary builds the dashboard report for the filtered rows, going through
// the summary cache when one is configured.
func (s *ReconciliationService) Summary(ctx context.Context, filter models.RowFilter) (*aggregation.Report, error) {
	filter = filter.Normalize()

	if report, ok, err := s.cache.GetSummary(ctx, filter); err != nil {
		s.log.WithFields(logrus.Fields{"module": moduleName, "funcName": "Summary"}).
			WithError(err).Warn("summary cache read failed")
	} else if ok {
		return report, nil
	}

	rows, err := s.store.QueryRows(ctx, filter)
	if err != nil {
		config.LogError(s.log, moduleName, "Summary", "query rows", filter.Key(), err)
		return nil, err
	}
	report := aggregation.Build(rows)

	if err := s.cache.SetSummary(ctx, filter, report); err != nil {
		s.log.WithFields(logrus.Fields{"module": moduleName, "funcName": "Summary"}).
			WithError(err).Warn("summary cache write failed")
	}
	return report, nil
}

type RunSnapshot struct {
	Run     models.ReconciliationRun `json:"run"`
	Summary aggregation.Summary      `json:"summary"`
}

type Comparison struct {
	Base      RunSnapshot               `json:"base"`
	Target    RunSnapshot               `json:"target"`
	Dimension string                    `json:"dimension"`
	Entries   []comparison.Entry        `json:"entries"`
	Counts    map[comparison.Status]int `json:"counts"`
}

// Compare diffs two runs along client, employee or date.
func (s *ReconciliationService) Compare(ctx context.Context, baseID, targetID uuid.UUID, dimension string) (*Comparison, error) {
	selector, err := comparison.SelectorFor(dimension)
	if err != nil {
		return nil, apperrors.NewValidationError("%v", err)
	}
	dimension = strings.ToLower(strings.TrimSpace(dimension))
	if dimension == "" {
		dimension = "client"
	}

	var base, target RunSnapshot
	var baseRows, targetRows []models.ReconciliationRow

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		base, baseRows, err = s.snapshot(gctx, baseID)
		return err
	})
	g.Go(func() error {
		var err error
		target, targetRows, err = s.snapshot(gctx, targetID)
		return err
	})
	if err := g.Wait(); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			config.LogError(s.log, moduleName, "Compare", "load runs",
				logrus.Fields{"base": baseID, "target": targetID}, err)
		}
		return nil, err
	}

	entries := comparison.Compare(baseRows, targetRows, selector)
	return &Comparison{
		Base:      base,
		Target:    target,
		Dimension: dimension,
		Entries:   entries,
		Counts:    comparison.Counts(entries),
	}, nil
}

func (s *ReconciliationService) snapshot(ctx context.Context, id uuid.UUID) (RunSnapshot, []models.ReconciliationRow, error) {
	run, err := s.store.GetRun(ctx, id)
	if err != nil {
		return RunSnapshot{}, nil, err
	}
	rows, err := s.store.QueryRows(ctx, models.RowFilter{RunID: &id})
	if err != nil {
		return RunSnapshot{}, nil, err
	}
	return RunSnapshot{Run: *run, Summary: aggregation.Summarize(rows)}, rows, nil
}
