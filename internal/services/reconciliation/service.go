package reconciliation

import (
	"context"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"hours-reconciliation-backend/internal/models"
	"hours-reconciliation-backend/internal/services/aggregation"
	"hours-reconciliation-backend/internal/services/matching"
)

const moduleName = "reconciliation"

// Store is the persistence the service needs. The gorm store and the
// in-memory store both satisfy it.
type Store interface {
	CreateRunWithRows(ctx context.Context, run *models.ReconciliationRun, rows []models.ReconciliationRow) error
	GetRun(ctx context.Context, id uuid.UUID) (*models.ReconciliationRun, error)
	ListRuns(ctx context.Context) ([]models.ReconciliationRun, error)
	DeleteRun(ctx context.Context, id uuid.UUID) error
	QueryRows(ctx context.Context, filter models.RowFilter) ([]models.ReconciliationRow, error)
	UpdateRowNotes(ctx context.Context, id uuid.UUID, notes *string) (*models.ReconciliationRow, error)
}

// SummaryCache memoizes summary reports per filter.
type SummaryCache interface {
	GetSummary(ctx context.Context, filter models.RowFilter) (*aggregation.Report, bool, error)
	SetSummary(ctx context.Context, filter models.RowFilter, report *aggregation.Report) error
	Invalidate(ctx context.Context) error
}

type nopCache struct{}

func (nopCache) GetSummary(context.Context, models.RowFilter) (*aggregation.Report, bool, error) {
	return nil, false, nil
}
func (nopCache) SetSummary(context.Context, models.RowFilter, *aggregation.Report) error { return nil }
func (nopCache) Invalidate(context.Context) error                                       { return nil }

type ReconciliationService struct {
	store    Store
	cache    SummaryCache
	policy   matching.JoinPolicy
	log      logrus.FieldLogger
	validate *validator.Validate
}

type Option func(*ReconciliationService)

func WithJoinPolicy(p matching.JoinPolicy) Option {
	return func(s *ReconciliationService) { s.policy = p }
}

// WithSummaryCache enables summary caching. A nil cache is ignored.
func WithSummaryCache(c SummaryCache) Option {
	return func(s *ReconciliationService) {
		if c != nil {
			s.cache = c
		}
	}
}

func NewReconciliationService(store Store, log logrus.FieldLogger, opts ...Option) *ReconciliationService {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	s := &ReconciliationService{
		store:    store,
		cache:    nopCache{},
		policy:   matching.FullOuter,
		log:      log,
		validate: v,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// invalidate drops cached summaries. Cache failures are logged only; the
// store stays the source of truth.
func (s *ReconciliationService) invalidate(ctx context.Context, funcName string) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.WithFields(logrus.Fields{"module": moduleName, "funcName": funcName}).
			WithError(err).Warn("summary cache invalidation failed")
	}
}
