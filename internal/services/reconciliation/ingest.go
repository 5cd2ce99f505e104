package reconciliation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"hours-reconciliation-backend/internal/apperrors"
	"hours-reconciliation-backend/internal/config"
	"hours-reconciliation-backend/internal/models"
	"hours-reconciliation-backend/internal/services/aggregation"
	"hours-reconciliation-backend/internal/services/extraction"
)

// Upload is one uploaded spreadsheet held in memory.
type Upload struct {
	Filename string
	Data     []byte
}

func (u *Upload) empty() bool {
	return u == nil || len(u.Data) == 0
}

type IngestRequest struct {
	Mode          string  `form:"mode" validate:"omitempty,oneof=combined dual"`
	PeriodStart   string  `form:"period_start" validate:"required,datetime=2006-01-02"`
	PeriodEnd     string  `form:"period_end" validate:"required,datetime=2006-01-02"`
	Label         string  `form:"label" validate:"max=200"`
	CombinedFile  *Upload `form:"-"`
	CareCentaFile *Upload `form:"-"`
	HHAFile       *Upload `form:"-"`
}

// IngestSummary is the totals block returned to the uploader.
type IngestSummary struct {
	TotalCarecentaHours float64  `json:"totalCarecentaHours"`
	TotalHhaHours       float64  `json:"totalHhaHours"`
	VarianceHours       float64  `json:"varianceHours"`
	VariancePercent     *float64 `json:"variancePercent"`
	RowCount            int      `json:"rowCount"`
}

type Unmatched struct {
	CareCenta int `json:"carecenta"`
	HHA       int `json:"hha"`
}

type IngestResult struct {
	RunID     uuid.UUID              `json:"runId"`
	Summary   IngestSummary          `json:"summary"`
	Rejected  []extraction.Rejection `json:"rejected"`
	Unmatched Unmatched              `json:"unmatched"`
}

// Ingest parses the uploaded file(s), builds one run with its rows and
// persists both atomically.
func (s *ReconciliationService) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	if err := s.validateIngest(&req); err != nil {
		return nil, err
	}

	// 1. Extract records from the sheet(s)
	var (
		result *extraction.Result
		err    error
	)
	if req.Mode == models.SourceModeDual {
		result, err = extraction.ExtractDualFiles(
			req.CareCentaFile.Data, req.CareCentaFile.Filename,
			req.HHAFile.Data, req.HHAFile.Filename,
			s.policy,
		)
	} else {
		result, err = extraction.ExtractCombinedFile(req.CombinedFile.Data, req.CombinedFile.Filename, req.PeriodStart)
	}
	if errors.Is(err, apperrors.ErrHeaderNotFound) {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrNoData, err)
	}
	if err != nil {
		config.LogError(s.log, moduleName, "Ingest", "extract", logrus.Fields{"mode": req.Mode}, err)
		return nil, fmt.Errorf("read uploaded file: %w", err)
	}
	if len(result.Records) == 0 {
		return nil, apperrors.ErrNoData
	}

	// 2. Totals over every extracted record, nulls as zero
	var totalCare, totalHha float64
	for _, rec := range result.Records {
		if rec.CarecentaHours != nil {
			totalCare += *rec.CarecentaHours
		}
		if rec.HhaHours != nil {
			totalHha += *rec.HhaHours
		}
	}
	variance := totalHha - totalCare
	totalHours := totalHha
	if totalHours == 0 {
		totalHours = totalCare
	}

	// 3. Rows
	run := &models.ReconciliationRun{
		ID:                  uuid.New(),
		PeriodStart:         req.PeriodStart,
		PeriodEnd:           req.PeriodEnd,
		SourceMode:          req.Mode,
		TotalHours:          totalHours,
		TotalCarecentaHours: totalCare,
		TotalHhaHours:       totalHha,
		VarianceHours:       variance,
		VariancePercent:     aggregation.VariancePercent(variance, totalCare),
		CreatedAt:           time.Now().UTC(),
	}
	if label := strings.TrimSpace(req.Label); label != "" {
		run.Label = &label
	}

	rejected := append([]extraction.Rejection(nil), result.Rejected...)
	rows := make([]models.ReconciliationRow, 0, len(result.Records))
	for _, rec := range result.Records {
		if rec.CarecentaHours == nil && rec.HhaHours == nil {
			rejected = append(rejected, extraction.Rejection{Source: rec.Source, RawIndex: rec.RowIndex, Reason: "no hours"})
			continue
		}
		row, err := buildRow(run, rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, apperrors.ErrNoData
	}
	run.RowCount = len(rows)

	// 4. Persist header and rows together
	if err := s.store.CreateRunWithRows(ctx, run, rows); err != nil {
		config.LogError(s.log, moduleName, "Ingest", "persist run", logrus.Fields{"runId": run.ID, "rows": len(rows)}, err)
		return nil, err
	}
	s.invalidate(ctx, "Ingest")

	s.log.WithFields(logrus.Fields{
		"module":    moduleName,
		"runId":     run.ID,
		"mode":      run.SourceMode,
		"rows":      len(rows),
		"rejected":  len(rejected),
		"unmatched": result.UnmatchedCareCenta + result.UnmatchedHHA,
	}).Info("reconciliation run ingested")

	if rejected == nil {
		rejected = []extraction.Rejection{}
	}
	return &IngestResult{
		RunID: run.ID,
		Summary: IngestSummary{
			TotalCarecentaHours: totalCare,
			TotalHhaHours:       totalHha,
			VarianceHours:       variance,
			VariancePercent:     run.VariancePercent,
			RowCount:            len(rows),
		},
		Rejected:  rejected,
		Unmatched: Unmatched{CareCenta: result.UnmatchedCareCenta, HHA: result.UnmatchedHHA},
	}, nil
}

func (s *ReconciliationService) validateIngest(req *IngestRequest) error {
	req.Mode = strings.ToLower(strings.TrimSpace(req.Mode))
	if req.Mode == "" {
		req.Mode = models.SourceModeCombined
	}
	req.PeriodStart = strings.TrimSpace(req.PeriodStart)
	req.PeriodEnd = strings.TrimSpace(req.PeriodEnd)

	if err := s.validate.Struct(req); err != nil {
		return ingestValidationError(err)
	}
	if req.PeriodStart > req.PeriodEnd {
		return apperrors.NewValidationError("period_start must not be after period_end")
	}

	switch req.Mode {
	case models.SourceModeDual:
		if req.CareCentaFile.empty() || req.HHAFile.empty() {
			return apperrors.NewValidationError("Dual mode requires carecenta_file and hha_file")
		}
	default:
		if req.CombinedFile.empty() {
			return apperrors.NewValidationError("Combined mode requires combined_file")
		}
	}
	return nil
}

func ingestValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperrors.NewValidationError("invalid ingest request: %v", err)
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return apperrors.NewValidationError("period_start and period_end are required")
	case "datetime":
		return apperrors.NewValidationError("%s must be a YYYY-MM-DD date", fe.Field())
	case "oneof":
		return apperrors.NewValidationError("mode must be combined or dual")
	case "max":
		return apperrors.NewValidationError("%s is too long", fe.Field())
	default:
		return apperrors.NewValidationError("%s is invalid", fe.Field())
	}
}

func buildRow(run *models.ReconciliationRun, rec extraction.Record) (models.ReconciliationRow, error) {
	raw, err := json.Marshal(rec.Raw)
	if err != nil {
		return models.ReconciliationRow{}, fmt.Errorf("encode raw payload of row %d: %w", rec.RowIndex, err)
	}

	row := models.ReconciliationRow{
		ID:             uuid.New(),
		RunID:          run.ID,
		ClientName:     optional(rec.ClientName),
		EmployeeName:   optional(rec.EmployeeName),
		ServiceDate:    optional(rec.ServiceDate),
		CarecentaHours: rec.CarecentaHours,
		HhaHours:       rec.HhaHours,
		ConfirmedAppts: rec.ConfirmedAppts,
		Units:          rec.Units,
		RawPayload:     datatypes.JSON(raw),
		CreatedAt:      run.CreatedAt,
	}
	if rec.CarecentaHours != nil && rec.HhaHours != nil {
		v := decimal.NewFromFloat(*rec.HhaHours).
			Sub(decimal.NewFromFloat(*rec.CarecentaHours)).
			Round(2).
			InexactFloat64()
		row.VarianceHours = &v
	}
	return row, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
