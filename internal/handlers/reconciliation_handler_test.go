package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hours-reconciliation-backend/internal/apperrors"
	"hours-reconciliation-backend/internal/repository"
	service "hours-reconciliation-backend/internal/services/reconciliation"
)

const combinedCSV = `Client,HHAeX Hours,CareCenta Hours
Amy Smith,8,7
Bob Jones,2,2
`

func newRouter(t *testing.T, maxUpload int64) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logrus.New()
	log.SetOutput(io.Discard)
	svc := service.NewReconciliationService(repository.NewMemoryStore(), log)
	h := NewReconciliationHandler(svc, maxUpload)

	r := gin.New()
	recon := r.Group("/api/reconciliation")
	recon.POST("/ingest", h.Ingest)
	recon.GET("/summary", h.Summary)
	recon.GET("/compare", h.Compare)
	recon.GET("/runs", h.ListRuns)
	recon.GET("/runs/:runId", h.GetRun)
	recon.GET("/runs/:runId/rows", h.ListRunRows)
	recon.DELETE("/runs/:runId", h.DeleteRun)
	recon.DELETE("/run", h.DeleteRunByQuery)
	recon.PATCH("/rows/:rowId/notes", h.UpdateRowNotes)
	return r
}

type upload struct {
	field, name, body string
}

func multipartRequest(t *testing.T, fields map[string]string, files ...upload) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/reconciliation/ingest", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func do(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func ingestCombined(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := do(r, multipartRequest(t,
		map[string]string{"period_start": "2024-01-01", "period_end": "2024-01-31"},
		upload{"combined_file", "combined.csv", combinedCSV},
	))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode(t, w)["runId"].(string)
}

func TestIngest(t *testing.T) {
	r := newRouter(t, 1<<20)

	w := do(r, multipartRequest(t,
		map[string]string{"period_start": "2024-01-01", "period_end": "2024-01-31"},
		upload{"combined_file", "combined.csv", combinedCSV},
	))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	_, err := uuid.Parse(body["runId"].(string))
	require.NoError(t, err)
	summary := body["summary"].(map[string]any)
	assert.InDelta(t, 9, summary["totalCarecentaHours"], 1e-9)
	assert.InDelta(t, 10, summary["totalHhaHours"], 1e-9)
	assert.EqualValues(t, 2, summary["rowCount"])
	assert.Equal(t, []any{}, body["rejected"])
}

func TestIngest_Errors(t *testing.T) {
	r := newRouter(t, 1<<20)

	t.Run("missing period", func(t *testing.T) {
		w := do(r, multipartRequest(t, map[string]string{"period_end": "2024-01-31"},
			upload{"combined_file", "c.csv", combinedCSV}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "period_start and period_end are required", decode(t, w)["error"])
	})

	t.Run("dual without files", func(t *testing.T) {
		w := do(r, multipartRequest(t, map[string]string{"mode": "dual", "period_start": "2024-01-01", "period_end": "2024-01-31"}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Dual mode requires carecenta_file and hha_file", decode(t, w)["error"])
	})

	t.Run("no usable rows", func(t *testing.T) {
		w := do(r, multipartRequest(t, map[string]string{"period_start": "2024-01-01", "period_end": "2024-01-31"},
			upload{"combined_file", "c.csv", "nothing,here\n1,2\n"}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode(t, w)["error"], "check the file format")
	})

	t.Run("not multipart", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/reconciliation/ingest", strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		w := do(r, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestIngest_TooLarge(t *testing.T) {
	r := newRouter(t, 1024)
	big := strings.Repeat("Amy,1,1\n", 400)
	w := do(r, multipartRequest(t,
		map[string]string{"period_start": "2024-01-01", "period_end": "2024-01-31"},
		upload{"combined_file", "c.csv", "Client,HHAeX Hours,CareCenta Hours\n" + big},
	))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRunEndpoints(t *testing.T) {
	r := newRouter(t, 1<<20)
	runID := ingestCombined(t, r)

	w := do(r, httptest.NewRequest(http.MethodGet, "/api/reconciliation/runs", nil))
	require.Equal(t, http.StatusOK, w.Code)
	runs := decode(t, w)["runs"].([]any)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].(map[string]any)["id"])

	w = do(r, httptest.NewRequest(http.MethodGet, "/api/reconciliation/runs/"+runID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "combined", decode(t, w)["source_mode"])

	w = do(r, httptest.NewRequest(http.MethodGet, "/api/reconciliation/runs/"+runID+"/rows", nil))
	require.Equal(t, http.StatusOK, w.Code)
	rows := decode(t, w)["rows"].([]any)
	require.Len(t, rows, 2)
	rowID := rows[0].(map[string]any)["id"].(string)

	req := httptest.NewRequest(http.MethodPatch, "/api/reconciliation/rows/"+rowID+"/notes", strings.NewReader(`{"notes":"checked"}`))
	req.Header.Set("Content-Type", "application/json")
	w = do(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "checked", decode(t, w)["notes"])

	w = do(r, httptest.NewRequest(http.MethodGet, "/api/reconciliation/runs/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, httptest.NewRequest(http.MethodGet, "/api/reconciliation/runs/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, httptest.NewRequest(http.MethodDelete, "/api/reconciliation/run", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, httptest.NewRequest(http.MethodDelete, "/api/reconciliation/run?id="+runID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["ok"])

	w = do(r, httptest.NewRequest(http.MethodDelete, "/api/reconciliation/runs/"+runID, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSummaryEndpoint(t *testing.T) {
	r := newRouter(t, 1<<20)
	runID := ingestCombined(t, r)

	w := do(r, httptest.NewRequest(http.MethodGet, "/api/reconciliation/summary?client=all&run_id="+runID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	summary := body["summary"].(map[string]any)
	assert.EqualValues(t, 2, summary["rowCount"])
	assert.InDelta(t, 1, summary["varianceHours"], 1e-9)
	for _, k := range []string{"timeseries", "employees", "clients", "topEmployees", "topClients", "filters"} {
		assert.Contains(t, body, k)
	}

	w = do(r, httptest.NewRequest(http.MethodGet, "/api/reconciliation/summary?client=Bob+Jones", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["summary"].(map[string]any)["rowCount"])

	w = do(r, httptest.NewRequest(http.MethodGet, "/api/reconciliation/summary?run_id=nope", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompareEndpoint(t *testing.T) {
	r := newRouter(t, 1<<20)
	a := ingestCombined(t, r)
	b := ingestCombined(t, r)

	w := do(r, httptest.NewRequest(http.MethodGet, "/api/reconciliation/compare?base="+a+"&target="+b, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "client", body["dimension"])
	for _, e := range body["entries"].([]any) {
		assert.Equal(t, "unchanged", e.(map[string]any)["status"])
	}

	w = do(r, httptest.NewRequest(http.MethodGet, "/api/reconciliation/compare?base="+a, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, httptest.NewRequest(http.MethodGet, "/api/reconciliation/compare?base="+a+"&target="+b+"&by=weekday", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, httptest.NewRequest(http.MethodGet, "/api/reconciliation/compare?base="+a+"&target="+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		err  error
		code int
	}{
		{apperrors.NewValidationError("bad"), http.StatusBadRequest},
		{apperrors.ErrNoData, http.StatusBadRequest},
		{apperrors.ErrNotFound, http.StatusNotFound},
		{apperrors.NewPersistenceError("insert", errors.New("down")), http.StatusInternalServerError},
		{errors.New("surprise"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondError(c, tt.err)
		assert.Equal(t, tt.code, w.Code, tt.err.Error())
	}
}
