package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"hours-reconciliation-backend/internal/models"
	service "hours-reconciliation-backend/internal/services/reconciliation"
)

type ReconciliationHandler struct {
	service        *service.ReconciliationService
	maxUploadBytes int64
}

func NewReconciliationHandler(s *service.ReconciliationService, maxUploadBytes int64) *ReconciliationHandler {
	return &ReconciliationHandler{service: s, maxUploadBytes: maxUploadBytes}
}

func (h *ReconciliationHandler) ListRuns(c *gin.Context) {
	runs, err := h.service.ListRuns(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (h *ReconciliationHandler) GetRun(c *gin.Context) {
	id, ok := parseID(c, c.Param("runId"), "invalid run ID")
	if !ok {
		return
	}
	run, err := h.service.GetRun(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *ReconciliationHandler) ListRunRows(c *gin.Context) {
	id, ok := parseID(c, c.Param("runId"), "invalid run ID")
	if !ok {
		return
	}
	rows, err := h.service.ListRunRows(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

func (h *ReconciliationHandler) DeleteRun(c *gin.Context) {
	h.deleteRun(c, c.Param("runId"))
}

// DeleteRunByQuery serves DELETE /run?id=...
func (h *ReconciliationHandler) DeleteRunByQuery(c *gin.Context) {
	raw := c.Query("id")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing id"})
		return
	}
	h.deleteRun(c, raw)
}

func (h *ReconciliationHandler) deleteRun(c *gin.Context, raw string) {
	id, ok := parseID(c, raw, "invalid run ID")
	if !ok {
		return
	}
	if err := h.service.DeleteRun(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *ReconciliationHandler) UpdateRowNotes(c *gin.Context) {
	id, ok := parseID(c, c.Param("rowId"), "invalid row ID")
	if !ok {
		return
	}

	var payload struct {
		Notes *string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	row, err := h.service.UpdateRowNotes(c.Request.Context(), id, payload.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

// Summary serves the dashboard report. Query: from, to, client, employee, run_id.
func (h *ReconciliationHandler) Summary(c *gin.Context) {
	filter := models.RowFilter{
		From:     c.Query("from"),
		To:       c.Query("to"),
		Client:   c.Query("client"),
		Employee: c.Query("employee"),
	}
	if raw := c.Query("run_id"); raw != "" {
		id, ok := parseID(c, raw, "invalid run_id")
		if !ok {
			return
		}
		filter.RunID = &id
	}

	report, err := h.service.Summary(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Compare serves ?base=&target=&by=client|employee|date.
func (h *ReconciliationHandler) Compare(c *gin.Context) {
	if c.Query("base") == "" || c.Query("target") == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "base and target run IDs are required"})
		return
	}
	base, ok := parseID(c, c.Query("base"), "invalid base run ID")
	if !ok {
		return
	}
	target, ok := parseID(c, c.Query("target"), "invalid target run ID")
	if !ok {
		return
	}

	result, err := h.service.Compare(c.Request.Context(), base, target, c.Query("by"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func parseID(c *gin.Context, raw, msg string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return uuid.Nil, false
	}
	return id, true
}
