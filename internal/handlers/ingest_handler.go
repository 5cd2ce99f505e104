package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	service "hours-reconciliation-backend/internal/services/reconciliation"
)

// Ingest accepts the multipart upload of one reconciliation run.
func (h *ReconciliationHandler) Ingest(c *gin.Context) {
	if c.Request.ContentLength > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": uploadTooLarge(h.maxUploadBytes)})
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	if err := c.Request.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": uploadTooLarge(h.maxUploadBytes)})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected a multipart form upload"})
		return
	}

	req := service.IngestRequest{
		Mode:        c.PostForm("mode"),
		PeriodStart: c.PostForm("period_start"),
		PeriodEnd:   c.PostForm("period_end"),
		Label:       c.PostForm("label"),
	}

	var err error
	if req.CombinedFile, err = readUpload(c, "combined_file"); err != nil {
		respondError(c, err)
		return
	}
	if req.CareCentaFile, err = readUpload(c, "carecenta_file"); err != nil {
		respondError(c, err)
		return
	}
	if req.HHAFile, err = readUpload(c, "hha_file"); err != nil {
		respondError(c, err)
		return
	}

	result, err := h.service.Ingest(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// readUpload returns nil when the field was not sent.
func readUpload(c *gin.Context, field string) (*service.Upload, error) {
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", field, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	return &service.Upload{Filename: header.Filename, Data: data}, nil
}

func uploadTooLarge(limit int64) string {
	return fmt.Sprintf("upload exceeds the %d MB limit", limit>>20)
}
