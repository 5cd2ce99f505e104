package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"hours-reconciliation-backend/internal/apperrors"
)

// respondError maps service errors to HTTP statuses. Internal failures are
// reported without detail.
func respondError(c *gin.Context, err error) {
	var verr *apperrors.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
	case errors.Is(err, apperrors.ErrNoData):
		c.JSON(http.StatusBadRequest, gin.H{"error": apperrors.ErrNoData.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unexpected server error"})
	}
}
