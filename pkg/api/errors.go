package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stagehand-io/stagehand/pkg/orchestrator"
	"github.com/stagehand-io/stagehand/pkg/store"
)

// respondError maps domain errors to the HTTP error taxonomy. Unexpected
// errors surface as a generic 500 and are logged with the request id.
func respondError(c *gin.Context, err error) {
	var validErr *store.ValidationError
	switch {
	case errors.As(err, &validErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validErr.Message, "field": validErr.Field})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
	case errors.Is(err, store.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, store.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "resource already exists"})
	case errors.Is(err, store.ErrNoStages):
		c.JSON(http.StatusConflict, gin.H{"error": "no stages configured for this business"})
	case errors.Is(err, orchestrator.ErrBusy):
		tooManyRequests(c)
	case errors.Is(err, store.ErrResourceExhausted):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporarily unavailable"})
	default:
		slog.Error("Unexpected API error",
			"request_id", c.GetString(headerRequestID),
			"path", c.FullPath(),
			"error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// badRequest reports a request-shape problem (JSON binding failures).
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
