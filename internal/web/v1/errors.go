package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nhudang/user-aggregator/internal/core/domain"
)

// writeError maps a domain error to an HTTP status and {"error": message}
// body. Only validation, not-found, and conflict messages are safe to return
// verbatim; everything else (fetch, aggregation, storage, unknown) becomes a
// generic 500 with the cause logged server-side, never leaked to the client.
//
// Conflict maps to 400 rather than 409: kept from the original API contract.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.AsError(err).Message})
	case domain.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": domain.AsError(err).Message})
	case domain.KindConflict:
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.AsError(err).Message})
	default:
		logger.Error("Request failed",
			zap.String("kind", domain.KindOf(err).String()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
	}
}
