package v1

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	logicv1 "github.com/nhudang/user-aggregator/internal/logic/v1"
	"github.com/nhudang/user-aggregator/middleware"
)

// UserHandler handles HTTP requests for the user document endpoints.
type UserHandler struct {
	service *logicv1.UserService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(service *logicv1.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// Load handles GET /load: aggregate users from the upstream API and persist
// them. Success is a 200 with an empty body.
func (h *UserHandler) Load(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := middleware.GetLoggerFromGinContext(c)

	if err := h.service.Load(ctx); err != nil {
		span.RecordError(err)
		writeError(c, logger, err)
		return
	}

	logger.Info("Users loaded from upstream")
	c.Status(http.StatusOK)
}

// GetUser handles GET /users/:id. The stored document is written back
// verbatim.
func (h *UserHandler) GetUser(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := middleware.GetLoggerFromGinContext(c)

	id, ok := parseUserID(c)
	if !ok {
		return
	}
	span.SetAttributes(attribute.Int64("user.id", id))

	doc, err := h.service.GetUser(ctx, id)
	if err != nil {
		span.RecordError(err)
		writeError(c, logger, err)
		return
	}

	logger.Info("User retrieved", zap.Int64("user_id", id))
	c.Data(http.StatusOK, "application/json", doc)
}

// CreateUser handles PUT /users: validate the payload against the document
// shape and insert it. Returns 201 with the stored document.
func (h *UserHandler) CreateUser(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := middleware.GetLoggerFromGinContext(c)

	raw, err := c.GetRawData()
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	stored, err := h.service.CreateUser(ctx, raw)
	if err != nil {
		span.RecordError(err)
		writeError(c, logger, err)
		return
	}

	logger.Info("User created")
	c.Data(http.StatusCreated, "application/json", stored)
}

// DeleteAllUsers handles DELETE /users.
func (h *UserHandler) DeleteAllUsers(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := middleware.GetLoggerFromGinContext(c)

	if err := h.service.DeleteAllUsers(ctx); err != nil {
		span.RecordError(err)
		writeError(c, logger, err)
		return
	}

	logger.Info("All users deleted")
	c.JSON(http.StatusOK, gin.H{"message": "All users deleted successfully"})
}

// DeleteUser handles DELETE /users/:id.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := middleware.GetLoggerFromGinContext(c)

	id, ok := parseUserID(c)
	if !ok {
		return
	}
	span.SetAttributes(attribute.Int64("user.id", id))

	if err := h.service.DeleteUser(ctx, id); err != nil {
		span.RecordError(err)
		writeError(c, logger, err)
		return
	}

	logger.Info("User deleted", zap.Int64("user_id", id))
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("User with ID %d deleted successfully", id)})
}

// NotFound is the fallback for unmatched routes.
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
}

// parseUserID extracts the base-10 id path segment. On failure it writes the
// 400 response itself and returns ok=false.
func parseUserID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return 0, false
	}
	return id, true
}
