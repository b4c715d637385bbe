package verification

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for verification operations
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new verification handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers verification routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	verification := router.Group("/verification")
	{
		verification.POST("/verify", h.verify)
		verification.GET("/:id", h.getResult)
		verification.GET("/projects/:projectId", h.listByProject)
	}
}

// verify handles POST /api/v1/verification/verify
func (h *Handler) verify(c *gin.Context) {
	var raw RawSubmission
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(raw) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty submission"})
		return
	}

	result, err := h.service.Verify(c.Request.Context(), raw)
	if err != nil {
		h.logger.Error("Failed to verify submission", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, result)
}

// getResult handles GET /api/v1/verification/:id
func (h *Handler) getResult(c *gin.Context) {
	result, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to get verification result", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// listByProject handles GET /api/v1/verification/projects/:projectId
func (h *Handler) listByProject(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	results, err := h.service.ListByProject(c.Request.Context(), c.Param("projectId"), limit)
	if err != nil {
		h.logger.Error("Failed to list verification results", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project_id": c.Param("projectId"),
		"results":    results,
		"count":      len(results),
	})
}
