package projects

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for project review
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new projects handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers project routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	projects := router.Group("/projects")
	{
		projects.GET("/:id", h.getProject)
		projects.GET("/:id/history", h.getHistory)
		projects.POST("/:id/review", h.review)
	}
}

// getProject handles GET /api/v1/projects/:id
func (h *Handler) getProject(c *gin.Context) {
	project, err := h.service.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "Failed to get project", err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// getHistory handles GET /api/v1/projects/:id/history
func (h *Handler) getHistory(c *gin.Context) {
	history, err := h.service.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "Failed to get project history", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}

// review handles POST /api/v1/projects/:id/review
func (h *Handler) review(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.service.Review(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, "Failed to review project", err)
		return
	}

	c.JSON(http.StatusOK, project)
}

func (h *Handler) respondError(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, ErrProjectNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
