package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"curb-service/internal/config"
	"curb-service/internal/domain/curb"
	"curb-service/internal/service"
)

type Handler struct {
	curbService *service.CurbService
	config      *config.Config
	log         zerolog.Logger
}

func NewHandler(
	curbService *service.CurbService,
	cfg *config.Config,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		curbService: curbService,
		config:      cfg,
		log:         log,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	r.GET("/health", h.health)

	// Public endpoints
	public := r.Group("/api/v1")
	{
		public.POST("/analyze", h.analyzeFrame)
		public.GET("/batches", h.listBatches)
		public.GET("/batches/:id/decisions", h.listDecisions)
		public.GET("/snapshots", h.listSnapshots)
	}

	// Protected endpoints
	protected := r.Group("/api/v1")
	protected.Use(authMiddleware)
	{
		protected.DELETE("/batches", h.cleanupBatches)
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// analyzeRequest is the structured input from the external detector and lane
// segmentation collaborators: frame metadata, zones, and detections.
type analyzeRequest struct {
	Frame      curb.FrameContext       `json:"frame"`
	Zones      []curb.Zone             `json:"zones"`
	Detections []curb.VehicleDetection `json:"detections"`
}

func (h *Handler) analyzeFrame(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	result, err := h.curbService.AnalyzeFrame(c.Request.Context(), req.Frame, req.Zones, req.Detections)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
			return
		}
		h.log.Error().Err(err).Msg("failed to analyze frame")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

// listQuery pulls the shared borough/time-range/pagination filters off a
// listing request.
func listQuery(c *gin.Context) (borough, from, to *string, limit, offset int) {
	if b := strings.TrimSpace(c.Query("borough")); b != "" {
		borough = &b
	}
	if f := strings.TrimSpace(c.Query("from")); f != "" {
		from = &f
	}
	if t := strings.TrimSpace(c.Query("to")); t != "" {
		to = &t
	}

	limit = 50
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	offset = 0
	if o := c.Query("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return borough, from, to, limit, offset
}

func (h *Handler) listBatches(c *gin.Context) {
	borough, from, to, limit, offset := listQuery(c)

	batches, err := h.curbService.FindBatches(c.Request.Context(), borough, from, to, limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(batches))
}

func (h *Handler) listSnapshots(c *gin.Context) {
	borough, from, to, limit, offset := listQuery(c)

	snapshots, err := h.curbService.FindSnapshots(c.Request.Context(), borough, from, to, limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(snapshots))
}

func (h *Handler) listDecisions(c *gin.Context) {
	decisions, err := h.curbService.FindDecisions(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(decisions))
}

func (h *Handler) cleanupBatches(c *gin.Context) {
	days := h.config.CleanupRetentionDays
	if days <= 0 {
		days = 30
	}
	if d := c.Query("older_than_days"); d != "" {
		parsed, err := strconv.Atoi(d)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, errorResponse("older_than_days must be a positive integer"))
			return
		}
		days = parsed
	}

	deleted, err := h.curbService.CleanupOldBatches(c.Request.Context(), days)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"deleted_count": deleted,
	})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}
