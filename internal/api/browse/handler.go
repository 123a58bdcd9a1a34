package browse

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/liliang-cn/askpdf/internal/api/response"
	"github.com/liliang-cn/askpdf/internal/domain"
	"github.com/liliang-cn/askpdf/internal/service"
)

// Handler handles web page summary requests
type Handler struct {
	browseService *service.BrowseService
	ingestService *service.IngestService
}

// NewHandler creates a new browse handler
func NewHandler(browseService *service.BrowseService, ingestService *service.IngestService) *Handler {
	return &Handler{
		browseService: browseService,
		ingestService: ingestService,
	}
}

// RegisterRoutes registers browse routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("", h.Summarize)
	r.POST("/ingest", h.Ingest)
}

func (h *Handler) Summarize(c *gin.Context) {
	var req domain.BrowseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	result, err := h.browseService.Summarize(c.Request.Context(), req.URL)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) Ingest(c *gin.Context) {
	var req domain.BrowseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	result, err := h.ingestService.IngestURL(c.Request.Context(), req.URL)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}
