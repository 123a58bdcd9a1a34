package pdf

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/liliang-cn/askpdf/internal/api/middleware"
	"github.com/liliang-cn/askpdf/internal/api/response"
	"github.com/liliang-cn/askpdf/internal/domain"
	"github.com/liliang-cn/askpdf/internal/service"
)

// Handler handles document upload and question requests
type Handler struct {
	ingestService *service.IngestService
	qaService     *service.QAService
	maxUpload     int64
}

// multipartSlack covers the form framing around the file itself.
const multipartSlack = 1 << 20

// NewHandler creates a new pdf handler. maxUpload <= 0 accepts any size.
func NewHandler(ingestService *service.IngestService, qaService *service.QAService, maxUpload int64) *Handler {
	return &Handler{
		ingestService: ingestService,
		qaService:     qaService,
		maxUpload:     maxUpload,
	}
}

// RegisterRoutes registers pdf routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	limit := int64(0)
	if h.maxUpload > 0 {
		limit = h.maxUpload + multipartSlack
	}
	r.POST("/documents", middleware.BodyLimit(limit), h.UploadDocument)
	r.POST("/ask", h.Ask)
}

func (h *Handler) UploadDocument(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file is too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	result, err := h.ingestService.UploadDocument(c.Request.Context(), file)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *Handler) Ask(c *gin.Context) {
	var req domain.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	result, err := h.qaService.Ask(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
