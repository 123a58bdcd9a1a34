package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/liliang-cn/askpdf/internal/api/admin"
	"github.com/liliang-cn/askpdf/internal/api/browse"
	"github.com/liliang-cn/askpdf/internal/api/chat"
	"github.com/liliang-cn/askpdf/internal/api/middleware"
	"github.com/liliang-cn/askpdf/internal/api/pdf"
	"github.com/liliang-cn/askpdf/internal/service"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	APIKey         string
	AllowOrigins   []string
	MaxUploadBytes int64
}

// Services are the handlers' dependencies
type Services struct {
	Admin  *service.AdminService
	Ingest *service.IngestService
	QA     *service.QAService
	Chat   *service.ChatService
	Browse *service.BrowseService
}

// SetupRouter sets up the Gin router
func SetupRouter(svc Services, cfg RouterConfig, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger))
	if cfg.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = cfg.MaxUploadBytes
	}

	// CORS middleware
	r.Use(middleware.CORS(cfg.AllowOrigins))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		if err := svc.Admin.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := r.Group("/api")

	chat.NewHandler(svc.Chat).RegisterRoutes(apiGroup.Group("/chat"))
	pdf.NewHandler(svc.Ingest, svc.QA, cfg.MaxUploadBytes).RegisterRoutes(apiGroup.Group("/pdf"))
	browse.NewHandler(svc.Browse, svc.Ingest).RegisterRoutes(apiGroup.Group("/browse"))

	// Admin API (requires API key)
	adminGroup := apiGroup.Group("/admin")
	adminGroup.Use(middleware.Auth(cfg.APIKey))
	admin.NewHandler(svc.Admin).RegisterRoutes(adminGroup)

	return r
}
