package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/ragvault/internal/http/handlers"
	httpMW "github.com/yungbote/ragvault/internal/http/middleware"
	"github.com/yungbote/ragvault/internal/observability"
	"github.com/yungbote/ragvault/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	TracingEnabled bool
	CORSOrigins    []string

	AdminAuthMiddleware *httpMW.AdminAuthMiddleware

	SearchHandler         *httpH.SearchHandler
	OrganizationHandler   *httpH.OrganizationHandler
	WorkspaceAdminHandler *httpH.WorkspaceAdminHandler
	HealthHandler         *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.SecurityHeaders())
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/health", cfg.HealthHandler.HealthCheck)
	}

	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	// Search (api key in the Authorization header)
	if cfg.SearchHandler != nil {
		r.POST("/v1/search", cfg.SearchHandler.Search)
		r.POST("/search", cfg.SearchHandler.Search)
	}

	admin := r.Group("/v1")
	if cfg.AdminAuthMiddleware != nil {
		admin.Use(cfg.AdminAuthMiddleware.RequireAdmin())
	} else {
		// No admin secret configured: management routes stay closed.
		admin.Use(func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "not found", "code": "not_found"}})
		})
	}
	{
		if cfg.OrganizationHandler != nil {
			admin.POST("/organizations", cfg.OrganizationHandler.Create)
			admin.GET("/organizations", cfg.OrganizationHandler.List)
			admin.GET("/organizations/:org_id", cfg.OrganizationHandler.Get)
			admin.POST("/organizations/:org_id/workspaces", cfg.OrganizationHandler.CreateWorkspace)
			admin.GET("/organizations/:org_id/workspaces", cfg.OrganizationHandler.ListWorkspaces)
			admin.GET("/workspaces/:workspace_id", cfg.OrganizationHandler.GetWorkspace)
		}

		if cfg.WorkspaceAdminHandler != nil {
			admin.POST("/workspaces/:workspace_id/api-keys", cfg.WorkspaceAdminHandler.CreateAPIKey)
			admin.GET("/workspaces/:workspace_id/api-keys", cfg.WorkspaceAdminHandler.ListAPIKeys)
			admin.DELETE("/workspaces/:workspace_id/api-keys/:key_id", cfg.WorkspaceAdminHandler.RevokeAPIKey)
			admin.GET("/workspaces/:workspace_id/documents", cfg.WorkspaceAdminHandler.ListDocuments)
			admin.GET("/workspaces/:workspace_id/documents/:document_id", cfg.WorkspaceAdminHandler.GetDocument)
			admin.DELETE("/workspaces/:workspace_id/documents/:document_id", cfg.WorkspaceAdminHandler.DeleteDocument)
		}
	}

	return r
}
