package app

import (
	apphttp "github.com/yungbote/ragvault/internal/http"
	httpH "github.com/yungbote/ragvault/internal/http/handlers"
	httpMW "github.com/yungbote/ragvault/internal/http/middleware"
	"github.com/yungbote/ragvault/internal/observability"
	"github.com/yungbote/ragvault/internal/platform/logger"
)

type Middleware struct {
	AdminAuth *httpMW.AdminAuthMiddleware
}

type Handlers struct {
	Health         *httpH.HealthHandler
	Search         *httpH.SearchHandler
	Organization   *httpH.OrganizationHandler
	WorkspaceAdmin *httpH.WorkspaceAdminHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:         httpH.NewHealthHandler(services.Health),
		Search:         httpH.NewSearchHandler(services.Gateway, log),
		Organization:   httpH.NewOrganizationHandler(services.Tenancy, log),
		WorkspaceAdmin: httpH.NewWorkspaceAdminHandler(services.APIKeys, services.Documents, log),
	}
}

// wireMiddleware leaves admin auth nil without a secret, which closes the
// management routes.
func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	if services.AdminTokens == nil {
		return Middleware{}
	}
	return Middleware{AdminAuth: httpMW.NewAdminAuthMiddleware(log, services.AdminTokens)}
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *apphttp.Server {
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:                   log,
		Metrics:               metrics,
		ServiceName:           cfg.Otel.ServiceName,
		TracingEnabled:        cfg.Otel.Enabled,
		CORSOrigins:           cfg.CORSOrigins,
		AdminAuthMiddleware:   middleware.AdminAuth,
		SearchHandler:         handlers.Search,
		OrganizationHandler:   handlers.Organization,
		WorkspaceAdminHandler: handlers.WorkspaceAdmin,
		HealthHandler:         handlers.Health,
	})
}
