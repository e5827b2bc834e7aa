package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	httpH "github.com/yungbote/ragvault/internal/http/handlers"
	httpMW "github.com/yungbote/ragvault/internal/http/middleware"
	"github.com/yungbote/ragvault/internal/observability"
	"github.com/yungbote/ragvault/internal/platform/logger"
	"github.com/yungbote/ragvault/internal/services"
)

type upPinger struct{}

func (upPinger) Ping(ctx context.Context) error { return nil }

type stubGateway struct{}

func (stubGateway) Search(ctx context.Context, credential string, req services.SearchRequest) (*services.SearchResponse, error) {
	return &services.SearchResponse{SearchType: "hybrid"}, nil
}

func TestRouterWiring(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens, err := services.NewAdminTokens("0123456789abcdef0123456789abcdef", time.Hour)
	if err != nil {
		t.Fatalf("NewAdminTokens: %v", err)
	}
	log := logger.Nop()
	r := NewRouter(RouterConfig{
		Log:                 log,
		Metrics:             observability.NewMetrics(),
		AdminAuthMiddleware: httpMW.NewAdminAuthMiddleware(log, tokens),
		SearchHandler:       httpH.NewSearchHandler(stubGateway{}, log),
		HealthHandler:       httpH.NewHealthHandler(services.NewHealthService(upPinger{}, nil, nil, "test")),
		OrganizationHandler: httpH.NewOrganizationHandler(nil, log),
	})

	cases := []struct {
		method, path, auth string
		want               int
	}{
		{http.MethodGet, "/healthcheck", "", http.StatusOK},
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodPost, "/v1/search", "Bearer rvk_live_x", http.StatusOK},
		{http.MethodPost, "/search", "Bearer rvk_live_x", http.StatusOK},
		{http.MethodPost, "/v1/search", "", http.StatusUnauthorized},
		{http.MethodGet, "/v1/organizations", "", http.StatusUnauthorized},
		{http.MethodGet, "/v1/organizations", "Bearer rvk_live_x", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(`{"query":"q"}`))
		req.Header.Set("Content-Type", "application/json")
		if tc.auth != "" {
			req.Header.Set("Authorization", tc.auth)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s %s: got=%d want=%d body=%s", tc.method, tc.path, rec.Code, tc.want, rec.Body.String())
		}
		if rec.Header().Get("X-Request-Id") == "" {
			t.Fatalf("%s %s: missing request id", tc.method, tc.path)
		}
	}
}

func TestAdminRoutesClosedWithoutSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logger.Nop()
	r := NewRouter(RouterConfig{Log: log, OrganizationHandler: httpH.NewOrganizationHandler(nil, log)})

	req := httptest.NewRequest(http.MethodGet, "/v1/organizations", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("got=%d want=%d", rec.Code, http.StatusNotFound)
	}
}
