package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/ragvault/internal/domain"
	"github.com/yungbote/ragvault/internal/http/response"
	"github.com/yungbote/ragvault/internal/platform/apierr"
	"github.com/yungbote/ragvault/internal/platform/logger"
	"github.com/yungbote/ragvault/internal/services"
)

type fakeGateway struct {
	err        error
	credential string
	req        services.SearchRequest
	calls      int
}

func (f *fakeGateway) Search(ctx context.Context, credential string, req services.SearchRequest) (*services.SearchResponse, error) {
	f.calls++
	f.credential = credential
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &services.SearchResponse{SearchType: "hybrid", Results: nil, TotalResults: 0}, nil
}

func searchRouter(gw SearchGateway) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/v1/search", NewSearchHandler(gw, logger.Nop()).Search)
	return r
}

func doJSON(r http.Handler, method, path, auth, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.APIError {
	t.Helper()
	var env response.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Error
}

func TestSearchHandlerPassesBearerCredential(t *testing.T) {
	gw := &fakeGateway{}
	rec := doJSON(searchRouter(gw), http.MethodPost, "/v1/search", "Bearer rvk_live_abc",
		`{"query":"refunds","search_type":"lexical","limit":5,"weight":0.5}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rvk_live_abc", gw.credential)
	assert.Equal(t, "refunds", gw.req.Query)
	assert.Equal(t, "lexical", gw.req.SearchType)
	require.NotNil(t, gw.req.Limit)
	assert.Equal(t, 5, *gw.req.Limit)
	require.NotNil(t, gw.req.Weight)
	assert.Equal(t, 0.5, *gw.req.Weight)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "results")
	assert.Contains(t, body, "query_time_ms")
}

func TestSearchHandlerIgnoresQueryCredential(t *testing.T) {
	gw := &fakeGateway{}
	rec := doJSON(searchRouter(gw), http.MethodPost, "/v1/search?api_key=rvk_live_abc&token=rvk_live_abc", "", `{"query":"q"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, gw.calls)
	assert.Equal(t, `Bearer realm="ragvault"`, rec.Header().Get("WWW-Authenticate"))
	assert.Equal(t, "unauthorized", decodeError(t, rec).Code)
}

func TestSearchHandlerMapsErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"auth", apierr.Unauthenticated(), http.StatusUnauthorized, apierr.CodeUnauthorized},
		{"rate", apierr.RateLimited(1500 * time.Millisecond), http.StatusTooManyRequests, apierr.CodeRateLimited},
		{"invalid", apierr.Invalid("limit must be between 1 and 50"), http.StatusBadRequest, apierr.CodeInvalid},
		{"upstream", apierr.Upstream(context.DeadlineExceeded), http.StatusServiceUnavailable, apierr.CodeUpstream},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(searchRouter(&fakeGateway{err: tc.err}), http.MethodPost, "/v1/search", "Bearer k", `{"query":"q"}`)
			require.Equal(t, tc.status, rec.Code)
			apiErr := decodeError(t, rec)
			assert.Equal(t, tc.code, apiErr.Code)
			assert.NotContains(t, apiErr.Message, "deadline")
		})
	}

	rec := doJSON(searchRouter(&fakeGateway{err: apierr.RateLimited(1500 * time.Millisecond)}), http.MethodPost, "/v1/search", "Bearer k", `{"query":"q"}`)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
}

func TestSearchHandlerRejectsBadJSON(t *testing.T) {
	gw := &fakeGateway{}
	rec := doJSON(searchRouter(gw), http.MethodPost, "/v1/search", "Bearer k", `{"query":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, gw.calls)
}

type fakeHealth struct{ status string }

func (f fakeHealth) Check(ctx context.Context) services.HealthReport {
	return services.HealthReport{Status: f.status, Database: "connected"}
}

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for status, want := range map[string]int{
		services.StatusHealthy:   http.StatusOK,
		services.StatusDegraded:  http.StatusOK,
		services.StatusUnhealthy: http.StatusServiceUnavailable,
	} {
		r := gin.New()
		r.GET("/healthcheck", NewHealthHandler(fakeHealth{status: status}).HealthCheck)
		rec := doJSON(r, http.MethodGet, "/healthcheck", "", "")
		assert.Equal(t, want, rec.Code, status)
	}
}

type fakeDocs struct {
	deleted []uuid.UUID
}

func (f *fakeDocs) List(ctx context.Context, ws uuid.UUID, limit, offset int) (*services.DocumentPage, error) {
	return &services.DocumentPage{Documents: []*types.Document{}, Limit: limit, Offset: offset}, nil
}

func (f *fakeDocs) Get(ctx context.Context, ws, doc uuid.UUID) (*types.Document, error) {
	return nil, apierr.NotFound("document")
}

func (f *fakeDocs) Delete(ctx context.Context, ws, doc uuid.UUID) error {
	f.deleted = append(f.deleted, doc)
	return nil
}

type fakeKeys struct{}

func (fakeKeys) Create(ctx context.Context, ws uuid.UUID, in services.CreateAPIKeyInput) (*services.IssuedAPIKey, error) {
	return &services.IssuedAPIKey{Key: &types.APIKey{ID: uuid.New(), WorkspaceID: ws, Name: in.Name}, Plaintext: "rvk_live_once"}, nil
}

func (fakeKeys) List(ctx context.Context, ws uuid.UUID) ([]*types.APIKey, error) {
	return []*types.APIKey{{ID: uuid.New(), WorkspaceID: ws, KeyHash: "secret-hash"}}, nil
}

func (fakeKeys) Revoke(ctx context.Context, ws, key uuid.UUID) error {
	return apierr.NotFound("api key")
}

func workspaceRouter(docs *fakeDocs) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewWorkspaceAdminHandler(fakeKeys{}, docs, logger.Nop())
	r := gin.New()
	r.POST("/v1/workspaces/:workspace_id/api-keys", h.CreateAPIKey)
	r.GET("/v1/workspaces/:workspace_id/api-keys", h.ListAPIKeys)
	r.DELETE("/v1/workspaces/:workspace_id/api-keys/:key_id", h.RevokeAPIKey)
	r.GET("/v1/workspaces/:workspace_id/documents", h.ListDocuments)
	r.GET("/v1/workspaces/:workspace_id/documents/:document_id", h.GetDocument)
	r.DELETE("/v1/workspaces/:workspace_id/documents/:document_id", h.DeleteDocument)
	return r
}

func TestWorkspaceAdminRoutes(t *testing.T) {
	docs := &fakeDocs{}
	r := workspaceRouter(docs)
	ws := uuid.New()
	base := "/v1/workspaces/" + ws.String()

	rec := doJSON(r, http.MethodPost, base+"/api-keys", "", `{"name":"bot"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "rvk_live_once")

	rec = doJSON(r, http.MethodGet, base+"/api-keys", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret-hash")

	rec = doJSON(r, http.MethodDelete, base+"/api-keys/"+uuid.NewString(), "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(r, http.MethodGet, base+"/documents?limit=5&offset=10", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"offset":10`)

	rec = doJSON(r, http.MethodGet, base+"/documents?offset=-1", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(r, http.MethodGet, base+"/documents/"+uuid.NewString(), "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	docID := uuid.New()
	rec = doJSON(r, http.MethodDelete, base+"/documents/"+docID.String(), "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []uuid.UUID{docID}, docs.deleted)

	rec = doJSON(r, http.MethodGet, "/v1/workspaces/not-a-uuid/documents", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
