package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/ragvault/internal/http/middleware"
	"github.com/yungbote/ragvault/internal/http/response"
	"github.com/yungbote/ragvault/internal/platform/apierr"
	"github.com/yungbote/ragvault/internal/platform/logger"
	"github.com/yungbote/ragvault/internal/services"
)

const maxSearchBody = 64 << 10

type SearchGateway interface {
	Search(ctx context.Context, credential string, req services.SearchRequest) (*services.SearchResponse, error)
}

type SearchHandler struct {
	gateway SearchGateway
	log     *logger.Logger
}

func NewSearchHandler(gateway SearchGateway, log *logger.Logger) *SearchHandler {
	return &SearchHandler{gateway: gateway, log: log.With("handler", "SearchHandler")}
}

// POST /v1/search
// header: Authorization: Bearer <api key>
// body: { "query": "...", "search_type": "hybrid", "limit": 10, "weight": 0.3 }
func (h *SearchHandler) Search(c *gin.Context) {
	credential := middleware.BearerToken(c)
	if credential == "" {
		response.RespondAPIError(c, h.log, apierr.Unauthenticated())
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSearchBody)
	var req services.SearchRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}

	res, err := h.gateway.Search(c.Request.Context(), credential, req)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, res)
}
