package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/ragvault/internal/http/response"
	"github.com/yungbote/ragvault/internal/platform/ctxutil"
	"github.com/yungbote/ragvault/internal/platform/logger"
	"github.com/yungbote/ragvault/internal/services"
)

// WorkspaceAdminHandler serves the per-workspace key and document routes.
type WorkspaceAdminHandler struct {
	keys services.APIKeyService
	docs services.DocumentService
	log  *logger.Logger
}

func NewWorkspaceAdminHandler(keys services.APIKeyService, docs services.DocumentService, log *logger.Logger) *WorkspaceAdminHandler {
	return &WorkspaceAdminHandler{keys: keys, docs: docs, log: log.With("handler", "WorkspaceAdminHandler")}
}

// POST /v1/workspaces/:workspace_id/api-keys
// The plaintext key is in this response and nowhere else.
func (h *WorkspaceAdminHandler) CreateAPIKey(c *gin.Context) {
	wsID, err := uuidParam(c, "workspace_id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	ctxutil.SetWorkspace(c.Request.Context(), wsID)
	var in services.CreateAPIKeyInput
	if err := bindJSON(c, &in); err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	issued, err := h.keys.Create(c.Request.Context(), wsID, in)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondCreated(c, issued)
}

// GET /v1/workspaces/:workspace_id/api-keys
func (h *WorkspaceAdminHandler) ListAPIKeys(c *gin.Context) {
	wsID, err := uuidParam(c, "workspace_id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	ctxutil.SetWorkspace(c.Request.Context(), wsID)
	keys, err := h.keys.List(c.Request.Context(), wsID)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"api_keys": keys})
}

// DELETE /v1/workspaces/:workspace_id/api-keys/:key_id
func (h *WorkspaceAdminHandler) RevokeAPIKey(c *gin.Context) {
	wsID, err := uuidParam(c, "workspace_id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	keyID, err := uuidParam(c, "key_id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	ctxutil.SetWorkspace(c.Request.Context(), wsID)
	if err := h.keys.Revoke(c.Request.Context(), wsID, keyID); err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /v1/workspaces/:workspace_id/documents?limit&offset
func (h *WorkspaceAdminHandler) ListDocuments(c *gin.Context) {
	wsID, err := uuidParam(c, "workspace_id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	ctxutil.SetWorkspace(c.Request.Context(), wsID)
	limit, offset, err := pageQuery(c)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	page, err := h.docs.List(c.Request.Context(), wsID, limit, offset)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, page)
}

// GET /v1/workspaces/:workspace_id/documents/:document_id
func (h *WorkspaceAdminHandler) GetDocument(c *gin.Context) {
	wsID, err := uuidParam(c, "workspace_id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	docID, err := uuidParam(c, "document_id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	ctxutil.SetWorkspace(c.Request.Context(), wsID)
	doc, err := h.docs.Get(c.Request.Context(), wsID, docID)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"document": doc})
}

// DELETE /v1/workspaces/:workspace_id/documents/:document_id
func (h *WorkspaceAdminHandler) DeleteDocument(c *gin.Context) {
	wsID, err := uuidParam(c, "workspace_id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	docID, err := uuidParam(c, "document_id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	ctxutil.SetWorkspace(c.Request.Context(), wsID)
	if err := h.docs.Delete(c.Request.Context(), wsID, docID); err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
