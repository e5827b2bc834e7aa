package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/ragvault/internal/http/response"
	"github.com/yungbote/ragvault/internal/platform/logger"
	"github.com/yungbote/ragvault/internal/services"
)

type OrganizationHandler struct {
	tenancy services.TenancyService
	log     *logger.Logger
}

func NewOrganizationHandler(tenancy services.TenancyService, log *logger.Logger) *OrganizationHandler {
	return &OrganizationHandler{tenancy: tenancy, log: log.With("handler", "OrganizationHandler")}
}

// POST /v1/organizations
func (h *OrganizationHandler) Create(c *gin.Context) {
	var in services.CreateOrganizationInput
	if err := bindJSON(c, &in); err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	org, err := h.tenancy.CreateOrganization(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"organization": org})
}

// GET /v1/organizations?limit&offset
func (h *OrganizationHandler) List(c *gin.Context) {
	limit, offset, err := pageQuery(c)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	orgs, total, err := h.tenancy.ListOrganizations(c.Request.Context(), limit, offset)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"organizations": orgs, "total": total})
}

// GET /v1/organizations/:org_id
func (h *OrganizationHandler) Get(c *gin.Context) {
	id, err := uuidParam(c, "org_id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	org, err := h.tenancy.GetOrganization(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"organization": org})
}

// POST /v1/organizations/:org_id/workspaces
func (h *OrganizationHandler) CreateWorkspace(c *gin.Context) {
	orgID, err := uuidParam(c, "org_id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	var in services.CreateWorkspaceInput
	if err := bindJSON(c, &in); err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	ws, err := h.tenancy.CreateWorkspace(c.Request.Context(), orgID, in)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"workspace": ws})
}

// GET /v1/organizations/:org_id/workspaces
func (h *OrganizationHandler) ListWorkspaces(c *gin.Context) {
	orgID, err := uuidParam(c, "org_id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	list, err := h.tenancy.ListWorkspaces(c.Request.Context(), orgID)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"workspaces": list})
}

// GET /v1/workspaces/:workspace_id
func (h *OrganizationHandler) GetWorkspace(c *gin.Context) {
	id, err := uuidParam(c, "workspace_id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	ws, err := h.tenancy.GetWorkspace(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"workspace": ws})
}
