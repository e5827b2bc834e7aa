package services

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/ragvault/internal/data/repos"
	types "github.com/yungbote/ragvault/internal/domain"
	"github.com/yungbote/ragvault/internal/domain/tenancy"
	"github.com/yungbote/ragvault/internal/platform/apierr"
	"github.com/yungbote/ragvault/internal/platform/dbctx"
	"github.com/yungbote/ragvault/internal/platform/logger"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,62}[a-z0-9])?$`)

// WorkspaceGraph receives workspace nodes. Failures never fail the write.
type WorkspaceGraph interface {
	UpsertWorkspace(ctx context.Context, ws *types.Workspace) error
}

type CreateOrganizationInput struct {
	Name                     string `json:"name"`
	Slug                     string `json:"slug"`
	PlanTier                 string `json:"plan_tier"`
	MaxWorkspaces            *int   `json:"max_workspaces,omitempty"`
	MaxDocumentsPerWorkspace *int   `json:"max_documents_per_workspace,omitempty"`
	MaxMonthlyRequests       *int   `json:"max_monthly_requests,omitempty"`
	ContactEmail             string `json:"contact_email,omitempty"`
	ContactName              string `json:"contact_name,omitempty"`
}

type CreateWorkspaceInput struct {
	Name               string `json:"name"`
	Slug               string `json:"slug"`
	Description        string `json:"description,omitempty"`
	MaxDocuments       *int   `json:"max_documents,omitempty"`
	MaxMonthlyRequests *int   `json:"max_monthly_requests,omitempty"`
}

type TenancyService interface {
	CreateOrganization(ctx context.Context, in CreateOrganizationInput) (*types.Organization, error)
	GetOrganization(ctx context.Context, id uuid.UUID) (*types.Organization, error)
	ListOrganizations(ctx context.Context, limit, offset int) ([]*types.Organization, int64, error)
	CreateWorkspace(ctx context.Context, orgID uuid.UUID, in CreateWorkspaceInput) (*types.Workspace, error)
	GetWorkspace(ctx context.Context, id uuid.UUID) (*types.Workspace, error)
	ListWorkspaces(ctx context.Context, orgID uuid.UUID) ([]*types.Workspace, error)
}

type tenancyService struct {
	tx         dbctx.Transactor
	orgs       repos.OrganizationRepo
	workspaces repos.WorkspaceRepo
	graph      WorkspaceGraph
	log        *logger.Logger
}

func NewTenancyService(
	tx dbctx.Transactor,
	orgs repos.OrganizationRepo,
	workspaces repos.WorkspaceRepo,
	graph WorkspaceGraph,
	baseLog *logger.Logger,
) TenancyService {
	return &tenancyService{
		tx:         tx,
		orgs:       orgs,
		workspaces: workspaces,
		graph:      graph,
		log:        baseLog.With("service", "TenancyService"),
	}
}

func (s *tenancyService) CreateOrganization(ctx context.Context, in CreateOrganizationInput) (*types.Organization, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apierr.Invalid("name is required")
	}
	slug := strings.ToLower(strings.TrimSpace(in.Slug))
	if !slugPattern.MatchString(slug) {
		return nil, apierr.Invalid("slug must be lowercase letters, digits and dashes")
	}
	plan := strings.ToLower(strings.TrimSpace(in.PlanTier))
	if plan == "" {
		plan = tenancy.PlanFree
	}
	if !tenancy.ValidPlan(plan) {
		return nil, apierr.Invalid("unknown plan_tier %q", in.PlanTier)
	}

	org := &types.Organization{
		Name:                     name,
		Slug:                     slug,
		PlanTier:                 plan,
		MaxWorkspaces:            1,
		MaxDocumentsPerWorkspace: 100,
		MaxMonthlyRequests:       1000,
		ContactEmail:             strings.TrimSpace(in.ContactEmail),
		ContactName:              strings.TrimSpace(in.ContactName),
	}
	for _, q := range []struct {
		name string
		in   *int
		dst  *int
	}{
		{"max_workspaces", in.MaxWorkspaces, &org.MaxWorkspaces},
		{"max_documents_per_workspace", in.MaxDocumentsPerWorkspace, &org.MaxDocumentsPerWorkspace},
		{"max_monthly_requests", in.MaxMonthlyRequests, &org.MaxMonthlyRequests},
	} {
		if q.in == nil {
			continue
		}
		if *q.in < 0 {
			return nil, apierr.Invalid("%s must not be negative", q.name)
		}
		*q.dst = *q.in
	}

	var created *types.Organization
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		existing, err := s.orgs.GetBySlug(dbc, slug)
		if err != nil {
			return err
		}
		if existing != nil {
			return apierr.Conflict("organization slug %q is taken", slug)
		}
		created, err = s.orgs.Create(dbc, org)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("organization created", "organization_id", created.ID, "plan_tier", created.PlanTier)
	return created, nil
}

func (s *tenancyService) GetOrganization(ctx context.Context, id uuid.UUID) (*types.Organization, error) {
	org, err := s.orgs.GetByID(dbctx.New(ctx), id)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, apierr.NotFound("organization")
	}
	return org, nil
}

func (s *tenancyService) ListOrganizations(ctx context.Context, limit, offset int) ([]*types.Organization, int64, error) {
	limit, offset = pageBounds(limit, offset)
	return s.orgs.List(dbctx.New(ctx), limit, offset)
}

// CreateWorkspace inherits quotas from the organization unless the input sets
// them, and refuses once the organization is at its workspace cap.
func (s *tenancyService) CreateWorkspace(ctx context.Context, orgID uuid.UUID, in CreateWorkspaceInput) (*types.Workspace, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apierr.Invalid("name is required")
	}
	slug := strings.ToLower(strings.TrimSpace(in.Slug))
	if !slugPattern.MatchString(slug) {
		return nil, apierr.Invalid("slug must be lowercase letters, digits and dashes")
	}
	if in.MaxDocuments != nil && *in.MaxDocuments < 0 {
		return nil, apierr.Invalid("max_documents must not be negative")
	}
	if in.MaxMonthlyRequests != nil && *in.MaxMonthlyRequests < 0 {
		return nil, apierr.Invalid("max_monthly_requests must not be negative")
	}

	var created *types.Workspace
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		org, err := s.orgs.GetByID(dbc, orgID)
		if err != nil {
			return err
		}
		if org == nil {
			return apierr.NotFound("organization")
		}
		if org.MaxWorkspaces > 0 {
			n, err := s.workspaces.CountByOrganization(dbc, orgID)
			if err != nil {
				return err
			}
			if n >= int64(org.MaxWorkspaces) {
				return apierr.Conflict("organization already has its maximum of %d workspaces", org.MaxWorkspaces)
			}
		}
		existing, err := s.workspaces.ListByOrganization(dbc, orgID)
		if err != nil {
			return err
		}
		for _, w := range existing {
			if w.Slug == slug {
				return apierr.Conflict("workspace slug %q is taken", slug)
			}
		}

		ws := &types.Workspace{
			OrganizationID:     orgID,
			Name:               name,
			Slug:               slug,
			Description:        strings.TrimSpace(in.Description),
			MaxDocuments:       org.MaxDocumentsPerWorkspace,
			MaxMonthlyRequests: org.MaxMonthlyRequests,
		}
		if in.MaxDocuments != nil {
			ws.MaxDocuments = *in.MaxDocuments
		}
		if in.MaxMonthlyRequests != nil {
			ws.MaxMonthlyRequests = *in.MaxMonthlyRequests
		}
		created, err = s.workspaces.Create(dbc, ws)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.graph != nil {
		if err := s.graph.UpsertWorkspace(ctx, created); err != nil {
			s.log.Warn("graph workspace sync failed", "workspace_id", created.ID, "error", err)
		}
	}
	s.log.Info("workspace created", "workspace_id", created.ID, "organization_id", orgID)
	return created, nil
}

func (s *tenancyService) GetWorkspace(ctx context.Context, id uuid.UUID) (*types.Workspace, error) {
	ws, err := s.workspaces.GetByID(dbctx.New(ctx), id)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, apierr.NotFound("workspace")
	}
	return ws, nil
}

func (s *tenancyService) ListWorkspaces(ctx context.Context, orgID uuid.UUID) ([]*types.Workspace, error) {
	if _, err := s.GetOrganization(ctx, orgID); err != nil {
		return nil, err
	}
	return s.workspaces.ListByOrganization(dbctx.New(ctx), orgID)
}

func pageBounds(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
