package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/ragvault/internal/data/repos"
	types "github.com/yungbote/ragvault/internal/domain"
	"github.com/yungbote/ragvault/internal/platform/apierr"
	"github.com/yungbote/ragvault/internal/platform/dbctx"
	"github.com/yungbote/ragvault/internal/platform/logger"
)

// DocumentGraph drops document nodes from the graph projection.
type DocumentGraph interface {
	DeleteDocument(ctx context.Context, workspaceID, documentID uuid.UUID) error
}

type DocumentPage struct {
	Documents []*types.Document `json:"documents"`
	Total     int64             `json:"total"`
	Limit     int               `json:"limit"`
	Offset    int               `json:"offset"`
}

type DocumentService interface {
	List(ctx context.Context, workspaceID uuid.UUID, limit, offset int) (*DocumentPage, error)
	Get(ctx context.Context, workspaceID, documentID uuid.UUID) (*types.Document, error)
	Delete(ctx context.Context, workspaceID, documentID uuid.UUID) error
}

type documentService struct {
	tx         dbctx.Transactor
	docs       repos.DocumentRepo
	workspaces repos.WorkspaceRepo
	graph      DocumentGraph
	log        *logger.Logger
}

func NewDocumentService(
	tx dbctx.Transactor,
	docs repos.DocumentRepo,
	workspaces repos.WorkspaceRepo,
	graph DocumentGraph,
	baseLog *logger.Logger,
) DocumentService {
	return &documentService{
		tx:         tx,
		docs:       docs,
		workspaces: workspaces,
		graph:      graph,
		log:        baseLog.With("service", "DocumentService"),
	}
}

func (s *documentService) List(ctx context.Context, workspaceID uuid.UUID, limit, offset int) (*DocumentPage, error) {
	limit, offset = pageBounds(limit, offset)
	dbc := dbctx.New(ctx)
	ws, err := s.workspaces.GetByID(dbc, workspaceID)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, apierr.NotFound("workspace")
	}
	docs, total, err := s.docs.ListByWorkspace(dbc, workspaceID, limit, offset)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []*types.Document{}
	}
	return &DocumentPage{Documents: docs, Total: total, Limit: limit, Offset: offset}, nil
}

// Get reports a document from another workspace exactly like a missing one.
func (s *documentService) Get(ctx context.Context, workspaceID, documentID uuid.UUID) (*types.Document, error) {
	doc, err := s.docs.GetByID(dbctx.New(ctx), workspaceID, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, apierr.NotFound("document")
	}
	return doc, nil
}

// Delete removes the document, its chunks and its count in one transaction.
// The graph copy is removed afterwards and only logged on failure.
func (s *documentService) Delete(ctx context.Context, workspaceID, documentID uuid.UUID) error {
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		ok, err := s.docs.Delete(dbc, workspaceID, documentID)
		if err != nil {
			return err
		}
		if !ok {
			return apierr.NotFound("document")
		}
		return s.workspaces.AdjustDocumentCount(dbc, workspaceID, -1)
	})
	if err != nil {
		return err
	}
	if s.graph != nil {
		if err := s.graph.DeleteDocument(ctx, workspaceID, documentID); err != nil {
			s.log.Warn("graph document removal failed", "workspace_id", workspaceID, "document_id", documentID, "error", err)
		}
	}
	s.log.Info("document deleted", "workspace_id", workspaceID, "document_id", documentID)
	return nil
}
