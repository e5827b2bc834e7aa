package graph

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	types "github.com/yungbote/ragvault/internal/domain"
	"github.com/yungbote/ragvault/internal/platform/logger"
	"github.com/yungbote/ragvault/internal/platform/neo4jdb"
)

// DocumentGraph mirrors workspaces and documents as nodes so knowledge-graph
// consumers can hang entities off them. Postgres stays authoritative; every
// method is a no-op when Neo4j is not configured.
type DocumentGraph struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

func NewDocumentGraph(client *neo4jdb.Client, baseLog *logger.Logger) *DocumentGraph {
	return &DocumentGraph{client: client, log: baseLog.With("graph", "DocumentGraph")}
}

func (g *DocumentGraph) enabled() bool {
	return g != nil && g.client != nil && g.client.Driver != nil
}

func (g *DocumentGraph) session(ctx context.Context) neo4j.SessionWithContext {
	return g.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: g.client.Database,
	})
}

// EnsureSchema is best effort; failures are logged.
func (g *DocumentGraph) EnsureSchema(ctx context.Context) {
	if !g.enabled() {
		return
	}
	session := g.session(ctx)
	defer session.Close(ctx)

	for _, q := range []string{
		`CREATE CONSTRAINT workspace_id_unique IF NOT EXISTS FOR (w:Workspace) REQUIRE w.id IS UNIQUE`,
		`CREATE CONSTRAINT document_id_unique IF NOT EXISTS FOR (d:Document) REQUIRE d.id IS UNIQUE`,
	} {
		if res, err := session.Run(ctx, q, nil); err != nil {
			g.log.Warn("neo4j schema init failed (continuing)", "error", err)
		} else {
			_, _ = res.Consume(ctx)
		}
	}
}

func (g *DocumentGraph) UpsertWorkspace(ctx context.Context, ws *types.Workspace) error {
	if !g.enabled() || ws == nil || ws.ID == uuid.Nil {
		return nil
	}
	session := g.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MERGE (w:Workspace {id: $id})
SET w.organization_id = $organization_id,
    w.name = $name,
    w.synced_at = $synced_at
`, map[string]any{
			"id":              ws.ID.String(),
			"organization_id": ws.OrganizationID.String(),
			"name":            ws.Name,
			"synced_at":       time.Now().UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	return err
}

// DeleteDocument detaches and removes the document node along with any
// nodes hanging only off it. The workspace id is part of the match.
func (g *DocumentGraph) DeleteDocument(ctx context.Context, workspaceID, documentID uuid.UUID) error {
	if !g.enabled() {
		return nil
	}
	session := g.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (d:Document {id: $id, workspace_id: $workspace_id})
OPTIONAL MATCH (d)-[:MENTIONS]->(e)
WHERE NOT EXISTS { MATCH (e)<-[:MENTIONS]-(other:Document) WHERE other <> d }
DETACH DELETE e, d
`, map[string]any{
			"id":           documentID.String(),
			"workspace_id": workspaceID.String(),
		})
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	return err
}

func (g *DocumentGraph) Ping(ctx context.Context) error {
	return g.client.Ping(ctx)
}

func (g *DocumentGraph) Enabled() bool { return g.enabled() }
