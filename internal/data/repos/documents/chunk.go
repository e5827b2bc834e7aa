package documents

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/ragvault/internal/domain"
	"github.com/yungbote/ragvault/internal/platform/dbctx"
	"github.com/yungbote/ragvault/internal/platform/logger"
	"github.com/yungbote/ragvault/internal/retrieval"
)

type ChunkRepo interface {
	retrieval.ChunkSearcher
	Create(dbc dbctx.Context, chunks []*types.Chunk) ([]*types.Chunk, error)
	CountByDocument(dbc dbctx.Context, workspaceID, documentID uuid.UUID) (int64, error)
}

type chunkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChunkRepo(db *gorm.DB, baseLog *logger.Logger) ChunkRepo {
	repoLog := baseLog.With("repo", "ChunkRepo")
	return &chunkRepo{db: db, log: repoLog}
}

// Create is the producer side used by ingestion and tests. Every chunk must
// carry the workspace of its document.
func (r *chunkRepo) Create(dbc dbctx.Context, chunks []*types.Chunk) ([]*types.Chunk, error) {
	if len(chunks) == 0 {
		return []*types.Chunk{}, nil
	}
	for _, c := range chunks {
		if c == nil || c.WorkspaceID == uuid.Nil || c.DocumentID == uuid.Nil {
			return nil, fmt.Errorf("chunk requires workspace_id and document_id")
		}
	}
	if err := dbc.DB(r.db).Omit("seq").Create(&chunks).Error; err != nil {
		return nil, fmt.Errorf("create chunks: %w", err)
	}
	return chunks, nil
}

func (r *chunkRepo) CountByDocument(dbc dbctx.Context, workspaceID, documentID uuid.UUID) (int64, error) {
	var n int64
	if err := dbc.DB(r.db).Model(&types.Chunk{}).
		Where("workspace_id = ? AND document_id = ?", workspaceID, documentID).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

type chunkHitRow struct {
	ChunkID        uuid.UUID      `gorm:"column:chunk_id"`
	DocumentID     uuid.UUID      `gorm:"column:document_id"`
	Content        string         `gorm:"column:content"`
	Metadata       datatypes.JSON `gorm:"column:metadata"`
	DocumentTitle  string         `gorm:"column:document_title"`
	DocumentSource string         `gorm:"column:document_source"`
	Score          float64        `gorm:"column:score"`
}

func (row chunkHitRow) hit() retrieval.Hit {
	return retrieval.Hit{
		ChunkID:        row.ChunkID,
		DocumentID:     row.DocumentID,
		Content:        row.Content,
		Score:          row.Score,
		Metadata:       []byte(row.Metadata),
		DocumentTitle:  row.DocumentTitle,
		DocumentSource: row.DocumentSource,
	}
}

func toHits(rows []chunkHitRow) []retrieval.Hit {
	out := make([]retrieval.Hit, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.hit())
	}
	return out
}

// VectorSearch orders by cosine distance and reports 1 - distance as the score.
// Both the chunk row and its document are pinned to the workspace.
func (r *chunkRepo) VectorSearch(dbc dbctx.Context, q retrieval.VectorQuery) ([]retrieval.Hit, error) {
	if q.WorkspaceID == uuid.Nil {
		return nil, fmt.Errorf("vector search: workspace_id is required")
	}
	if q.Limit <= 0 || len(q.Embedding) == 0 {
		return []retrieval.Hit{}, nil
	}
	vec := pgvector.NewVector(q.Embedding)

	var rows []chunkHitRow
	err := dbc.DB(r.db).Raw(`
		SELECT
			c.id AS chunk_id,
			c.document_id,
			c.content,
			COALESCE(c.metadata, '{}'::jsonb) AS metadata,
			d.title AS document_title,
			d.source AS document_source,
			1 - (c.embedding <=> ?) AS score
		FROM chunk c
		JOIN document d ON d.id = c.document_id
		WHERE c.workspace_id = ?
			AND d.workspace_id = ?
			AND c.embedding IS NOT NULL
		ORDER BY c.embedding <=> ? ASC, c.seq ASC
		LIMIT ?
	`, vec, q.WorkspaceID, q.WorkspaceID, vec, q.Limit).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return toHits(rows), nil
}

// LexicalSearch ranks with ts_rank_cd normalised into [0,1) (flag 32) and
// drops chunks that do not match the query at all.
func (r *chunkRepo) LexicalSearch(dbc dbctx.Context, q retrieval.LexicalQuery) ([]retrieval.Hit, error) {
	if q.WorkspaceID == uuid.Nil {
		return nil, fmt.Errorf("lexical search: workspace_id is required")
	}
	if q.Limit <= 0 || q.Query == "" {
		return []retrieval.Hit{}, nil
	}

	var rows []chunkHitRow
	err := dbc.DB(r.db).Raw(`
		SELECT
			c.id AS chunk_id,
			c.document_id,
			c.content,
			COALESCE(c.metadata, '{}'::jsonb) AS metadata,
			d.title AS document_title,
			d.source AS document_source,
			ts_rank_cd(to_tsvector('english', c.content), plainto_tsquery('english', ?), 32) AS score
		FROM chunk c
		JOIN document d ON d.id = c.document_id
		WHERE c.workspace_id = ?
			AND d.workspace_id = ?
			AND to_tsvector('english', c.content) @@ plainto_tsquery('english', ?)
		ORDER BY score DESC, c.seq ASC
		LIMIT ?
	`, q.Query, q.WorkspaceID, q.WorkspaceID, q.Query, q.Limit).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	return toHits(rows), nil
}
