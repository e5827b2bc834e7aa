// Package retrieval implements workspace-scoped vector, lexical and hybrid
// search over chunks, including score fusion.
package retrieval

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/yungbote/ragvault/internal/platform/dbctx"
)

// Hit is one chunk returned by a single search method. Score is cosine
// similarity for vector search and normalised rank for lexical search.
type Hit struct {
	ChunkID        uuid.UUID
	DocumentID     uuid.UUID
	Content        string
	Score          float64
	Metadata       json.RawMessage
	DocumentTitle  string
	DocumentSource string
}

// Result is a ranked chunk after fusion. VectorScore and LexicalScore are
// zero when the chunk was absent from that side.
type Result struct {
	ChunkID        uuid.UUID       `json:"chunk_id"`
	DocumentID     uuid.UUID       `json:"document_id"`
	Content        string          `json:"content"`
	Score          float64         `json:"score"`
	VectorScore    float64         `json:"vector_score"`
	LexicalScore   float64         `json:"lexical_score"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	DocumentTitle  string          `json:"document_title,omitempty"`
	DocumentSource string          `json:"document_source,omitempty"`
}

type VectorQuery struct {
	WorkspaceID uuid.UUID
	Embedding   []float32
	Limit       int
}

type LexicalQuery struct {
	WorkspaceID uuid.UUID
	Query       string
	Limit       int
}

// ChunkSearcher runs the two storage-level searches. Implementations must
// restrict every query to the given workspace.
type ChunkSearcher interface {
	VectorSearch(dbc dbctx.Context, q VectorQuery) ([]Hit, error)
	LexicalSearch(dbc dbctx.Context, q LexicalQuery) ([]Hit, error)
}

func clamp01(v float64) float64 {
	switch {
	case v != v:
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
