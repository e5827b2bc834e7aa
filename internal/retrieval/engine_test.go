package retrieval

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/ragvault/internal/platform/apierr"
	"github.com/yungbote/ragvault/internal/platform/dbctx"
	"github.com/yungbote/ragvault/internal/platform/logger"
)

type fakeSearcher struct {
	mu          sync.Mutex
	vector      map[uuid.UUID][]Hit
	lexical     map[uuid.UUID][]Hit
	vectorErr   error
	lexicalErr  error
	vectorCalls int
	lexCalls    int
	lastLimit   int
}

func (f *fakeSearcher) VectorSearch(dbc dbctx.Context, q VectorQuery) ([]Hit, error) {
	f.mu.Lock()
	f.vectorCalls++
	f.lastLimit = q.Limit
	f.mu.Unlock()
	if f.vectorErr != nil {
		return nil, f.vectorErr
	}
	return f.vector[q.WorkspaceID], nil
}

func (f *fakeSearcher) LexicalSearch(dbc dbctx.Context, q LexicalQuery) ([]Hit, error) {
	f.mu.Lock()
	f.lexCalls++
	f.mu.Unlock()
	if f.lexicalErr != nil {
		return nil, f.lexicalErr
	}
	// Block until the sibling branch cancels us, when asked to.
	if q.Query == "wait" {
		<-dbc.Ctx.Done()
		return nil, dbc.Ctx.Err()
	}
	return f.lexical[q.WorkspaceID], nil
}

type fakeEmbedder struct{ err error }

func (f fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func TestEngineSearchByType(t *testing.T) {
	ws := uuid.New()
	c1, c2, c3 := uuid.New(), uuid.New(), uuid.New()
	fs := &fakeSearcher{
		vector:  map[uuid.UUID][]Hit{ws: {hit(c1, 0.9, ""), hit(c2, 0.4, "")}},
		lexical: map[uuid.UUID][]Hit{ws: {hit(c2, 0.8, ""), hit(c3, 0.6, "")}},
	}
	e := NewEngine(fs, fakeEmbedder{}, EngineConfig{}, logger.Nop())

	hybrid, err := e.Search(context.Background(), Query{WorkspaceID: ws, Text: "q", Type: SearchHybrid, Limit: 10, Weight: 0.3})
	require.NoError(t, err)
	require.Len(t, hybrid, 3)
	assert.Equal(t, c1, hybrid[0].ChunkID)
	assert.Equal(t, 20, fs.lastLimit)

	vec, err := e.Search(context.Background(), Query{WorkspaceID: ws, Text: "q", Type: SearchVector, Limit: 1})
	require.NoError(t, err)
	require.Len(t, vec, 1)
	assert.InDelta(t, 0.9, vec[0].Score, 1e-9)

	lex, err := e.Search(context.Background(), Query{WorkspaceID: ws, Text: "q", Type: SearchLexical, Limit: 10})
	require.NoError(t, err)
	require.Len(t, lex, 2)
	assert.Equal(t, c2, lex[0].ChunkID)
	assert.InDelta(t, 0.8, lex[0].LexicalScore, 1e-9)
}

func TestEngineOnlyRunsNeededBranches(t *testing.T) {
	fs := &fakeSearcher{}
	e := NewEngine(fs, fakeEmbedder{}, EngineConfig{}, logger.Nop())

	_, err := e.Search(context.Background(), Query{WorkspaceID: uuid.New(), Text: "q", Type: SearchLexical, Limit: 5})
	require.NoError(t, err)
	assert.Zero(t, fs.vectorCalls)
	assert.Equal(t, 1, fs.lexCalls)
}

func TestEngineWorkspaceIsolation(t *testing.T) {
	wsA, wsB := uuid.New(), uuid.New()
	fs := &fakeSearcher{
		vector:  map[uuid.UUID][]Hit{wsA: {hit(uuid.New(), 0.9, "a")}, wsB: {hit(uuid.New(), 0.9, "b")}},
		lexical: map[uuid.UUID][]Hit{wsA: {hit(uuid.New(), 0.5, "a")}, wsB: {hit(uuid.New(), 0.5, "b")}},
	}
	e := NewEngine(fs, fakeEmbedder{}, EngineConfig{}, logger.Nop())

	got, err := e.Search(context.Background(), Query{WorkspaceID: wsA, Text: "q", Type: SearchHybrid, Limit: 10, Weight: 0.3})
	require.NoError(t, err)
	for _, r := range got {
		assert.Equal(t, "a", r.Content)
	}
}

func TestEngineFailsClosed(t *testing.T) {
	ws := uuid.New()

	t.Run("lexical error", func(t *testing.T) {
		fs := &fakeSearcher{
			vector:     map[uuid.UUID][]Hit{ws: {hit(uuid.New(), 0.9, "")}},
			lexicalErr: errors.New("tsquery syntax"),
		}
		e := NewEngine(fs, fakeEmbedder{}, EngineConfig{}, logger.Nop())
		got, err := e.Search(context.Background(), Query{WorkspaceID: ws, Text: "q", Type: SearchHybrid, Limit: 10})
		assert.Nil(t, got)
		assert.ErrorIs(t, err, apierr.ErrUpstream)
	})

	t.Run("embedder error cancels lexical", func(t *testing.T) {
		fs := &fakeSearcher{}
		e := NewEngine(fs, fakeEmbedder{err: errors.New("429 from provider")}, EngineConfig{}, logger.Nop())
		got, err := e.Search(context.Background(), Query{WorkspaceID: ws, Text: "wait", Type: SearchHybrid, Limit: 10})
		assert.Nil(t, got)
		assert.ErrorIs(t, err, apierr.ErrUpstream)
		assert.Zero(t, fs.vectorCalls)
	})
}

func TestEngineRejectsNilWorkspace(t *testing.T) {
	e := NewEngine(&fakeSearcher{}, fakeEmbedder{}, EngineConfig{}, logger.Nop())
	_, err := e.Search(context.Background(), Query{Text: "q", Limit: 10})
	assert.ErrorIs(t, err, errNoWorkspace)
}
