package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/ragvault/internal/domain"
	"github.com/yungbote/ragvault/internal/platform/dbctx"
	"github.com/yungbote/ragvault/internal/retrieval"
)

type fakeTx struct{ calls int }

func (f *fakeTx) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	f.calls++
	return fn(dbctx.New(ctx))
}

type fakeKeyRepo struct {
	mu       sync.Mutex
	byPrefix map[string]*types.APIKey
	lookups  int
	lookErr  error
	touched  []uuid.UUID
	taken    map[string]bool
}

func newFakeKeyRepo() *fakeKeyRepo {
	return &fakeKeyRepo{byPrefix: map[string]*types.APIKey{}, taken: map[string]bool{}}
}

func (f *fakeKeyRepo) Create(dbc dbctx.Context, key *types.APIKey) (*types.APIKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if key.ID == uuid.Nil {
		key.ID = uuid.New()
	}
	key.CreatedAt = time.Now()
	f.byPrefix[key.KeyPrefix] = key
	return key, nil
}

func (f *fakeKeyRepo) GetByPrefix(dbc dbctx.Context, prefix string) (*types.APIKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.lookErr != nil {
		return nil, f.lookErr
	}
	return f.byPrefix[prefix], nil
}

func (f *fakeKeyRepo) ExistsByPrefix(dbc dbctx.Context, prefix string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.byPrefix[prefix]
	return ok || f.taken[prefix], nil
}

func (f *fakeKeyRepo) ListByWorkspace(dbc dbctx.Context, workspaceID uuid.UUID) ([]*types.APIKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.APIKey
	for _, k := range f.byPrefix {
		if k.WorkspaceID == workspaceID {
			out = append(out, k)
		}
	}
	return out, nil
}

func (f *fakeKeyRepo) TouchLastUsed(dbc dbctx.Context, keyID uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, keyID)
	return nil
}

func (f *fakeKeyRepo) Revoke(dbc dbctx.Context, workspaceID, keyID uuid.UUID, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range f.byPrefix {
		if k.ID == keyID && k.WorkspaceID == workspaceID {
			k.IsActive = false
			if k.RevokedAt == nil {
				k.RevokedAt = &at
			}
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeKeyRepo) touchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.touched)
}

type fakeWorkspaceRepo struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]*types.Workspace
	getErr error
	// increments is the net number of counted requests.
	increments int
	releases   int
	adjusts    map[uuid.UUID]int
}

func newFakeWorkspaceRepo(ws ...*types.Workspace) *fakeWorkspaceRepo {
	f := &fakeWorkspaceRepo{byID: map[uuid.UUID]*types.Workspace{}, adjusts: map[uuid.UUID]int{}}
	for _, w := range ws {
		f.byID[w.ID] = w
	}
	return f
}

func (f *fakeWorkspaceRepo) Create(dbc dbctx.Context, ws *types.Workspace) (*types.Workspace, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ws.ID == uuid.Nil {
		ws.ID = uuid.New()
	}
	f.byID[ws.ID] = ws
	return ws, nil
}

func (f *fakeWorkspaceRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Workspace, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	w := f.byID[id]
	if w == nil {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (f *fakeWorkspaceRepo) ListByOrganization(dbc dbctx.Context, orgID uuid.UUID) ([]*types.Workspace, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Workspace
	for _, w := range f.byID {
		if w.OrganizationID == orgID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeWorkspaceRepo) CountByOrganization(dbc dbctx.Context, orgID uuid.UUID) (int64, error) {
	ws, _ := f.ListByOrganization(dbc, orgID)
	return int64(len(ws)), nil
}

func (f *fakeWorkspaceRepo) ReserveMonthlyRequest(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := f.byID[id]
	if w == nil {
		return false, nil
	}
	now := time.Now()
	if w.LastRequestResetAt.UTC().Year() != now.UTC().Year() || w.LastRequestResetAt.UTC().Month() != now.UTC().Month() {
		w.MonthlyRequests = 0
		w.LastRequestResetAt = now
	}
	if w.MaxMonthlyRequests > 0 && w.MonthlyRequests >= w.MaxMonthlyRequests {
		return false, nil
	}
	w.MonthlyRequests++
	f.increments++
	return true, nil
}

func (f *fakeWorkspaceRepo) ReleaseMonthlyRequest(dbc dbctx.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w := f.byID[id]; w != nil && w.MonthlyRequests > 0 {
		w.MonthlyRequests--
	}
	f.increments--
	f.releases++
	return nil
}

func (f *fakeWorkspaceRepo) AdjustDocumentCount(dbc dbctx.Context, id uuid.UUID, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adjusts[id] += delta
	return nil
}

type fakeOrgRepo struct {
	byID map[uuid.UUID]*types.Organization
}

func newFakeOrgRepo(orgs ...*types.Organization) *fakeOrgRepo {
	f := &fakeOrgRepo{byID: map[uuid.UUID]*types.Organization{}}
	for _, o := range orgs {
		f.byID[o.ID] = o
	}
	return f
}

func (f *fakeOrgRepo) Create(dbc dbctx.Context, org *types.Organization) (*types.Organization, error) {
	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}
	f.byID[org.ID] = org
	return org, nil
}

func (f *fakeOrgRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Organization, error) {
	return f.byID[id], nil
}

func (f *fakeOrgRepo) GetBySlug(dbc dbctx.Context, slug string) (*types.Organization, error) {
	for _, o := range f.byID {
		if o.Slug == slug {
			return o, nil
		}
	}
	return nil, nil
}

func (f *fakeOrgRepo) List(dbc dbctx.Context, limit, offset int) ([]*types.Organization, int64, error) {
	var out []*types.Organization
	for _, o := range f.byID {
		out = append(out, o)
	}
	return out, int64(len(out)), nil
}

type fakeDocRepo struct {
	docs    map[uuid.UUID]*types.Document
	deleted []uuid.UUID
}

func newFakeDocRepo(docs ...*types.Document) *fakeDocRepo {
	f := &fakeDocRepo{docs: map[uuid.UUID]*types.Document{}}
	for _, d := range docs {
		f.docs[d.ID] = d
	}
	return f
}

func (f *fakeDocRepo) Create(dbc dbctx.Context, doc *types.Document) (*types.Document, error) {
	f.docs[doc.ID] = doc
	return doc, nil
}

func (f *fakeDocRepo) GetByID(dbc dbctx.Context, workspaceID, documentID uuid.UUID) (*types.Document, error) {
	d := f.docs[documentID]
	if d == nil || d.WorkspaceID != workspaceID {
		return nil, nil
	}
	return d, nil
}

func (f *fakeDocRepo) ListByWorkspace(dbc dbctx.Context, workspaceID uuid.UUID, limit, offset int) ([]*types.Document, int64, error) {
	var out []*types.Document
	for _, d := range f.docs {
		if d.WorkspaceID == workspaceID {
			out = append(out, d)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeDocRepo) Delete(dbc dbctx.Context, workspaceID, documentID uuid.UUID) (bool, error) {
	d := f.docs[documentID]
	if d == nil || d.WorkspaceID != workspaceID {
		return false, nil
	}
	delete(f.docs, documentID)
	f.deleted = append(f.deleted, documentID)
	return true, nil
}

type fakeGraph struct {
	upserts []uuid.UUID
	deletes []uuid.UUID
	err     error
}

func (f *fakeGraph) UpsertWorkspace(ctx context.Context, ws *types.Workspace) error {
	f.upserts = append(f.upserts, ws.ID)
	return f.err
}

func (f *fakeGraph) DeleteDocument(ctx context.Context, workspaceID, documentID uuid.UUID) error {
	f.deletes = append(f.deletes, documentID)
	return f.err
}

// fakeEngine answers from a per-workspace table and records what it was asked.
type fakeEngine struct {
	mu      sync.Mutex
	results map[uuid.UUID][]retrieval.Result
	err     error
	calls   []retrieval.Query
}

func (f *fakeEngine) Search(ctx context.Context, q retrieval.Query) ([]retrieval.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, q)
	if f.err != nil {
		return nil, f.err
	}
	return f.results[q.WorkspaceID], nil
}

func (f *fakeEngine) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func dbcBackground() dbctx.Context { return dbctx.New(context.Background()) }
