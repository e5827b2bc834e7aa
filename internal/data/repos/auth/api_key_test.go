package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/ragvault/internal/data/repos/testutil"
	types "github.com/yungbote/ragvault/internal/domain"
	domainauth "github.com/yungbote/ragvault/internal/domain/auth"
	"github.com/yungbote/ragvault/internal/platform/dbctx"
)

func TestAPIKeyRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewAPIKeyRepo(db, testutil.Logger(t))

	wsA := testutil.SeedWorkspace(t, tx, "keys-a")
	wsB := testutil.SeedWorkspace(t, tx, "keys-b")

	prefix := "rvk_live_" + uuid.NewString()[:7]
	key := &types.APIKey{
		WorkspaceID:        wsA.ID,
		Name:               "widget",
		KeyPrefix:          prefix,
		KeyHash:            "deadbeef",
		Scopes:             domainauth.EncodeScopes([]string{domainauth.ScopeSearch}),
		RateLimitPerMinute: 60,
		IsActive:           true,
	}
	if _, err := repo.Create(dbc, key); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByPrefix(dbc, prefix)
	if err != nil || got == nil || got.ID != key.ID {
		t.Fatalf("GetByPrefix: err=%v key=%v", err, got)
	}
	if exists, err := repo.ExistsByPrefix(dbc, prefix); err != nil || !exists {
		t.Fatalf("ExistsByPrefix: exists=%v err=%v", exists, err)
	}
	if miss, err := repo.GetByPrefix(dbc, "rvk_live_nothere"); err != nil || miss != nil {
		t.Fatalf("GetByPrefix miss: err=%v key=%v", err, miss)
	}

	now := time.Now().UTC().Truncate(time.Second)
	if err := repo.TouchLastUsed(dbc, key.ID, now); err != nil {
		t.Fatalf("TouchLastUsed: %v", err)
	}

	if ok, err := repo.Revoke(dbc, wsB.ID, key.ID, now); err != nil || ok {
		t.Fatalf("Revoke from another workspace must not match: ok=%v err=%v", ok, err)
	}
	if ok, err := repo.Revoke(dbc, wsA.ID, key.ID, now); err != nil || !ok {
		t.Fatalf("Revoke: ok=%v err=%v", ok, err)
	}

	after, err := repo.GetByPrefix(dbc, prefix)
	if err != nil || after == nil {
		t.Fatalf("GetByPrefix after revoke: err=%v", err)
	}
	if after.IsActive || after.RevokedAt == nil || after.LastUsedAt == nil {
		t.Fatalf("revoked key state wrong: %+v", after)
	}
	if usable, _ := after.Usable(time.Now()); usable {
		t.Fatalf("revoked key must not be usable")
	}

	list, err := repo.ListByWorkspace(dbc, wsA.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListByWorkspace: err=%v len=%d", err, len(list))
	}
}
