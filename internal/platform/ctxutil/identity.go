package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type identityKey struct{}

// Identity is what an authenticated credential resolves to. WorkspaceID is
// taken from the stored key, never from anything the caller sends.
type Identity struct {
	WorkspaceID uuid.UUID
	KeyID       uuid.UUID
	Scopes      []string
	// RateLimitPerMinute is the admission limit carried by the key.
	RateLimitPerMinute int
}

func (i Identity) HasScope(scope string) bool {
	for _, s := range i.Scopes {
		if s == scope || s == "*" {
			return true
		}
	}
	return false
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func GetIdentity(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
