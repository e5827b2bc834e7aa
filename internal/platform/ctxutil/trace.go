package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type traceDataKey struct{}

// TraceData is the per-request correlation record. It is attached once by the
// HTTP middleware and filled in as the request resolves to a workspace.
type TraceData struct {
	TraceID     string
	RequestID   string
	WorkspaceID uuid.UUID
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	val := ctx.Value(traceDataKey{})
	if td, ok := val.(*TraceData); ok {
		return td
	}
	return nil
}

// SetWorkspace records the workspace a request resolved to. It is a no-op
// outside an HTTP request.
func SetWorkspace(ctx context.Context, workspaceID uuid.UUID) {
	if td := GetTraceData(ctx); td != nil {
		td.WorkspaceID = workspaceID
	}
}

// LogFields returns the non-empty correlation ids as logger key/value pairs.
func (td *TraceData) LogFields() []interface{} {
	if td == nil {
		return nil
	}
	var kv []interface{}
	if td.TraceID != "" {
		kv = append(kv, "trace_id", td.TraceID)
	}
	if td.RequestID != "" {
		kv = append(kv, "request_id", td.RequestID)
	}
	if td.WorkspaceID != uuid.Nil {
		kv = append(kv, "workspace_id", td.WorkspaceID.String())
	}
	return kv
}
