// Package ctxutil threads per-request identifiers through context so log
// lines emitted deep in the ingestion/embedding pipeline can be matched to
// the HTTP request that triggered them.
package ctxutil

import "context"

type traceKey struct{}

type TraceData struct {
	TraceID   string
	RequestID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceKey{}, td)
}

// GetTraceData returns nil when the context carries no trace data, e.g. on
// background runs not tied to a request.
func GetTraceData(ctx context.Context) *TraceData {
	if td, ok := ctx.Value(traceKey{}).(*TraceData); ok {
		return td
	}
	return nil
}
