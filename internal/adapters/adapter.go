package adapters

import "context"

// Adapter is the unified contract for one upstream API shape. Implementations
// are stateless and safe for concurrent use; all per-call state lives in the
// Request and local variables.
type Adapter interface {
	// Name returns the adapter identifier used in logs and error prefixes
	// (e.g. "anthropic", "moonshot", "grok").
	Name() string

	// Generate performs the full HTTP exchange for one call and returns the
	// uniform result. Non-2xx upstream statuses surface as *UpstreamError;
	// transport failures propagate unchanged.
	Generate(ctx context.Context, req *Request) (*Result, error)
}
