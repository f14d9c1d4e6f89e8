package gateway

import "fmt"

// UnknownProviderError means the caller asked for a provider outside the
// configured set. A caller/config error: no HTTP call is made.
type UnknownProviderError struct {
	Provider string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider %q", e.Provider)
}
