package adapters

import "fmt"

// UpstreamError is any non-2xx status from an upstream HTTP call. It carries
// the raw response body text, not a parsed error object, and is never retried
// at this layer.
type UpstreamError struct {
	API    string // provider or API name, e.g. "anthropic", "moonshot", "file download"
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API error: %d - %s", e.API, e.Status, e.Body)
}

// ToolLoopExceededError means the bounded tool-calling loop ran out of rounds
// without the upstream reaching a "stop" finish. Fatal for the call; never
// silently truncated to a partial answer.
type ToolLoopExceededError struct {
	Rounds int
}

func (e *ToolLoopExceededError) Error() string {
	return fmt.Sprintf("tool-calling loop exceeded %d rounds without completion", e.Rounds)
}
