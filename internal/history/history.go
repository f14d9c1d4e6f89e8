// Package history assembles bounded conversation context.
//
// The caller hands over the full stored conversation; Bound trims it to a
// token budget so the upstream request never grows without limit. Estimation
// uses tiktoken's cl100k_base encoding - close enough across the supported
// providers for a safety bound, not an exact accounting.
package history

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/chatrelay/reply-gateway/internal/adapters"
)

// perMessageOverhead approximates the wrapping tokens (role, separators)
// each turn costs beyond its text.
const perMessageOverhead = 4

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
	encodingErr  error
)

func enc() (*tiktoken.Tiktoken, error) {
	encodingOnce.Do(func() {
		encoding, encodingErr = tiktoken.GetEncoding("cl100k_base")
	})
	return encoding, encodingErr
}

// EstimateTokens returns the estimated token cost of one turn. Image parts
// count only their text siblings; the base64 payload is not prompt text.
func EstimateTokens(m adapters.Message) (int, error) {
	e, err := enc()
	if err != nil {
		return 0, err
	}
	total := perMessageOverhead
	if !m.IsMultipart() {
		return total + len(e.Encode(m.Text, nil, nil)), nil
	}
	for _, p := range m.Parts {
		if p.Type == adapters.PartText {
			total += len(e.Encode(p.Text, nil, nil))
		}
	}
	return total, nil
}

// Bound returns the newest suffix of messages that fits maxTokens. The
// newest turn is always kept even when it alone exceeds the budget, so a
// single long message still produces a request. A budget of 0 or less keeps
// only the newest turn. The input slice is never mutated.
func Bound(messages []adapters.Message, maxTokens int) ([]adapters.Message, error) {
	if len(messages) == 0 {
		return nil, nil
	}

	costs := make([]int, len(messages))
	for i, m := range messages {
		c, err := EstimateTokens(m)
		if err != nil {
			return nil, err
		}
		costs[i] = c
	}

	start := len(messages) - 1
	budget := maxTokens - costs[start]
	for start > 0 && budget-costs[start-1] >= 0 {
		start--
		budget -= costs[start]
	}

	out := make([]adapters.Message, len(messages)-start)
	copy(out, messages[start:])
	return out, nil
}
