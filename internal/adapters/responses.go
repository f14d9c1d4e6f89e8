package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// ResponsesAdapter speaks the responses-API shape with the provider's
// server-side web_search tool attached. This family only accepts string
// content, so multimodal turns are flattened with the "[image]" placeholder
// before they get here (the gateway never routes image-bearing requests to
// the search path anyway).
type ResponsesAdapter struct {
	name   string
	client *http.Client
}

// NewResponsesAdapter creates the responses-API adapter for the named
// provider.
func NewResponsesAdapter(name string, client *http.Client) *ResponsesAdapter {
	return &ResponsesAdapter{name: name, client: client}
}

// Name returns the adapter identifier.
func (a *ResponsesAdapter) Name() string { return a.name }

type responsesInput struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesTool struct {
	Type string `json:"type"`
}

type responsesRequest struct {
	Model           string           `json:"model"`
	Input           []responsesInput `json:"input"`
	Tools           []responsesTool  `json:"tools"`
	MaxOutputTokens int              `json:"max_output_tokens"`
	Store           bool             `json:"store"`
}

// Generate performs one blocking responses-API exchange. The server executes
// any searches itself; the response output list interleaves web_search_call
// items with the final message item.
func (a *ResponsesAdapter) Generate(ctx context.Context, req *Request) (*Result, error) {
	input := make([]responsesInput, 0, len(req.Messages)+1)
	if req.System != "" {
		input = append(input, responsesInput{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		input = append(input, responsesInput{Role: m.Role, Content: flattenToText(m)})
	}

	body, err := json.Marshal(responsesRequest{
		Model:           req.Model,
		Input:           input,
		Tools:           []responsesTool{{Type: "web_search"}},
		MaxOutputTokens: MaxTokens,
		Store:           false,
	})
	if err != nil {
		return nil, err
	}

	respBody, err := postJSON(ctx, a.client, a.name, req.Endpoint, bearerHeaders(req.APIKey), body)
	if err != nil {
		return nil, err
	}

	// Scan the output list: count search invocations, take the first text
	// block of the first item tagged "message".
	var text string
	searchCalls := 0
	gjson.GetBytes(respBody, "output").ForEach(func(_, item gjson.Result) bool {
		switch item.Get("type").String() {
		case "web_search_call":
			searchCalls++
		case "message":
			if text == "" {
				item.Get("content").ForEach(func(_, block gjson.Result) bool {
					if t := block.Get("text"); t.Exists() {
						text = t.String()
						return false
					}
					return true
				})
			}
		}
		return true
	})

	result := &Result{
		Text:         text,
		InputTokens:  int(gjson.GetBytes(respBody, "usage.input_tokens").Int()),
		OutputTokens: int(gjson.GetBytes(respBody, "usage.output_tokens").Int()),
	}
	if searchCalls > 0 {
		// Synthetic summary, not the raw queries: the server-side protocol
		// does not expose the argument strings the way inline tool calling
		// does, so callers get an opaque activity marker instead.
		result.SearchQueries = []string{fmt.Sprintf("web_search (%d call(s))", searchCalls)}
	}
	return result, nil
}

var _ Adapter = (*ResponsesAdapter)(nil)
