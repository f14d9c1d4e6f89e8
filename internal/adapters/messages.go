package adapters

import (
	"context"
	"encoding/json"
	"net/http"
)

// anthropicVersion is the message-API version header value.
const anthropicVersion = "2023-06-01"

// bedrockAnthropicVersion is the anthropic_version body field for
// Bedrock-hosted models, which carry the version in the body instead of a
// header.
const bedrockAnthropicVersion = "bedrock-2023-05-31"

// MessagesAdapter speaks the message-array API (Anthropic Messages shape).
// Content is passed through natively: plain strings stay strings, multimodal
// turns become typed text/image blocks. This shape has no modeled search
// capability, so the web-search option is ignored entirely.
//
// With bedrock set, the same body shape is sent to a Bedrock invoke endpoint:
// auth moves from the x-api-key header to a SigV4-signing transport on the
// HTTP client, and the body gains the anthropic_version field.
type MessagesAdapter struct {
	name    string
	client  *http.Client
	bedrock bool
}

// NewMessagesAdapter creates the adapter for a direct message-API provider.
func NewMessagesAdapter(name string, client *http.Client) *MessagesAdapter {
	return &MessagesAdapter{name: name, client: client}
}

// NewBedrockAdapter creates the message-API adapter in Bedrock mode. The
// client must carry a SigV4 signing transport (see NewSigningTransport).
func NewBedrockAdapter(name string, client *http.Client) *MessagesAdapter {
	return &MessagesAdapter{name: name, client: client, bedrock: true}
}

// Name returns the adapter identifier.
func (a *MessagesAdapter) Name() string { return a.name }

type messagesRequest struct {
	Model            string            `json:"model,omitempty"`
	AnthropicVersion string            `json:"anthropic_version,omitempty"`
	MaxTokens        int               `json:"max_tokens"`
	System           string            `json:"system,omitempty"`
	Messages         []messagesMessage `json:"messages"`
}

type messagesMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Generate performs one blocking message-API exchange.
func (a *MessagesAdapter) Generate(ctx context.Context, req *Request) (*Result, error) {
	wire := messagesRequest{
		MaxTokens: MaxTokens,
		System:    req.System,
	}
	if a.bedrock {
		// Bedrock carries the model in the endpoint path.
		wire.AnthropicVersion = bedrockAnthropicVersion
	} else {
		wire.Model = req.Model
	}
	for _, m := range req.Messages {
		wire.Messages = append(wire.Messages, messagesMessage{
			Role:    m.Role,
			Content: toMessagesContent(m),
		})
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{}
	if !a.bedrock {
		headers["x-api-key"] = req.APIKey
		headers["anthropic-version"] = anthropicVersion
	}

	respBody, err := postJSON(ctx, a.client, a.name, req.Endpoint, headers, body)
	if err != nil {
		return nil, err
	}

	var resp messagesResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}

	text := ""
	if len(resp.Content) > 0 {
		text = resp.Content[0].Text
	}
	return &Result{
		Text:         text,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}

var _ Adapter = (*MessagesAdapter)(nil)
