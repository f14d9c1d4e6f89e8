package adapters

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ChatAdapter speaks the OpenAI-compatible chat-completions shape with no
// tools attached. It serves the plain chat-completions provider directly and
// doubles as the no-search fallback for tool-capable providers routed here by
// the gateway.
type ChatAdapter struct {
	name   string
	client *http.Client

	// thinking enables the provider-specific thinking:{type} request field.
	// Only one provider's protocol models it; everyone else rejects or
	// ignores the field, so it stays gated per adapter instance.
	thinking bool
}

// NewChatAdapter creates a plain chat-completions adapter for the named
// provider. supportsThinking gates the thinking request field.
func NewChatAdapter(name string, client *http.Client, supportsThinking bool) *ChatAdapter {
	return &ChatAdapter{name: name, client: client, thinking: supportsThinking}
}

// Name returns the adapter identifier.
func (a *ChatAdapter) Name() string { return a.name }

type chatRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
}

// Generate performs one blocking chat-completions exchange.
func (a *ChatAdapter) Generate(ctx context.Context, req *Request) (*Result, error) {
	body, err := json.Marshal(chatRequest{
		Model:     req.Model,
		MaxTokens: MaxTokens,
		Messages:  toChatMessages(req.System, req.Messages),
	})
	if err != nil {
		return nil, err
	}

	// The thinking mode is patched in rather than modeled as another request
	// struct variant; "auto" leaves the provider default untouched.
	if a.thinking {
		switch req.Options.Thinking {
		case ThinkingEnabled, ThinkingDisabled:
			body, err = sjson.SetBytes(body, "thinking.type", req.Options.Thinking)
			if err != nil {
				return nil, err
			}
		}
	}

	respBody, err := postJSON(ctx, a.client, a.name, req.Endpoint, bearerHeaders(req.APIKey), body)
	if err != nil {
		return nil, err
	}

	return &Result{
		// content can be JSON null; String() maps that to "".
		Text:         gjson.GetBytes(respBody, "choices.0.message.content").String(),
		InputTokens:  int(gjson.GetBytes(respBody, "usage.prompt_tokens").Int()),
		OutputTokens: int(gjson.GetBytes(respBody, "usage.completion_tokens").Int()),
	}, nil
}

func bearerHeaders(apiKey string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + apiKey}
}

var _ Adapter = (*ChatAdapter)(nil)
