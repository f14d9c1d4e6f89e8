package adapters

import (
	"context"
	"encoding/json"
	"net/http"
)

// maxToolRounds caps the tool-calling loop. Exceeding it is a hard failure,
// never a silent truncation: the cap exists to bound cost and latency against
// a misbehaving or adversarial upstream tool-calling sequence.
const maxToolRounds = 5

// webSearchToolName is the provider's builtin server-side search function.
const webSearchToolName = "$web_search"

// ChatToolAdapter drives the chat-completions shape of a provider whose
// protocol models its builtin web search as an inline tool-calling round
// trip: the server executes the search itself but still expects the client
// to echo a tool-result turn per call before it continues.
//
// The loop is strictly sequential; round N+1's request body depends on round
// N's tool-call ids, so rounds are never issued speculatively.
type ChatToolAdapter struct {
	name   string
	client *http.Client
}

// NewChatToolAdapter creates the tool-calling chat-completions adapter for
// the named provider.
func NewChatToolAdapter(name string, client *http.Client) *ChatToolAdapter {
	return &ChatToolAdapter{name: name, client: client}
}

// Name returns the adapter identifier.
func (a *ChatToolAdapter) Name() string { return a.name }

type toolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function toolCallFunction `json:"function"`
}

type toolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`
}

type toolDescriptor struct {
	Type     string             `json:"type"`
	Function toolDescriptorFunc `json:"function"`
}

type toolDescriptorFunc struct {
	Name string `json:"name"`
}

type chatToolRequest struct {
	Model     string           `json:"model"`
	MaxTokens int              `json:"max_tokens"`
	Messages  []chatMessage    `json:"messages"`
	Tools     []toolDescriptor `json:"tools"`
}

type chatToolResponse struct {
	Choices []struct {
		FinishReason string `json:"finish_reason"`
		Message      struct {
			Content   *string    `json:"content"`
			ToolCalls []toolCall `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Generate runs the bounded multi-round exchange. Token counts accumulate
// across rounds; every tool call's raw argument string is recorded as a
// search-query entry.
func (a *ChatToolAdapter) Generate(ctx context.Context, req *Request) (*Result, error) {
	msgs := toChatMessages(req.System, req.Messages)
	tools := []toolDescriptor{
		{Type: "builtin_function", Function: toolDescriptorFunc{Name: webSearchToolName}},
	}

	var queries []string
	var inputSum, outputSum int

	for round := 0; round < maxToolRounds; round++ {
		body, err := json.Marshal(chatToolRequest{
			Model:     req.Model,
			MaxTokens: MaxTokens,
			Messages:  msgs,
			Tools:     tools,
		})
		if err != nil {
			return nil, err
		}

		respBody, err := postJSON(ctx, a.client, a.name, req.Endpoint, bearerHeaders(req.APIKey), body)
		if err != nil {
			return nil, err
		}

		var resp chatToolResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return nil, err
		}
		inputSum += resp.Usage.PromptTokens
		outputSum += resp.Usage.CompletionTokens

		if len(resp.Choices) == 0 {
			return &Result{InputTokens: inputSum, OutputTokens: outputSum, SearchQueries: queries}, nil
		}
		choice := resp.Choices[0]

		if choice.FinishReason == "tool_calls" && len(choice.Message.ToolCalls) > 0 {
			calls := choice.Message.ToolCalls
			assistantContent := ""
			if choice.Message.Content != nil {
				assistantContent = *choice.Message.Content
			}
			// Replay the assistant's tool-call turn, then acknowledge each
			// call with a tool-result turn echoing id/name/arguments. The
			// provider executes the search server-side; it only needs the
			// round-trip acknowledgment to continue.
			msgs = append(msgs, chatMessage{
				Role:      "assistant",
				Content:   assistantContent,
				ToolCalls: calls,
			})
			for _, tc := range calls {
				queries = append(queries, tc.Function.Arguments)
				msgs = append(msgs, chatMessage{
					Role:       "tool",
					Content:    tc.Function.Arguments,
					ToolCallID: tc.ID,
					Name:       tc.Function.Name,
				})
			}
			continue
		}

		// "stop" terminates normally. Any other finish reason is treated as
		// unexpected-but-non-fatal: return whatever text is present.
		text := ""
		if choice.Message.Content != nil {
			text = *choice.Message.Content
		}
		return &Result{
			Text:          text,
			InputTokens:   inputSum,
			OutputTokens:  outputSum,
			SearchQueries: queries,
		}, nil
	}

	return nil, &ToolLoopExceededError{Rounds: maxToolRounds}
}

var _ Adapter = (*ChatToolAdapter)(nil)
