package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const responsesWithSearch = `{
	"output":[
		{"type":"web_search_call","status":"completed"},
		{"type":"web_search_call","status":"completed"},
		{"type":"message","content":[{"type":"output_text","text":"Latest release is 1.24."}]}
	],
	"usage":{"input_tokens":40,"output_tokens":15}
}`

func TestResponsesAdapter_Generate(t *testing.T) {
	var calls int
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		gotBody, _ = json.Marshal(decodeJSON(t, r))
		_, _ = w.Write([]byte(responsesWithSearch))
	}))
	defer server.Close()

	a := NewResponsesAdapter("grok", server.Client())
	result, err := a.Generate(context.Background(), &Request{
		Endpoint: server.URL + "/responses",
		APIKey:   "xk",
		Model:    "grok-4",
		System:   "Answer with sources.",
		Messages: []Message{
			{Role: "user", Text: "latest go release?"},
		},
		Options: Options{WebSearch: true},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, "Latest release is 1.24.", result.Text)
	assert.Equal(t, 40, result.InputTokens)
	assert.Equal(t, 15, result.OutputTokens)

	// Server-side search reports a synthetic summary, not raw queries.
	require.Len(t, result.SearchQueries, 1)
	assert.Equal(t, "web_search (2 call(s))", result.SearchQueries[0])

	assert.Equal(t, "grok-4", gjson.GetBytes(gotBody, "model").String())
	assert.Equal(t, "web_search", gjson.GetBytes(gotBody, "tools.0.type").String())
	assert.False(t, gjson.GetBytes(gotBody, "store").Bool())
	require.True(t, gjson.GetBytes(gotBody, "store").Exists())
	assert.Equal(t, int64(MaxTokens), gjson.GetBytes(gotBody, "max_output_tokens").Int())

	// System prompt leads the input list; content is always a string.
	assert.Equal(t, "system", gjson.GetBytes(gotBody, "input.0.role").String())
	assert.Equal(t, "Answer with sources.", gjson.GetBytes(gotBody, "input.0.content").String())
	assert.Equal(t, "latest go release?", gjson.GetBytes(gotBody, "input.1.content").String())
}

func TestResponsesAdapter_FlattensMultipartToString(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = json.Marshal(decodeJSON(t, r))
		_, _ = w.Write([]byte(`{"output":[{"type":"message","content":[{"type":"output_text","text":"ok"}]}]}`))
	}))
	defer server.Close()

	a := NewResponsesAdapter("grok", server.Client())
	result, err := a.Generate(context.Background(), &Request{
		Endpoint: server.URL + "/responses",
		APIKey:   "xk",
		Model:    "grok-4",
		Messages: []Message{{Role: "user", Parts: []Part{
			TextPart("describe"),
			ImagePart("image/png", "eA=="),
		}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Text)

	// Image parts degrade to the literal placeholder in this shape.
	assert.Equal(t, "describe [image]", gjson.GetBytes(gotBody, "input.0.content").String())

	// No search ran: the field stays empty.
	assert.Empty(t, result.SearchQueries)
	assert.Zero(t, result.InputTokens)
}

func TestResponsesAdapter_NoMessageItem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"output":[{"type":"web_search_call"}]}`))
	}))
	defer server.Close()

	a := NewResponsesAdapter("grok", server.Client())
	result, err := a.Generate(context.Background(), &Request{
		Endpoint: server.URL + "/responses",
		APIKey:   "xk",
		Model:    "grok-4",
		Messages: []Message{{Role: "user", Text: "hi"}},
	})
	require.NoError(t, err)

	// Text is never absent, even when upstream returns no message item.
	assert.Equal(t, "", result.Text)
	assert.Equal(t, []string{"web_search (1 call(s))"}, result.SearchQueries)
}
