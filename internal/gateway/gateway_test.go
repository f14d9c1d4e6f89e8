package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/chatrelay/reply-gateway/internal/adapters"
	"github.com/chatrelay/reply-gateway/internal/config"
)

// upstream fakes every provider shape behind one server, keyed by path.
type upstream struct {
	server *httptest.Server

	calls  []string // request paths in order
	bodies [][]byte
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}
	u.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		u.calls = append(u.calls, r.URL.Path)
		u.bodies = append(u.bodies, body)

		switch r.URL.Path {
		case "/v1/messages":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"content": []map[string]any{{"type": "text", "text": "from messages"}},
				"usage":   map[string]any{"input_tokens": 1, "output_tokens": 2},
			})
		case "/chat/completions":
			_, _ = w.Write([]byte(`{"choices":[{"finish_reason":"stop","message":{"content":"from chat"}}],"usage":{"prompt_tokens":5,"completion_tokens":3}}`))
		case "/responses":
			_, _ = w.Write([]byte(`{"output":[{"type":"web_search_call"},{"type":"message","content":[{"type":"output_text","text":"from responses"}]}],"usage":{"input_tokens":9,"output_tokens":4}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	t.Cleanup(u.server.Close)
	return u
}

func (u *upstream) lastBody() []byte {
	if len(u.bodies) == 0 {
		return nil
	}
	return u.bodies[len(u.bodies)-1]
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Providers: map[string]config.Provider{
			"anthropic": {Kind: config.KindMessages, BaseURL: baseURL},
			"zhipu":     {Kind: config.KindChat, BaseURL: baseURL, Thinking: true},
			"moonshot":  {Kind: config.KindChatTools, BaseURL: baseURL},
			"grok":      {Kind: config.KindResponses, BaseURL: baseURL},
		},
	}
}

func newTestGateway(t *testing.T, u *upstream) *Gateway {
	t.Helper()
	g, err := New(context.Background(), testConfig(u.server.URL), u.server.Client())
	require.NoError(t, err)
	return g
}

func textParams(provider string, opts adapters.Options) Params {
	return Params{
		Provider:     provider,
		APIKey:       "k",
		Model:        "m",
		SystemPrompt: "s",
		Messages:     []adapters.Message{{Role: "user", Text: "hello"}},
		Options:      opts,
	}
}

func imageParams(provider string, opts adapters.Options) Params {
	p := textParams(provider, opts)
	p.Messages = []adapters.Message{{Role: "user", Parts: []adapters.Part{
		adapters.TextPart("what is this?"),
		adapters.ImagePart("image/png", "eA=="),
	}}}
	return p
}

func TestGateway_UnknownProvider(t *testing.T) {
	u := newUpstream(t)
	g := newTestGateway(t, u)

	_, err := g.Generate(context.Background(), textParams("foo", adapters.Options{}))

	var unknown *UnknownProviderError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "foo", unknown.Provider)
	// Caller/config error: zero HTTP calls made.
	assert.Empty(t, u.calls)
}

func TestGateway_Routing(t *testing.T) {
	tests := []struct {
		name      string
		params    Params
		wantPath  string
		wantText  string
		wantTools bool // tools field present in the request body
	}{
		{
			name:     "messages_provider",
			params:   textParams("anthropic", adapters.Options{}),
			wantPath: "/v1/messages",
			wantText: "from messages",
		},
		{
			name: "messages_provider_ignores_search",
			// No search capability modeled for this provider at all.
			params:   textParams("anthropic", adapters.Options{WebSearch: true}),
			wantPath: "/v1/messages",
			wantText: "from messages",
		},
		{
			name:     "plain_chat_provider",
			params:   textParams("zhipu", adapters.Options{}),
			wantPath: "/chat/completions",
			wantText: "from chat",
		},
		{
			name:      "tool_provider_with_search_attaches_tools",
			params:    textParams("moonshot", adapters.Options{WebSearch: true}),
			wantPath:  "/chat/completions",
			wantText:  "from chat",
			wantTools: true,
		},
		{
			name:     "tool_provider_without_search_goes_plain",
			params:   textParams("moonshot", adapters.Options{}),
			wantPath: "/chat/completions",
			wantText: "from chat",
		},
		{
			name: "image_disables_search_on_tool_provider",
			// webSearch=true but an image part is present: silently routed
			// to the plain adapter, no tools attached.
			params:   imageParams("moonshot", adapters.Options{WebSearch: true}),
			wantPath: "/chat/completions",
			wantText: "from chat",
		},
		{
			name:      "responses_provider_with_search",
			params:    textParams("grok", adapters.Options{WebSearch: true}),
			wantPath:  "/responses",
			wantText:  "from responses",
			wantTools: true,
		},
		{
			name:     "responses_provider_without_search_uses_alternate_endpoint",
			params:   textParams("grok", adapters.Options{}),
			wantPath: "/chat/completions",
			wantText: "from chat",
		},
		{
			name:     "image_disables_search_on_responses_provider",
			params:   imageParams("grok", adapters.Options{WebSearch: true}),
			wantPath: "/chat/completions",
			wantText: "from chat",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := newUpstream(t)
			g := newTestGateway(t, u)

			result, err := g.Generate(context.Background(), tt.params)
			require.NoError(t, err)

			require.Len(t, u.calls, 1)
			assert.Equal(t, tt.wantPath, u.calls[0])
			assert.Equal(t, tt.wantText, result.Text)
			assert.Equal(t, tt.wantTools, gjson.GetBytes(u.lastBody(), "tools").Exists())
		})
	}
}

func TestGateway_PostProcessesReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"finish_reason":"stop","message":{"content":"Go 1.24 is out.【3†source】"}}]}`))
	}))
	defer server.Close()

	g, err := New(context.Background(), testConfig(server.URL), server.Client())
	require.NoError(t, err)

	result, err := g.Generate(context.Background(), textParams("zhipu", adapters.Options{}))
	require.NoError(t, err)
	assert.Equal(t, "Go 1.24 is out.", result.Text)
}

func TestGateway_PropagatesUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	g, err := New(context.Background(), testConfig(server.URL), server.Client())
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), textParams("zhipu", adapters.Options{}))

	var upstream *adapters.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "zhipu API error: 502 - upstream down", upstream.Error())
}

func TestGateway_ThinkingReachesGatedProvider(t *testing.T) {
	u := newUpstream(t)
	g := newTestGateway(t, u)

	_, err := g.Generate(context.Background(), textParams("zhipu", adapters.Options{Thinking: adapters.ThinkingEnabled}))
	require.NoError(t, err)
	assert.Equal(t, "enabled", gjson.GetBytes(u.lastBody(), "thinking.type").String())

	u2 := newUpstream(t)
	g2 := newTestGateway(t, u2)
	_, err = g2.Generate(context.Background(), textParams("moonshot", adapters.Options{Thinking: adapters.ThinkingEnabled}))
	require.NoError(t, err)
	assert.False(t, gjson.GetBytes(u2.lastBody(), "thinking").Exists())
}
