// Package gateway is the single entry point for reply generation.
//
// DESIGN: Provider selection is a dispatch table keyed on
// (provider, allowSearch), built once at construction from the configured
// provider set. Adding a provider is a table edit, not a control-flow
// change. The facade owns no state beyond that table: each Generate call is
// an independent, strictly sequential run of network operations, and
// timeout/cancellation is imposed by the caller through ctx.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/chatrelay/reply-gateway/internal/adapters"
	"github.com/chatrelay/reply-gateway/internal/config"
	"github.com/chatrelay/reply-gateway/internal/monitoring"
	"github.com/chatrelay/reply-gateway/internal/postprocess"
)

// Params is the input to one Generate call. All environment-driven defaults
// (provider, model) are resolved by the caller; the gateway never reads
// ambient configuration.
type Params struct {
	Provider     string
	APIKey       string
	Model        string
	SystemPrompt string
	Messages     []adapters.Message
	Options      adapters.Options
}

type routeKey struct {
	provider string
	search   bool
}

type route struct {
	adapter  adapters.Adapter
	endpoint func(model string) string
}

// Gateway dispatches generation calls to the adapter matching the provider
// and capability flags, then post-processes the reply text.
type Gateway struct {
	routes map[routeKey]route
	post   postprocess.Processor
}

// New builds the dispatch table from the configured provider set. The given
// client is shared by all plain HTTP adapters; Bedrock providers get their
// own client wrapping a SigV4 signing transport, which requires resolvable
// AWS credentials at construction time.
func New(ctx context.Context, cfg *config.Config, client *http.Client) (*Gateway, error) {
	g := &Gateway{
		routes: make(map[routeKey]route),
		post:   postprocess.Processor{SanitizeHTML: cfg.Reply.SanitizeHTML},
	}

	for name, p := range cfg.Providers {
		base := strings.TrimRight(p.BaseURL, "/")

		switch p.Kind {
		case config.KindMessages:
			// No search capability modeled; the web-search option is
			// ignored entirely, so both table slots share one adapter.
			g.addBoth(name, adapters.NewMessagesAdapter(name, client), fixed(base+"/v1/messages"))

		case config.KindBedrock:
			transport, err := adapters.NewSigningTransport(ctx, p.Region, nil)
			if err != nil {
				return nil, fmt.Errorf("provider %q: %w", name, err)
			}
			signed := &http.Client{Transport: transport}
			g.addBoth(name, adapters.NewBedrockAdapter(name, signed), func(model string) string {
				return base + "/model/" + url.PathEscape(model) + "/invoke"
			})

		case config.KindChat:
			g.addBoth(name, adapters.NewChatAdapter(name, client, p.Thinking), fixed(base+"/chat/completions"))

		case config.KindChatTools:
			chatEndpoint := fixed(base + "/chat/completions")
			g.routes[routeKey{name, true}] = route{adapters.NewChatToolAdapter(name, client), chatEndpoint}
			g.routes[routeKey{name, false}] = route{adapters.NewChatAdapter(name, client, false), chatEndpoint}

		case config.KindResponses:
			// Search goes through /responses with the server-side tool;
			// without search the provider's OpenAI-compatible endpoint is
			// cheaper and shape-identical to plain chat-completions.
			g.routes[routeKey{name, true}] = route{adapters.NewResponsesAdapter(name, client), fixed(base + "/responses")}
			g.routes[routeKey{name, false}] = route{adapters.NewChatAdapter(name, client, false), fixed(base + "/chat/completions")}

		default:
			return nil, fmt.Errorf("provider %q: unknown kind %q", name, p.Kind)
		}
	}

	return g, nil
}

func (g *Gateway) addBoth(name string, a adapters.Adapter, endpoint func(string) string) {
	g.routes[routeKey{name, false}] = route{a, endpoint}
	g.routes[routeKey{name, true}] = route{a, endpoint}
}

func fixed(endpoint string) func(string) string {
	return func(string) string { return endpoint }
}

// Generate runs one full generation: route selection, the provider exchange
// (looping when the protocol demands it), and reply post-processing.
//
// Image-bearing conversations silently disable web search: no current
// search-capable route accepts image parts, and flattening them away would
// drop user content.
func (g *Gateway) Generate(ctx context.Context, p Params) (*adapters.Result, error) {
	allowSearch := p.Options.WebSearch && !adapters.AnyImage(p.Messages)

	r, ok := g.routes[routeKey{p.Provider, allowSearch}]
	if !ok {
		return nil, &UnknownProviderError{Provider: p.Provider}
	}

	requestID := uuid.NewString()
	ctx = monitoring.WithRequestIDContext(ctx, requestID)
	started := time.Now()

	log.Debug().
		Str("request_id", requestID).
		Str("provider", p.Provider).
		Str("adapter", r.adapter.Name()).
		Str("model", p.Model).
		Bool("web_search", allowSearch).
		Int("messages", len(p.Messages)).
		Msg("dispatching generation")

	opts := p.Options
	opts.WebSearch = allowSearch

	result, err := r.adapter.Generate(ctx, &adapters.Request{
		Endpoint: r.endpoint(p.Model),
		APIKey:   p.APIKey,
		Model:    p.Model,
		System:   p.SystemPrompt,
		Messages: p.Messages,
		Options:  opts,
	})
	if err != nil {
		log.Debug().
			Str("request_id", requestID).
			Str("provider", p.Provider).
			Err(err).
			Msg("generation failed")
		return nil, err
	}

	result.Text = g.post.Clean(result.Text)

	log.Debug().
		Str("request_id", requestID).
		Str("provider", p.Provider).
		Int("input_tokens", result.InputTokens).
		Int("output_tokens", result.OutputTokens).
		Int("search_queries", len(result.SearchQueries)).
		Dur("elapsed", time.Since(started)).
		Msg("generation complete")

	return result, nil
}
