// Package main is a one-shot CLI for the reply gateway: it sends a single
// prompt through the configured provider and prints the reply. Useful for
// smoke-testing provider credentials and routing without a bot in front.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/chatrelay/reply-gateway/internal/adapters"
	"github.com/chatrelay/reply-gateway/internal/config"
	"github.com/chatrelay/reply-gateway/internal/gateway"
	"github.com/chatrelay/reply-gateway/internal/monitoring"
)

func main() {
	_ = godotenv.Load()

	var (
		configPath = flag.String("config", "", "path to YAML config (optional, built-in defaults otherwise)")
		provider   = flag.String("provider", "", "provider name (default from config)")
		model      = flag.String("model", "", "model identifier (default from config)")
		system     = flag.String("system", "You are a helpful assistant.", "system prompt")
		prompt     = flag.String("prompt", "", "user prompt (required)")
		search     = flag.Bool("search", false, "enable web search")
		thinking   = flag.String("thinking", adapters.ThinkingAuto, "thinking mode: disabled|enabled|auto")
		timeout    = flag.Duration("timeout", 2*time.Minute, "overall call timeout")
	)
	flag.Parse()

	if *prompt == "" {
		fmt.Fprintln(os.Stderr, "usage: replygw -prompt \"...\" [-provider name] [-search]")
		os.Exit(2)
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	monitoring.Global(monitoring.LoggerConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	if *provider == "" {
		*provider = cfg.Defaults.Provider
	}
	if *model == "" {
		*model = cfg.Defaults.Model
	}
	apiKey := os.Getenv("REPLYGW_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "REPLYGW_API_KEY is not set")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	gw, err := gateway.New(ctx, cfg, &http.Client{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build gateway")
	}

	result, err := gw.Generate(ctx, gateway.Params{
		Provider:     *provider,
		APIKey:       apiKey,
		Model:        *model,
		SystemPrompt: *system,
		Messages:     []adapters.Message{{Role: "user", Text: *prompt}},
		Options:      adapters.Options{WebSearch: *search, Thinking: *thinking},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("generation failed")
	}

	fmt.Println(result.Text)
	if result.InputTokens > 0 || result.OutputTokens > 0 {
		log.Info().
			Int("input_tokens", result.InputTokens).
			Int("output_tokens", result.OutputTokens).
			Strs("search_queries", result.SearchQueries).
			Msg("usage")
	}
}
