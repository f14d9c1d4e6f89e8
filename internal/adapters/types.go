// Package adapters implements the provider-specific request/response
// translation for each upstream AI API shape.
//
// DESIGN: The gateway supports several incompatible upstream shapes
// (message-API, chat-completions, chat-completions with a builtin search
// tool, responses-API). Each shape gets one Adapter that:
//
//  1. converts the uniform Message sequence into the provider's request body
//  2. performs the HTTP exchange (looping when the protocol demands it)
//  3. extracts text, token usage and search activity into a uniform Result
//
// Adapters are stateless; every call is an independent sequence of network
// operations. Timeout/cancellation is the caller's job via ctx.
package adapters

// Part type constants for multimodal content.
const (
	PartText  = "text"
	PartImage = "image"
)

// Part is one element of a multimodal user turn: either plain text or an
// inline base64-encoded image.
type Part struct {
	Type string // "text" or "image"

	// Text is set for text parts.
	Text string

	// MediaType and Data are set for image parts (e.g. "image/jpeg" plus
	// the raw base64 payload, no data: prefix).
	MediaType string
	Data      string
}

// TextPart builds a text part.
func TextPart(text string) Part {
	return Part{Type: PartText, Text: text}
}

// ImagePart builds an inline image part from base64 data.
func ImagePart(mediaType, data string) Part {
	return Part{Type: PartImage, MediaType: mediaType, Data: data}
}

// Message is one conversation turn in the uniform representation.
// Content is either Text (Parts == nil) or an ordered Parts sequence.
// Order across a []Message is oldest to newest; role alternation is not
// enforced at this layer.
type Message struct {
	// ID identifies the turn for image splicing. Optional; only user turns
	// referenced by an attachment need one.
	ID string

	// Role is "user" or "assistant".
	Role string

	// Text holds plain string content when Parts is nil.
	Text string

	// Parts holds multimodal content. Non-nil Parts wins over Text.
	Parts []Part
}

// IsMultipart reports whether the message carries a Parts sequence.
func (m Message) IsMultipart() bool { return m.Parts != nil }

// HasImage reports whether any part of the message is an image.
func (m Message) HasImage() bool {
	for _, p := range m.Parts {
		if p.Type == PartImage {
			return true
		}
	}
	return false
}

// AnyImage reports whether any message in the sequence carries an image part.
func AnyImage(messages []Message) bool {
	for _, m := range messages {
		if m.HasImage() {
			return true
		}
	}
	return false
}

// Thinking modes for providers that expose a reasoning-effort switch.
const (
	ThinkingDisabled = "disabled"
	ThinkingEnabled  = "enabled"
	ThinkingAuto     = "auto"
)

// Options are the per-call generation switches.
type Options struct {
	// WebSearch requests the provider's search tool when the provider/route
	// supports one. Image-bearing conversations silently disable it.
	WebSearch bool

	// Thinking selects the reasoning-effort mode ("disabled", "enabled",
	// "auto"). Only honored by the one provider whose protocol models it.
	Thinking string
}

// Request is the provider-agnostic input to one adapter call. It is
// assembled per call and never outlives it.
type Request struct {
	Endpoint string // full URL of the provider endpoint
	APIKey   string
	Model    string
	System   string
	Messages []Message
	Options  Options
}

// Result is the uniform output of any adapter, regardless of upstream shape.
type Result struct {
	// Text is never absent; the empty string is the documented fallback when
	// upstream omits content.
	Text string

	// Token counts are best effort (zero when upstream omits usage). When a
	// tool loop runs multiple rounds they are summed across rounds.
	InputTokens  int
	OutputTokens int

	// SearchQueries is populated only when a search tool actually ran. The
	// shape is adapter-dependent: raw tool-call argument strings for inline
	// tool-calling providers, or a synthetic "web_search (N call(s))"
	// summary for server-side search providers. Opaque debug data.
	SearchQueries []string
}

// MaxTokens is the fixed completion budget sent on every upstream request.
const MaxTokens = 1024
