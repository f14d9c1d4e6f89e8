package adapters

import (
	"fmt"
	"strings"
)

// Content normalization: pure, stateless conversions from the uniform
// Message representation into each provider shape, plus the image splice
// used when an attachment arrives tied to a specific turn.

// =============================================================================
// MESSAGE-API SHAPE - content blocks, images as base64 source objects
// =============================================================================

type messagesBlock struct {
	Type   string          `json:"type"`
	Text   string          `json:"text,omitempty"`
	Source *messagesSource `json:"source,omitempty"`
}

type messagesSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// toMessagesContent converts one turn to the message-API content value:
// a plain string, or an array of text/image blocks.
func toMessagesContent(m Message) any {
	if !m.IsMultipart() {
		return m.Text
	}
	blocks := make([]messagesBlock, 0, len(m.Parts))
	for _, p := range m.Parts {
		switch p.Type {
		case PartImage:
			blocks = append(blocks, messagesBlock{
				Type: "image",
				Source: &messagesSource{
					Type:      "base64",
					MediaType: p.MediaType,
					Data:      p.Data,
				},
			})
		default:
			blocks = append(blocks, messagesBlock{Type: "text", Text: p.Text})
		}
	}
	return blocks
}

// =============================================================================
// CHAT-COMPLETIONS SHAPE - OpenAI-compatible, images as inline data URLs
// =============================================================================

type chatContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

// toChatContent converts one turn to the chat-completions content value.
// Text stays a plain string; parts become the OpenAI inline-data-URL array.
// The "data:<mediaType>;base64,<data>" prefix is part of the wire contract.
func toChatContent(m Message) any {
	if !m.IsMultipart() {
		return m.Text
	}
	parts := make([]chatContentPart, 0, len(m.Parts))
	for _, p := range m.Parts {
		switch p.Type {
		case PartImage:
			parts = append(parts, chatContentPart{
				Type: "image_url",
				ImageURL: &chatImageURL{
					URL: fmt.Sprintf("data:%s;base64,%s", p.MediaType, p.Data),
				},
			})
		default:
			parts = append(parts, chatContentPart{Type: "text", Text: p.Text})
		}
	}
	return parts
}

type chatMessage struct {
	Role       string     `json:"role"`
	Content    any        `json:"content"`
	ToolCalls  []toolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// toChatMessages builds the full chat-completions message list, system
// prompt first when present.
func toChatMessages(system string, messages []Message) []chatMessage {
	out := make([]chatMessage, 0, len(messages)+1)
	if system != "" {
		out = append(out, chatMessage{Role: "system", Content: system})
	}
	for _, m := range messages {
		out = append(out, chatMessage{Role: m.Role, Content: toChatContent(m)})
	}
	return out
}

// =============================================================================
// RESPONSES-API SHAPE - string-only content, images degraded to a placeholder
// =============================================================================

// flattenToText collapses a turn to a single string for shapes that do not
// accept inline images. Text parts join with a single space; every image
// part becomes the literal "[image]" placeholder. Deliberate degradation.
func flattenToText(m Message) string {
	if !m.IsMultipart() {
		return m.Text
	}
	pieces := make([]string, 0, len(m.Parts))
	for _, p := range m.Parts {
		if p.Type == PartImage {
			pieces = append(pieces, "[image]")
			continue
		}
		pieces = append(pieces, p.Text)
	}
	return strings.Join(pieces, " ")
}

// =============================================================================
// IMAGE SPLICE - attach a resolved image to the turn it arrived with
// =============================================================================

// SpliceImage returns a copy of messages with the resolved image attached to
// the user turn identified by messageID. The matched turn's content becomes a
// two-part sequence preserving its original text verbatim. When no turn
// matches, a synthesized user turn is appended instead, captioned
// "[<user>]: [Image] <text>". The input slice is never mutated.
func SpliceImage(messages []Message, messageID, userName, text string, img Part) []Message {
	out := make([]Message, len(messages))
	copy(out, messages)

	for i, m := range out {
		if m.Role != "user" || m.ID == "" || m.ID != messageID {
			continue
		}
		orig := m.Text
		if m.IsMultipart() {
			orig = flattenToText(m)
		}
		parts := []Part{}
		if orig != "" {
			parts = append(parts, TextPart(orig))
		}
		parts = append(parts, img)
		out[i] = Message{ID: m.ID, Role: m.Role, Parts: parts}
		return out
	}

	caption := strings.TrimRight(fmt.Sprintf("[%s]: [Image] %s", userName, text), " ")
	return append(out, Message{
		ID:    messageID,
		Role:  "user",
		Parts: []Part{TextPart(caption), img},
	})
}
