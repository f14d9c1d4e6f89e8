// Package postprocess cleans generated text before storage and delivery.
//
// Transforms run in a fixed order: optional HTML strip, citation strip, then
// the length ceiling. Each transform is a pure function over a string and
// idempotent, so re-running the pipeline on already-clean text is a no-op.
package postprocess

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// MaxReplyChars is the output length ceiling, in runes. Matches the largest
// single message the downstream chat platform accepts.
const MaxReplyChars = 4096

// truncationIndicator marks a cut reply.
const truncationIndicator = "…"

// boundaryWindow bounds how far back Truncate walks looking for a word
// boundary before giving up and cutting mid-word.
const boundaryWindow = 80

// citationPattern matches the inline source annotations some providers embed
// in generated text: cornered-bracket references like 【3†source】 and
// [citation:N] markers. Pattern-based removal, not a parser; text without
// citations passes through untouched.
var citationPattern = regexp.MustCompile(`\s?(?:【[^】]*】|\[citation:\d+\])`)

var htmlPolicy = bluemonday.StrictPolicy()

// Processor applies the configured transform pipeline.
type Processor struct {
	// SanitizeHTML strips markup for chat platforms that reject it.
	SanitizeHTML bool
}

// Clean runs the full pipeline over one reply.
func (p Processor) Clean(text string) string {
	if p.SanitizeHTML {
		text = StripHTML(text)
	}
	return Truncate(StripCitations(text))
}

// StripCitations removes provider citation artifacts. No-op on text without
// them.
func StripCitations(text string) string {
	return citationPattern.ReplaceAllString(text, "")
}

// StripHTML removes all markup, keeping text content.
func StripHTML(text string) string {
	return htmlPolicy.Sanitize(text)
}

// Truncate enforces the reply length ceiling. It cuts at a word boundary
// when one is close enough, appends the truncation indicator, and leaves
// text within budget untouched. Truncate(Truncate(x)) == Truncate(x).
func Truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxReplyChars {
		return text
	}

	cut := MaxReplyChars - len([]rune(truncationIndicator))
	boundary := cut
	for boundary > cut-boundaryWindow && boundary > 0 {
		if unicode.IsSpace(runes[boundary-1]) {
			break
		}
		boundary--
	}
	if boundary <= cut-boundaryWindow || boundary == 0 {
		boundary = cut // no boundary in reach, cut mid-word
	}

	return strings.TrimRight(string(runes[:boundary]), " \t\n") + truncationIndicator
}
