package validator

import (
	"regexp"
	"strings"
)

var (
	scriptBlockRe  = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	scriptTagRe    = regexp.MustCompile(`(?i)</?script\b[^>]*>`)
	eventHandlerRe = regexp.MustCompile(`(?i)\bon[a-z]+\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)
	badSchemeRe    = regexp.MustCompile(`(?i)(javascript|vbscript)\s*:`)
)

// Sanitize strips executable markup from a string: script tags, inline event
// handler attributes, and javascript:/vbscript: URL schemes. It runs before
// any length checks so bounds apply to the cleaned value.
func Sanitize(s string) string {
	s = scriptBlockRe.ReplaceAllString(s, "")
	s = scriptTagRe.ReplaceAllString(s, "")
	s = eventHandlerRe.ReplaceAllString(s, "")
	s = badSchemeRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
