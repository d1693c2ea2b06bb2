package contact

import (
	"html"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// Length caps in runes. The web form rejects longer input with a
// validation error, so truncation here only bounds other callers.
const (
	MaxNameLength    = 200
	MaxMessageLength = 5000
)

var (
	strictOnce sync.Once
	strict     *bluemonday.Policy
)

func strictPolicy() *bluemonday.Policy {
	strictOnce.Do(func() {
		strict = bluemonday.StrictPolicy()
	})
	return strict
}

// SanitizeText strips markup from free text, keeps line breaks and caps the length.
func SanitizeText(v string) string {
	v = strings.ReplaceAll(v, "\r\n", "\n")
	v = html.UnescapeString(strictPolicy().Sanitize(v))
	return truncate(strings.TrimSpace(v), MaxMessageLength)
}

// SanitizeLine strips markup and collapses whitespace into a single line.
func SanitizeLine(v string) string {
	v = html.UnescapeString(strictPolicy().Sanitize(v))
	return truncate(strings.Join(strings.Fields(v), " "), MaxNameLength)
}

func truncate(v string, limit int) string {
	if utf8.RuneCountInString(v) <= limit {
		return v
	}
	return string([]rune(v)[:limit])
}
