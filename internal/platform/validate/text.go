package validate

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// maxCleanPasses bounds how many layers of entity encoding are peeled off.
const maxCleanPasses = 8

var angleBrackets = strings.NewReplacer("<", "", ">", "")

// CleanText strips markup and control characters (other than newline and
// tab) from user-supplied free text and trims surrounding whitespace.
func CleanText(s string) string {
	if s == "" {
		return s
	}
	cleaned := stripMarkup(s)
	cleaned = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, cleaned)
	return strings.TrimSpace(cleaned)
}

// CleanOptional applies CleanText to an optional field. An input that is
// blank after cleaning becomes nil.
func CleanOptional(s *string) *string {
	if s == nil {
		return nil
	}
	out := CleanText(*s)
	if out == "" {
		return nil
	}
	return &out
}

// stripMarkup sanitizes and decodes entities until the text is stable, so
// entity-encoded tags cannot come back to life after decoding. Input that
// is still changing after maxCleanPasses loses its angle brackets.
func stripMarkup(s string) string {
	for i := 0; i < maxCleanPasses; i++ {
		next := html.UnescapeString(strict.Sanitize(s))
		if next == s {
			return s
		}
		s = next
	}
	return angleBrackets.Replace(s)
}
