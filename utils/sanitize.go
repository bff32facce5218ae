package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// SanitizePlain strips all markup and returns plain text.
// The result is unescaped; templates escape it on output.
func SanitizePlain(input string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(input)))
}
