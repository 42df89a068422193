package catalog

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// PlainText turns a catalog subject (HTML-escaped, occasionally with inline
// markup) into display text for logs and notifications.
func PlainText(sub string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(sub)))
}
