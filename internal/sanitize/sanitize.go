// Package sanitize provides the HTML-sanitization helpers used when storing
// user-supplied text such as profile names and setting values.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strict = bluemonday.StrictPolicy()
	ugc    = bluemonday.UGCPolicy()
)

// StripTags removes all HTML markup from s, leaving text content.
func StripTags(s string) string {
	return html.UnescapeString(strict.Sanitize(s))
}

// Text strips all markup and collapses runs of whitespace, suitable for
// single-line fields like names and setting values.
func Text(s string) string {
	return strings.Join(strings.Fields(StripTags(s)), " ")
}

// RichText keeps the HTML subset safe for user-generated content while
// removing scripts, event handlers and other active markup.
func RichText(s string) string {
	return ugc.Sanitize(s)
}
