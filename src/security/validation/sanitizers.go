// src/security/validation/sanitizers.go
package validation

import "github.com/microcosm-cc/bluemonday"

var (
	// Removes every tag
	strictHTMLPolicy = bluemonday.StrictPolicy()
	// Keeps formatting markup such as tables, drops scripts and handlers
	panelHTMLPolicy = bluemonday.UGCPolicy()
)

// SanitizeText removes all HTML tags and attributes from an input string.
func SanitizeText(s string) string {
	return strictHTMLPolicy.Sanitize(s)
}

// SanitizeHTML cleans rendered panel markup.
func SanitizeHTML(s string) string {
	return panelHTMLPolicy.Sanitize(s)
}
