package common

import "github.com/microcosm-cc/bluemonday"

// ugcPolicy is safe for concurrent use once built.
var ugcPolicy = bluemonday.UGCPolicy()

// SanitizeHTML drops scripts, event handler attributes and unsafe URLs from user
// supplied HTML while keeping ordinary formatting markup.
func SanitizeHTML(html string) string {
	return ugcPolicy.Sanitize(html)
}
