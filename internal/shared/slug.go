package shared

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	notSlugChar   = regexp.MustCompile(`[^a-z0-9-]`)
)

// Slug derives an id from a display name: lowercase, whitespace runs become
// hyphens, anything outside [a-z0-9-] is dropped.
func Slug(name string) string {
	id := whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return notSlugChar.ReplaceAllString(id, "")
}
