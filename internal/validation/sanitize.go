package validation

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// commentPolicy keeps simple inline formatting and strips everything else,
// including attributes.
var commentPolicy = bluemonday.NewPolicy().AllowElements("b", "i", "em", "strong", "code", "br")

// SanitizeComment removes disallowed markup from user supplied comment text.
func SanitizeComment(content string) string {
	return strings.TrimSpace(commentPolicy.Sanitize(content))
}

// StripTags removes all markup.
func StripTags(content string) string {
	return strings.TrimSpace(bluemonday.StrictPolicy().Sanitize(content))
}
