package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	contentPolicy = bluemonday.UGCPolicy()
	textPolicy    = bluemonday.StrictPolicy()
)

// SanitizeContent cleans user generated HTML in posts and comments.
func SanitizeContent(input string) string {
	return strings.TrimSpace(contentPolicy.Sanitize(input))
}

// SanitizeText strips every tag from short profile fields.
func SanitizeText(input string) string {
	return strings.TrimSpace(textPolicy.Sanitize(input))
}
