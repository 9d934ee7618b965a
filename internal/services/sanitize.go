package services

import (
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// sanitizeText trims s, strips every tag and escapes what remains.
func sanitizeText(s string) string {
	return strings.TrimSpace(strictPolicy.Sanitize(strings.TrimSpace(s)))
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
