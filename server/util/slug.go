package util

import (
	"strings"
	"time"
	"unicode"
)

// AssignSlug picks the storage slug for a new post. A caller-supplied slug is
// trusted verbatim. Otherwise the slug is derived from the title, truncated to
// 32 characters, and prefixed with the publish date so posts sort naturally on
// disk and in mirrors. Without a title the publish timestamp is the slug.
func AssignSlug(supplied *string, title *string, now time.Time) string {
	if supplied != nil && *supplied != "" {
		return *supplied
	}

	if title != nil {
		if titleSlug := slugFromTitle(*title); titleSlug != "" {
			return now.Format("2006/01/02") + "/" + titleSlug
		}
	}

	return now.Format("2006/01/02/150405")
}

func slugFromTitle(title string) string {
	var kept []rune
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			kept = append(kept, r)
		}
	}

	// Truncation happens before hyphenation, so the 32-character budget is
	// spent on title characters rather than separators.
	if len(kept) > 32 {
		kept = kept[:32]
	}

	return strings.Join(strings.Fields(string(kept)), "-")
}
