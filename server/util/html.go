package util

import (
	"strings"

	"golang.org/x/net/html"
)

// HtmlToText extracts readable text from an HTML fragment, capped at maxWords
// words. Script and style bodies are skipped. Used for mirror commit subjects
// and log lines, so lossy extraction is fine.
func HtmlToText(fragment string, maxWords int) string {
	tokenizer := html.NewTokenizer(strings.NewReader(fragment))

	var words []string
	skipDepth := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.Join(words, " ")
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if isSkippedTag(string(name)) {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if isSkippedTag(string(name)) && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth > 0 {
				continue
			}

			for _, word := range strings.Fields(string(tokenizer.Text())) {
				words = append(words, word)
				if maxWords > 0 && len(words) >= maxWords {
					return strings.Join(words, " ")
				}
			}
		}
	}
}

func isSkippedTag(name string) bool {
	return name == "script" || name == "style"
}
