package usecase

import (
	"strings"
	"unicode"
)

// Sentences splits text into sentence-level chunks for incremental speech
// synthesis. A sentence boundary is terminal punctuation (. ? !) followed by
// whitespace; the punctuation stays with the preceding sentence. Empty
// fragments are dropped.
func Sentences(text string) []string {
	runes := []rune(strings.TrimSpace(text))

	var sentences []string
	var current strings.Builder
	for i := 0; i < len(runes); i++ {
		current.WriteRune(runes[i])
		if !isTerminal(runes[i]) {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isTerminal(r rune) bool {
	return r == '.' || r == '?' || r == '!'
}
