package knowledge

import "strings"

// DefaultChunkSize is the accumulation threshold used when the
// configured chunk size is zero or negative.
const DefaultChunkSize = 800

// Chunk splits text into retrieval units on sentence boundaries. Sentences
// accumulate greedily; a chunk closes as soon as its joined length reaches
// size, so every chunk except the last is at least size runes of text.
// Empty or whitespace-only input yields no chunks.
func Chunk(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []string
	var current strings.Builder
	for _, sentence := range splitSentences(text) {
		current.WriteString(sentence)
		if current.Len() >= size {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if tail := strings.TrimSpace(current.String()); tail != "" {
		chunks = append(chunks, tail)
	}
	return chunks
}

// splitSentences cuts text after runs of terminal punctuation. Trailing
// whitespace stays attached to the preceding sentence, so the pieces
// concatenate back to the original text.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0
	i := 0
	for i < len(runes) {
		if isTerminal(runes[i]) {
			for i < len(runes) && isTerminal(runes[i]) {
				i++
			}
			for i < len(runes) && (runes[i] == ' ' || runes[i] == '\t' || runes[i] == '\n' || runes[i] == '\r') {
				i++
			}
			sentences = append(sentences, string(runes[start:i]))
			start = i
			continue
		}
		i++
	}
	if start < len(runes) {
		sentences = append(sentences, string(runes[start:]))
	}
	return sentences
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
