package ingest

import (
	"regexp"
	"strings"
)

var sentenceEnd = regexp.MustCompile(`[.!?]+(?:\s+|$)`)

// splitSentences breaks text into sentences on terminal punctuation.
// Whitespace is normalized; text without terminal punctuation comes back
// as a single sentence.
func splitSentences(text string) []string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}

	var sentences []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		s := strings.TrimSpace(text[start:loc[1]])
		if s != "" {
			sentences = append(sentences, s)
		}
		start = loc[1]
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

// chunkText packs sentences into chunks of at most chunkSize characters,
// carrying roughly overlap characters of trailing sentences into the
// next chunk for context continuity. A single sentence longer than
// chunkSize becomes its own oversized chunk rather than being split.
func chunkText(text string, chunkSize, overlap int) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	currentLen := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, strings.Join(current, " "))

		// Carry trailing sentences up to the overlap budget.
		var kept []string
		keptLen := 0
		for i := len(current) - 1; i >= 0; i-- {
			n := len(current[i])
			if keptLen+n > overlap {
				break
			}
			kept = append([]string{current[i]}, kept...)
			keptLen += n + 1
		}
		current = kept
		currentLen = keptLen
	}

	for _, sentence := range sentences {
		if currentLen > 0 && currentLen+len(sentence)+1 > chunkSize {
			flush()
			// The overlap alone may already exceed the budget for the
			// incoming sentence; drop it rather than loop forever.
			if currentLen > 0 && currentLen+len(sentence)+1 > chunkSize {
				current = nil
				currentLen = 0
			}
		}
		current = append(current, sentence)
		currentLen += len(sentence) + 1
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	// flush carry-over duplicates: the final chunk may consist solely of
	// sentences already emitted.
	if len(chunks) > 1 {
		last := chunks[len(chunks)-1]
		prev := chunks[len(chunks)-2]
		if strings.HasSuffix(prev, last) {
			chunks = chunks[:len(chunks)-1]
		}
	}
	return chunks
}
