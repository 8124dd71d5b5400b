package text

import "strings"

// SplitDocuments splits a long line into documents at sentence boundaries
// (., !, ?), grouping consecutive sentences while staying within maxChars.
// If maxChars is 0, or the line already fits, the line is returned as is.
// Sentences that individually exceed maxChars are kept intact.
func SplitDocuments(line string, maxChars int) []string {
	if maxChars <= 0 || len(line) <= maxChars {
		return []string{line}
	}

	sentences := splitSentences(line)
	if len(sentences) <= 1 {
		return []string{line}
	}

	var docs []string
	var current strings.Builder

	for _, s := range sentences {
		if current.Len() > 0 && current.Len()+1+len(s) > maxChars {
			docs = append(docs, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(s)
	}
	if current.Len() > 0 {
		docs = append(docs, current.String())
	}

	return docs
}

// splitSentences splits text after sentence-ending punctuation that is
// followed by whitespace or the end of text, keeping the terminator attached.
// Empty segments are dropped.
func splitSentences(text string) []string {
	var sentences []string
	start := 0

	for i, r := range text {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		next := i + 1
		if next < len(text) && text[next] != ' ' && text[next] != '\t' && text[next] != '\n' {
			continue
		}
		if s := strings.TrimSpace(text[start:next]); s != "" {
			sentences = append(sentences, s)
		}
		start = next
	}

	if start < len(text) {
		if s := strings.TrimSpace(text[start:]); s != "" {
			sentences = append(sentences, s)
		}
	}

	return sentences
}
