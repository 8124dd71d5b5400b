// Package tokenizer provides subword segmentation used to build processed
// targets for raw tokens. The primary implementation uses a SentencePiece
// unigram model.
package tokenizer

// Segmenter splits one raw token into processed sub-tokens.
type Segmenter interface {
	// Segment returns the pieces of word, without word-boundary markers.
	Segment(word string) ([]string, error)
}
