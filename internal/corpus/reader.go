// Package corpus reads a line-based text corpus and encodes every line into a
// labeled document.
package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/example/go-postproc/internal/codec"
	"github.com/example/go-postproc/internal/text"
)

// DefaultMaxLineBytes bounds a single corpus line.
const DefaultMaxLineBytes = 1 << 20

// Options tunes a Reader.
type Options struct {
	// MaxLineBytes is the longest accepted line; 0 uses DefaultMaxLineBytes.
	MaxLineBytes int
	// MaxDocumentChars splits longer lines at sentence boundaries; 0 disables.
	MaxDocumentChars int
}

// Reader yields one Document per non-blank line (or per sentence group when
// MaxDocumentChars is set).
type Reader struct {
	scanner *bufio.Scanner
	pre     text.Preprocessor
	enc     *codec.Encoder
	maxDoc  int

	line    int
	pending []string
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader, pre text.Preprocessor, enc *codec.Encoder, opts Options) *Reader {
	maxLine := opts.MaxLineBytes
	if maxLine <= 0 {
		maxLine = DefaultMaxLineBytes
	}

	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, min(maxLine, 64*1024)), maxLine)

	return &Reader{scanner: s, pre: pre, enc: enc, maxDoc: opts.MaxDocumentChars}
}

// Line reports the 1-based number of the line the last document came from.
func (r *Reader) Line() int { return r.line }

// Next returns the next document, or io.EOF when the input is exhausted.
func (r *Reader) Next() (codec.Document, error) {
	for {
		if len(r.pending) == 0 {
			if !r.scanner.Scan() {
				if err := r.scanner.Err(); err != nil {
					return codec.Document{}, fmt.Errorf("line %d: read corpus: %w", r.line+1, err)
				}
				return codec.Document{}, io.EOF
			}
			r.line++
			r.pending = text.SplitDocuments(r.scanner.Text(), r.maxDoc)
		}

		chunk := r.pending[0]
		r.pending = r.pending[1:]

		a, err := r.pre.Process(chunk)
		if errors.Is(err, text.ErrEmptyText) {
			continue
		}
		if err != nil {
			return codec.Document{}, fmt.Errorf("line %d: preprocess: %w", r.line, err)
		}

		doc, err := r.enc.EncodeAlignment(a)
		if err != nil {
			return codec.Document{}, fmt.Errorf("line %d: encode: %w", r.line, err)
		}

		return doc, nil
	}
}
