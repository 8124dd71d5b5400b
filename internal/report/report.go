// Package report writes and reads the tab-separated answer report: one row
// per labeled character with the predicted label, the gold label and the
// displayed character, documents separated by a blank line.
package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/example/go-postproc/internal/codec"
	"github.com/example/go-postproc/internal/label"
)

// Header is the first line of every report.
const Header = "Answer\tGoldAnswer\tCharacter"

// ErrMalformedRow is returned for a row without exactly three columns.
var ErrMalformedRow = errors.New("malformed report row")

// Writer emits a report. Call Flush when done.
type Writer struct {
	w       *bufio.Writer
	params  codec.Params
	started bool
}

// NewWriter returns a Writer formatting labels with p.
func NewWriter(w io.Writer, p codec.Params) *Writer {
	return &Writer{w: bufio.NewWriter(w), params: p}
}

// WriteDocument appends one document. The header is written before the
// first document, and a blank line before every later one.
func (w *Writer) WriteDocument(chars []label.Char) error {
	if !w.started {
		if _, err := w.w.WriteString(Header + "\n"); err != nil {
			return err
		}
		w.started = true
	} else if err := w.w.WriteByte('\n'); err != nil {
		return err
	}

	for _, c := range chars {
		predicted, err := w.params.FormatLabel(c.Predicted)
		if err != nil {
			return fmt.Errorf("char %d: predicted: %w", c.Index, err)
		}
		gold, err := w.params.FormatLabel(c.Gold)
		if err != nil {
			return fmt.Errorf("char %d: gold: %w", c.Index, err)
		}
		if _, err := fmt.Fprintf(w.w, "%s\t%s\t%s\n", predicted, gold, c.Text); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Reader parses a report back into labeled characters.
type Reader struct {
	scanner *bufio.Scanner
	params  codec.Params
	line    int
}

// NewReader returns a Reader parsing labels with p.
func NewReader(r io.Reader, p codec.Params) *Reader {
	return &Reader{scanner: bufio.NewScanner(r), params: p}
}

// Next returns the next document, or io.EOF after the last one. Char
// indices are positions within the document.
func (r *Reader) Next() ([]label.Char, error) {
	var chars []label.Char

	for r.scanner.Scan() {
		r.line++
		row := strings.TrimSuffix(r.scanner.Text(), "\r")

		if row == Header {
			continue
		}
		if row == "" {
			if len(chars) > 0 {
				return chars, nil
			}
			continue
		}

		cols := strings.SplitN(row, "\t", 3)
		if len(cols) != 3 {
			return nil, fmt.Errorf("line %d: %w: %q", r.line, ErrMalformedRow, row)
		}
		predicted, err := r.params.ParseLabel(cols[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: answer: %w", r.line, err)
		}
		gold, err := r.params.ParseLabel(cols[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: gold answer: %w", r.line, err)
		}

		chars = append(chars, label.Char{
			Text:      cols[2],
			Gold:      gold,
			Predicted: predicted,
			Index:     len(chars),
		})
	}

	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("line %d: read report: %w", r.line+1, err)
	}
	if len(chars) > 0 {
		return chars, nil
	}
	return nil, io.EOF
}
