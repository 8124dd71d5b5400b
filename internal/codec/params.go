// Package codec turns raw/processed token pairs into flat labeled character
// sequences and reconstructs tokens from such sequences.
//
// Encoding aligns each raw token against its processed sub-tokens joined by
// the internal whitespace rune, labels every processed character with an edit
// operation, and separates successive tokens with a Whitespace unit displayed
// as the whitespace sentinel. Decoding replays the operations in order.
//
// Encoder and Decoder share nothing but Params.
package codec

import (
	"strings"
	"unicode/utf8"

	"github.com/example/go-postproc/internal/align"
	"github.com/example/go-postproc/internal/label"
	"github.com/pkg/errors"
)

// ErrInvalidParams is returned by Params.Validate.
var ErrInvalidParams = errors.New("invalid codec parameters")

// regexpMeta lists the characters that would need escaping in a pattern.
const regexpMeta = `\.+*?()|[]{}^$`

// Params configures both directions of the codec.
type Params struct {
	Scoring            align.Scoring
	Delimiter          rune   // separates operation name and payload on the wire
	WhitespaceSentinel string // displayed text of a separator unit
	InternalWhitespace rune   // joins processed sub-tokens inside one unit
}

// DefaultParams returns the standard parameterization.
func DefaultParams() Params {
	return Params{
		Scoring:            align.DefaultScoring(),
		Delimiter:          '#',
		WhitespaceSentinel: "<ws>",
		InternalWhitespace: ' ',
	}
}

// Validate checks the invariants the wire form depends on.
func (p Params) Validate() error {
	if err := p.Scoring.Validate(); err != nil {
		return errors.Wrap(ErrInvalidParams, err.Error())
	}
	if p.Delimiter == 0 || p.Delimiter == utf8.RuneError {
		return errors.Wrap(ErrInvalidParams, "delimiter is not set")
	}
	if strings.ContainsRune(regexpMeta, p.Delimiter) {
		return errors.Wrapf(ErrInvalidParams, "delimiter %q is a pattern metacharacter", p.Delimiter)
	}
	if p.WhitespaceSentinel == "" {
		return errors.Wrap(ErrInvalidParams, "whitespace sentinel is empty")
	}
	if strings.ContainsRune(p.WhitespaceSentinel, p.Delimiter) {
		return errors.Wrapf(ErrInvalidParams, "whitespace sentinel %q contains delimiter %q", p.WhitespaceSentinel, p.Delimiter)
	}
	if p.InternalWhitespace == 0 || p.InternalWhitespace == utf8.RuneError {
		return errors.Wrap(ErrInvalidParams, "internal whitespace is not set")
	}
	if p.WhitespaceSentinel == string(p.InternalWhitespace) {
		return errors.Wrap(ErrInvalidParams, "whitespace sentinel equals internal whitespace")
	}
	return nil
}

// FormatLabel renders l in wire form with the configured delimiter.
func (p Params) FormatLabel(l label.Label) (string, error) {
	return l.Format(p.Delimiter)
}

// ParseLabel reads a wire-form label with the configured delimiter.
func (p Params) ParseLabel(s string) (label.Label, error) {
	return label.Parse(s, p.Delimiter)
}
