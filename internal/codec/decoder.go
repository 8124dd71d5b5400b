package codec

import (
	"strings"

	"github.com/example/go-postproc/internal/label"
	"github.com/pkg/errors"
)

// Which selects the label field a Decoder reads.
type Which int

const (
	Gold Which = iota
	Predicted
)

// Token is one reconstructed output token. Original is the displayed text of
// the unit it came from; tokens split from the same unit share it. Unit
// counts the separators preceding the token.
type Token struct {
	Text     string `json:"text"`
	Original string `json:"original"`
	Unit     int    `json:"unit"`
}

// Decoder reconstructs tokens from labeled sequences.
type Decoder struct {
	params Params
}

// NewDecoder validates p and returns a Decoder.
func NewDecoder(p Params) (*Decoder, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Decoder{params: p}, nil
}

// Decode applies the selected labels of chars in order. Every separator,
// every char labeled Whitespace, and the end of the sequence flush the current
// unit. A Whitespace-labeled char keeps its text in the flushed Original only.
func (d *Decoder) Decode(chars []label.Char, which Which) ([]Token, error) {
	var (
		tokens   []Token
		original strings.Builder
		current  strings.Builder
		unit     int
	)

	flush := func() {
		orig := original.String()
		for _, w := range strings.Fields(current.String()) {
			tokens = append(tokens, Token{Text: w, Original: orig, Unit: unit})
		}
		original.Reset()
		current.Reset()
	}

	internal := string(d.params.InternalWhitespace)
	for i, c := range chars {
		if c.IsSeparator(d.params.WhitespaceSentinel) {
			flush()
			unit++
			continue
		}
		if c.Text == internal {
			original.WriteByte(' ')
			current.WriteByte(' ')
			continue
		}

		l := c.Gold
		if which == Predicted {
			l = c.Predicted
		}
		if err := l.Validate(); err != nil {
			return nil, errors.Wrapf(err, "char %d (%q)", i, c.Text)
		}

		original.WriteString(c.Text)
		switch l.Op {
		case label.None:
			current.WriteString(c.Text)
		case label.ToUpper:
			current.WriteString(strings.ToUpper(c.Text))
		case label.Replace:
			current.WriteString(l.Payload)
		case label.InsertAfter:
			current.WriteString(c.Text)
			current.WriteString(l.Payload)
		case label.InsertBefore:
			current.WriteString(l.Payload)
			current.WriteString(c.Text)
		case label.Delete:
		case label.Whitespace:
			flush()
			unit++
		}
	}
	flush()

	return tokens, nil
}

// DecodeLabels decodes parallel columns of displayed text and wire-form
// labels, as found in an answer report.
func (d *Decoder) DecodeLabels(text, labels []string) ([]Token, error) {
	if len(text) != len(labels) {
		return nil, errors.Errorf("%d characters but %d labels", len(text), len(labels))
	}

	chars := make([]label.Char, len(text))
	for i := range text {
		var l label.Label
		if text[i] == d.params.WhitespaceSentinel {
			l = label.Plain(label.Whitespace)
		} else {
			var err error
			l, err = d.params.ParseLabel(labels[i])
			if err != nil {
				return nil, errors.Wrapf(err, "label %d", i)
			}
		}
		chars[i] = label.NewChar(text[i], l, i)
	}

	return d.Decode(chars, Gold)
}

// Detokenize rebuilds the surface text of decoded tokens: tokens of one unit
// are concatenated and units are joined by a single space.
func Detokenize(tokens []Token) string {
	var b strings.Builder
	for i, tok := range tokens {
		if i > 0 && tok.Unit != tokens[i-1].Unit {
			b.WriteByte(' ')
		}
		b.WriteString(tok.Text)
	}
	return b.String()
}
