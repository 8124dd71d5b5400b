package codec

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/example/go-postproc/internal/align"
	"github.com/example/go-postproc/internal/alignment"
	"github.com/example/go-postproc/internal/label"
	"github.com/pkg/errors"
)

// Unit is the labeled sequence of one raw token.
type Unit struct {
	Chars []label.Char
	Spans []label.Span
}

// Document is the flat labeled sequence of a whole line: units separated by
// Whitespace chars.
type Document struct {
	Chars []label.Char
	Spans []label.Span
}

// Encoder builds labeled sequences from raw/processed pairs.
type Encoder struct {
	params  Params
	labeler *label.Labeler
	logger  *slog.Logger
}

// NewEncoder validates p and returns an Encoder. A nil logger uses
// slog.Default for unmanageable-span warnings.
func NewEncoder(p Params, logger *slog.Logger) (*Encoder, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Encoder{params: p, labeler: &label.Labeler{Logger: logger}, logger: logger}, nil
}

// Params returns the encoder's parameters.
func (e *Encoder) Params() Params { return e.params }

// EncodeToken labels the processed sub-tokens of one raw token. The
// sub-tokens are joined with the internal whitespace rune, which is aligned
// like any other character. Indices start at offset.
func (e *Encoder) EncodeToken(raw string, processed []string, offset int) (Unit, error) {
	target := strings.Join(processed, string(e.params.InternalWhitespace))
	source := []rune(raw)
	targetRunes := []rune(target)

	t2s, err := align.Align(source, targetRunes, e.params.Scoring)
	if err != nil {
		return Unit{}, errors.Wrapf(err, "align %q -> %q", raw, target)
	}

	res, err := e.labeler.Label(source, targetRunes, t2s, offset)
	if err != nil {
		return Unit{}, errors.Wrapf(err, "label %q -> %q", raw, target)
	}

	spans := res.Spans
	for t, c := range res.Chars {
		span, ok := e.lostOnInternalWhitespace(c, source, targetRunes, t2s[t])
		if !ok {
			continue
		}
		spans = append(spans, span)
		e.logger.Warn("unmanageable span",
			slog.String("span", span.Text),
			slog.String("raw", span.Source),
			slog.String("target", span.Target),
		)
	}

	return Unit{Chars: res.Chars, Spans: spans}, nil
}

// lostOnInternalWhitespace reports the source text carried by an edit on an
// internal whitespace char. The decoder always emits a plain space there, so
// a Replace or Insert payload on it cannot be restored.
func (e *Encoder) lostOnInternalWhitespace(c label.Char, source, target []rune, s int) (label.Span, bool) {
	if c.Text != string(e.params.InternalWhitespace) || s == align.NoMatch {
		return label.Span{}, false
	}

	n := utf8.RuneCountInString(c.Gold.Payload)
	var start, end int
	switch c.Gold.Op {
	case label.Replace:
		start, end = s, s+1
	case label.InsertAfter:
		start, end = s+1, s+1+n
	case label.InsertBefore:
		start, end = s-n, s
	default:
		return label.Span{}, false
	}

	return label.Span{
		Start:  start,
		End:    end,
		Text:   c.Gold.Payload,
		Source: string(source),
		Target: string(target),
	}, true
}

// EncodeAlignment labels every source token of a with the target tokens it
// is linked to, inserting a Whitespace separator between successive units.
func (e *Encoder) EncodeAlignment(a *alignment.Alignment) (Document, error) {
	if err := e.checkTargets(a); err != nil {
		return Document{}, err
	}

	var doc Document
	doc.Chars = make([]label.Char, 0, a.TargetLen()*7)

	for i, raw := range a.Source() {
		if len(doc.Chars) > 0 {
			doc.Chars = append(doc.Chars, e.separator(len(doc.Chars)))
		}
		unit, err := e.EncodeToken(raw, a.TargetsOf(i), len(doc.Chars))
		if err != nil {
			return Document{}, errors.Wrapf(err, "source token %d", i)
		}
		doc.Chars = append(doc.Chars, unit.Chars...)
		doc.Spans = append(doc.Spans, unit.Spans...)
	}

	return doc, nil
}

// checkTargets rejects target tokens linked to more than one source token,
// which would be encoded once per source. Unlinked target tokens produce no
// chars and are only logged.
func (e *Encoder) checkTargets(a *alignment.Alignment) error {
	for t, tok := range a.Target() {
		switch src := a.E2F(t); len(src) {
		case 0:
			e.logger.Warn("unlinked target token",
				slog.Int("index", t),
				slog.String("token", tok),
			)
		case 1:
		default:
			return errors.Errorf("target token %d (%q) linked to source tokens %v", t, tok, src)
		}
	}
	return nil
}

// EncodePairs is EncodeAlignment for callers that already hold one
// processed sub-token list per raw token.
func (e *Encoder) EncodePairs(raw []string, processed [][]string) (Document, error) {
	if len(raw) != len(processed) {
		return Document{}, errors.Errorf("%d raw tokens but %d processed groups", len(raw), len(processed))
	}

	var target []string
	for _, group := range processed {
		target = append(target, group...)
	}
	a := alignment.New(raw, target)
	t := 0
	for i, group := range processed {
		for range group {
			if err := a.Link(i, t); err != nil {
				return Document{}, err
			}
			t++
		}
	}

	return e.EncodeAlignment(a)
}

func (e *Encoder) separator(index int) label.Char {
	return label.NewChar(e.params.WhitespaceSentinel, label.Plain(label.Whitespace), index)
}
