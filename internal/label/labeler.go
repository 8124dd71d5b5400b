package label

import (
	"log/slog"
	"slices"
	"unicode"

	"github.com/example/go-postproc/internal/align"
	"github.com/pkg/errors"
)

// Span is a run of source runes whose text is lost from the sequence: either
// a gap that could not be attached to a neighboring None label, or a payload
// carried by an internal whitespace char, which decodes to a plain space.
type Span struct {
	Start  int    // first source rune of the gap
	End    int    // one past the last source rune of the gap
	Text   string // source[Start:End]
	Source string
	Target string
}

// Result is the output of Labeler.Label.
type Result struct {
	Chars []Char
	Spans []Span // unmanageable spans, in source order
}

// Labeler assigns one edit operation to every target rune.
type Labeler struct {
	Logger *slog.Logger // nil means slog.Default()
}

func (l *Labeler) logger() *slog.Logger {
	if l == nil || l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

// Label derives the labeled sequence for target from its target-to-source
// mapping t2s. Char indices start at offset.
func (l *Labeler) Label(source, target []rune, t2s []int, offset int) (Result, error) {
	if len(t2s) != len(target) {
		return Result{}, errors.Errorf("alignment covers %d target runes, want %d", len(t2s), len(target))
	}

	chars := make([]Char, len(target))
	s2t := make([]int, len(source))
	for i := range s2t {
		s2t[i] = align.NoMatch
	}

	for t, tr := range target {
		s := t2s[t]
		if s == align.NoMatch {
			// No source origin: this rune was inserted during processing.
			chars[t] = NewChar(string(tr), Plain(Delete), offset+t)
			continue
		}
		if s < 0 || s >= len(source) {
			return Result{}, errors.Errorf("target rune %d aligned to source %d out of range [0,%d)", t, s, len(source))
		}
		s2t[s] = t

		sr := source[s]
		switch {
		case tr == sr:
			chars[t] = NewChar(string(tr), Plain(None), offset+t)
		case unicode.ToUpper(tr) == sr:
			chars[t] = NewChar(string(tr), Plain(ToUpper), offset+t)
		default:
			chars[t] = NewChar(string(tr), ReplaceWith(string(sr)), offset+t)
		}
	}

	var spans []Span
	for i := 0; i < len(source); i++ {
		if s2t[i] != align.NoMatch {
			continue
		}
		j := i + 1
		for j < len(source) && s2t[j] == align.NoMatch {
			j++
		}

		gap := string(source[i:j])
		p, q := align.NoMatch, align.NoMatch
		if i > 0 {
			p = s2t[i-1]
		}
		if j < len(source) {
			q = s2t[j]
		}

		switch {
		case isAnchor(chars, p):
			chars = replaceAt(chars, p, InsertAfterWith(gap))
		case isAnchor(chars, q):
			chars = replaceAt(chars, q, InsertBeforeWith(gap))
		default:
			span := Span{Start: i, End: j, Text: gap, Source: string(source), Target: string(target)}
			spans = append(spans, span)
			l.logger().Warn("unmanageable span",
				slog.String("span", gap),
				slog.String("raw", span.Source),
				slog.String("target", span.Target),
			)
		}
		i = j
	}

	return Result{Chars: chars, Spans: spans}, nil
}

func isAnchor(chars []Char, t int) bool {
	return t != align.NoMatch && chars[t].Gold.Op == None
}

// replaceAt returns a copy of chars with the label at t replaced.
func replaceAt(chars []Char, t int, l Label) []Char {
	out := slices.Clone(chars)
	out[t] = out[t].WithLabel(l)
	return out
}
