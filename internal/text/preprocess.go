package text

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/example/go-postproc/internal/alignment"
	"github.com/example/go-postproc/internal/tokenizer"
)

// Preprocessing modes accepted by NewPreprocessor.
const (
	ModeRules         = "rules"
	ModeSentencePiece = "sentencepiece"
)

// Preprocessor turns one raw line into an alignment between its raw
// whitespace-separated tokens and the processed tokens derived from them.
type Preprocessor interface {
	Process(line string) (*alignment.Alignment, error)
}

// Options selects and configures a Preprocessor.
type Options struct {
	Mode      string
	ModelPath string // SentencePiece model, for ModeSentencePiece
	Lowercase bool
}

// NewPreprocessor builds the preprocessor named by opts.Mode.
func NewPreprocessor(opts Options) (Preprocessor, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Mode)) {
	case "", ModeRules:
		return &RulePreprocessor{Lowercase: opts.Lowercase}, nil
	case ModeSentencePiece:
		seg, err := tokenizer.NewSentencePieceSegmenter(opts.ModelPath, opts.Lowercase)
		if err != nil {
			return nil, err
		}
		return &SegmenterPreprocessor{Segmenter: seg}, nil
	default:
		return nil, fmt.Errorf("invalid preprocess mode %q (expected %s|%s)", opts.Mode, ModeRules, ModeSentencePiece)
	}
}

// splitFunc maps one raw token to its processed sub-tokens.
type splitFunc func(raw string) ([]string, error)

func buildAlignment(line string, split splitFunc) (*alignment.Alignment, error) {
	normalized, err := Normalize(line)
	if err != nil {
		return nil, err
	}

	raw := strings.Fields(normalized)
	groups := make([][]string, len(raw))
	var target []string
	for i, tok := range raw {
		groups[i], err = split(tok)
		if err != nil {
			return nil, fmt.Errorf("split %q: %w", tok, err)
		}
		target = append(target, groups[i]...)
	}

	a := alignment.New(raw, target)
	t := 0
	for i, g := range groups {
		for range g {
			if err := a.Link(i, t); err != nil {
				return nil, err
			}
			t++
		}
	}

	return a, nil
}

// ---------------------------------------------------------------------------
// Rule-based preprocessing
// ---------------------------------------------------------------------------

// clitics are English contraction suffixes split off a word, longest first.
var clitics = []string{"n't", "'re", "'ve", "'ll", "'s", "'d", "'m"}

// RulePreprocessor splits punctuation off word edges, separates English
// clitics, and optionally lower-cases every processed token.
type RulePreprocessor struct {
	Lowercase bool
}

// Process implements Preprocessor.
func (p *RulePreprocessor) Process(line string) (*alignment.Alignment, error) {
	return buildAlignment(line, func(raw string) ([]string, error) {
		parts := SplitToken(raw)
		if p.Lowercase {
			for i := range parts {
				parts[i] = strings.ToLower(parts[i])
			}
		}
		return parts, nil
	})
}

// SplitToken splits one raw token into sub-tokens: runs of leading and
// trailing punctuation become their own tokens and a trailing clitic is
// separated from the word. All-punctuation tokens stay whole.
func SplitToken(raw string) []string {
	if raw == "" {
		return nil
	}
	if strings.IndexFunc(raw, isWordRune) < 0 {
		return []string{raw}
	}

	var lead []string
	core := raw
	for {
		r, _ := utf8.DecodeRuneInString(core)
		if isWordRune(r) {
			break
		}
		n := runLen(core, r)
		lead = append(lead, core[:n])
		core = core[n:]
	}

	var trail []string
	for {
		r, size := utf8.DecodeLastRuneInString(core)
		if isWordRune(r) || r == '\'' {
			break
		}
		n := size
		for n < len(core) {
			prev, psize := utf8.DecodeLastRuneInString(core[:len(core)-n])
			if prev != r {
				break
			}
			n += psize
		}
		if keepAbbreviationDot(core, r, n) {
			break
		}
		trail = append([]string{core[len(core)-n:]}, trail...)
		core = core[:len(core)-n]
	}

	out := lead
	out = append(out, splitClitic(core)...)
	return append(out, trail...)
}

// keepAbbreviationDot keeps a single final '.' on tokens such as "U.S.".
func keepAbbreviationDot(core string, r rune, n int) bool {
	return r == '.' && n == 1 && strings.Contains(core[:len(core)-1], ".")
}

func splitClitic(word string) []string {
	lower := strings.ToLower(word)
	for _, c := range clitics {
		if len(lower) > len(c) && strings.HasSuffix(lower, c) {
			cut := len(word) - len(c)
			return []string{word[:cut], word[cut:]}
		}
	}
	return []string{word}
}

func runLen(s string, r rune) int {
	n := 0
	for n < len(s) {
		next, size := utf8.DecodeRuneInString(s[n:])
		if next != r {
			break
		}
		n += size
	}
	return n
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// ---------------------------------------------------------------------------
// Segmenter-based preprocessing
// ---------------------------------------------------------------------------

// SegmenterPreprocessor splits each raw token with a subword Segmenter.
type SegmenterPreprocessor struct {
	Segmenter tokenizer.Segmenter
}

// Process implements Preprocessor.
func (p *SegmenterPreprocessor) Process(line string) (*alignment.Alignment, error) {
	return buildAlignment(line, p.Segmenter.Segment)
}
