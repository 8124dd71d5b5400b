// Package align computes character alignments between a raw string and its
// processed counterpart with a Needleman-Wunsch dynamic program.
//
// The orientation is target-to-source: for every target character the aligner
// reports which source character produced it, so the labeler can describe how
// each target character relates to the raw input.
package align

import (
	"unicode"

	"github.com/pkg/errors"
)

// NoMatch marks a target position with no aligned source position.
const NoMatch = -1

// ErrCorruptGrid is returned when the traceback finds a cell whose score
// cannot be explained by any of its three predecessors.
var ErrCorruptGrid = errors.New("corrupt alignment grid")

// ErrInvalidScoring is returned by Scoring.Validate.
var ErrInvalidScoring = errors.New("invalid alignment scoring")

// Scoring holds the Needleman-Wunsch parameters.
type Scoring struct {
	Match    int // score of a case-insensitive match, > 0
	Mismatch int // score of a substitution, < 0
	Gap      int // score of one gap step on either axis, < 0
}

// DefaultScoring returns match +1, mismatch -2, gap -1.
func DefaultScoring() Scoring {
	return Scoring{Match: 1, Mismatch: -2, Gap: -1}
}

// Validate reports whether the scores can drive a meaningful alignment.
func (s Scoring) Validate() error {
	if s.Match <= 0 {
		return errors.Wrapf(ErrInvalidScoring, "match score %d must be positive", s.Match)
	}
	if s.Mismatch >= 0 {
		return errors.Wrapf(ErrInvalidScoring, "mismatch penalty %d must be negative", s.Mismatch)
	}
	if s.Gap >= 0 {
		return errors.Wrapf(ErrInvalidScoring, "gap penalty %d must be negative", s.Gap)
	}
	return nil
}

// Sim scores a pair of runes: Match when they are equal ignoring case,
// Mismatch otherwise.
func (s Scoring) Sim(a, b rune) int {
	if a == b || unicode.ToLower(a) == unicode.ToLower(b) {
		return s.Match
	}
	return s.Mismatch
}

// Grid is the score table of the forward pass, indexed [source][target].
type Grid [][]int

// Forward fills the score grid. Row 0 and column 0 hold the cumulative gap
// cost from the origin cell; the origin pair itself is settled during
// traceback.
func Forward(source, target []rune, sc Scoring) Grid {
	if len(source) == 0 || len(target) == 0 {
		return nil
	}

	grid := make(Grid, len(source))
	grid[0] = make([]int, len(target))
	for j := range grid[0] {
		grid[0][j] = sc.Gap * j
	}

	for i := 1; i < len(source); i++ {
		grid[i] = make([]int, len(target))
		grid[i][0] = sc.Gap * i
		for j := 1; j < len(target); j++ {
			match := grid[i-1][j-1] + sc.Sim(source[i], target[j])
			del := grid[i-1][j] + sc.Gap
			ins := grid[i][j-1] + sc.Gap
			grid[i][j] = max(match, del, ins)
		}
	}

	return grid
}

// Backward walks the grid from the bottom-right cell toward the origin and
// returns the target-to-source mapping. Ties prefer the diagonal, then the
// up move (source consumed), then the left move (target consumed).
func Backward(grid Grid, source, target []rune, sc Scoring) ([]int, error) {
	t2s := make([]int, len(target))
	for j := range t2s {
		t2s[j] = NoMatch
	}
	if len(grid) == 0 {
		return t2s, nil
	}

	i := len(source) - 1
	j := len(target) - 1
	for i > 0 && j > 0 {
		sim := sc.Sim(source[i], target[j])
		switch cell := grid[i][j]; {
		case cell == grid[i-1][j-1]+sim:
			t2s[j] = i
			i--
			j--
		case cell == grid[i-1][j]+sc.Gap:
			i--
		case cell == grid[i][j-1]+sc.Gap:
			j--
		default:
			return nil, errors.Wrapf(ErrCorruptGrid, "no predecessor for cell (%d,%d)", i, j)
		}
	}

	// One of the axes reached 0. The remaining cell only counts as a match
	// when its runes are similar.
	if sc.Sim(source[i], target[j]) > 0 {
		t2s[j] = i
	}

	return t2s, nil
}

// Align returns, for every target position, the index of the aligned source
// rune or NoMatch.
func Align(source, target []rune, sc Scoring) ([]int, error) {
	return Backward(Forward(source, target, sc), source, target, sc)
}
