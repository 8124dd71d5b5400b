// Package alignment holds a word-level alignment between raw source tokens and
// processed target tokens, as produced by a preprocessor.
package alignment

import (
	"fmt"
	"slices"
)

// Alignment relates source tokens to target tokens. The relation is stored
// as two adjacency lists kept in index order, so iteration is deterministic.
type Alignment struct {
	source []string
	target []string
	f2e    [][]int
	e2f    [][]int
}

// New returns an alignment over source and target with no links.
func New(source, target []string) *Alignment {
	return &Alignment{
		source: slices.Clone(source),
		target: slices.Clone(target),
		f2e:    make([][]int, len(source)),
		e2f:    make([][]int, len(target)),
	}
}

// Link records that source token s produced target token t. Adding an
// existing link is a no-op.
func (a *Alignment) Link(s, t int) error {
	if s < 0 || s >= len(a.source) {
		return fmt.Errorf("source index %d out of range [0,%d)", s, len(a.source))
	}
	if t < 0 || t >= len(a.target) {
		return fmt.Errorf("target index %d out of range [0,%d)", t, len(a.target))
	}
	a.f2e[s] = insertSorted(a.f2e[s], t)
	a.e2f[t] = insertSorted(a.e2f[t], s)
	return nil
}

func insertSorted(xs []int, v int) []int {
	i, found := slices.BinarySearch(xs, v)
	if found {
		return xs
	}
	return slices.Insert(xs, i, v)
}

// Source returns the source tokens.
func (a *Alignment) Source() []string { return a.source }

// Target returns the target tokens.
func (a *Alignment) Target() []string { return a.target }

// TargetLen is the number of target tokens.
func (a *Alignment) TargetLen() int { return len(a.target) }

// F2E returns the target indices linked to source index s, ascending.
func (a *Alignment) F2E(s int) []int { return a.f2e[s] }

// E2F returns the source indices linked to target index t, ascending.
func (a *Alignment) E2F(t int) []int { return a.e2f[t] }

// TargetsOf returns the target tokens linked to source index s, in order.
func (a *Alignment) TargetsOf(s int) []string {
	idx := a.f2e[s]
	out := make([]string, len(idx))
	for k, t := range idx {
		out[k] = a.target[t]
	}
	return out
}
