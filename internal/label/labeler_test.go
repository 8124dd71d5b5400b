package label

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/example/go-postproc/internal/align"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nm = align.NoMatch

func golds(chars []Char) []string {
	out := make([]string, len(chars))
	for i, c := range chars {
		out[i] = c.Gold.String()
	}
	return out
}

func labelWith(t *testing.T, source, target string, t2s []int) Result {
	t.Helper()

	var l Labeler
	res, err := l.Label([]rune(source), []rune(target), t2s, 0)
	require.NoError(t, err)
	return res
}

func alignAndLabel(t *testing.T, source, target string) Result {
	t.Helper()

	t2s, err := align.Align([]rune(source), []rune(target), align.DefaultScoring())
	require.NoError(t, err)
	return labelWith(t, source, target, t2s)
}

func TestLabel_Identity(t *testing.T) {
	res := alignAndLabel(t, "hello", "hello")

	assert.Equal(t, []string{"None", "None", "None", "None", "None"}, golds(res.Chars))
	assert.Empty(t, res.Spans)
}

func TestLabel_CaseOnly(t *testing.T) {
	res := alignAndLabel(t, "Abc", "abc")
	assert.Equal(t, []string{"ToUpper", "None", "None"}, golds(res.Chars))
}

func TestLabel_UpperTargetIsReplace(t *testing.T) {
	// Upper-casing cannot restore a lower-case source rune.
	res := alignAndLabel(t, "abc", "Abc")
	assert.Equal(t, []string{"Replace#a", "None", "None"}, golds(res.Chars))
}

func TestLabel_Substitution(t *testing.T) {
	res := alignAndLabel(t, "cat", "cut")
	assert.Equal(t, []string{"None", "Replace#a", "None"}, golds(res.Chars))
}

func TestLabel_TargetInsertionIsDelete(t *testing.T) {
	res := alignAndLabel(t, "don't", "do n't")
	assert.Equal(t, []string{"None", "None", "Delete", "None", "None", "None"}, golds(res.Chars))
}

func TestLabel_GapPrefersInsertAfter(t *testing.T) {
	res := alignAndLabel(t, "don't", "dont")

	assert.Equal(t, []string{"None", "None", "InsertAfter#'", "None"}, golds(res.Chars))
	assert.Empty(t, res.Spans)
}

func TestLabel_GapFallsBackToInsertBefore(t *testing.T) {
	// 'n' is ToUpper, so the apostrophe attaches to the following 't'.
	res := labelWith(t, "doN't", "dont", []int{0, 1, 2, 4})
	assert.Equal(t, []string{"None", "None", "ToUpper", "InsertBefore#'"}, golds(res.Chars))
}

func TestLabel_GapAtStart(t *testing.T) {
	res := labelWith(t, "xab", "ab", []int{1, 2})
	assert.Equal(t, []string{"InsertBefore#x", "None"}, golds(res.Chars))
}

func TestLabel_GapAtEnd(t *testing.T) {
	res := labelWith(t, "abxy", "ab", []int{0, 1})
	assert.Equal(t, []string{"None", "InsertAfter#xy"}, golds(res.Chars))
}

func TestLabel_UnmanageableSpanIsLoggedAndDropped(t *testing.T) {
	var buf bytes.Buffer
	l := Labeler{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	res, err := l.Label([]rune("axyb"), []rune("cd"), []int{0, 3}, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"Replace#a", "Replace#b"}, golds(res.Chars))
	require.Len(t, res.Spans, 1)
	assert.Equal(t, Span{Start: 1, End: 3, Text: "xy", Source: "axyb", Target: "cd"}, res.Spans[0])
	assert.Contains(t, buf.String(), "unmanageable span")
	assert.Contains(t, buf.String(), "span=xy")
}

func TestLabel_GapAtStartWithoutAnchor(t *testing.T) {
	res := labelWith(t, "xAb", "zb", []int{1, 2})

	assert.Equal(t, []string{"Replace#A", "None"}, golds(res.Chars))
	require.Len(t, res.Spans, 1)
	assert.Equal(t, "x", res.Spans[0].Text)
}

func TestLabel_AnchorConsumedByEarlierGap(t *testing.T) {
	res := labelWith(t, "-a-", "a", []int{1})

	assert.Equal(t, []string{"InsertBefore#-"}, golds(res.Chars))
	require.Len(t, res.Spans, 1)
	assert.Equal(t, 2, res.Spans[0].Start)
}

func TestLabel_SeparateGapsUseSeparateAnchors(t *testing.T) {
	res := labelWith(t, "a-b-c", "abc", []int{0, 2, 4})
	assert.Equal(t, []string{"InsertAfter#-", "InsertAfter#-", "None"}, golds(res.Chars))
}

func TestLabel_IndicesStartAtOffset(t *testing.T) {
	var l Labeler
	res, err := l.Label([]rune("ab"), []rune("ab"), []int{0, 1}, 10)
	require.NoError(t, err)

	assert.Equal(t, 10, res.Chars[0].Index)
	assert.Equal(t, 11, res.Chars[1].Index)
	assert.Equal(t, res.Chars[0].Gold, res.Chars[0].Predicted)
}

func TestLabel_RejectsBadMapping(t *testing.T) {
	var l Labeler

	_, err := l.Label([]rune("ab"), []rune("ab"), []int{0}, 0)
	require.Error(t, err)

	_, err = l.Label([]rune("ab"), []rune("ab"), []int{0, 5}, 0)
	require.Error(t, err)

	_, err = l.Label([]rune("ab"), []rune("ab"), []int{nm, -3}, 0)
	require.Error(t, err)
}

func TestReplaceAt_DoesNotMutateInput(t *testing.T) {
	in := []Char{NewChar("a", Plain(None), 0), NewChar("b", Plain(None), 1)}

	out := replaceAt(in, 1, InsertAfterWith("c"))

	assert.Equal(t, None, in[1].Gold.Op)
	assert.Equal(t, InsertAfter, out[1].Gold.Op)
	assert.Equal(t, InsertAfter, out[1].Predicted.Op)
}
