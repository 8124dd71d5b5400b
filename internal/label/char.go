package label

// Char is one unit of a labeled sequence: the displayed character (a single
// rune, or the whitespace sentinel for separators) with its gold and
// predicted labels.
type Char struct {
	Text      string
	Gold      Label
	Predicted Label
	Index     int
}

// NewChar returns a Char whose gold and predicted labels are both l.
func NewChar(text string, l Label, index int) Char {
	return Char{Text: text, Gold: l, Predicted: l, Index: index}
}

// WithLabel returns a copy of c with both labels set to l.
func (c Char) WithLabel(l Label) Char {
	c.Gold = l
	c.Predicted = l
	return c
}

// IsSeparator reports whether c is displayed as the unit separator.
func (c Char) IsSeparator(sentinel string) bool {
	return c.Text == sentinel
}
