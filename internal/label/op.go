// Package label defines the closed edit-operation vocabulary used to tag each
// character of a processed string, its wire form, and the labeler that derives
// labels from a character alignment.
package label

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Op is an edit operation.
type Op int

const (
	None Op = iota
	Delete
	Replace
	ToUpper
	InsertBefore
	InsertAfter
	Whitespace
)

var (
	// ErrUnknownOp is returned when a wire label names no known operation.
	ErrUnknownOp = errors.New("unknown edit operation")
	// ErrMalformedLabel is returned when a label's payload does not match
	// its operation.
	ErrMalformedLabel = errors.New("malformed label")
	// ErrDelimiterInPayload is returned when a payload contains the wire
	// delimiter and so cannot be serialized unambiguously.
	ErrDelimiterInPayload = errors.New("payload contains label delimiter")
)

var opNames = [...]string{
	None:         "None",
	Delete:       "Delete",
	Replace:      "Replace",
	ToUpper:      "ToUpper",
	InsertBefore: "InsertBefore",
	InsertAfter:  "InsertAfter",
	Whitespace:   "Whitespace",
}

func (o Op) String() string {
	if o < 0 || int(o) >= len(opNames) {
		return "Op(" + strconv.Itoa(int(o)) + ")"
	}
	return opNames[o]
}

// HasPayload reports whether labels with this operation carry a payload.
func (o Op) HasPayload() bool {
	switch o {
	case Replace, InsertBefore, InsertAfter:
		return true
	case None, Delete, ToUpper, Whitespace:
		return false
	}
	panic("label: invalid op " + o.String())
}

// ParseOp maps an operation name to its Op.
func ParseOp(name string) (Op, error) {
	for i, n := range opNames {
		if n == name {
			return Op(i), nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownOp, "%q", name)
}

// Label is an operation together with its payload. The zero value is None.
type Label struct {
	Op      Op
	Payload string
}

// Plain returns a payload-free label. It panics if op requires a payload.
func Plain(op Op) Label {
	if op.HasPayload() {
		panic("label: " + op.String() + " requires a payload")
	}
	return Label{Op: op}
}

// ReplaceWith returns a Replace label.
func ReplaceWith(payload string) Label { return Label{Op: Replace, Payload: payload} }

// InsertBeforeWith returns an InsertBefore label.
func InsertBeforeWith(payload string) Label { return Label{Op: InsertBefore, Payload: payload} }

// InsertAfterWith returns an InsertAfter label.
func InsertAfterWith(payload string) Label { return Label{Op: InsertAfter, Payload: payload} }

// Validate checks that the payload agrees with the operation.
func (l Label) Validate() error {
	if l.Op < 0 || int(l.Op) >= len(opNames) {
		return errors.Wrapf(ErrUnknownOp, "%d", int(l.Op))
	}
	if l.Op.HasPayload() && l.Payload == "" {
		return errors.Wrapf(ErrMalformedLabel, "%s without payload", l.Op)
	}
	if !l.Op.HasPayload() && l.Payload != "" {
		return errors.Wrapf(ErrMalformedLabel, "%s with payload %q", l.Op, l.Payload)
	}
	return nil
}

// Format renders the wire form: the operation name, followed by delim and
// the payload for payload-bearing operations.
func (l Label) Format(delim rune) (string, error) {
	if err := l.Validate(); err != nil {
		return "", err
	}
	if !l.Op.HasPayload() {
		return l.Op.String(), nil
	}
	if strings.ContainsRune(l.Payload, delim) {
		return "", errors.Wrapf(ErrDelimiterInPayload, "%s payload %q", l.Op, l.Payload)
	}
	return l.Op.String() + string(delim) + l.Payload, nil
}

// String renders the label with the default '#' delimiter, for debugging.
func (l Label) String() string {
	if l.Payload == "" {
		return l.Op.String()
	}
	return l.Op.String() + "#" + l.Payload
}

// Parse reads a wire-form label produced by Format with the same delimiter.
func Parse(s string, delim rune) (Label, error) {
	name, payload, found := strings.Cut(s, string(delim))
	op, err := ParseOp(name)
	if err != nil {
		return Label{}, err
	}
	if found && strings.ContainsRune(payload, delim) {
		return Label{}, errors.Wrapf(ErrMalformedLabel, "too many fields in %q", s)
	}
	l := Label{Op: op, Payload: payload}
	if found && payload == "" {
		return Label{}, errors.Wrapf(ErrMalformedLabel, "empty payload in %q", s)
	}
	if err := l.Validate(); err != nil {
		return Label{}, err
	}
	return l, nil
}
