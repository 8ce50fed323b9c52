package types

import (
	"fmt"

	"golang.org/x/xerrors"
)

// Kind classifies a pipeline failure so that callers can react to it
// without parsing error text.
type Kind int

const (
	KindUnknown Kind = iota
	KindBadPath
	KindUnreadableFormat
	KindMissingColumn
	KindOutOfRange
	KindNetwork
	KindWrite
)

var kindNames = map[Kind]string{
	KindUnknown:          "unknown",
	KindBadPath:          "bad path",
	KindUnreadableFormat: "unreadable format",
	KindMissingColumn:    "missing column",
	KindOutOfRange:       "out of range",
	KindNetwork:          "network",
	KindWrite:            "write",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is returned by every entry point of the combine, sankey, nvd and epss
// packages for failures that belong to a known Kind.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func NewError(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{
		Kind: kind,
		Msg:  fmt.Sprintf(format, args...),
		Err:  err,
	}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Msg, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the first *Error found in the chain of err.
func KindOf(err error) Kind {
	var e *Error
	if xerrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
