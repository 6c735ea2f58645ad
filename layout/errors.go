package layout

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedRegion    = errors.New("malformed region")
	ErrInvalidSize        = errors.New("invalid region size")
	ErrDuplicateRegion    = errors.New("duplicate region")
	ErrLayoutOverflow     = errors.New("layout does not fit rom")
	ErrMultipleWildcards  = errors.New("multiple wildcard regions")
	ErrUnknownTarget      = errors.New("unknown target")
	ErrNoROMRegion        = errors.New("target has no rom region")
	ErrMissingEntryRegion = errors.New("missing entry region")
	ErrUnsupportedProfile = errors.New("toolchain not supported by profile")
)

// LayoutError ties an error kind to the input that caused it.
// Line is 1-based and zero when the error is not tied to a line.
type LayoutError struct {
	Kind error
	Line int
	Msg  string
}

func (e *LayoutError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Kind.Error()
	if e.Line > 0 {
		msg = fmt.Sprintf("%s: line %d", msg, e.Line)
	}
	if e.Msg != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Msg)
	}
	return msg
}

func (e *LayoutError) Unwrap() error { return e.Kind }

func lineErrorf(kind error, line int, format string, args ...any) error {
	return &LayoutError{Kind: kind, Line: line, Msg: fmt.Sprintf(format, args...)}
}

func errorf(kind error, format string, args ...any) error {
	return &LayoutError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
