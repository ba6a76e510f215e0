package hyphen

import (
	"errors"
	"fmt"
)

// ErrPatternSyntax reports a malformed pattern in a loaded set.
// PatternError values wrap it.
var ErrPatternSyntax = errors.New("hyphen: invalid pattern")

// PatternError describes the first malformed pattern of a failed
// load. The engine keeps the previously loaded set when returning
// one.
type PatternError struct {
	Line    int
	Pattern string
	Reason  string
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("hyphen: pattern %q on line %d: %s", e.Pattern, e.Line, e.Reason)
}

func (e *PatternError) Unwrap() error { return ErrPatternSyntax }

// ExceptionError reports a malformed hyphenation exception.
type ExceptionError struct {
	Word   string
	Reason string
}

func (e *ExceptionError) Error() string {
	return fmt.Sprintf("hyphen: exception %q: %s", e.Word, e.Reason)
}
