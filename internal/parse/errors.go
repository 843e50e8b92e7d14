package parse

import (
	"errors"
	"fmt"
)

var errNotObject = errors.New("line is not a JSON object")

// ParseError is returned when a transcript file cannot be opened or read.
// Op is "open" or "read".
type ParseError struct {
	Path     string
	Platform Platform
	Op       string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s %s session %s: %v", e.Op, e.Platform, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
