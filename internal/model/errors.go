package model

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by snapshot construction and field evaluation.
// Callers match them with errors.Is.
var (
	// ErrDomain reports an input value outside its validity range
	// (invalid calendar date, altitude outside the snapshot bounds).
	ErrDomain = errors.New("value outside validity range")

	// ErrFormat reports a malformed or inconsistent model file.
	ErrFormat = errors.New("malformed model file")

	// ErrMissingData reports that no dataset in the file covers the
	// requested date.
	ErrMissingData = errors.New("no dataset covers the requested date")

	// ErrPath reports that the model file could not be opened.
	ErrPath = errors.New("model file not openable")
)

// SyntaxError reports the exact line of a model file that violated the
// format contract. It matches ErrFormat under errors.Is.
type SyntaxError struct {
	Path string
	Line int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid syntax [%s:%d]", e.Path, e.Line)
}

func (e *SyntaxError) Unwrap() error { return ErrFormat }
