package extract

import (
	"errors"
	"fmt"
)

// Sentinel errors for run-fatal conditions. They are always returned wrapped
// in a *FileError naming the offending file.
var (
	ErrNotAFile          = errors.New("not a readable file")
	ErrNotXML            = errors.New("file needs to have .xml extension")
	ErrMissingElement    = errors.New("required element missing")
	ErrStubWithoutSource = errors.New("package saved as stub has no xmlpath tagged value")
	ErrUnknownKind       = errors.New("unknown element kind")
)

// FileError reports a run-fatal problem with one input file.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("extract: %s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

func fileErr(path string, err error) error {
	return &FileError{Path: path, Err: err}
}

// missing wraps ErrMissingElement with the element name.
func missing(path, element string) error {
	return fileErr(path, fmt.Errorf("%w: %s", ErrMissingElement, element))
}
