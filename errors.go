package pe

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrInvalidPESize = errors.New("not a PE file, smaller than tiny PE")
	ErrTruncated     = errors.New("unexpected end of image")
)

var (
	ErrInvalidDOSStub           = errors.New("invalid MS-DOS stub")
	ErrInvalidPESignature       = errors.New("not a valid PE signature")
	ErrUnknownMachine           = errors.New("unknown machine type")
	ErrUnknownMagic             = errors.New("optional header has unexpected magic")
	ErrOptionalHeaderSize       = errors.New("inconsistent optional header size")
	ErrRVANotMapped             = errors.New("RVA is not mapped by any section")
	ErrInvalidCLIHeader         = errors.New("invalid CLI header")
	ErrInvalidMetadataSignature = errors.New("invalid metadata root signature")
	ErrMissingCLIHeader         = errors.New("image has no CLI header")
)

// FormatError reports a structurally malformed image. Parsing stops at the
// first FormatError since later offsets are meaningless.
type FormatError struct {
	Field  string
	Offset int
	Detail string
	Err    error
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("%s at offset 0x%x: %v", e.Field, e.Offset, e.Err)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *FormatError) Unwrap() error { return e.Err }

func formatErrorf(field string, offset int, sentinel error, format string, args ...any) *FormatError {
	return &FormatError{
		Field:  field,
		Offset: offset,
		Detail: fmt.Sprintf(format, args...),
		Err:    sentinel,
	}
}

// IOError wraps failures to read the image from disk, so callers can tell them
// apart from a file that was read but is not a valid image.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ValidationError is a single failed semantic check. ValidateImage returns a
// multierr list of these.
type ValidationError struct {
	Check   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationErrorf(check, format string, args ...any) error {
	return &ValidationError{Check: check, Message: fmt.Sprintf(format, args...)}
}
