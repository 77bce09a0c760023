package record

import "errors"

// Domain errors for the record package.
var (
	// ErrMissingTag is returned when a record carries no class tag.
	ErrMissingTag = errors.New("record: missing class tag")

	// ErrUnknownTag is returned when no reconstruction function is
	// registered for a record's class tag.
	ErrUnknownTag = errors.New("record: unknown class tag")

	// ErrDecode is returned when a registered reconstruction function
	// rejects a record's contents.
	ErrDecode = errors.New("record: decode failed")
)
