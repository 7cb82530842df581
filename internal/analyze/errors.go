package analyze

import "errors"

var (
	// ErrMalformedInput reports input the engine cannot start on (an empty
	// source with no header line) or, in strict mode, a record missing its
	// timestamp field.
	ErrMalformedInput = errors.New("malformed input")

	// ErrNotFound reports a lookup against an empty frequency table, e.g.
	// asking for the most frequent value when nothing matched the range.
	ErrNotFound = errors.New("not found")
)
