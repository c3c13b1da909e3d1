package content

import "errors"

var (
	// ErrInvalidLocale indicates a language identifier that is not a
	// recognizable locale token. It is a client input error.
	ErrInvalidLocale = errors.New("invalid locale")

	// ErrMalformedDate indicates a date field whose value cannot be parsed.
	ErrMalformedDate = errors.New("malformed date")
)
