package budget

import "errors"

var (
	// ErrEmptyLimit indicates the configured limit string is empty.
	ErrEmptyLimit = errors.New("budget: limit is empty")

	// ErrInvalidLimit indicates the configured limit string cannot be parsed.
	ErrInvalidLimit = errors.New("budget: limit is invalid")
)
