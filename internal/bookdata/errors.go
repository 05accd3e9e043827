package bookdata

import "errors"

var (
	// ErrInvalidISBN is returned when an ISBN fails checksum validation.
	ErrInvalidISBN = errors.New("invalid ISBN")

	// ErrBookNotFound is returned when no configured source has a record.
	ErrBookNotFound = errors.New("book not found")
)
