package engine

import "errors"

// Creation and lookup failures are reported as typed sentinels so the API
// layer can map them to HTTP statuses in one place. A failed creation never
// leaves a partial record behind.
var (
	// ErrNotFound: id outside the table, or a filter referencing an
	// unknown dictionary value (e.g. a country nobody has).
	ErrNotFound = errors.New("not found")

	// ErrEmptyFilter: a filter value that is present but empty.
	ErrEmptyFilter = errors.New("empty filter value")

	// ErrOutOfOrderID: creation with id != current table length. Tables
	// are dense and append-only; there is no overwrite-in-place.
	ErrOutOfOrderID = errors.New("id is not the next sequential id")

	// ErrUnknownReference: a visit referencing a user or location that
	// does not exist yet.
	ErrUnknownReference = errors.New("unknown user or location reference")

	// ErrDuplicateEmail: the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidGender: gender token other than "m" or "f".
	ErrInvalidGender = errors.New("unrecognized gender")
)
