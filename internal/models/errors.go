package models

import "errors"

// Error kinds shared by every coordinator. Wrap them with fmt.Errorf("...: %w", ErrX)
// and test with errors.Is.
var (
	// ErrValidation indicates caller-supplied data violates a structural invariant.
	ErrValidation = errors.New("validation error")

	// ErrNotFound indicates a referenced id, code or player name does not exist.
	ErrNotFound = errors.New("not found")

	// ErrExternalFetch indicates the external card catalog failed or returned unusable data.
	ErrExternalFetch = errors.New("external fetch error")

	// ErrForbidden indicates the caller may not perform the operation, such as a non-host starting a lobby.
	ErrForbidden = errors.New("forbidden")
)
