package version

import "errors"

// Sentinel errors for version operations.
var (
	// ErrFileNotFound is returned when no file exists for a tenant and file ID.
	ErrFileNotFound = errors.New("version: file not found")

	// ErrFileExists is returned when inserting a file whose ID or identity is taken.
	ErrFileExists = errors.New("version: file already exists")

	// ErrVersionNotFound is returned when a version ID is not part of the file.
	ErrVersionNotFound = errors.New("version: version not found")

	// ErrCannotDeleteOnlyVersion is returned when deleting the last remaining version.
	ErrCannotDeleteOnlyVersion = errors.New("version: cannot delete the only version")

	// ErrCannotDeleteActiveVersion is returned when deleting the active version.
	// Restore another version first.
	ErrCannotDeleteActiveVersion = errors.New("version: cannot delete the active version")

	// ErrConcurrentModification is returned when a store could not apply a
	// mutation without losing a concurrent update, even after retrying.
	ErrConcurrentModification = errors.New("version: concurrent modification conflict")

	// ErrInvariantViolation is returned when a mutation would leave the file
	// aggregate in an inconsistent state. Nothing is persisted.
	ErrInvariantViolation = errors.New("version: invariant violation")
)
