package pricing

import "errors"

// ErrInvalidStorageClass is returned when a storage class name is not one of
// the known classes.
var ErrInvalidStorageClass = errors.New("pricing: invalid storage class")

// ErrLoadRules is returned when a recommendation rules file cannot be read.
var ErrLoadRules = errors.New("pricing: failed to load recommendation rules")
