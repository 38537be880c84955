package retention

import "errors"

var (
	// ErrUnknownTier is returned when a tier has no configured policy.
	ErrUnknownTier = errors.New("retention: unknown tier")

	// ErrInvalidPolicies is returned when a policy file fails validation.
	ErrInvalidPolicies = errors.New("retention: invalid policies")

	// ErrLoadPolicies is returned when a policy file cannot be read or parsed.
	ErrLoadPolicies = errors.New("retention: failed to load policies")
)
