package models

import "errors"

// Error kinds shared across the service. Lower layers wrap them with
// fmt.Errorf("%w: ...") and the HTTP layer maps them to status codes with
// errors.Is, so no raw storage or provider error ever reaches a client.
var (
	// ErrNotFound marks an absent resource: an unknown account, or a
	// (account, category) pair with no configured limit. Maps to 404.
	ErrNotFound = errors.New("not found")

	// ErrInvalid marks malformed or out-of-range input: non-positive sums,
	// future transaction times, unknown enum values. Maps to 400.
	ErrInvalid = errors.New("invalid input")

	// ErrUpdateNotAllowed marks a limit redefinition inside the cooldown
	// window. The same request can succeed once the cooldown elapses, which
	// is why it is kept apart from ErrInvalid. Maps to 403.
	ErrUpdateNotAllowed = errors.New("update not allowed")

	// ErrDataIntegrity marks a violated internal invariant, such as a limit
	// without a remainder or without a resolvable owning account. Fatal for
	// the current operation and logged loudly. Maps to 500.
	ErrDataIntegrity = errors.New("data integrity violation")

	// ErrUnavailable marks a failed or impossible upstream interaction:
	// a missing exchange rate or an unreachable rate provider. Maps to 502.
	ErrUnavailable = errors.New("upstream unavailable")
)
