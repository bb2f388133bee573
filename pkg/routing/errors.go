package routing

import "errors"

// Sentinel errors for routing configuration. Validation errors returned by
// the routing packages wrap exactly one of these, so callers can branch with
// errors.Is. "No path found" is never an error: it is reported through
// RouteResult.Failure.
var (
	// ErrInvalidRules is returned when a design rule is non-positive or the
	// rules are inconsistent (for example a via drill larger than its pad).
	ErrInvalidRules = errors.New("invalid design rules")

	// ErrInvalidNet is returned for a net with fewer than two terminals or a
	// terminal that is not reachable from any layer.
	ErrInvalidNet = errors.New("invalid net")

	// ErrOutOfRange is returned when a coordinate or layer lies outside the
	// grid's fixed bounds.
	ErrOutOfRange = errors.New("coordinate out of range")

	// ErrInvalidConfig is returned for router settings that cannot drive a
	// negotiation, such as a non-positive round limit.
	ErrInvalidConfig = errors.New("invalid router config")

	// ErrGridTooLarge is returned when the requested surface would need more
	// cells than the grid is allowed to allocate.
	ErrGridTooLarge = errors.New("grid too large")
)
