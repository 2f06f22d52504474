package domain

import "errors"

var (
	// ErrInvalidCoordinate marks a latitude/longitude outside WGS84 ranges.
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrInvalidSpeed marks a non-positive or non-finite mode speed.
	ErrInvalidSpeed = errors.New("invalid speed")

	// ErrRouteUnavailable is returned when the sea-routing provider cannot resolve a path.
	ErrRouteUnavailable = errors.New("sea route unavailable")

	ErrUnknownEntryPort = errors.New("unknown entry port")
)
