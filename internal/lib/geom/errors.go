package geom

import "errors"

// Sentinel errors for the spatial core. Callers test with errors.Is; the
// wrapping sites add coordinates and layer context.
//
// Absent matches are deliberately not errors: the matcher and deriver
// return empty results so a missing reference geometry degrades the run
// instead of aborting it.
var (
	// ErrEmptyInput means there was no coordinate data at all to resolve
	// a projection from, not even a fallback mean.
	ErrEmptyInput = errors.New("no coordinate data in input")

	// ErrCRSMismatch means a spatial operation was attempted across
	// layers with different EPSG codes. This is never auto-corrected;
	// silent reprojection would mask upstream configuration bugs.
	ErrCRSMismatch = errors.New("coordinate reference systems differ")

	// ErrInvalidJoinMode means the join mode is neither nearest nor within.
	ErrInvalidJoinMode = errors.New("invalid join mode")

	// ErrGeometryOperation means an intersection, union or difference was
	// handed malformed geometry.
	ErrGeometryOperation = errors.New("geometry operation failed")

	// ErrNonFiniteCoordinate means a NaN or infinite lon/lat reached the
	// CRS resolver.
	ErrNonFiniteCoordinate = errors.New("coordinate is not finite")
)
