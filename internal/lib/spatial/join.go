// Package spatial attaches projected track points to projected reference
// geometries: nearest-distance and containment joins, plus the boundary
// ring and its per-device inside/outside statistics.
//
// Every operation requires both operands in the same metric projection.
// Mismatches are hard errors, never silently reprojected, because a
// silent fix here would mask upstream configuration bugs.
package spatial

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"trackref/internal/lib/geom"
)

// DefaultLineBuffer is the corridor half-width, in meters, within which a
// point counts as contained by a line reference.
const DefaultLineBuffer = 100.0

// JoinOptions tune the containment join.
type JoinOptions struct {
	// LineBuffer is the distance in projection units (meters for UTM)
	// within which a point is considered inside a line or point
	// reference. Zero means DefaultLineBuffer.
	LineBuffer float64
}

// Join attaches every track point to at most one reference artifact.
//
// ModeNearest records the artifact minimizing planar distance and that
// distance; ties keep the first artifact in input order. ModeWithin
// records the first artifact containing the point, with a nil distance;
// points contained by nothing keep a nil artifact. Any other mode is
// ErrInvalidJoinMode.
func Join(points geom.PointLayer, refs geom.ReferenceLayer, mode geom.JoinMode, opts JoinOptions) ([]geom.JoinResult, error) {
	if points.EPSG != refs.EPSG {
		return nil, fmt.Errorf("points EPSG %d vs references EPSG %d: %w",
			points.EPSG, refs.EPSG, geom.ErrCRSMismatch)
	}

	switch mode {
	case geom.ModeNearest:
		return joinNearest(points, refs), nil
	case geom.ModeWithin:
		return joinWithin(points, refs, opts), nil
	default:
		return nil, fmt.Errorf("%q: %w", mode, geom.ErrInvalidJoinMode)
	}
}

func joinNearest(points geom.PointLayer, refs geom.ReferenceLayer) []geom.JoinResult {
	results := make([]geom.JoinResult, len(points.Points))
	for i := range points.Points {
		pt := &points.Points[i]
		res := geom.JoinResult{Point: pt}

		best := -1
		var bestDist float64
		for j := range refs.Artifacts {
			if refs.Artifacts[j].Geometry == nil {
				continue
			}
			d := nearestDistance(refs.Artifacts[j].Geometry, pt.Coord)
			if best < 0 || d < bestDist { // strict <: first artifact wins ties
				best = j
				bestDist = d
			}
		}
		if best >= 0 {
			d := bestDist
			res.Artifact = &refs.Artifacts[best]
			res.Distance = &d
		}
		results[i] = res
	}
	return results
}

func joinWithin(points geom.PointLayer, refs geom.ReferenceLayer, opts JoinOptions) []geom.JoinResult {
	buffer := opts.LineBuffer
	if buffer <= 0 {
		buffer = DefaultLineBuffer
	}

	results := make([]geom.JoinResult, len(points.Points))
	for i := range points.Points {
		pt := &points.Points[i]
		res := geom.JoinResult{Point: pt}
		for j := range refs.Artifacts {
			if contains(refs.Artifacts[j].Geometry, pt.Coord, buffer) {
				res.Artifact = &refs.Artifacts[j]
				break // containment is boolean: first container in input order wins
			}
		}
		results[i] = res
	}
	return results
}

// nearestDistance is the true minimum distance from pt to g. A point
// inside an areal geometry is at distance zero; planar.DistanceFrom alone
// would report the boundary distance and could let a farther line beat a
// containing polygon.
func nearestDistance(g orb.Geometry, pt orb.Point) float64 {
	switch g.(type) {
	case orb.Ring, orb.Polygon, orb.MultiPolygon, orb.Bound:
		if contains(g, pt, 0) {
			return 0
		}
	}
	return planar.DistanceFrom(g, pt)
}

// contains tests point containment. Areal geometries contain in the
// strict sense; lines and points act as buffered corridors of the given
// half-width, since an infinitely thin line contains nothing.
func contains(g orb.Geometry, pt orb.Point, buffer float64) bool {
	switch v := g.(type) {
	case nil:
		return false
	case orb.Ring:
		return planar.RingContains(v, pt)
	case orb.Polygon:
		return planar.PolygonContains(v, pt)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(v, pt)
	case orb.Bound:
		return v.Contains(pt)
	default:
		return planar.DistanceFrom(g, pt) <= buffer
	}
}
