package spatial

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"trackref/internal/lib/geom"
)

// ComputeRing builds the course boundary: the union of the outer
// geometries minus the union of the inner ones. orb carries no polygon
// overlay ops, so the difference is structural — every properly nested
// inner ring becomes a hole of the outer polygon that contains it. Inner
// geometry not nested in any outer subtracts nothing and is ignored.
//
// Empty outer input yields an explicit empty ring, not an error; only
// degenerate boundary geometry (under three distinct vertices) is
// ErrGeometryOperation.
func ComputeRing(outer, inner []orb.Geometry) (orb.MultiPolygon, error) {
	ring := orb.MultiPolygon{}
	if len(outer) == 0 {
		return ring, nil
	}

	for _, g := range outer {
		rings, err := closedRings(g)
		if err != nil {
			return nil, fmt.Errorf("outer boundary: %w", err)
		}
		for _, r := range rings {
			if r.Orientation() != orb.CCW {
				r.Reverse()
			}
			ring = append(ring, orb.Polygon{r})
		}
	}

	for _, g := range inner {
		rings, err := closedRings(g)
		if err != nil {
			return nil, fmt.Errorf("inner boundary: %w", err)
		}
		for _, r := range rings {
			attachHole(ring, r)
		}
	}
	return ring, nil
}

// attachHole adds r as a hole of the first polygon containing it.
func attachHole(mp orb.MultiPolygon, r orb.Ring) {
	for i, poly := range mp {
		if planar.PolygonContains(poly, r[0]) {
			if r.Orientation() != orb.CW {
				r.Reverse()
			}
			mp[i] = append(poly, r)
			return
		}
	}
}

// closedRings converts boundary geometry (digitized as lines or polygons)
// into closed rings.
func closedRings(g orb.Geometry) ([]orb.Ring, error) {
	var lines []orb.LineString
	switch v := g.(type) {
	case orb.Ring:
		lines = []orb.LineString{orb.LineString(v)}
	case orb.LineString:
		lines = []orb.LineString{v}
	case orb.MultiLineString:
		lines = v
	case orb.Polygon:
		out := make([]orb.Ring, 0, len(v))
		for _, r := range v {
			out = append(out, r.Clone())
		}
		return out, nil
	case orb.MultiPolygon:
		var out []orb.Ring
		for _, p := range v {
			for _, r := range p {
				out = append(out, r.Clone())
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%T cannot form a boundary ring: %w", g, geom.ErrGeometryOperation)
	}

	out := make([]orb.Ring, 0, len(lines))
	for _, ls := range lines {
		r := orb.Ring(ls.Clone())
		if len(r) > 0 && !r.Closed() {
			r = append(r, r[0])
		}
		if len(r) < 4 { // triangle plus closing vertex is the minimum
			return nil, fmt.Errorf("boundary with %d vertices: %w", len(ls), geom.ErrGeometryOperation)
		}
		out = append(out, r)
	}
	return out, nil
}

// RingStat is the per-source containment summary.
type RingStat struct {
	Inside     int     `json:"inside"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// InsideRatio groups points by source identifier and reports how many of
// each group fall inside the ring. An empty group reports 0.0 percent,
// never a division error. The point layer must share the ring's EPSG.
func InsideRatio(points geom.PointLayer, ring orb.MultiPolygon, ringEPSG int) (map[string]RingStat, error) {
	if points.EPSG != ringEPSG {
		return nil, fmt.Errorf("points EPSG %d vs ring EPSG %d: %w",
			points.EPSG, ringEPSG, geom.ErrCRSMismatch)
	}

	stats := make(map[string]RingStat)
	for _, pt := range points.Points {
		s := stats[pt.Source]
		s.Total++
		if len(ring) > 0 && planar.MultiPolygonContains(ring, pt.Coord) {
			s.Inside++
		}
		stats[pt.Source] = s
	}
	for src, s := range stats {
		if s.Total > 0 {
			s.Percentage = 100 * float64(s.Inside) / float64(s.Total)
		}
		stats[src] = s
	}
	return stats, nil
}
