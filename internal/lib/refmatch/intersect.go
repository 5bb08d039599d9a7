package refmatch

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"trackref/internal/lib/geom"
)

// LineCrossing computes the intersection point of two line geometries.
// Segments of a are walked in order against segments of b; the first
// intersection encountered is returned, which makes the result
// deterministic when the lines touch more than once. Collinear overlaps
// yield the overlap's entry point along a.
//
// found is false when the lines do not touch. An error is returned only
// for malformed input: non-line geometry or lines with fewer than two
// distinct vertices.
func LineCrossing(a, b orb.Geometry) (orb.Point, bool, error) {
	segsA, err := segments(a)
	if err != nil {
		return orb.Point{}, false, fmt.Errorf("first operand: %w", err)
	}
	segsB, err := segments(b)
	if err != nil {
		return orb.Point{}, false, fmt.Errorf("second operand: %w", err)
	}

	for _, sa := range segsA {
		for _, sb := range segsB {
			if p, ok := segmentIntersection(sa, sb); ok {
				return p, true, nil
			}
		}
	}
	return orb.Point{}, false, nil
}

type segment struct {
	a, b orb.Point
}

func segments(g orb.Geometry) ([]segment, error) {
	var lines []orb.LineString
	switch v := g.(type) {
	case orb.LineString:
		lines = []orb.LineString{v}
	case orb.MultiLineString:
		lines = v
	case orb.Ring:
		lines = []orb.LineString{orb.LineString(v)}
	default:
		return nil, fmt.Errorf("%T is not a line geometry: %w", g, geom.ErrGeometryOperation)
	}

	var segs []segment
	for _, ls := range lines {
		for i := 0; i+1 < len(ls); i++ {
			if ls[i] == ls[i+1] {
				continue // zero-length, contributes nothing
			}
			segs = append(segs, segment{ls[i], ls[i+1]})
		}
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("line has no extent: %w", geom.ErrGeometryOperation)
	}
	return segs, nil
}

// segmentIntersection solves the parametric form p = a1 + t*(a2-a1),
// q = b1 + u*(b2-b1) for t,u in [0,1].
func segmentIntersection(s, o segment) (orb.Point, bool) {
	rX := s.b[0] - s.a[0]
	rY := s.b[1] - s.a[1]
	qX := o.b[0] - o.a[0]
	qY := o.b[1] - o.a[1]

	denom := rX*qY - rY*qX
	dX := o.a[0] - s.a[0]
	dY := o.a[1] - s.a[1]

	const eps = 1e-12

	if math.Abs(denom) < eps {
		// Parallel. Collinear overlap resolves to the entry point on s.
		if math.Abs(dX*rY-dY*rX) >= eps {
			return orb.Point{}, false
		}
		rr := rX*rX + rY*rY
		t0 := (dX*rX + dY*rY) / rr
		t1 := t0 + (qX*rX+qY*rY)/rr
		if t1 < t0 {
			t0, t1 = t1, t0
		}
		if t1 < 0 || t0 > 1 {
			return orb.Point{}, false
		}
		t := math.Max(t0, 0)
		return orb.Point{s.a[0] + t*rX, s.a[1] + t*rY}, true
	}

	t := (dX*qY - dY*qX) / denom
	u := (dX*rY - dY*rX) / denom
	if t < -eps || t > 1+eps || u < -eps || u > 1+eps {
		return orb.Point{}, false
	}
	t = math.Min(math.Max(t, 0), 1)
	return orb.Point{s.a[0] + t*rX, s.a[1] + t*rY}, true
}
