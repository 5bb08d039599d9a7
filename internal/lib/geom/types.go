// Package geom holds the shared data model for the track compliance
// pipeline: parsed track points, named reference geometries, the fixed
// protocol/reference taxonomy and EPSG-tagged layers.
package geom

import (
	"fmt"
	"time"

	"github.com/paulmach/orb"
)

// ProtocolKey identifies one of the three field protocols. The taxonomy is
// closed; new protocols require a code change, not a runtime value.
type ProtocolKey int

const (
	P1 ProtocolKey = iota + 1
	P2
	P3
)

// Protocols returns all protocol keys in derivation order. P2 must be
// derived before P3 so the crossing computation can reuse the start line.
func Protocols() []ProtocolKey {
	return []ProtocolKey{P1, P2, P3}
}

func (k ProtocolKey) String() string {
	switch k {
	case P1, P2, P3:
		return fmt.Sprintf("p%d", int(k))
	default:
		return fmt.Sprintf("protocol(%d)", int(k))
	}
}

// Digit returns the protocol number as a string, used by the loose
// fallback match.
func (k ProtocolKey) Digit() string {
	return fmt.Sprintf("%d", int(k))
}

// ParseProtocolKey accepts "p1".."p3" and "1".."3".
func ParseProtocolKey(s string) (ProtocolKey, error) {
	switch s {
	case "p1", "P1", "1":
		return P1, nil
	case "p2", "P2", "2":
		return P2, nil
	case "p3", "P3", "3":
		return P3, nil
	default:
		return 0, fmt.Errorf("unknown protocol key %q", s)
	}
}

// ReferenceKind classifies a derived reference artifact.
type ReferenceKind int

const (
	KindPoint ReferenceKind = iota
	KindOuter
	KindInner
	KindStartLine
	KindTrail
	KindCrossing
	// KindLine is the generic kind assigned to unlabeled P2 lines beyond
	// the third in the positional fallback.
	KindLine
)

func (k ReferenceKind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindOuter:
		return "outer"
	case KindInner:
		return "inner"
	case KindStartLine:
		return "start_line"
	case KindTrail:
		return "trail"
	case KindCrossing:
		return "crossing"
	case KindLine:
		return "line"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// TrackPoint is a single parsed GPS reading. Coord is lon/lat for
// geographic layers and easting/northing for projected layers; the owning
// Layer's EPSG says which. Points are never mutated after parsing,
// reprojection produces new values.
//
// Track/Segment/Index locate the point in its GPX file. Waypoints carry
// Track=-1 and Segment=-1; route points carry Track=-1 and the route
// number in Segment.
type TrackPoint struct {
	Coord     orb.Point
	Elevation float64
	Time      time.Time
	Source    string
	Track     int
	Segment   int
	Index     int
}

// NamedGeometry is one feature from the reference file, read-only input
// to the matcher. Name and Description may be empty.
type NamedGeometry struct {
	Name        string
	Description string
	Geometry    orb.Geometry
}

// ReferenceArtifact is a canonical derived reference geometry. Artifacts
// are created once by the deriver and never mutated; reprojecting one
// yields a new artifact.
type ReferenceArtifact struct {
	Name     string
	Kind     ReferenceKind
	Geometry orb.Geometry
	Protocol ProtocolKey
}

// EPSGWGS84 tags geographic (lon/lat) layers.
const EPSGWGS84 = 4326

// PointLayer is a set of track points sharing one EPSG.
type PointLayer struct {
	EPSG   int
	Points []TrackPoint
}

// ReferenceLayer is a set of reference artifacts sharing one EPSG.
type ReferenceLayer struct {
	EPSG      int
	Artifacts []ReferenceArtifact
}

// JoinMode selects how points attach to reference geometries.
type JoinMode string

const (
	ModeNearest JoinMode = "nearest"
	ModeWithin  JoinMode = "within"
)

// JoinResult attaches one track point to at most one reference artifact.
// Artifact is nil when nothing matched; Distance is nil in within mode
// and for unmatched points.
type JoinResult struct {
	Point    *TrackPoint
	Artifact *ReferenceArtifact
	Distance *float64
}

// Vertices returns every coordinate of g in encounter order. Used for
// representative-coordinate fallbacks and degenerate-geometry checks.
func Vertices(g orb.Geometry) []orb.Point {
	switch v := g.(type) {
	case orb.Point:
		return []orb.Point{v}
	case orb.MultiPoint:
		return v
	case orb.LineString:
		return v
	case orb.MultiLineString:
		var out []orb.Point
		for _, ls := range v {
			out = append(out, ls...)
		}
		return out
	case orb.Ring:
		return v
	case orb.Polygon:
		var out []orb.Point
		for _, r := range v {
			out = append(out, r...)
		}
		return out
	case orb.MultiPolygon:
		var out []orb.Point
		for _, p := range v {
			out = append(out, Vertices(p)...)
		}
		return out
	case orb.Collection:
		var out []orb.Point
		for _, child := range v {
			out = append(out, Vertices(child)...)
		}
		return out
	case orb.Bound:
		return []orb.Point{v.Min, v.Max}
	default:
		return nil
	}
}
