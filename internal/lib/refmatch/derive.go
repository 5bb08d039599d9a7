package refmatch

import (
	"fmt"

	"github.com/paulmach/orb"

	"trackref/internal/lib/geom"
)

// DeriveP1 picks the P1 anchor point: the first geometry in the full
// named collection called "P1 Point", else the first called "P1". An
// empty result means no anchor was planned, which is not an error.
func DeriveP1(all []geom.NamedGeometry) []geom.ReferenceArtifact {
	g, ok := firstNamedAny(all, "P1 Point", "P1")
	if !ok {
		return nil
	}
	return []geom.ReferenceArtifact{{
		Name:     "P1 Point",
		Kind:     geom.KindPoint,
		Geometry: g.Geometry,
		Protocol: geom.P1,
	}}
}

// DeriveP2 resolves the outer, inner and start lines. Each role is looked
// up by name independently; when all three lookups miss, line-typed
// geometries from the matched P2 subset are assigned positionally in
// encounter order. Positional assignment is a last resort only — file
// ordering is not a semantic guarantee.
func DeriveP2(all, matched []geom.NamedGeometry) []geom.ReferenceArtifact {
	var out []geom.ReferenceArtifact

	if g, ok := firstNamedAny(all, "P2 Outer", "OuterLine"); ok {
		out = append(out, geom.ReferenceArtifact{
			Name: "P2 OuterLine", Kind: geom.KindOuter, Geometry: g.Geometry, Protocol: geom.P2,
		})
	}
	if g, ok := firstNamedAny(all, "P2 Inner", "Inner Line"); ok {
		out = append(out, geom.ReferenceArtifact{
			Name: "P2 InnerLine", Kind: geom.KindInner, Geometry: g.Geometry, Protocol: geom.P2,
		})
	}
	if g, ok := firstNamedAny(all, "P2 Start", "Start Line"); ok {
		out = append(out, geom.ReferenceArtifact{
			Name: "P2 Start Line", Kind: geom.KindStartLine, Geometry: g.Geometry, Protocol: geom.P2,
		})
	}
	if len(out) > 0 {
		return out
	}

	positional := []geom.ReferenceKind{geom.KindOuter, geom.KindInner, geom.KindStartLine}
	i := 0
	for _, g := range matched {
		if !isLine(g.Geometry) {
			continue
		}
		kind := geom.KindLine
		if i < len(positional) {
			kind = positional[i]
		}
		name := g.Name
		if name == "" {
			name = fmt.Sprintf("p2_line_%d", i)
		}
		out = append(out, geom.ReferenceArtifact{
			Name: name, Kind: kind, Geometry: g.Geometry, Protocol: geom.P2,
		})
		i++
	}
	return out
}

// DeriveP3 resolves the trail and its crossing with the start line. The
// caller passes the same-run P2 start-line artifact when one exists;
// otherwise the named collection is re-searched. The crossing is the
// first intersection point in trail-segment order — never a centroid,
// which could fall outside both lines.
//
// Missing trail or start line simply omit artifacts. An error is returned
// only when the intersection routine is handed malformed geometry.
func DeriveP3(all []geom.NamedGeometry, start *geom.ReferenceArtifact) ([]geom.ReferenceArtifact, error) {
	var out []geom.ReferenceArtifact

	trail, haveTrail := firstNamedAny(all, "P3 Trail", "Trail")
	if haveTrail {
		out = append(out, geom.ReferenceArtifact{
			Name: "P3 Trail", Kind: geom.KindTrail, Geometry: trail.Geometry, Protocol: geom.P3,
		})
	}

	var startGeom orb.Geometry
	if start != nil {
		startGeom = start.Geometry
	} else if g, ok := firstNamedAny(all, "P2 Start", "Start Line"); ok {
		startGeom = g.Geometry
	}

	if haveTrail && startGeom != nil {
		crossing, found, err := LineCrossing(trail.Geometry, startGeom)
		if err != nil {
			return out, fmt.Errorf("p3 crossing: %w", err)
		}
		if found {
			out = append(out, geom.ReferenceArtifact{
				Name: "P3 Crossing", Kind: geom.KindCrossing, Geometry: crossing, Protocol: geom.P3,
			})
		}
	}
	return out, nil
}

// DeriveAll derives the artifacts for every protocol from the full named
// collection and the matcher's buckets. P2 runs before P3 so the crossing
// always reuses the freshly derived start line when there is one.
func DeriveAll(all []geom.NamedGeometry, matches map[geom.ProtocolKey][]geom.NamedGeometry) (map[geom.ProtocolKey][]geom.ReferenceArtifact, error) {
	out := make(map[geom.ProtocolKey][]geom.ReferenceArtifact, 3)
	out[geom.P1] = DeriveP1(all)

	p2 := DeriveP2(all, matches[geom.P2])
	out[geom.P2] = p2

	var start *geom.ReferenceArtifact
	for i := range p2 {
		if p2[i].Kind == geom.KindStartLine {
			start = &p2[i]
			break
		}
	}

	p3, err := DeriveP3(all, start)
	out[geom.P3] = p3
	return out, err
}

func isLine(g orb.Geometry) bool {
	switch g.(type) {
	case orb.LineString, orb.MultiLineString:
		return true
	default:
		return false
	}
}
