// Package crs resolves locally accurate metric projections for geographic
// data. Track points and reference geometries are matched in a UTM zone
// picked from their own centroid, so planar distances and containment
// tests are meaningful in meters.
package crs

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/project"

	"trackref/internal/lib/geom"
)

const (
	utmNorthBase = 32600
	utmSouthBase = 32700
)

// UTMEPSG returns the WGS84 UTM EPSG code covering the given lon/lat.
// Northern hemisphere zones map to 326xx, southern to 327xx. Non-finite
// input is rejected rather than silently producing a bogus zone.
func UTMEPSG(lon, lat float64) (int, error) {
	if !finite(lon) || !finite(lat) {
		return 0, fmt.Errorf("lon=%v lat=%v: %w", lon, lat, geom.ErrNonFiniteCoordinate)
	}
	zone := int(math.Mod(math.Floor((lon+180)/6), 60)) + 1
	if zone < 1 {
		zone += 60
	}
	if lat >= 0 {
		return utmNorthBase + zone, nil
	}
	return utmSouthBase + zone, nil
}

// EPSGForCollection resolves the UTM EPSG for a geometry collection from
// the centroid of the collection as a whole: per-geometry centroids
// weighted by area, or by length for geometries without area. When no
// geometry carries any measure (only points, or degenerate lines) it
// falls back to the arithmetic mean of each geometry's representative
// coordinate (a point's own coordinate, otherwise the mean of its
// vertices). Only a collection with no coordinates at all yields
// ErrEmptyInput.
func EPSGForCollection(geoms []orb.Geometry) (int, error) {
	lon, lat, ok := collectionCentroid(geoms)
	if !ok {
		lon, lat, ok = representativeMean(geoms)
	}
	if !ok {
		return 0, fmt.Errorf("resolving collection EPSG: %w", geom.ErrEmptyInput)
	}
	return UTMEPSG(lon, lat)
}

// EPSGForPoints resolves the UTM EPSG for a geographic track layer from
// the mean of its coordinates.
func EPSGForPoints(points []geom.TrackPoint) (int, error) {
	if len(points) == 0 {
		return 0, fmt.Errorf("resolving track EPSG: %w", geom.ErrEmptyInput)
	}
	var sumLon, sumLat float64
	for _, p := range points {
		sumLon += p.Coord[0]
		sumLat += p.Coord[1]
	}
	n := float64(len(points))
	return UTMEPSG(sumLon/n, sumLat/n)
}

func collectionCentroid(geoms []orb.Geometry) (lon, lat float64, ok bool) {
	var sumLon, sumLat, sumW float64
	for _, g := range geoms {
		if g == nil || len(geom.Vertices(g)) == 0 {
			continue
		}
		c, area := planar.CentroidArea(g)
		if !finite(c[0]) || !finite(c[1]) {
			continue
		}
		w := math.Abs(area)
		if w == 0 {
			w = planar.Length(g)
		}
		if !finite(w) || w <= 0 {
			continue // zero-measure geometry: leave it to the vertex-mean fallback
		}
		sumLon += c[0] * w
		sumLat += c[1] * w
		sumW += w
	}
	if sumW == 0 {
		return 0, 0, false
	}
	return sumLon / sumW, sumLat / sumW, true
}

func representativeMean(geoms []orb.Geometry) (lon, lat float64, ok bool) {
	var sumLon, sumLat float64
	n := 0
	for _, g := range geoms {
		if g == nil {
			continue
		}
		if p, isPoint := g.(orb.Point); isPoint {
			sumLon += p[0]
			sumLat += p[1]
			n++
			continue
		}
		verts := geom.Vertices(g)
		if len(verts) == 0 {
			continue
		}
		var vLon, vLat float64
		for _, v := range verts {
			vLon += v[0]
			vLat += v[1]
		}
		sumLon += vLon / float64(len(verts))
		sumLat += vLat / float64(len(verts))
		n++
	}
	if n == 0 {
		return 0, 0, false
	}
	return sumLon / float64(n), sumLat / float64(n), true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Projector converts between geographic WGS84 coordinates and one UTM
// zone. Both directions are orb.Projection functions so whole geometries
// reproject through the orb/project helpers.
type Projector struct {
	EPSG         int
	ToMetric     orb.Projection
	ToGeographic orb.Projection
}

// Transform builds the forward/inverse projector for a WGS84 UTM EPSG
// code (32601-32660 north, 32701-32760 south).
func Transform(epsg int) (Projector, error) {
	var zone int
	var south bool
	switch {
	case epsg > utmNorthBase && epsg <= utmNorthBase+60:
		zone = epsg - utmNorthBase
	case epsg > utmSouthBase && epsg <= utmSouthBase+60:
		zone = epsg - utmSouthBase
		south = true
	default:
		return Projector{}, fmt.Errorf("EPSG %d is not a WGS84 UTM code", epsg)
	}
	lon0 := float64(zone*6-183) * math.Pi / 180

	falseNorthing := 0.0
	if south {
		falseNorthing = 1e7
	}

	return Projector{
		EPSG: epsg,
		ToMetric: func(p orb.Point) orb.Point {
			e, n := utmForward(p[0], p[1], lon0)
			return orb.Point{e, n + falseNorthing}
		},
		ToGeographic: func(p orb.Point) orb.Point {
			lon, lat := utmInverse(p[0], p[1]-falseNorthing, lon0)
			return orb.Point{lon, lat}
		},
	}, nil
}

// ProjectPoints reprojects a geographic track layer into the projector's
// UTM zone. The input layer is left untouched; a new layer is returned.
func ProjectPoints(layer geom.PointLayer, pr Projector) (geom.PointLayer, error) {
	if layer.EPSG != geom.EPSGWGS84 {
		return geom.PointLayer{}, fmt.Errorf("point layer has EPSG %d, expected %d: %w",
			layer.EPSG, geom.EPSGWGS84, geom.ErrCRSMismatch)
	}
	out := geom.PointLayer{EPSG: pr.EPSG, Points: make([]geom.TrackPoint, len(layer.Points))}
	for i, p := range layer.Points {
		q := p
		q.Coord = pr.ToMetric(p.Coord)
		out.Points[i] = q
	}
	return out, nil
}

// ProjectReferences reprojects a geographic reference layer into the
// projector's UTM zone, cloning each geometry so the originals survive.
func ProjectReferences(layer geom.ReferenceLayer, pr Projector) (geom.ReferenceLayer, error) {
	if layer.EPSG != geom.EPSGWGS84 {
		return geom.ReferenceLayer{}, fmt.Errorf("reference layer has EPSG %d, expected %d: %w",
			layer.EPSG, geom.EPSGWGS84, geom.ErrCRSMismatch)
	}
	out := geom.ReferenceLayer{EPSG: pr.EPSG, Artifacts: make([]geom.ReferenceArtifact, len(layer.Artifacts))}
	for i, a := range layer.Artifacts {
		b := a
		if a.Geometry != nil {
			b.Geometry = project.Geometry(orb.Clone(a.Geometry), pr.ToMetric)
		}
		out.Artifacts[i] = b
	}
	return out, nil
}
