package spatial

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackref/internal/lib/geom"
)

func TestComputeRingAnnulus(t *testing.T) {
	// Outer and inner boundaries digitized as open lines; the result must
	// contain the band between them and exclude the hole.
	outer := []orb.Geometry{orb.LineString{{0, 0}, {100, 0}, {100, 100}, {0, 100}}}
	inner := []orb.Geometry{orb.LineString{{40, 40}, {60, 40}, {60, 60}, {40, 60}}}

	ring, err := ComputeRing(outer, inner)
	require.NoError(t, err)
	require.Len(t, ring, 1)
	require.Len(t, ring[0], 2)

	assert.True(t, planar.MultiPolygonContains(ring, orb.Point{20, 20}))
	assert.False(t, planar.MultiPolygonContains(ring, orb.Point{50, 50}))
	assert.False(t, planar.MultiPolygonContains(ring, orb.Point{150, 150}))
}

func TestComputeRingNormalizesOrientation(t *testing.T) {
	// Clockwise outer input still yields a CCW shell with a CW hole.
	outer := []orb.Geometry{orb.Ring{{0, 0}, {0, 100}, {100, 100}, {100, 0}, {0, 0}}}
	inner := []orb.Geometry{orb.Ring{{40, 40}, {60, 40}, {60, 60}, {40, 60}, {40, 40}}}

	ring, err := ComputeRing(outer, inner)
	require.NoError(t, err)
	require.Len(t, ring[0], 2)
	assert.Equal(t, orb.CCW, ring[0][0].Orientation())
	assert.Equal(t, orb.CW, ring[0][1].Orientation())
}

func TestComputeRingIgnoresNonNestedInner(t *testing.T) {
	outer := []orb.Geometry{orb.LineString{{0, 0}, {10, 0}, {10, 10}, {0, 10}}}
	inner := []orb.Geometry{orb.LineString{{100, 100}, {110, 100}, {110, 110}, {100, 110}}}

	ring, err := ComputeRing(outer, inner)
	require.NoError(t, err)
	require.Len(t, ring, 1)
	assert.Len(t, ring[0], 1)
}

func TestComputeRingEmptyOuter(t *testing.T) {
	ring, err := ComputeRing(nil, []orb.Geometry{orb.LineString{{0, 0}, {1, 0}, {1, 1}, {0, 1}}})
	require.NoError(t, err)
	assert.Empty(t, ring)
}

func TestComputeRingDegenerateBoundary(t *testing.T) {
	_, err := ComputeRing([]orb.Geometry{orb.LineString{{0, 0}, {1, 1}}}, nil)
	assert.ErrorIs(t, err, geom.ErrGeometryOperation)

	_, err = ComputeRing([]orb.Geometry{orb.Point{0, 0}}, nil)
	assert.ErrorIs(t, err, geom.ErrGeometryOperation)
}

func TestComputeRingFromPolygon(t *testing.T) {
	poly := orb.Polygon{{{0, 0}, {50, 0}, {50, 50}, {0, 50}, {0, 0}}}
	ring, err := ComputeRing([]orb.Geometry{poly}, nil)
	require.NoError(t, err)
	assert.True(t, planar.MultiPolygonContains(ring, orb.Point{25, 25}))
}

func TestInsideRatio(t *testing.T) {
	ring := orb.MultiPolygon{{{{0, 0}, {100, 0}, {100, 100}, {0, 100}, {0, 0}}}}
	points := geom.PointLayer{EPSG: 32630, Points: []geom.TrackPoint{
		{Source: "fenix", Coord: orb.Point{10, 10}},
		{Source: "fenix", Coord: orb.Point{20, 20}},
		{Source: "fenix", Coord: orb.Point{200, 200}},
		{Source: "iphone", Coord: orb.Point{500, 500}},
	}}

	stats, err := InsideRatio(points, ring, 32630)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, 2, stats["fenix"].Inside)
	assert.Equal(t, 3, stats["fenix"].Total)
	assert.InDelta(t, 100.0*2/3, stats["fenix"].Percentage, 1e-9)

	assert.Equal(t, 0, stats["iphone"].Inside)
	assert.Equal(t, 0.0, stats["iphone"].Percentage)
}

func TestInsideRatioEmptyRing(t *testing.T) {
	points := geom.PointLayer{EPSG: 32630, Points: []geom.TrackPoint{
		{Source: "dev", Coord: orb.Point{1, 1}},
	}}
	stats, err := InsideRatio(points, orb.MultiPolygon{}, 32630)
	require.NoError(t, err)
	assert.Equal(t, 0, stats["dev"].Inside)
	assert.Equal(t, 0.0, stats["dev"].Percentage)
}

func TestInsideRatioNoPoints(t *testing.T) {
	stats, err := InsideRatio(geom.PointLayer{EPSG: 32630}, orb.MultiPolygon{}, 32630)
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestInsideRatioCRSMismatch(t *testing.T) {
	_, err := InsideRatio(geom.PointLayer{EPSG: 4326}, orb.MultiPolygon{}, 32630)
	assert.ErrorIs(t, err, geom.ErrCRSMismatch)
}
