package export

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackref/internal/lib/geom"
	"trackref/internal/lib/spatial"
)

func TestArtifactCollection(t *testing.T) {
	artifacts := []geom.ReferenceArtifact{
		{Name: "P1 Point", Kind: geom.KindPoint, Protocol: geom.P1, Geometry: orb.Point{-3.7, 40.4}},
		{Name: "sin geometria", Kind: geom.KindLine, Protocol: geom.P2},
	}
	fc := ArtifactCollection(artifacts)
	require.Len(t, fc.Features, 1)

	f := fc.Features[0]
	assert.Equal(t, "P1 Point", f.Properties["name"])
	assert.Equal(t, "point", f.Properties["kind"])
	assert.Equal(t, "p1", f.Properties["protocol"])
	assert.Equal(t, orb.Point{-3.7, 40.4}, f.Geometry)
}

func TestJoinCollection(t *testing.T) {
	ts := time.Date(2023, 5, 10, 8, 0, 0, 0, time.UTC)
	dist := 12.5
	artifact := geom.ReferenceArtifact{Name: "P2 OuterLine", Kind: geom.KindOuter}
	results := []geom.JoinResult{
		{
			Point: &geom.TrackPoint{
				Coord: orb.Point{440000, 4470000}, Source: "fenix",
				Track: 0, Segment: 1, Index: 7, Time: ts,
			},
			Artifact: &artifact,
			Distance: &dist,
		},
		{
			Point: &geom.TrackPoint{Coord: orb.Point{440100, 4470100}, Source: "fenix"},
		},
	}

	identity := func(p orb.Point) orb.Point { return p }
	fc := JoinCollection(results, identity)
	require.Len(t, fc.Features, 2)

	f := fc.Features[0]
	assert.Equal(t, "fenix", f.Properties["source"])
	assert.Equal(t, 7, f.Properties["index"])
	assert.Equal(t, "2023-05-10T08:00:00Z", f.Properties["time"])
	assert.Equal(t, "P2 OuterLine", f.Properties["ref_name"])
	assert.Equal(t, "outer", f.Properties["ref_kind"])
	assert.Equal(t, 12.5, f.Properties["dist_m"])

	unmatched := fc.Features[1]
	assert.NotContains(t, unmatched.Properties, "ref_name")
	assert.NotContains(t, unmatched.Properties, "dist_m")
	assert.NotContains(t, unmatched.Properties, "time")
}

func TestWriteArtifactsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "refs.geojson")
	artifacts := []geom.ReferenceArtifact{
		{Name: "P3 Trail", Kind: geom.KindTrail, Protocol: geom.P3,
			Geometry: orb.LineString{{-3.71, 40.41}, {-3.70, 40.42}}},
	}
	require.NoError(t, WriteArtifacts(path, artifacts))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "P3 Trail", fc.Features[0].Properties["name"])
}

func TestWriteRingStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	stats := map[string]spatial.RingStat{
		"fenix": {Inside: 2, Total: 3, Percentage: 100.0 * 2 / 3},
	}
	require.NoError(t, WriteRingStats(path, stats))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"inside": 2`)
	assert.Contains(t, string(data), `"percentage"`)
}

func TestWriteArtifactsKML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.kml")
	artifacts := []geom.ReferenceArtifact{
		{Name: "P1 Point", Kind: geom.KindPoint, Protocol: geom.P1, Geometry: orb.Point{-3.7, 40.4}},
		{Name: "P2 OuterLine", Kind: geom.KindOuter, Protocol: geom.P2,
			Geometry: orb.LineString{{-3.71, 40.41}, {-3.70, 40.42}}},
	}
	require.NoError(t, WriteArtifactsKML(path, artifacts))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "<Placemark>")
	assert.Contains(t, out, "<name>P1 Point</name>")
	assert.Contains(t, out, "<LineString>")
}
