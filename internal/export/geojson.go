// Package export writes derived artifacts, joined tracks and ring
// statistics to disk for downstream renderers. GeoJSON output is always
// in geographic coordinates so web maps consume it directly.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"trackref/internal/lib/geom"
	"trackref/internal/lib/spatial"
)

// ArtifactCollection renders reference artifacts as a feature collection
// with name/kind/protocol properties.
func ArtifactCollection(artifacts []geom.ReferenceArtifact) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, a := range artifacts {
		if a.Geometry == nil {
			continue
		}
		f := geojson.NewFeature(orb.Clone(a.Geometry))
		f.Properties["name"] = a.Name
		f.Properties["kind"] = a.Kind.String()
		f.Properties["protocol"] = a.Protocol.String()
		fc.Append(f)
	}
	return fc
}

// JoinCollection renders join results as point features. toGeographic,
// when non-nil, converts projected coordinates back to lon/lat; pass nil
// when the results are already geographic.
func JoinCollection(results []geom.JoinResult, toGeographic orb.Projection) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, res := range results {
		if res.Point == nil {
			continue
		}
		coord := res.Point.Coord
		if toGeographic != nil {
			coord = toGeographic(coord)
		}
		f := geojson.NewFeature(coord)
		f.Properties["source"] = res.Point.Source
		f.Properties["track"] = res.Point.Track
		f.Properties["segment"] = res.Point.Segment
		f.Properties["index"] = res.Point.Index
		if !res.Point.Time.IsZero() {
			f.Properties["time"] = res.Point.Time.Format(time.RFC3339)
		}
		if res.Artifact != nil {
			f.Properties["ref_name"] = res.Artifact.Name
			f.Properties["ref_kind"] = res.Artifact.Kind.String()
		}
		if res.Distance != nil {
			f.Properties["dist_m"] = *res.Distance
		}
		fc.Append(f)
	}
	return fc
}

// WriteArtifacts writes artifacts as a GeoJSON file.
func WriteArtifacts(path string, artifacts []geom.ReferenceArtifact) error {
	return writeJSON(path, ArtifactCollection(artifacts))
}

// WriteJoinResults writes join results as a GeoJSON file.
func WriteJoinResults(path string, results []geom.JoinResult, toGeographic orb.Projection) error {
	return writeJSON(path, JoinCollection(results, toGeographic))
}

// WriteRingStats writes the per-source containment summary as plain JSON.
func WriteRingStats(path string, stats map[string]spatial.RingStat) error {
	return writeJSON(path, stats)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
