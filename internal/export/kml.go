package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	kml "github.com/twpayne/go-kml/v2"

	"trackref/internal/lib/geom"
)

// WriteArtifactsKML renders the derived reference artifacts as a KML
// document for inspection in Google Earth alongside the planning file.
// Artifacts must be in geographic coordinates.
func WriteArtifactsKML(path string, artifacts []geom.ReferenceArtifact) error {
	var placemarks []kml.Element
	for _, a := range artifacts {
		el := kmlGeometry(a.Geometry)
		if el == nil {
			continue
		}
		placemarks = append(placemarks, kml.Placemark(
			kml.Name(a.Name),
			kml.Description(fmt.Sprintf("%s / %s", a.Protocol, a.Kind)),
			el,
		))
	}

	doc := kml.KML(kml.Document(placemarks...))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if err := doc.WriteIndent(f, "", "  "); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func kmlGeometry(g orb.Geometry) kml.Element {
	switch v := g.(type) {
	case orb.Point:
		return kml.Point(kml.Coordinates(coordinate(v)))
	case orb.LineString:
		return kml.LineString(kml.Coordinates(coordinates(v)...))
	case orb.Ring:
		return kml.Polygon(kml.OuterBoundaryIs(kml.LinearRing(kml.Coordinates(coordinates(v)...))))
	case orb.Polygon:
		els := make([]kml.Element, 0, len(v))
		for i, r := range v {
			ring := kml.LinearRing(kml.Coordinates(coordinates(r)...))
			if i == 0 {
				els = append(els, kml.OuterBoundaryIs(ring))
			} else {
				els = append(els, kml.InnerBoundaryIs(ring))
			}
		}
		return kml.Polygon(els...)
	case orb.MultiLineString:
		els := make([]kml.Element, 0, len(v))
		for _, ls := range v {
			els = append(els, kml.LineString(kml.Coordinates(coordinates(ls)...)))
		}
		return kml.MultiGeometry(els...)
	case orb.MultiPolygon:
		els := make([]kml.Element, 0, len(v))
		for _, p := range v {
			if el := kmlGeometry(p); el != nil {
				els = append(els, el)
			}
		}
		return kml.MultiGeometry(els...)
	default:
		return nil
	}
}

func coordinate(p orb.Point) kml.Coordinate {
	return kml.Coordinate{Lon: p[0], Lat: p[1]}
}

func coordinates(pts []orb.Point) []kml.Coordinate {
	out := make([]kml.Coordinate, len(pts))
	for i, p := range pts {
		out[i] = coordinate(p)
	}
	return out
}
