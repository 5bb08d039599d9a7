// Package kml reads named reference geometries from a KML planning file.
// Placemarks are collected wherever they appear in the document tree —
// planning tools nest them in folders arbitrarily — and mapped to orb
// geometries in geographic coordinates.
package kml

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"trackref/internal/lib/geom"
)

type placemark struct {
	Name        string          `xml:"name"`
	Description string          `xml:"description"`
	Point       *geometryNode   `xml:"Point"`
	LineString  *geometryNode   `xml:"LineString"`
	LinearRing  *geometryNode   `xml:"LinearRing"`
	Polygon     *polygonNode    `xml:"Polygon"`
	Multi       []geometryMulti `xml:"MultiGeometry"`
}

type geometryNode struct {
	Coordinates string `xml:"coordinates"`
}

type polygonNode struct {
	Outer  geometryNode   `xml:"outerBoundaryIs>LinearRing"`
	Inners []geometryNode `xml:"innerBoundaryIs>LinearRing"`
}

type geometryMulti struct {
	Points      []geometryNode `xml:"Point"`
	LineStrings []geometryNode `xml:"LineString"`
	Polygons    []polygonNode  `xml:"Polygon"`
}

// Parse extracts every Placemark carrying a supported geometry. Name and
// description are optional; placemarks without coordinates are skipped
// rather than failing the file.
func Parse(r io.Reader) ([]geom.NamedGeometry, error) {
	dec := xml.NewDecoder(r)

	var out []geom.NamedGeometry
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding kml: %w", err)
		}

		el, ok := tok.(xml.StartElement)
		if !ok || el.Name.Local != "Placemark" {
			continue
		}

		var pm placemark
		if err := dec.DecodeElement(&pm, &el); err != nil {
			return nil, fmt.Errorf("decoding placemark: %w", err)
		}
		g := pm.geometry()
		if g == nil {
			continue
		}
		out = append(out, geom.NamedGeometry{
			Name:        strings.TrimSpace(pm.Name),
			Description: strings.TrimSpace(pm.Description),
			Geometry:    g,
		})
	}
	return out, nil
}

// ParseFile parses a KML file from disk.
func ParseFile(path string) ([]geom.NamedGeometry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening kml: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func (pm *placemark) geometry() orb.Geometry {
	switch {
	case pm.Point != nil:
		if pts := parseCoordinates(pm.Point.Coordinates); len(pts) > 0 {
			return pts[0]
		}
	case pm.LineString != nil:
		if pts := parseCoordinates(pm.LineString.Coordinates); len(pts) >= 2 {
			return orb.LineString(pts)
		}
	case pm.LinearRing != nil:
		if pts := parseCoordinates(pm.LinearRing.Coordinates); len(pts) >= 3 {
			return closedRing(pts)
		}
	case pm.Polygon != nil:
		return pm.Polygon.geometry()
	case len(pm.Multi) > 0:
		var coll orb.Collection
		for _, mg := range pm.Multi {
			for _, p := range mg.Points {
				if pts := parseCoordinates(p.Coordinates); len(pts) > 0 {
					coll = append(coll, pts[0])
				}
			}
			for _, l := range mg.LineStrings {
				if pts := parseCoordinates(l.Coordinates); len(pts) >= 2 {
					coll = append(coll, orb.LineString(pts))
				}
			}
			for _, p := range mg.Polygons {
				if g := p.geometry(); g != nil {
					coll = append(coll, g)
				}
			}
		}
		if len(coll) == 1 {
			return coll[0]
		}
		if len(coll) > 0 {
			return coll
		}
	}
	return nil
}

func (pn *polygonNode) geometry() orb.Geometry {
	outer := parseCoordinates(pn.Outer.Coordinates)
	if len(outer) < 3 {
		return nil
	}
	poly := orb.Polygon{closedRing(outer)}
	for _, inner := range pn.Inners {
		if pts := parseCoordinates(inner.Coordinates); len(pts) >= 3 {
			poly = append(poly, closedRing(pts))
		}
	}
	return poly
}

func closedRing(pts []orb.Point) orb.Ring {
	r := orb.Ring(pts)
	if !r.Closed() {
		r = append(r, r[0])
	}
	return r
}

// parseCoordinates splits a KML coordinate blob: whitespace-separated
// tuples of "lon,lat[,alt]".
func parseCoordinates(s string) []orb.Point {
	fields := strings.Fields(s)
	pts := make([]orb.Point, 0, len(fields))
	for _, f := range fields {
		parts := strings.Split(f, ",")
		if len(parts) < 2 {
			continue
		}
		lon, err1 := strconv.ParseFloat(parts[0], 64)
		lat, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		pts = append(pts, orb.Point{lon, lat})
	}
	return pts
}
