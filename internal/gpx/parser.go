// Package gpx reads GPS tracks into the pipeline's point model. The
// parser is a streaming token walk over the XML so multi-megabyte device
// exports never load as a DOM.
package gpx

import (
	"encoding/xml"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"trackref/internal/lib/geom"
)

// Parse reads a GPX document and flattens every coordinate-bearing
// element into TrackPoints tagged with the given source identifier:
// track points with their track/segment/point indices, waypoints
// (Track=-1, Segment=-1) and route points (Track=-1, Segment=route
// number), in document order.
func Parse(r io.Reader, source string) ([]geom.TrackPoint, error) {
	dec := xml.NewDecoder(r)

	var (
		points []geom.TrackPoint

		trackIdx   = -1
		segIdx     = -1
		routeIdx   = -1
		ptIdx      int
		wptIdx     int
		rteptIdx   int
		inTrkpt    bool
		inWpt      bool
		inRtept    bool
		cur        geom.TrackPoint
		depthTrail string // current point element, for ele/time scoping
	)

	flush := func() {
		points = append(points, cur)
		cur = geom.TrackPoint{}
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding gpx: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "trk":
				trackIdx++
				segIdx = -1
			case "trkseg":
				segIdx++
				ptIdx = 0
			case "rte":
				routeIdx++
				rteptIdx = 0
			case "trkpt", "wpt", "rtept":
				cur = geom.TrackPoint{Source: source, Coord: coordFromAttrs(el.Attr)}
				depthTrail = el.Name.Local
				switch el.Name.Local {
				case "trkpt":
					inTrkpt = true
					cur.Track, cur.Segment, cur.Index = trackIdx, segIdx, ptIdx
				case "wpt":
					inWpt = true
					cur.Track, cur.Segment, cur.Index = -1, -1, wptIdx
				case "rtept":
					inRtept = true
					cur.Track, cur.Segment, cur.Index = -1, routeIdx, rteptIdx
				}
			case "ele":
				if inTrkpt || inWpt || inRtept {
					var s string
					_ = dec.DecodeElement(&s, &el)
					if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
						cur.Elevation = v
					}
				}
			case "time":
				if inTrkpt || inWpt || inRtept {
					var s string
					_ = dec.DecodeElement(&s, &el)
					if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(s)); err == nil {
						cur.Time = ts
					}
				}
			}

		case xml.EndElement:
			if el.Name.Local != depthTrail {
				continue
			}
			switch {
			case el.Name.Local == "trkpt" && inTrkpt:
				inTrkpt = false
				flush()
				ptIdx++
			case el.Name.Local == "wpt" && inWpt:
				inWpt = false
				flush()
				wptIdx++
			case el.Name.Local == "rtept" && inRtept:
				inRtept = false
				flush()
				rteptIdx++
			}
			depthTrail = ""
		}
	}
	return points, nil
}

func coordFromAttrs(attrs []xml.Attr) orb.Point {
	var lat, lon float64
	for _, a := range attrs {
		switch a.Name.Local {
		case "lat":
			lat, _ = strconv.ParseFloat(a.Value, 64)
		case "lon":
			lon, _ = strconv.ParseFloat(a.Value, 64)
		}
	}
	return orb.Point{lon, lat}
}

// ParseFile parses one GPX file, using its path as the source identifier.
func ParseFile(path string) ([]geom.TrackPoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening gpx: %w", err)
	}
	defer f.Close()
	return Parse(f, path)
}

// Discover returns every *.gpx file under root, sorted by path.
func Discover(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".gpx") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discovering gpx files: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// FilterTimeRange keeps points inside the inclusive [start, end] window.
// A zero start or end leaves that side open; both zero returns the input
// unchanged. Points without a timestamp are dropped once any bound is set,
// since they cannot be placed in the window.
func FilterTimeRange(points []geom.TrackPoint, start, end time.Time) []geom.TrackPoint {
	if start.IsZero() && end.IsZero() {
		return points
	}
	out := make([]geom.TrackPoint, 0, len(points))
	for _, p := range points {
		if p.Time.IsZero() {
			continue
		}
		if !start.IsZero() && p.Time.Before(start) {
			continue
		}
		if !end.IsZero() && p.Time.After(end) {
			continue
		}
		out = append(out, p)
	}
	return out
}
