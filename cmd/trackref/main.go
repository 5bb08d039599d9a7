// Command trackref runs the track compliance pipeline: it parses GPS
// tracks and the KML planning file, derives the canonical per-protocol
// reference geometries, projects everything into a shared UTM zone, joins
// tracks against the references and writes GeoJSON/KML outputs plus the
// P2 ring statistics.
package main

import (
	"errors"
	"flag"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"trackref/internal/config"
	"trackref/internal/export"
	"trackref/internal/gpx"
	"trackref/internal/kml"
	"trackref/internal/lib/crs"
	"trackref/internal/lib/geom"
	"trackref/internal/lib/refmatch"
	"trackref/internal/lib/spatial"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration")
	outDir := flag.String("out", "", "override the configured output directory")
	flag.Parse()

	logger := zap.Must(zap.NewDevelopment())
	defer logger.Sync() //nolint:errcheck

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	if *outDir != "" {
		cfg.OutDir = *outDir
	}
	if cfg.KMLPath == "" {
		logger.Fatal("No KML planning file configured (set kml_path)")
	}

	if err := run(logger, cfg); err != nil {
		logger.Fatal("Pipeline failed", zap.Error(err))
	}
}

func run(logger *zap.Logger, cfg *config.Config) error {
	refs, err := kml.ParseFile(cfg.KMLPath)
	if err != nil {
		return fmt.Errorf("reading references: %w", err)
	}
	logger.Info("Loaded reference geometries",
		zap.String("kml", cfg.KMLPath), zap.Int("features", len(refs)))

	files, err := gpx.Discover(cfg.GPXRoot)
	if err != nil {
		return fmt.Errorf("discovering tracks: %w", err)
	}
	logger.Info("Discovered GPX files", zap.String("root", cfg.GPXRoot), zap.Int("files", len(files)))

	patterns := make(map[geom.ProtocolKey][]string)
	for name, pc := range cfg.Protocols {
		key, err := geom.ParseProtocolKey(name)
		if err != nil {
			return fmt.Errorf("configured protocols: %w", err)
		}
		patterns[key] = pc.Patterns
	}

	matches := refmatch.MatchAll(refs, patterns)
	artifacts, err := refmatch.DeriveAll(refs, matches)
	if err != nil {
		return fmt.Errorf("deriving reference artifacts: %w", err)
	}

	var all []geom.ReferenceArtifact
	for _, key := range geom.Protocols() {
		logger.Info("Derived reference artifacts",
			zap.String("protocol", key.String()),
			zap.Int("matched", len(matches[key])),
			zap.Int("artifacts", len(artifacts[key])))
		all = append(all, artifacts[key]...)
	}
	if err := export.WriteArtifactsKML(filepath.Join(cfg.OutDir, "kml_refs.kml"), all); err != nil {
		return err
	}

	for _, key := range geom.Protocols() {
		if err := runProtocol(logger, cfg, key, files, artifacts[key]); err != nil {
			return fmt.Errorf("protocol %s: %w", key, err)
		}
	}
	return nil
}

func runProtocol(logger *zap.Logger, cfg *config.Config, key geom.ProtocolKey, files []string, artifacts []geom.ReferenceArtifact) error {
	log := logger.With(zap.String("protocol", key.String()))
	pc := cfg.Protocols[key.String()]
	outDir := filepath.Join(cfg.OutDir, "protocolo"+key.Digit())

	if err := export.WriteArtifacts(filepath.Join(outDir, "kml_refs_"+key.String()+".geojson"), artifacts); err != nil {
		return err
	}

	points, err := collectPoints(log, cfg, pc, files)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		log.Warn("No track points in window, skipping join")
		return nil
	}
	if len(artifacts) == 0 {
		log.Warn("No reference artifacts derived, skipping join")
		return nil
	}

	epsg, err := crs.EPSGForPoints(points)
	if err != nil {
		return err
	}
	projector, err := crs.Transform(epsg)
	if err != nil {
		return err
	}
	log.Info("Resolved metric projection", zap.Int("epsg", epsg))

	projPoints, err := crs.ProjectPoints(geom.PointLayer{EPSG: geom.EPSGWGS84, Points: points}, projector)
	if err != nil {
		return err
	}
	projRefs, err := crs.ProjectReferences(geom.ReferenceLayer{EPSG: geom.EPSGWGS84, Artifacts: artifacts}, projector)
	if err != nil {
		return err
	}

	results, err := spatial.Join(projPoints, projRefs, geom.JoinMode(cfg.JoinMode),
		spatial.JoinOptions{LineBuffer: cfg.LineBufferMeters})
	if err != nil {
		if errors.Is(err, geom.ErrInvalidJoinMode) {
			return err
		}
		return fmt.Errorf("joining tracks to references: %w", err)
	}
	joinedPath := filepath.Join(outDir, "points_joined.geojson")
	if err := export.WriteJoinResults(joinedPath, results, projector.ToGeographic); err != nil {
		return err
	}
	log.Info("Joined track points", zap.Int("points", len(results)), zap.String("out", joinedPath))

	if key == geom.P2 {
		if err := ringStats(log, outDir, projPoints, projRefs); err != nil {
			return err
		}
	}
	return nil
}

// ringStats computes the P2 boundary ring and the per-device inside
// percentages.
func ringStats(log *zap.Logger, outDir string, points geom.PointLayer, refs geom.ReferenceLayer) error {
	var outerGeoms, innerGeoms []orb.Geometry
	for _, a := range refs.Artifacts {
		switch a.Kind {
		case geom.KindOuter:
			outerGeoms = append(outerGeoms, a.Geometry)
		case geom.KindInner:
			innerGeoms = append(innerGeoms, a.Geometry)
		}
	}
	if len(outerGeoms) == 0 {
		log.Warn("No outer boundary found, skipping ring statistics")
		return nil
	}

	ring, err := spatial.ComputeRing(outerGeoms, innerGeoms)
	if err != nil {
		return fmt.Errorf("computing boundary ring: %w", err)
	}
	stats, err := spatial.InsideRatio(points, ring, refs.EPSG)
	if err != nil {
		return fmt.Errorf("computing inside ratios: %w", err)
	}
	for src, s := range stats {
		log.Info("Ring containment",
			zap.String("device", src),
			zap.Int("inside", s.Inside),
			zap.Int("total", s.Total),
			zap.Float64("pct", s.Percentage))
	}
	return export.WriteRingStats(filepath.Join(outDir, "p2_ring_stats.json"), stats)
}

func collectPoints(log *zap.Logger, cfg *config.Config, pc config.ProtocolConfig, files []string) ([]geom.TrackPoint, error) {
	start, end, err := pc.Window()
	if err != nil {
		return nil, err
	}

	var points []geom.TrackPoint
	for _, fp := range files {
		if pc.PathPattern != "" && !strings.Contains(strings.ToLower(fp), strings.ToLower(pc.PathPattern)) {
			continue
		}
		pts, err := gpx.ParseFile(fp)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", fp, err)
		}
		device := gpx.DeviceName(fp, cfg.DevicePatterns)
		for i := range pts {
			pts[i].Source = device
		}
		pts = gpx.FilterTimeRange(pts, start, end)
		log.Info("Loaded track", zap.String("file", fp), zap.String("device", device), zap.Int("points", len(pts)))
		points = append(points, pts...)
	}
	return points, nil
}
