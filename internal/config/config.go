// Package config holds the pipeline configuration: where the GPX tracks
// and the KML planning file live, how protocols are matched, and the join
// parameters. Values load from a YAML file with TRACKREF_ environment
// overrides on top of the defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"trackref/internal/gpx"
	"trackref/internal/lib/geom"
	"trackref/internal/lib/spatial"
)

// Config is the complete pipeline configuration.
type Config struct {
	GPXRoot string `koanf:"gpx_root"`
	KMLPath string `koanf:"kml_path"`
	OutDir  string `koanf:"out_dir"`

	// JoinMode is "nearest" or "within".
	JoinMode string `koanf:"join_mode"`
	// LineBufferMeters is the corridor half-width for containment
	// against line references.
	LineBufferMeters float64 `koanf:"line_buffer_meters"`

	DevicePatterns []gpx.DevicePattern       `koanf:"device_patterns"`
	Protocols      map[string]ProtocolConfig `koanf:"protocols"`
}

// ProtocolConfig carries per-protocol overrides.
type ProtocolConfig struct {
	// Patterns override the generated candidate patterns for matching
	// reference geometries to this protocol.
	Patterns []string `koanf:"patterns"`
	// PathPattern assigns GPX files to this protocol when their path
	// contains it (case-insensitive).
	PathPattern string `koanf:"path_pattern"`
	// Start/End bound the accepted track timestamps, RFC3339. Empty
	// leaves the side open.
	Start string `koanf:"start"`
	End   string `koanf:"end"`
}

// Window parses the protocol's time bounds. Zero times mean open sides.
func (p ProtocolConfig) Window() (start, end time.Time, err error) {
	if p.Start != "" {
		start, err = time.Parse(time.RFC3339, p.Start)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parsing start %q: %w", p.Start, err)
		}
	}
	if p.End != "" {
		end, err = time.Parse(time.RFC3339, p.End)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parsing end %q: %w", p.End, err)
		}
	}
	return start, end, nil
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		GPXRoot:          "GPX",
		KMLPath:          "",
		OutDir:           "Clean_Files",
		JoinMode:         "nearest",
		LineBufferMeters: spatial.DefaultLineBuffer,
		DevicePatterns:   gpx.DefaultDevicePatterns(),
		Protocols: map[string]ProtocolConfig{
			"p1": {PathPattern: "Protocolos 1 y 2"},
			"p2": {PathPattern: "Protocolos 1 y 2"},
			"p3": {PathPattern: "Protocolo 3"},
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// TRACKREF_ environment variables (TRACKREF_GPX_ROOT=... overrides
// gpx_root, nested keys use double underscores).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider("TRACKREF_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "TRACKREF_")
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Protocols, err = normalizeProtocols(cfg.Protocols)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalizeProtocols canonicalizes protocol map keys so that "P1" and "1"
// land on the same entry as "p1". Canonical keys are placed first, so an
// aliased entry from the config file overrides the default it merged
// alongside. Unknown keys fail the load.
func normalizeProtocols(in map[string]ProtocolConfig) (map[string]ProtocolConfig, error) {
	out := make(map[string]ProtocolConfig, len(in))
	for name, pc := range in {
		key, err := geom.ParseProtocolKey(name)
		if err != nil {
			return nil, fmt.Errorf("protocols: %w", err)
		}
		if name == key.String() {
			out[name] = pc
		}
	}
	for name, pc := range in {
		key, _ := geom.ParseProtocolKey(name)
		if canon := key.String(); name != canon {
			out[canon] = pc
		}
	}
	return out, nil
}
