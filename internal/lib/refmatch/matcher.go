// Package refmatch classifies loosely-labeled reference geometries into
// the fixed per-protocol taxonomy and derives the canonical artifacts
// (anchor point, boundary lines, trail and crossing) from the result.
//
// Matching is best-effort by design: a missing reference produces an
// empty bucket, never an error, so one badly named feature cannot abort
// the whole pipeline.
package refmatch

import (
	"strings"

	"trackref/internal/lib/geom"
)

// DefaultPatterns generates the ordered candidate patterns for a protocol
// when the caller supplies none. Both the Spanish and English spellings
// appear because reference files come from either planning tool.
func DefaultPatterns(key geom.ProtocolKey) []string {
	n := key.Digit()
	return []string{
		"Protocolo " + n,
		"Protocolo_" + n,
		"Protocol " + n,
		"Protocol_" + n,
		"P" + n,
		"p" + n,
	}
}

// Match returns the subset of geoms belonging to the given protocol. Each
// pattern is tested case-insensitively against the name and then the
// description; a geometry matches when any pattern hits any field. With no
// explicit patterns the defaults for the protocol digit apply.
//
// When the primary pattern set matches nothing, a single loose pattern of
// just the protocol digit is retried. That trades precision for recall:
// recovering some signal beats returning nothing, at the cost of possible
// false positives.
//
// A geometry hit by several patterns appears once, by input position, and
// the output preserves input order.
func Match(geoms []geom.NamedGeometry, key geom.ProtocolKey, patterns []string) []geom.NamedGeometry {
	if len(patterns) == 0 {
		patterns = DefaultPatterns(key)
	}
	subset := matchAny(geoms, patterns)
	if len(subset) == 0 {
		subset = matchAny(geoms, []string{key.Digit()})
	}
	return subset
}

// MatchAll runs Match for every protocol. patternsByKey may be nil or
// partial; missing entries use the defaults.
func MatchAll(geoms []geom.NamedGeometry, patternsByKey map[geom.ProtocolKey][]string) map[geom.ProtocolKey][]geom.NamedGeometry {
	out := make(map[geom.ProtocolKey][]geom.NamedGeometry, 3)
	for _, key := range geom.Protocols() {
		out[key] = Match(geoms, key, patternsByKey[key])
	}
	return out
}

func matchAny(geoms []geom.NamedGeometry, patterns []string) []geom.NamedGeometry {
	var out []geom.NamedGeometry
	for _, g := range geoms {
		for _, pat := range patterns {
			if containsFold(g.Name, pat) || containsFold(g.Description, pat) {
				out = append(out, g)
				break // dedupe by position: one hit is enough
			}
		}
	}
	return out
}

func containsFold(s, substr string) bool {
	if s == "" || substr == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// firstNamed returns the first geometry whose name contains substr,
// case-insensitively.
func firstNamed(geoms []geom.NamedGeometry, substr string) (geom.NamedGeometry, bool) {
	for _, g := range geoms {
		if containsFold(g.Name, substr) {
			return g, true
		}
	}
	return geom.NamedGeometry{}, false
}

// firstNamedAny tries each substring in priority order over the whole
// collection before moving to the next.
func firstNamedAny(geoms []geom.NamedGeometry, substrs ...string) (geom.NamedGeometry, bool) {
	for _, substr := range substrs {
		if g, ok := firstNamed(geoms, substr); ok {
			return g, true
		}
	}
	return geom.NamedGeometry{}, false
}
