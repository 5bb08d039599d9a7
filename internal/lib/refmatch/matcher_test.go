package refmatch

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"

	"trackref/internal/lib/geom"
)

func named(names ...string) []geom.NamedGeometry {
	out := make([]geom.NamedGeometry, len(names))
	for i, n := range names {
		out[i] = geom.NamedGeometry{Name: n, Geometry: orb.Point{float64(i), 0}}
	}
	return out
}

func TestMatchDefaultPatterns(t *testing.T) {
	geoms := named(
		"Protocolo 1 Inicio",
		"Ruta de acceso",
		"protocol 1 end",
		"P1 Point",
	)
	got := Match(geoms, geom.P1, nil)
	assert.Equal(t, []geom.NamedGeometry{geoms[0], geoms[2], geoms[3]}, got)
}

func TestMatchExplicitPatterns(t *testing.T) {
	geoms := named("Protocol 1 Start", "unrelated", "PROTOCOL 1 end")
	got := Match(geoms, geom.P1, []string{"Protocol 1"})
	assert.Equal(t, []geom.NamedGeometry{geoms[0], geoms[2]}, got)
}

func TestMatchDescriptionField(t *testing.T) {
	geoms := []geom.NamedGeometry{
		{Name: "sendero", Description: "marcado como Protocolo 3", Geometry: orb.Point{}},
		{Name: "otro", Description: "nada"},
	}
	got := Match(geoms, geom.P3, nil)
	assert.Len(t, got, 1)
	assert.Equal(t, "sendero", got[0].Name)
}

func TestMatchDedupesByPosition(t *testing.T) {
	// "Protocolo 1" and "P1" both hit the same geometry; it appears once.
	geoms := named("Protocolo 1 P1 Inicio")
	got := Match(geoms, geom.P1, nil)
	assert.Len(t, got, 1)
}

func TestMatchDigitFallback(t *testing.T) {
	geoms := named("Ruta 3 final", "Ruta 2 acceso")
	got := Match(geoms, geom.P3, nil)
	assert.Len(t, got, 1)
	assert.Equal(t, "Ruta 3 final", got[0].Name)
}

func TestMatchNothing(t *testing.T) {
	got := Match(named("alpha", "beta"), geom.P1, nil)
	assert.Empty(t, got)
}

func TestMatchAll(t *testing.T) {
	geoms := named("Protocolo 1 Inicio", "Protocolo 2 OuterLine", "Protocolo 3 Trail")
	buckets := MatchAll(geoms, map[geom.ProtocolKey][]string{
		geom.P2: {"Protocolo 2"},
	})
	assert.Len(t, buckets[geom.P1], 1)
	assert.Len(t, buckets[geom.P2], 1)
	assert.Len(t, buckets[geom.P3], 1)
}
