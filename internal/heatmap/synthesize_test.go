package heatmap

import (
	"encoding/json"
	"math"
	"sync"
	"testing"

	"github.com/golang/geo/s2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airaware/internal/types"
)

const earthRadiusMeters = 6371000.0

var atlanta = types.GeoPoint{Lat: 33.749, Lon: -84.388}

func snapshot(key string, v float64) *types.PollutantSnapshot {
	s := &types.PollutantSnapshot{}
	switch key {
	case types.PollutantPM25:
		s.PM25 = &v
	case types.PollutantPM10:
		s.PM10 = &v
	case types.PollutantNO2:
		s.NO2 = &v
	case types.PollutantO3:
		s.O3 = &v
	case types.PollutantSO2:
		s.SO2 = &v
	case types.PollutantCO:
		s.CO = &v
	}
	return s
}

func spots(shapes []DrawableShape) []DrawableShape {
	var out []DrawableShape
	for _, s := range shapes {
		if s.Tag.Role == RoleSpot {
			out = append(out, s)
		}
	}
	return out
}

func greatCircleMeters(a, b types.GeoPoint) float64 {
	return s2.LatLngFromDegrees(a.Lat, a.Lon).Distance(s2.LatLngFromDegrees(b.Lat, b.Lon)).Radians() * earthRadiusMeters
}

func TestSynthesize_NilSnapshot(t *testing.T) {
	for _, key := range []string{types.PollutantPM25, types.LayerAQI, "xyz", ""} {
		assert.Empty(t, Synthesize(atlanta, nil, key), "key %q", key)
	}
}

func TestSynthesize_Deterministic(t *testing.T) {
	snap := snapshot(types.PollutantNO2, 95)

	first := Synthesize(atlanta, snap, types.PollutantNO2)
	second := Synthesize(atlanta, snap, types.PollutantNO2)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestSynthesize_ParallelCallsAgree(t *testing.T) {
	snap := snapshot(types.PollutantPM25, 40)
	want := Synthesize(atlanta, snap, types.PollutantPM25)

	var wg sync.WaitGroup
	results := make([][]DrawableShape, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Synthesize(atlanta, snap, types.PollutantPM25)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestSynthesize_SpotCountTiers(t *testing.T) {
	points := []types.GeoPoint{
		atlanta,
		{Lat: 51.5074, Lon: -0.1278},
		{Lat: -33.8688, Lon: 151.2093},
		{Lat: 35.6762, Lon: 139.6503},
		{Lat: 0, Lon: 0},
		{Lat: 64.1466, Lon: -21.9426},
	}
	tests := []struct {
		name     string
		value    float64
		min, max int
	}{
		{"zero is at or below low", 0, 0, 2},
		{"exactly low", 12, 0, 2},
		{"between low and medium", 20, 3, 6},
		{"exactly medium", 35, 3, 6},
		{"between medium and high", 40, 6, 9},
		{"exactly high", 55, 6, 9},
		{"above high", 100, 8, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, p := range points {
				shapes := Synthesize(p, snapshot(types.PollutantPM25, tt.value), types.PollutantPM25)
				n := len(spots(shapes))
				assert.GreaterOrEqual(t, n, tt.min, "point %v", p)
				assert.LessOrEqual(t, n, tt.max, "point %v", p)
				assert.Len(t, shapes, n+2, "base + spots + center")
			}
		})
	}
}

func TestSynthesize_Order(t *testing.T) {
	shapes := Synthesize(atlanta, snapshot(types.PollutantPM25, 100), types.PollutantPM25)
	require.GreaterOrEqual(t, len(shapes), 2)

	assert.Equal(t, RoleBase, shapes[0].Tag.Role)
	assert.Equal(t, RoleCenter, shapes[len(shapes)-1].Tag.Role)
	for _, s := range shapes[1 : len(shapes)-1] {
		assert.Equal(t, RoleSpot, s.Tag.Role)
	}
}

func TestSynthesize_AtlantaExample(t *testing.T) {
	shapes := Synthesize(atlanta, snapshot(types.PollutantPM25, 40), types.PollutantPM25)

	base := shapes[0]
	assert.Equal(t, KindCircle, base.Kind)
	assert.Equal(t, atlanta, base.Center)
	assert.InDelta(t, 5550.0, base.RadiusMeters, 1e-9)
	assert.Equal(t, "#ff6b6b", base.StrokeColor)
	assert.Equal(t, "#ff6b6b", base.FillColor)
	assert.Equal(t, 0.3, base.FillOpacity)
	assert.Equal(t, 2, base.StrokeWeight)
	assert.Equal(t, "base:pm25", base.Tag.String())

	// seed = 33749 - 84388 + 'p' = -50527; rand(2) ≈ 0.6795 gives 6 + 2 spots.
	sp := spots(shapes)
	require.Len(t, sp, 8)
	assert.InDelta(t, 33.771562485210424, sp[0].Center.Lat, 1e-9)
	assert.InDelta(t, -84.40210146847207, sp[0].Center.Lon, 1e-9)
	assert.InDelta(t, 998.4391991634766, sp[0].RadiusMeters, 1e-6)
	assert.InDelta(t, 33.750220857021496, sp[7].Center.Lat, 1e-9)
	assert.InDelta(t, -84.38514612074422, sp[7].Center.Lon, 1e-9)

	for _, s := range sp {
		assert.Equal(t, KindCircle, s.Kind)
		assert.Equal(t, "spot:pm25", s.Tag.String())
		assert.Equal(t, 1, s.StrokeWeight)
		assert.LessOrEqual(t, greatCircleMeters(atlanta, s.Center), MaxSpotOffsetMeters+10)
		assert.GreaterOrEqual(t, s.RadiusMeters, 0.002*metersPerDegree)
		assert.Less(t, s.RadiusMeters, 0.010*metersPerDegree)
		assert.InDelta(t, 0.4+0.5*(40.0/55.0), s.FillOpacity, 1e-12)
	}

	center := shapes[len(shapes)-1]
	assert.Equal(t, KindPointMarker, center.Kind)
	assert.Equal(t, atlanta, center.Center)
	assert.Equal(t, 8.0, center.RadiusPixels)
	assert.Zero(t, center.RadiusMeters)
	assert.Equal(t, "#ffffff", center.StrokeColor)
	assert.Equal(t, "#ffffff", center.FillColor)
	assert.Equal(t, 0.9, center.FillOpacity)
	assert.Equal(t, 2, center.StrokeWeight)
	assert.Equal(t, "center:pm25", center.Tag.String())
}

func TestSynthesize_IntensityClamp(t *testing.T) {
	shapes := Synthesize(atlanta, snapshot(types.PollutantPM25, 1000), types.PollutantPM25)
	sp := spots(shapes)
	require.NotEmpty(t, sp)
	for _, s := range sp {
		assert.InDelta(t, 0.9, s.FillOpacity, 1e-12)
		assert.LessOrEqual(t, s.FillOpacity, 0.9+1e-12)
	}
}

func TestSynthesize_UnknownKeyFallback(t *testing.T) {
	snap := &types.PollutantSnapshot{PM25: types.Float64Ptr(40)}

	shapes := Synthesize(atlanta, snap, "xyz")
	require.Len(t, shapes, 3, "unknown key reads as zero; rand(0) ≈ 0.347 gives one spot")

	// 'xyz' reads 0 from the snapshot, so it sits in the lowest pm25 tier and
	// its seed is 33749 - 84388 + 'x' = -50519.
	seed := math.Floor(atlanta.Lat*1000) + math.Floor(atlanta.Lon*1000) + 'x'
	assert.Equal(t, -50519.0, seed)
	rnd := seq{seed: seed}
	assert.Equal(t, int(math.Floor(rnd.at(0)*3)), len(spots(shapes)))

	for _, s := range shapes[:len(shapes)-1] {
		assert.Equal(t, DefaultColor, s.FillColor)
	}
	assert.Equal(t, "base:xyz", shapes[0].Tag.String())
	assert.Equal(t, "center:xyz", shapes[len(shapes)-1].Tag.String())
}

func TestSynthesize_UnknownKeyUsesPM25Band(t *testing.T) {
	// A layer can be unknown to the band table yet present in the snapshot's
	// aqi slot; the pm25 band then drives the tier.
	snap := &types.PollutantSnapshot{AQI: types.IntPtr(40)}
	shapes := Synthesize(atlanta, snap, types.LayerAQI)

	n := len(spots(shapes))
	assert.GreaterOrEqual(t, n, 6)
	assert.LessOrEqual(t, n, 9)
	assert.Equal(t, DefaultColor, shapes[0].FillColor)
}

func TestSynthesize_PM10UsesPM25Band(t *testing.T) {
	shapes := Synthesize(atlanta, snapshot(types.PollutantPM10, 60), types.PollutantPM10)
	n := len(spots(shapes))
	assert.GreaterOrEqual(t, n, 8, "60 is above the pm25 high of 55")
	assert.Equal(t, "#ffa726", shapes[0].FillColor)
	for _, s := range spots(shapes) {
		assert.InDelta(t, 0.9, s.FillOpacity, 1e-12)
	}
}

func TestSynthesize_EmptyLayer(t *testing.T) {
	shapes := Synthesize(atlanta, snapshot(types.PollutantPM25, 100), "")
	require.Len(t, shapes, 2)
	assert.Equal(t, RoleBase, shapes[0].Tag.Role)
	assert.Equal(t, RoleCenter, shapes[1].Tag.Role)
}

func TestSynthesize_AllTagsCarryLayer(t *testing.T) {
	for _, key := range types.PollutantKeys {
		shapes := Synthesize(atlanta, snapshot(key, 1e6), key)
		for _, s := range shapes {
			assert.Equal(t, key, s.Tag.Layer)
		}
	}
}

func TestSeqRange(t *testing.T) {
	rnd := newSeq(atlanta, types.PollutantO3)
	for i := 0; i < 400; i++ {
		r := rnd.at(i)
		assert.GreaterOrEqual(t, r, 0.0)
		assert.Less(t, r, 1.0)
	}
}

func TestFirstCharCode(t *testing.T) {
	assert.Equal(t, 112.0, firstCharCode("pm25"))
	assert.Equal(t, 120.0, firstCharCode("xyz"))
	assert.True(t, math.IsNaN(firstCharCode("")))
	// Astral runes seed from their high surrogate.
	assert.Equal(t, float64(0xD83D), firstCharCode("🔥"))
}

func TestBandAndColorLookup(t *testing.T) {
	assert.Equal(t, Band{Low: 12, Medium: 35, High: 55}, BandFor(types.PollutantPM25))
	assert.Equal(t, Band{Low: 40, Medium: 80, High: 180}, BandFor(types.PollutantNO2))
	assert.Equal(t, Band{Low: 4, Medium: 9, High: 15}, BandFor(types.PollutantCO))
	assert.Equal(t, BandFor(types.PollutantPM25), BandFor(types.PollutantPM10))
	assert.Equal(t, BandFor(types.PollutantPM25), BandFor("xyz"))

	assert.Equal(t, "#42a5f5", ColorFor(types.PollutantNO2))
	assert.Equal(t, DefaultColor, ColorFor(types.LayerAQI))
}
