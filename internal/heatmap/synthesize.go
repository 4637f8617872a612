// Package heatmap turns a single pollutant reading into a set of map overlays:
// a translucent coverage circle, a scatter of "hot spot" circles whose count
// and opacity track the reading's severity, and a center marker.
//
// Spot placement is pseudo-random but fully determined by the location and
// layer, so the same inputs always draw the same picture. It is a visual
// approximation, not an interpolation of real measurements.
package heatmap

import (
	"math"
	"unicode/utf16"

	"airaware/internal/types"
)

const (
	// metersPerDegree converts degree offsets to meters (1° ≈ 111 km).
	metersPerDegree = 111000.0

	baseRadiusDeg    = 0.05
	baseFillOpacity  = 0.3
	baseStrokeWeight = 2

	// Spots fall within spotSpreadFactor of the base radius.
	spotSpreadFactor  = 0.8
	spotMinRadiusDeg  = 0.002
	spotRadiusSpanDeg = 0.008
	spotMinOpacity    = 0.4
	spotOpacitySpan   = 0.5
	spotStrokeWeight  = 1

	centerRadiusPx     = 8
	centerColor        = "#ffffff"
	centerFillOpacity  = 0.9
	centerStrokeWeight = 2

	// Offsets into the pseudo-random sequence for each per-spot draw.
	distanceOffset = 100
	radiusOffset   = 200
)

// BaseRadiusMeters is the radius of the coverage circle.
const BaseRadiusMeters = baseRadiusDeg * metersPerDegree

// MaxSpotOffsetMeters bounds how far a spot center lies from the base center
// along either axis.
const MaxSpotOffsetMeters = baseRadiusDeg * spotSpreadFactor * metersPerDegree

// Synthesize builds the heat map for one layer at point. The result is ordered
// for drawing: the base circle first, then the spots, then the center marker
// on top. A nil snapshot means there is nothing to draw and yields nil.
//
// Unknown layers use the pm25 band and DefaultColor, but still seed the
// spot sequence from their own first character and appear verbatim in tags.
func Synthesize(point types.GeoPoint, snapshot *types.PollutantSnapshot, layer string) []DrawableShape {
	if snapshot == nil {
		return nil
	}

	value := snapshot.Value(layer)
	band := BandFor(layer)
	color := ColorFor(layer)
	rnd := newSeq(point, layer)

	n := spotCount(value, band, rnd)
	shapes := make([]DrawableShape, 0, n+2)

	shapes = append(shapes, DrawableShape{
		Kind:         KindCircle,
		Center:       point,
		RadiusMeters: BaseRadiusMeters,
		StrokeColor:  color,
		FillColor:    color,
		FillOpacity:  baseFillOpacity,
		StrokeWeight: baseStrokeWeight,
		Tag:          Tag{Role: RoleBase, Layer: layer},
	})

	opacity := spotMinOpacity + intensity(value, band)*spotOpacitySpan
	for i := 0; i < n; i++ {
		angle := rnd.at(i) * 2 * math.Pi
		distance := rnd.at(i+distanceOffset) * baseRadiusDeg * spotSpreadFactor
		// Planar offset: longitude degrees are not scaled by latitude.
		center := types.GeoPoint{
			Lat: point.Lat + math.Cos(angle)*distance,
			Lon: point.Lon + math.Sin(angle)*distance,
		}
		shapes = append(shapes, DrawableShape{
			Kind:         KindCircle,
			Center:       center,
			RadiusMeters: (spotMinRadiusDeg + rnd.at(i+radiusOffset)*spotRadiusSpanDeg) * metersPerDegree,
			StrokeColor:  color,
			FillColor:    color,
			FillOpacity:  opacity,
			StrokeWeight: spotStrokeWeight,
			Tag:          Tag{Role: RoleSpot, Layer: layer},
		})
	}

	shapes = append(shapes, DrawableShape{
		Kind:         KindPointMarker,
		Center:       point,
		RadiusPixels: centerRadiusPx,
		StrokeColor:  centerColor,
		FillColor:    centerColor,
		FillOpacity:  centerFillOpacity,
		StrokeWeight: centerStrokeWeight,
		Tag:          Tag{Role: RoleCenter, Layer: layer},
	})

	return shapes
}

// spotCount picks the number of hot spots from the severity tier of value.
func spotCount(value float64, band Band, rnd seq) int {
	switch {
	case value <= band.Low:
		return draw(rnd.at(0), 0, 3)
	case value <= band.Medium:
		return draw(rnd.at(1), 3, 4)
	case value <= band.High:
		return draw(rnd.at(2), 6, 4)
	default:
		return draw(rnd.at(3), 8, 5)
	}
}

// draw maps r in [0,1) onto the integers [base, base+span). A NaN draw means
// the sequence has no seed and produces no spots.
func draw(r float64, base, span int) int {
	if math.IsNaN(r) {
		return 0
	}
	return base + int(math.Floor(r*float64(span)))
}

// intensity is the reading relative to the band's high cut point, capped at 1.
func intensity(value float64, band Band) float64 {
	return math.Min(1, value/band.High)
}

// seq is the deterministic sequence frac(sin(seed+i) * 10000).
type seq struct {
	seed float64
}

func newSeq(point types.GeoPoint, layer string) seq {
	return seq{seed: math.Floor(point.Lat*1000) + math.Floor(point.Lon*1000) + firstCharCode(layer)}
}

func (s seq) at(i int) float64 {
	x := math.Sin(s.seed+float64(i)) * 10000
	return x - math.Floor(x)
}

// firstCharCode returns the first UTF-16 code unit of s, or NaN when s is empty.
func firstCharCode(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	units := utf16.Encode([]rune(s))
	return float64(units[0])
}
