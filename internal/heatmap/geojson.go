package heatmap

// FeatureCollection is a GeoJSON FeatureCollection of heat-map shapes.
// GeoJSON has no circle geometry, so each shape is a Point feature whose
// radius and styling travel in its properties.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a single GeoJSON feature.
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// Geometry is a GeoJSON Point. Coordinates are [lon, lat].
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// ToGeoJSON converts shapes to features, keeping their order.
func ToGeoJSON(shapes []DrawableShape) FeatureCollection {
	fc := FeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]Feature, 0, len(shapes)),
	}
	for i, s := range shapes {
		props := map[string]any{
			"kind":          string(s.Kind),
			"tag":           s.Tag.String(),
			"role":          string(s.Tag.Role),
			"layer":         s.Tag.Layer,
			"stroke_color":  s.StrokeColor,
			"fill_color":    s.FillColor,
			"fill_opacity":  s.FillOpacity,
			"stroke_weight": s.StrokeWeight,
			"z_index":       i,
		}
		switch s.Kind {
		case KindPointMarker:
			props["radius_px"] = s.RadiusPixels
		default:
			props["radius_m"] = s.RadiusMeters
		}
		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{s.Center.Lon, s.Center.Lat},
			},
			Properties: props,
		})
	}
	return fc
}
