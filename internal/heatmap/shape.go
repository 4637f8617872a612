package heatmap

import (
	"fmt"
	"strings"

	"airaware/internal/types"
)

// Kind discriminates the DrawableShape variants.
type Kind string

const (
	// KindCircle is a geographic circle whose radius is in meters.
	KindCircle Kind = "circle"
	// KindPointMarker is a screen-space marker whose radius is in pixels.
	KindPointMarker Kind = "point_marker"
)

// Role is the part a shape plays within one heat map.
type Role string

const (
	RoleBase   Role = "base"
	RoleSpot   Role = "spot"
	RoleCenter Role = "center"
)

func (r Role) valid() bool {
	switch r {
	case RoleBase, RoleSpot, RoleCenter:
		return true
	}
	return false
}

// Tag identifies the role and owning layer of a shape so that a renderer can
// later remove exactly the shapes one Synthesize call produced.
type Tag struct {
	Role  Role
	Layer string
}

// String renders the tag as "<role>:<layer>".
func (t Tag) String() string {
	return string(t.Role) + ":" + t.Layer
}

// MarshalText encodes the tag in its string form.
func (t Tag) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a "<role>:<layer>" tag.
func (t *Tag) UnmarshalText(b []byte) error {
	parsed, err := ParseTag(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTag parses a "<role>:<layer>" string. The layer is kept verbatim, so
// tags produced for unrecognized layers round-trip.
func ParseTag(s string) (Tag, error) {
	role, layer, ok := strings.Cut(s, ":")
	if !ok {
		return Tag{}, fmt.Errorf("heatmap: tag %q has no layer", s)
	}
	if !Role(role).valid() {
		return Tag{}, fmt.Errorf("heatmap: tag %q has unknown role %q", s, role)
	}
	return Tag{Role: Role(role), Layer: layer}, nil
}

// MatchLayer selects every heat-map shape owned by layer.
func MatchLayer(layer string) func(Tag) bool {
	return func(t Tag) bool {
		return t.Role.valid() && t.Layer == layer
	}
}

// MatchAll selects every heat-map shape regardless of layer.
func MatchAll(t Tag) bool {
	return t.Role.valid()
}

// DrawableShape is one renderable overlay. Circles carry RadiusMeters; point
// markers carry RadiusPixels and keep a constant on-screen size.
type DrawableShape struct {
	Kind         Kind           `json:"kind"`
	Center       types.GeoPoint `json:"center"`
	RadiusMeters float64        `json:"radius_m,omitempty"`
	RadiusPixels float64        `json:"radius_px,omitempty"`
	StrokeColor  string         `json:"stroke_color"`
	FillColor    string         `json:"fill_color"`
	FillOpacity  float64        `json:"fill_opacity"`
	StrokeWeight int            `json:"stroke_weight"`
	Tag          Tag            `json:"tag"`
}
