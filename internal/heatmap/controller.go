package heatmap

import (
	"sync"

	"airaware/internal/types"
)

// Renderer is the map widget side of the heat-map contract. It draws shapes in
// the order they are added and removes shapes by tag.
type Renderer interface {
	AddShape(shape DrawableShape)
	// RemoveShapes deletes every shape whose tag satisfies match and returns
	// how many were removed.
	RemoveShapes(match func(Tag) bool) int
}

// Controller keeps a Renderer in sync with the active heat-map layer. Each
// Apply retracts the shapes installed by the previous Apply before drawing the
// new ones, and does both under one lock so two layer switches never leave
// mixed shape sets on the map.
type Controller struct {
	mu        sync.Mutex
	renderer  Renderer
	layer     string
	count     int
	installed bool
}

// NewController creates a Controller drawing onto r.
func NewController(r Renderer) *Controller {
	return &Controller{renderer: r}
}

// Apply replaces the installed heat map with the one for (point, snapshot,
// layer) and returns the number of shapes drawn. A nil snapshot clears the map
// and draws nothing.
func (c *Controller) Apply(point types.GeoPoint, snapshot *types.PollutantSnapshot, layer string) int {
	shapes := Synthesize(point, snapshot, layer)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.clearLocked()
	for _, s := range shapes {
		c.renderer.AddShape(s)
	}
	if len(shapes) > 0 {
		c.layer = layer
		c.count = len(shapes)
		c.installed = true
	}
	return len(shapes)
}

// Clear removes the installed heat map, if any, and returns how many shapes
// the renderer dropped.
func (c *Controller) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clearLocked()
}

// Installed reports the layer currently drawn and its shape count.
func (c *Controller) Installed() (layer string, count int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.layer, c.count, c.installed
}

func (c *Controller) clearLocked() int {
	if !c.installed {
		return 0
	}
	removed := c.renderer.RemoveShapes(MatchLayer(c.layer))
	c.layer = ""
	c.count = 0
	c.installed = false
	return removed
}
