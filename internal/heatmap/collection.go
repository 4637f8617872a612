package heatmap

import (
	"sync"
)

// Collection is an in-memory Renderer that keeps shapes in draw order. It can
// export its contents as GeoJSON for map widgets that consume features.
type Collection struct {
	mu     sync.Mutex
	shapes []DrawableShape
}

// NewCollection returns an empty Collection.
func NewCollection() *Collection {
	return &Collection{}
}

// AddShape appends shape on top of the existing ones.
func (c *Collection) AddShape(shape DrawableShape) {
	c.mu.Lock()
	c.shapes = append(c.shapes, shape)
	c.mu.Unlock()
}

// RemoveShapes deletes the shapes whose tag satisfies match, preserving the
// order of the rest.
func (c *Collection) RemoveShapes(match func(Tag) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.shapes[:0]
	removed := 0
	for _, s := range c.shapes {
		if match(s.Tag) {
			removed++
			continue
		}
		kept = append(kept, s)
	}
	// Zero the tail so dropped shapes are not retained by the backing array.
	for i := len(kept); i < len(c.shapes); i++ {
		c.shapes[i] = DrawableShape{}
	}
	c.shapes = kept
	return removed
}

// Shapes returns a copy of the current shapes in draw order.
func (c *Collection) Shapes() []DrawableShape {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]DrawableShape, len(c.shapes))
	copy(out, c.shapes)
	return out
}

// Len returns the number of shapes held.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.shapes)
}

// GeoJSON exports the current shapes as a FeatureCollection.
func (c *Collection) GeoJSON() FeatureCollection {
	return ToGeoJSON(c.Shapes())
}
