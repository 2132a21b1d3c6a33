package render

import (
	"sort"
	"sync"
)

// Chart is a drawn chart bound to a canvas. Instance increases with every bind, so a
// rebind is always a new chart rather than a mutation of the old one.
type Chart struct {
	Instance uint64
	Canvas   string
	Spec     Spec
	PNG      []byte
}

// Canvases binds at most one chart per canvas id.
type Canvases struct {
	renderer *Renderer

	mu        sync.Mutex
	bound     map[string]*Chart
	instances uint64
	destroyed uint64
}

// NewCanvases creates an empty registry drawing through renderer.
func NewCanvases(renderer *Renderer) *Canvases {
	return &Canvases{renderer: renderer, bound: make(map[string]*Chart)}
}

// Bind destroys any chart on canvas and then draws spec onto it. When drawing fails
// the canvas is left empty and the error wraps ErrDrawFailed.
func (c *Canvases) Bind(canvas string, spec Spec) (*Chart, error) {
	c.mu.Lock()
	c.destroyLocked(canvas)
	c.mu.Unlock()

	png, err := c.renderer.Draw(spec)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// A concurrent bind may have landed while drawing; the later bind wins.
	c.destroyLocked(canvas)
	c.instances++
	chart := &Chart{Instance: c.instances, Canvas: canvas, Spec: spec, PNG: png}
	c.bound[canvas] = chart
	return chart, nil
}

// Destroy removes the chart on canvas and reports whether one was bound.
func (c *Canvases) Destroy(canvas string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyLocked(canvas)
}

// DestroyAll removes every bound chart.
func (c *Canvases) DestroyAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for canvas := range c.bound {
		c.destroyLocked(canvas)
	}
}

func (c *Canvases) destroyLocked(canvas string) bool {
	if _, ok := c.bound[canvas]; !ok {
		return false
	}
	delete(c.bound, canvas)
	c.destroyed++
	return true
}

// Get returns the chart bound to canvas.
func (c *Canvases) Get(canvas string) (*Chart, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.bound[canvas]
	return ch, ok
}

// Bound lists canvases that currently hold a chart.
func (c *Canvases) Bound() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.bound))
	for canvas := range c.bound {
		out = append(out, canvas)
	}
	sort.Strings(out)
	return out
}

// Destroyed returns how many charts have been destroyed.
func (c *Canvases) Destroyed() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyed
}
