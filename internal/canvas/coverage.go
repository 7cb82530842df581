// Package canvas tracks which pixels of a fixed-size canvas have been touched.
// The backing store is a plain bitset (one bit per pixel), so even the full
// 2022 canvas (2000x2000) costs only ~500 KB.
package canvas

import "math/bits"

// Coverage is a per-pixel bitset over a W x H canvas.
type Coverage struct {
	w, h int
	data []uint64
}

// NewCoverage allocates coverage for a canvas of the given dimensions.
// Non-positive dimensions yield an empty coverage that ignores all marks.
func NewCoverage(w, h int) *Coverage {
	if w <= 0 || h <= 0 {
		return &Coverage{}
	}
	nWords := (w*h + 63) / 64
	return &Coverage{w: w, h: h, data: make([]uint64, nWords)}
}

// InBounds reports whether (x, y) lies on the canvas.
func (c *Coverage) InBounds(x, y int) bool {
	return x >= 0 && x < c.w && y >= 0 && y < c.h
}

// Mark sets the bit for pixel (x, y). Out-of-bounds marks are ignored.
func (c *Coverage) Mark(x, y int) {
	if !c.InBounds(x, y) {
		return
	}
	id := y*c.w + x
	c.data[id/64] |= 1 << uint(id%64)
}

// Has reports whether pixel (x, y) has been marked.
func (c *Coverage) Has(x, y int) bool {
	if !c.InBounds(x, y) {
		return false
	}
	id := y*c.w + x
	return c.data[id/64]&(1<<uint(id%64)) != 0
}

// Count returns the number of distinct pixels marked so far.
func (c *Coverage) Count() int {
	n := 0
	for _, w := range c.data {
		n += bits.OnesCount64(w)
	}
	return n
}
