// Package surface describes compositor surfaces and the batched mutations
// applied to them.
package surface

import "fmt"

// Handle addresses a compositor-owned surface (the task's "leash").
// On X11 it is the top-level window id. The holder does not own the surface.
type Handle uint32

// Rect describes a rectangle in screen coordinates. Right and Bottom are
// exclusive.
type Rect struct {
	Left   int `json:"left" yaml:"left"`
	Top    int `json:"top" yaml:"top"`
	Right  int `json:"right" yaml:"right"`
	Bottom int `json:"bottom" yaml:"bottom"`
}

// Width returns the horizontal extent of r.
func (r Rect) Width() int {
	return r.Right - r.Left
}

// Height returns the vertical extent of r.
func (r Rect) Height() int {
	return r.Bottom - r.Top
}

// Empty reports whether r covers no area.
func (r Rect) Empty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", r.Left, r.Top, r.Right, r.Bottom)
}

// Matrix is the 2x2 transform applied to a surface.
type Matrix struct {
	DsDx float32 `json:"dsdx"`
	DtDx float32 `json:"dtdx"`
	DtDy float32 `json:"dtdy"`
	DsDy float32 `json:"dsdy"`
}

// Identity is the untransformed matrix.
var Identity = Matrix{DsDx: 1, DtDx: 0, DtDy: 0, DsDy: 1}

// IsIdentity reports whether m leaves the surface untransformed.
func (m Matrix) IsIdentity() bool {
	return m == Identity
}
