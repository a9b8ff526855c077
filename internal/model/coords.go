package model

import "math"

// Coordinates is a normalized bounding box expressed as percentages of the
// page dimensions: left/top are offsets from the page edges, all values in
// [0,100]. Width and height must be positive.
type Coordinates struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area returns the box area in squared percentage points.
func (c Coordinates) Area() float64 {
	return c.Width * c.Height
}

// Validate checks the percentage-box invariant: offsets in [0,100] and
// positive extent.
func (c Coordinates) Validate() error {
	if c.Left < 0 || c.Left > 100 || c.Top < 0 || c.Top > 100 {
		return Validationf("coordinates: left/top out of range: left=%.2f top=%.2f", c.Left, c.Top)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return Validationf("coordinates: non-positive extent: width=%.2f height=%.2f", c.Width, c.Height)
	}
	return nil
}

// Clamp returns a copy with left/top forced into [0,100] and the extent
// trimmed so the box stays on the page. Extent never drops below 0.1 so a
// clamped box still satisfies Validate.
func (c Coordinates) Clamp() Coordinates {
	out := c
	out.Left = math.Min(math.Max(out.Left, 0), 100)
	out.Top = math.Min(math.Max(out.Top, 0), 100)
	if out.Left+out.Width > 100 {
		out.Width = 100 - out.Left
	}
	if out.Top+out.Height > 100 {
		out.Height = 100 - out.Top
	}
	if out.Width < 0.1 {
		out.Width = 0.1
	}
	if out.Height < 0.1 {
		out.Height = 0.1
	}
	return out
}

// Intersection returns the overlapping area between two boxes, zero when
// they are disjoint.
func (c Coordinates) Intersection(o Coordinates) float64 {
	w := math.Min(c.Left+c.Width, o.Left+o.Width) - math.Max(c.Left, o.Left)
	h := math.Min(c.Top+c.Height, o.Top+o.Height) - math.Max(c.Top, o.Top)
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// OverlapFraction returns the share of the smaller box covered by the
// intersection. This is the merge matching metric: 1.0 means the smaller box
// is fully contained in the larger one.
func (c Coordinates) OverlapFraction(o Coordinates) float64 {
	smaller := math.Min(c.Area(), o.Area())
	if smaller <= 0 {
		return 0
	}
	return c.Intersection(o) / smaller
}

// WithinTolerance reports whether every edge of the two boxes differs by at
// most tol percentage points.
func (c Coordinates) WithinTolerance(o Coordinates, tol float64) bool {
	return math.Abs(c.Left-o.Left) <= tol &&
		math.Abs(c.Top-o.Top) <= tol &&
		math.Abs(c.Width-o.Width) <= tol &&
		math.Abs(c.Height-o.Height) <= tol
}
