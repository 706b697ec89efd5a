// Package geom implements the Urbis geometry kernel: points, minimum
// bounding rectangles, polylines, polygons, and the tagged SpatialObject
// variant that every other Urbis package indexes by id, centroid, and MBR.
//
// Grounded on original_source/src/geometry.c and include/geometry.h.
package geom

import "math"

// Point is a 2-D point in the plane.
type Point struct {
	X, Y float64
}

// DistanceSq returns the squared Euclidean distance between a and b.
func DistanceSq(a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return dx*dx + dy*dy
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Sqrt(DistanceSq(a, b))
}

// Equals reports whether a and b are within epsilon of each other on both axes.
func Equals(a, b Point, epsilon float64) bool {
	return math.Abs(a.X-b.X) < epsilon && math.Abs(a.Y-b.Y) < epsilon
}

// MBR is an axis-aligned minimum bounding rectangle. An empty MBR has
// MinX > MaxX (or MinY > MaxY); see IsEmpty.
type MBR struct {
	MinX, MinY, MaxX, MaxY float64
}

// NewMBR builds an MBR from explicit bounds.
func NewMBR(minX, minY, maxX, maxY float64) MBR {
	return MBR{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

// EmptyMBR returns the canonical empty MBR.
func EmptyMBR() MBR {
	return MBR{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
}

// IsEmpty reports whether the MBR is empty/invalid.
func (m MBR) IsEmpty() bool {
	return m.MinX > m.MaxX || m.MinY > m.MaxY
}

// ExpandPoint grows m in place to include p. A no-op if p is nil-equivalent
// (callers pass by value, so there is nothing to skip); matches
// mbr_expand_point.
func (m *MBR) ExpandPoint(p Point) {
	if p.X < m.MinX {
		m.MinX = p.X
	}
	if p.Y < m.MinY {
		m.MinY = p.Y
	}
	if p.X > m.MaxX {
		m.MaxX = p.X
	}
	if p.Y > m.MaxY {
		m.MaxY = p.Y
	}
}

// ExpandMBR grows m in place to include other. A no-op if other is empty.
func (m *MBR) ExpandMBR(other MBR) {
	if other.IsEmpty() {
		return
	}
	if other.MinX < m.MinX {
		m.MinX = other.MinX
	}
	if other.MinY < m.MinY {
		m.MinY = other.MinY
	}
	if other.MaxX > m.MaxX {
		m.MaxX = other.MaxX
	}
	if other.MaxY > m.MaxY {
		m.MaxY = other.MaxY
	}
}

// Intersects reports whether a and b overlap, closed-boundary inclusive.
// Empty MBRs never intersect anything.
func Intersects(a, b MBR) bool {
	if a.IsEmpty() || b.IsEmpty() {
		return false
	}
	return a.MinX <= b.MaxX && a.MaxX >= b.MinX && a.MinY <= b.MaxY && a.MaxY >= b.MinY
}

// ContainsPoint reports whether m contains p, inclusive on all sides.
func ContainsPoint(m MBR, p Point) bool {
	if m.IsEmpty() {
		return false
	}
	return p.X >= m.MinX && p.X <= m.MaxX && p.Y >= m.MinY && p.Y <= m.MaxY
}

// ContainsMBR reports whether a fully contains b, inclusive on boundaries.
func ContainsMBR(a, b MBR) bool {
	if a.IsEmpty() || b.IsEmpty() {
		return false
	}
	return b.MinX >= a.MinX && b.MaxX <= a.MaxX && b.MinY >= a.MinY && b.MaxY <= a.MaxY
}

// Centroid returns the midpoint of m, or the zero point for an empty MBR.
func Centroid(m MBR) Point {
	if m.IsEmpty() {
		return Point{}
	}
	return Point{X: (m.MinX + m.MaxX) / 2, Y: (m.MinY + m.MaxY) / 2}
}

// Area returns the area of m, zero for an empty MBR.
func Area(m MBR) float64 {
	if m.IsEmpty() {
		return 0
	}
	return (m.MaxX - m.MinX) * (m.MaxY - m.MinY)
}

// Intersection returns the overlapping region of a and b, or an empty MBR
// if they do not intersect.
func Intersection(a, b MBR) MBR {
	if !Intersects(a, b) {
		return EmptyMBR()
	}
	return MBR{
		MinX: math.Max(a.MinX, b.MinX),
		MinY: math.Max(a.MinY, b.MinY),
		MaxX: math.Min(a.MaxX, b.MaxX),
		MaxY: math.Min(a.MaxY, b.MaxY),
	}
}

// Union returns the smallest MBR containing both a and b.
func Union(a, b MBR) MBR {
	u := a
	u.ExpandMBR(b)
	return u
}

// AdjacentOrIntersects reports whether a and b overlap or touch within a
// small absolute tolerance on both axes, per the quadtree adjacency rule.
func AdjacentOrIntersects(a, b MBR, epsilon float64) bool {
	if a.IsEmpty() || b.IsEmpty() {
		return false
	}
	return a.MinX <= b.MaxX+epsilon && a.MaxX >= b.MinX-epsilon &&
		a.MinY <= b.MaxY+epsilon && a.MaxY >= b.MinY-epsilon
}
