package geom

import "math"

// Polygon has an exterior ring and zero or more interior rings (holes). A
// valid polygon has at least three exterior points; the ring may or may not
// repeat its first point as its last.
type Polygon struct {
	Exterior []Point
	Holes    [][]Point
}

// ringSignedArea returns the signed area of a ring (positive for
// counter-clockwise), using the closed polygon formula regardless of
// whether the ring explicitly repeats its first vertex.
func ringSignedArea(ring []Point) float64 {
	if len(ring) < 3 {
		return 0
	}
	var area float64
	n := len(ring)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += ring[i].X*ring[j].Y - ring[j].X*ring[i].Y
	}
	return area / 2
}

// ringCentroid returns the signed-area centroid of ring, falling back to
// the arithmetic mean of its vertices when the signed area magnitude is
// below 1e-10.
func ringCentroid(ring []Point) Point {
	if len(ring) < 3 {
		return Point{}
	}
	area := ringSignedArea(ring)
	if math.Abs(area) < 1e-10 {
		var sx, sy float64
		for _, p := range ring {
			sx += p.X
			sy += p.Y
		}
		n := float64(len(ring))
		return Point{X: sx / n, Y: sy / n}
	}
	var cx, cy float64
	n := len(ring)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cross := ring[i].X*ring[j].Y - ring[j].X*ring[i].Y
		cx += (ring[i].X + ring[j].X) * cross
		cy += (ring[i].Y + ring[j].Y) * cross
	}
	return Point{X: cx / (6 * area), Y: cy / (6 * area)}
}

// MBR returns the bounding box of the exterior ring. Holes do not affect
// the MBR.
func (pg Polygon) MBR() MBR {
	m := EmptyMBR()
	for _, p := range pg.Exterior {
		m.ExpandPoint(p)
	}
	return m
}

// Centroid returns the exterior ring's signed-area centroid.
func (pg Polygon) Centroid() Point {
	return ringCentroid(pg.Exterior)
}

// Area returns the exterior area minus the area of every hole with at
// least three points.
func (pg Polygon) Area() float64 {
	if len(pg.Exterior) < 3 {
		return 0
	}
	area := math.Abs(ringSignedArea(pg.Exterior))
	for _, hole := range pg.Holes {
		if len(hole) >= 3 {
			area -= math.Abs(ringSignedArea(hole))
		}
	}
	return area
}

// IsClockwise reports whether the exterior ring winds clockwise.
func (pg Polygon) IsClockwise() bool {
	if len(pg.Exterior) < 3 {
		return false
	}
	return ringSignedArea(pg.Exterior) < 0
}

// Copy returns a deep copy of pg.
func (pg Polygon) Copy() Polygon {
	ext := make([]Point, len(pg.Exterior))
	copy(ext, pg.Exterior)
	var holes [][]Point
	if len(pg.Holes) > 0 {
		holes = make([][]Point, len(pg.Holes))
		for i, h := range pg.Holes {
			hc := make([]Point, len(h))
			copy(hc, h)
			holes[i] = hc
		}
	}
	return Polygon{Exterior: ext, Holes: holes}
}
