package geom

// Polyline is a connected sequence of vertices. A valid polyline has at
// least one vertex; most operations below assume ≥ 2 vertices,
// matching linestring_length/linestring_centroid in geometry.c.
type Polyline struct {
	Points []Point
}

// MBR returns the bounding box of the vertices, or EmptyMBR for an empty
// polyline (the caller is responsible for rejecting empty polylines at
// construction, see NewPolyline).
func (pl Polyline) MBR() MBR {
	m := EmptyMBR()
	for _, p := range pl.Points {
		m.ExpandPoint(p)
	}
	return m
}

// Length returns the total length of the polyline's segments. Zero for
// fewer than two vertices.
func (pl Polyline) Length() float64 {
	if len(pl.Points) < 2 {
		return 0
	}
	var total float64
	for i := 0; i < len(pl.Points)-1; i++ {
		total += Distance(pl.Points[i], pl.Points[i+1])
	}
	return total
}

// Centroid returns the segment-length-weighted average of segment
// midpoints. For a single-vertex polyline it returns that vertex. If the
// total length is below 1e-10 (all vertices effectively coincident), it
// returns the first vertex.
func (pl Polyline) Centroid() Point {
	if len(pl.Points) == 0 {
		return Point{}
	}
	if len(pl.Points) == 1 {
		return pl.Points[0]
	}
	var totalLen, cx, cy float64
	for i := 0; i < len(pl.Points)-1; i++ {
		p1, p2 := pl.Points[i], pl.Points[i+1]
		segLen := Distance(p1, p2)
		midX := (p1.X + p2.X) / 2
		midY := (p1.Y + p2.Y) / 2
		cx += midX * segLen
		cy += midY * segLen
		totalLen += segLen
	}
	if totalLen < 1e-10 {
		return pl.Points[0]
	}
	return Point{X: cx / totalLen, Y: cy / totalLen}
}

// Copy returns a deep copy of pl.
func (pl Polyline) Copy() Polyline {
	pts := make([]Point, len(pl.Points))
	copy(pts, pl.Points)
	return Polyline{Points: pts}
}
