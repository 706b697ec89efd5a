package geom

import "github.com/urbis-gis/urbis/urbiserr"

// ObjectID identifies a SpatialObject within a single index's lifetime. The
// zero value means "unassigned".
type ObjectID uint64

// GeomType tags which geometry variant a SpatialObject carries.
type GeomType uint8

const (
	GeomPoint GeomType = iota
	GeomPolyline
	GeomPolygon
)

func (t GeomType) String() string {
	switch t {
	case GeomPoint:
		return "point"
	case GeomPolyline:
		return "polyline"
	case GeomPolygon:
		return "polygon"
	default:
		return "unknown"
	}
}

// SpatialObject is the tagged {Point, Polyline, Polygon} variant every
// Urbis structure indexes. Centroid and MBR are derived fields: callers
// must call UpdateDerived after any geometry mutation. Every component
// that stores a SpatialObject assumes this invariant holds.
type SpatialObject struct {
	ID       ObjectID
	Type     GeomType
	Point    Point
	Polyline Polyline
	Polygon  Polygon

	Centroid Point
	MBR      MBR

	// Properties is an opaque user-supplied blob (e.g. serialized GeoJSON
	// "properties"), carried through copies but never interpreted here.
	Properties []byte
}

// NewPoint builds a point SpatialObject with its derived fields already set.
func NewPoint(id ObjectID, p Point) *SpatialObject {
	obj := &SpatialObject{ID: id, Type: GeomPoint, Point: p}
	obj.UpdateDerived()
	return obj
}

// NewPolyline builds a polyline SpatialObject, rejecting fewer than one
// vertex
func NewPolyline(id ObjectID, points []Point) (*SpatialObject, error) {
	if len(points) < 1 {
		return nil, urbiserr.New(urbiserr.InvalidGeometry, "polyline requires at least 1 vertex")
	}
	pl := Polyline{Points: append([]Point(nil), points...)}
	obj := &SpatialObject{ID: id, Type: GeomPolyline, Polyline: pl}
	obj.UpdateDerived()
	return obj, nil
}

// NewPolygon builds a polygon SpatialObject from an exterior ring and
// optional holes, rejecting fewer than three exterior points
func NewPolygon(id ObjectID, exterior []Point, holes [][]Point) (*SpatialObject, error) {
	if len(exterior) < 3 {
		return nil, urbiserr.New(urbiserr.InvalidGeometry, "polygon requires at least 3 exterior points")
	}
	pg := Polygon{Exterior: append([]Point(nil), exterior...)}
	if len(holes) > 0 {
		pg.Holes = make([][]Point, len(holes))
		for i, h := range holes {
			pg.Holes[i] = append([]Point(nil), h...)
		}
	}
	obj := &SpatialObject{ID: id, Type: GeomPolygon, Polygon: pg}
	obj.UpdateDerived()
	return obj, nil
}

// UpdateDerived recomputes Centroid and MBR from the current geometry. It
// never fails: a degenerate geometry falls back to the documented default
// rather than erroring, because the index must accept any
// geometry that survived construction.
func (o *SpatialObject) UpdateDerived() {
	switch o.Type {
	case GeomPoint:
		o.Centroid = o.Point
		o.MBR = MBR{MinX: o.Point.X, MinY: o.Point.Y, MaxX: o.Point.X, MaxY: o.Point.Y}
	case GeomPolyline:
		o.MBR = o.Polyline.MBR()
		o.Centroid = o.Polyline.Centroid()
	case GeomPolygon:
		o.MBR = o.Polygon.MBR()
		o.Centroid = o.Polygon.Centroid()
	}
}

// AppendVertex appends a point to a polyline or polygon exterior ring and
// recomputes derived fields. Returns InvalidArg for a point object, which
// has no vertex list to grow.
func (o *SpatialObject) AppendVertex(p Point) error {
	switch o.Type {
	case GeomPolyline:
		o.Polyline.Points = append(o.Polyline.Points, p)
	case GeomPolygon:
		o.Polygon.Exterior = append(o.Polygon.Exterior, p)
	default:
		return urbiserr.New(urbiserr.InvalidArg, "cannot append a vertex to a point")
	}
	o.UpdateDerived()
	return nil
}

// AddHole appends a new hole ring to a polygon object and recomputes
// derived fields (holes never affect MBR/centroid of the exterior-only
// derivation rule, but Area() does react).
func (o *SpatialObject) AddHole(ring []Point) error {
	if o.Type != GeomPolygon {
		return urbiserr.New(urbiserr.InvalidArg, "cannot add a hole to a non-polygon")
	}
	o.Polygon.Holes = append(o.Polygon.Holes, append([]Point(nil), ring...))
	o.UpdateDerived()
	return nil
}

// SetProperties replaces the opaque properties blob.
func (o *SpatialObject) SetProperties(data []byte) {
	o.Properties = append([]byte(nil), data...)
}

// Copy returns a deep copy of o, including its properties blob. Equality
// between objects is by ID, never by geometry. Copy preserves ID, so a
// copy is still "the same object" by that rule.
func (o *SpatialObject) Copy() *SpatialObject {
	c := &SpatialObject{
		ID:       o.ID,
		Type:     o.Type,
		Point:    o.Point,
		Centroid: o.Centroid,
		MBR:      o.MBR,
	}
	switch o.Type {
	case GeomPolyline:
		c.Polyline = o.Polyline.Copy()
	case GeomPolygon:
		c.Polygon = o.Polygon.Copy()
	}
	if o.Properties != nil {
		c.Properties = append([]byte(nil), o.Properties...)
	}
	return c
}
