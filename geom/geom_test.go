package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMBRIntersectsClosedBoundary(t *testing.T) {
	a := NewMBR(0, 0, 10, 10)
	b := NewMBR(10, 10, 20, 20)
	assert.True(t, Intersects(a, b), "MBRs sharing only a corner should intersect (closed)")

	c := NewMBR(10.0001, 0, 20, 10)
	assert.False(t, Intersects(a, c))
}

func TestMBREmptyNeverIntersects(t *testing.T) {
	empty := EmptyMBR()
	other := NewMBR(0, 0, 1, 1)
	assert.False(t, Intersects(empty, other))
	assert.False(t, Intersects(other, empty))
}

func TestMBRContainsPointInclusive(t *testing.T) {
	m := NewMBR(0, 0, 10, 10)
	assert.True(t, ContainsPoint(m, Point{X: 0, Y: 0}))
	assert.True(t, ContainsPoint(m, Point{X: 10, Y: 10}))
	assert.False(t, ContainsPoint(m, Point{X: 10.1, Y: 10}))
}

func TestMBRExpandSkipsEmpty(t *testing.T) {
	m := NewMBR(0, 0, 10, 10)
	m.ExpandMBR(EmptyMBR())
	assert.Equal(t, NewMBR(0, 0, 10, 10), m)
}

func TestMBRCentroidAndAreaOfEmpty(t *testing.T) {
	empty := EmptyMBR()
	assert.Equal(t, Point{}, Centroid(empty))
	assert.Equal(t, 0.0, Area(empty))
}

func TestPolylineCentroidAndMBR(t *testing.T) {
	obj, err := NewPolyline(1, []Point{{X: 0, Y: 0}, {X: 10, Y: 0}})
	require.NoError(t, err)
	assert.Equal(t, Point{X: 5, Y: 0}, obj.Centroid)
	assert.Equal(t, NewMBR(0, 0, 10, 0), obj.MBR)
}

func TestPolylineCoincidentVerticesDegenerate(t *testing.T) {
	pl := Polyline{Points: []Point{{X: 3, Y: 4}, {X: 3, Y: 4}, {X: 3, Y: 4}}}
	assert.Equal(t, 0.0, pl.Length())
	assert.Equal(t, Point{X: 3, Y: 4}, pl.Centroid())
}

func TestPolylineRejectsEmpty(t *testing.T) {
	_, err := NewPolyline(1, nil)
	require.Error(t, err)
}

func TestPolygonCentroidAndArea(t *testing.T) {
	ring := []Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}, {X: 0, Y: 0}}
	obj, err := NewPolygon(1, ring, nil)
	require.NoError(t, err)
	assert.InDelta(t, 5, obj.Centroid.X, 1e-9)
	assert.InDelta(t, 5, obj.Centroid.Y, 1e-9)
	assert.InDelta(t, 100, obj.Polygon.Area(), 1e-9)
}

func TestPolygonRejectsTwoPoints(t *testing.T) {
	_, err := NewPolygon(1, []Point{{X: 0, Y: 0}, {X: 1, Y: 1}}, nil)
	require.Error(t, err)
}

func TestPolygonAcceptsThreePoints(t *testing.T) {
	_, err := NewPolygon(1, []Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}, nil)
	require.NoError(t, err)
}

func TestPolygonAreaSubtractsHoles(t *testing.T) {
	ext := []Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	hole := []Point{{X: 2, Y: 2}, {X: 4, Y: 2}, {X: 4, Y: 4}, {X: 2, Y: 4}}
	obj, err := NewPolygon(1, ext, [][]Point{hole})
	require.NoError(t, err)
	assert.InDelta(t, 96, obj.Polygon.Area(), 1e-9)
}

func TestCopyDeepCopiesPropertiesAndGeometry(t *testing.T) {
	obj, err := NewPolyline(7, []Point{{X: 0, Y: 0}, {X: 1, Y: 1}})
	require.NoError(t, err)
	obj.SetProperties([]byte("name=foo"))

	c := obj.Copy()
	c.Polyline.Points[0].X = 99
	c.Properties[0] = 'X'

	assert.Equal(t, 0.0, obj.Polyline.Points[0].X, "copy must not alias original geometry")
	assert.Equal(t, byte('n'), obj.Properties[0], "copy must not alias original properties")
	assert.Equal(t, obj.ID, c.ID)
}

func TestEqualityIsByID(t *testing.T) {
	a := NewPoint(1, Point{X: 0, Y: 0})
	b := NewPoint(1, Point{X: 99, Y: 99})
	assert.Equal(t, a.ID, b.ID, "spec defines equality by id, never by geometry")
}
