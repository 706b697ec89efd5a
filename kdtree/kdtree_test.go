package kdtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urbis-gis/urbis/geom"
)

func itemsAt(pts ...geom.Point) []Item {
	out := make([]Item, len(pts))
	for i, p := range pts {
		out[i] = Item{Point: p, ObjectID: uint64(i + 1)}
	}
	return out
}

func TestBulkLoadSizeAndBounds(t *testing.T) {
	tr := New()
	tr.BulkLoad(itemsAt(geom.Point{X: 0, Y: 0}, geom.Point{X: 10, Y: 5}, geom.Point{X: -2, Y: 3}))
	assert.Equal(t, 3, tr.Size())
	assert.Equal(t, geom.NewMBR(-2, 0, 10, 5), tr.Bounds())
}

func TestBulkLoadEmpty(t *testing.T) {
	tr := New()
	tr.BulkLoad(nil)
	assert.Equal(t, 0, tr.Size())
	_, found := tr.Nearest(geom.Point{})
	assert.False(t, found)
}

func TestNearestReturnsClosestPoint(t *testing.T) {
	tr := New()
	tr.BulkLoad(itemsAt(geom.Point{X: 0, Y: 0}, geom.Point{X: 10, Y: 10}, geom.Point{X: 1, Y: 1}))
	res, found := tr.Nearest(geom.Point{X: 0.5, Y: 0.5})
	require.True(t, found)
	assert.Equal(t, geom.Point{X: 0, Y: 0}, res.Point)
}

func TestKNearestOrdersByDistance(t *testing.T) {
	tr := New()
	tr.BulkLoad(itemsAt(
		geom.Point{X: 0, Y: 0},
		geom.Point{X: 5, Y: 0},
		geom.Point{X: 1, Y: 0},
		geom.Point{X: 9, Y: 9},
	))
	res := tr.KNearest(geom.Point{X: 0, Y: 0}, 2)
	require.Len(t, res, 2)
	assert.Equal(t, geom.Point{X: 0, Y: 0}, res[0].Point)
	assert.Equal(t, geom.Point{X: 1, Y: 0}, res[1].Point)
}

func TestKNearestClampsToSize(t *testing.T) {
	tr := New()
	tr.BulkLoad(itemsAt(geom.Point{X: 0, Y: 0}, geom.Point{X: 1, Y: 1}))
	res := tr.KNearest(geom.Point{X: 0, Y: 0}, 10)
	assert.Len(t, res, 2)
}

func TestKNearestTieBreaksByLowerID(t *testing.T) {
	tr := New()
	tr.Insert(Item{Point: geom.Point{X: 1, Y: 0}, ObjectID: 5})
	tr.Insert(Item{Point: geom.Point{X: -1, Y: 0}, ObjectID: 2})
	res := tr.KNearest(geom.Point{X: 0, Y: 0}, 1)
	require.Len(t, res, 1)
	assert.EqualValues(t, 2, res[0].ObjectID)
}

func TestRangeQueryIsInclusiveOnBoundary(t *testing.T) {
	tr := New()
	tr.BulkLoad(itemsAt(geom.Point{X: 0, Y: 0}, geom.Point{X: 10, Y: 10}, geom.Point{X: 20, Y: 20}))
	res := tr.RangeQuery(geom.NewMBR(0, 0, 10, 10))
	assert.Len(t, res, 2)
}

func TestRadiusQueryFiltersByExactDistance(t *testing.T) {
	tr := New()
	tr.BulkLoad(itemsAt(geom.Point{X: 0, Y: 0}, geom.Point{X: 3, Y: 4}, geom.Point{X: 10, Y: 10}))
	res := tr.RadiusQuery(geom.Point{X: 0, Y: 0}, 5)
	assert.Len(t, res, 2)
}

func TestPartitionBlocksRespectsMaxPerBlockAndCoversAllPoints(t *testing.T) {
	tr := New()
	pts := make([]Item, 0, 50)
	for i := 0; i < 50; i++ {
		pts = append(pts, Item{Point: geom.Point{X: float64(i), Y: float64(i)}, ObjectID: uint64(i + 1)})
	}
	tr.BulkLoad(pts)
	blocks := tr.PartitionBlocks(10)

	total := 0
	for _, b := range blocks {
		assert.LessOrEqual(t, b.Count, 10)
		total += b.Count
	}
	assert.Equal(t, 50, total)
}

func TestInsertGrowsSizeAndBounds(t *testing.T) {
	tr := New()
	tr.BulkLoad(itemsAt(geom.Point{X: 0, Y: 0}))
	tr.Insert(Item{Point: geom.Point{X: 5, Y: 5}, ObjectID: 2})
	assert.Equal(t, 2, tr.Size())
	assert.Equal(t, geom.NewMBR(0, 0, 5, 5), tr.Bounds())
}

func TestFindLeafOnEmptyTreeErrors(t *testing.T) {
	tr := New()
	_, err := tr.FindLeaf(geom.Point{})
	require.Error(t, err)
}

func TestIsBalancedAfterBulkLoad(t *testing.T) {
	tr := New()
	pts := make([]Item, 0, 200)
	for i := 0; i < 200; i++ {
		pts = append(pts, Item{Point: geom.Point{X: float64(i), Y: float64(-i)}, ObjectID: uint64(i + 1)})
	}
	tr.BulkLoad(pts)
	assert.True(t, tr.IsBalanced())
}
