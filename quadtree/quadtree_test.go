package quadtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urbis-gis/urbis/geom"
)

func TestInsertRejectsOutOfBounds(t *testing.T) {
	tr := New(geom.NewMBR(0, 0, 100, 100), 4, 4)
	err := tr.Insert(Item{ID: 1, Bounds: geom.NewMBR(200, 200, 210, 210)})
	require.Error(t, err)
}

func TestInsertAndCount(t *testing.T) {
	tr := New(geom.NewMBR(0, 0, 100, 100), 4, 4)
	for i := uint64(1); i <= 3; i++ {
		require.NoError(t, tr.Insert(Item{ID: i, Bounds: geom.NewMBR(float64(i), float64(i), float64(i)+1, float64(i)+1)}))
	}
	assert.Equal(t, 3, tr.Count())
}

func TestSplitRoutesItemsToSingleContainingChild(t *testing.T) {
	tr := New(geom.NewMBR(0, 0, 100, 100), 1, 4)
	require.NoError(t, tr.Insert(Item{ID: 1, Bounds: geom.NewMBR(10, 10, 20, 20)}))
	require.NoError(t, tr.Insert(Item{ID: 2, Bounds: geom.NewMBR(60, 60, 70, 70)})) // triggers split

	found, ok := tr.FindByID(1)
	require.True(t, ok)
	assert.EqualValues(t, 1, found.ID)

	hits := tr.RangeQuery(geom.NewMBR(0, 0, 100, 100))
	assert.Len(t, hits, 2)
}

func TestSplitKeepsSpanningItemAtParent(t *testing.T) {
	tr := New(geom.NewMBR(0, 0, 100, 100), 1, 4)
	// spans all four future quadrants once split at the 50,50 midpoint
	require.NoError(t, tr.Insert(Item{ID: 1, Bounds: geom.NewMBR(40, 40, 60, 60)}))
	require.NoError(t, tr.Insert(Item{ID: 2, Bounds: geom.NewMBR(10, 10, 20, 20)})) // triggers split

	// the spanning item must still be reachable by a query that contains it,
	// proving it was not dropped the way the unfixed split would have done
	hits := tr.RangeQuery(geom.NewMBR(35, 35, 65, 65))
	ids := map[uint64]bool{}
	for _, it := range hits {
		ids[it.ID] = true
	}
	assert.True(t, ids[1], "spanning item must remain reachable after split")
}

func TestPointQueryOnlyMatchesContainingBounds(t *testing.T) {
	tr := New(geom.NewMBR(0, 0, 100, 100), 4, 4)
	require.NoError(t, tr.Insert(Item{ID: 1, Bounds: geom.NewMBR(0, 0, 10, 10)}))
	require.NoError(t, tr.Insert(Item{ID: 2, Bounds: geom.NewMBR(50, 50, 60, 60)}))

	hits := tr.PointQuery(geom.Point{X: 5, Y: 5})
	require.Len(t, hits, 1)
	assert.EqualValues(t, 1, hits[0].ID)
}

func TestFindAdjacentToRegionIncludesTouchingItems(t *testing.T) {
	tr := New(geom.NewMBR(0, 0, 100, 100), 8, 4)
	require.NoError(t, tr.Insert(Item{ID: 1, Bounds: geom.NewMBR(10, 10, 20, 20)}))
	require.NoError(t, tr.Insert(Item{ID: 2, Bounds: geom.NewMBR(20, 10, 30, 20)})) // touches item 1's right edge

	hits := tr.FindAdjacentToRegion(geom.NewMBR(10, 10, 20, 20))
	ids := map[uint64]bool{}
	for _, it := range hits {
		ids[it.ID] = true
	}
	assert.True(t, ids[1])
	assert.True(t, ids[2])
}

func TestRemoveDecrementsCountAndDropsItem(t *testing.T) {
	tr := New(geom.NewMBR(0, 0, 100, 100), 4, 4)
	require.NoError(t, tr.Insert(Item{ID: 1, Bounds: geom.NewMBR(0, 0, 10, 10)}))

	require.NoError(t, tr.Remove(1))
	assert.Equal(t, 0, tr.Count())
	_, ok := tr.FindByID(1)
	assert.False(t, ok)
}

func TestRemoveMissingReturnsNotFound(t *testing.T) {
	tr := New(geom.NewMBR(0, 0, 100, 100), 4, 4)
	require.Error(t, tr.Remove(999))
}

func TestUpdateMovesItemAndPreservesCount(t *testing.T) {
	tr := New(geom.NewMBR(0, 0, 100, 100), 4, 4)
	require.NoError(t, tr.Insert(Item{ID: 1, Bounds: geom.NewMBR(0, 0, 10, 10)}))

	require.NoError(t, tr.Update(1, geom.NewMBR(90, 90, 99, 99), geom.Point{X: 95, Y: 95}, nil))
	assert.Equal(t, 1, tr.Count())

	hits := tr.PointQuery(geom.Point{X: 95, Y: 95})
	require.Len(t, hits, 1)
	assert.EqualValues(t, 1, hits[0].ID)
}

func TestUpdateActsAsUpsertForUnknownID(t *testing.T) {
	tr := New(geom.NewMBR(0, 0, 100, 100), 4, 4)
	require.NoError(t, tr.Update(7, geom.NewMBR(1, 1, 2, 2), geom.Point{X: 1.5, Y: 1.5}, nil))
	assert.Equal(t, 1, tr.Count())
}

func TestDepthNeverExceedsMaxDepth(t *testing.T) {
	tr := New(geom.NewMBR(0, 0, 1, 1), 1, 3)
	for i := uint64(1); i <= 50; i++ {
		// identical bounds force repeated splitting against the depth cap
		require.NoError(t, tr.Insert(Item{ID: i, Bounds: geom.NewMBR(0, 0, 0.01, 0.01)}))
	}
	assert.Equal(t, 50, tr.Count())

	var deepest func(n *node) int
	deepest = func(n *node) int {
		d := n.depth
		for _, c := range n.children {
			if c != nil {
				if cd := deepest(c); cd > d {
					d = cd
				}
			}
		}
		return d
	}
	assert.LessOrEqual(t, deepest(tr.root), 3)
}
