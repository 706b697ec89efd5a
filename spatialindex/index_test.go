package spatialindex

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urbis-gis/urbis/geom"
)

// S1: small build and range.
func TestScenarioSmallBuildAndRange(t *testing.T) {
	ix := New(DefaultConfig())
	id1, err := ix.InsertPoint(5, 5)
	require.NoError(t, err)
	id2, err := ix.InsertPoint(15, 15)
	require.NoError(t, err)
	_, err = ix.InsertPoint(25, 25)
	require.NoError(t, err)
	require.NoError(t, ix.Build())

	results := ix.QueryRange(geom.NewMBR(0, 0, 20, 20))
	require.Len(t, results, 2)
	ids := map[geom.ObjectID]bool{}
	for _, r := range results {
		ids[r.ID] = true
	}
	assert.True(t, ids[id1])
	assert.True(t, ids[id2])
}

// S2: polyline centroid and range.
func TestScenarioPolylineCentroid(t *testing.T) {
	ix := New(DefaultConfig())
	id, err := ix.InsertPolyline([]geom.Point{{X: 0, Y: 0}, {X: 10, Y: 0}})
	require.NoError(t, err)

	obj, err := ix.Get(id)
	require.NoError(t, err)
	assert.Equal(t, geom.Point{X: 5, Y: 0}, obj.Centroid)
	assert.Equal(t, geom.NewMBR(0, 0, 10, 0), obj.MBR)

	results := ix.QueryRange(geom.NewMBR(4, -1, 6, 1))
	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].ID)
}

// S3: polygon centroid and area.
func TestScenarioPolygonCentroid(t *testing.T) {
	ix := New(DefaultConfig())
	id, err := ix.InsertPolygon([]geom.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}, {X: 0, Y: 0}})
	require.NoError(t, err)

	obj, err := ix.Get(id)
	require.NoError(t, err)
	assert.InDelta(t, 5, obj.Centroid.X, 1e-9)
	assert.InDelta(t, 5, obj.Centroid.Y, 1e-9)
	assert.InDelta(t, 100, obj.Polygon.Area(), 1e-9)
}

// S4: adjacency over a 5x10 grid.
func TestScenarioAdjacencyGrid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PageCapacity = 4
	ix := New(cfg)
	for i := 0; i < 10; i++ {
		for j := 0; j < 5; j++ {
			_, err := ix.InsertPoint(float64(i)*100, float64(j)*100)
			require.NoError(t, err)
		}
	}
	require.NoError(t, ix.Build())

	pairs, seeks := ix.FindAdjacentPages(geom.NewMBR(150, 150, 350, 350))
	require.GreaterOrEqual(t, len(pairs), 1)
	assert.GreaterOrEqual(t, seeks, 0)
	assert.LessOrEqual(t, seeks, len(pairs)-1)
}

// S5: k-NN order.
func TestScenarioKNNOrder(t *testing.T) {
	ix := New(DefaultConfig())
	id00, err := ix.InsertPoint(0, 0)
	require.NoError(t, err)
	id11, err := ix.InsertPoint(1, 1)
	require.NoError(t, err)
	_, err = ix.InsertPoint(2, 2)
	require.NoError(t, err)
	_, err = ix.InsertPoint(10, 10)
	require.NoError(t, err)
	_, err = ix.InsertPoint(20, 20)
	require.NoError(t, err)
	require.NoError(t, ix.Build())

	results := ix.QueryKNN(0.5, 0.5, 2)
	require.Len(t, results, 2)
	assert.Equal(t, id00, results[0].ID)
	assert.Equal(t, id11, results[1].ID)
}

// S6: save/load persistence.
func TestScenarioPersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.urbis")
	ix := New(DefaultConfig())
	_, err := ix.InsertPoint(1, 1)
	require.NoError(t, err)
	_, err = ix.InsertPoint(2, 2)
	require.NoError(t, err)
	require.NoError(t, ix.Build())
	require.NoError(t, ix.Save(path))
	require.NoError(t, ix.Close())

	loaded := New(DefaultConfig())
	require.NoError(t, loaded.Load(path))
	assert.Equal(t, 2, loaded.Count())
	b := loaded.Bounds()
	assert.InDelta(t, 1, b.MinX, 1e-12)
	assert.InDelta(t, 1, b.MinY, 1e-12)
	assert.InDelta(t, 2, b.MaxX, 1e-12)
	assert.InDelta(t, 2, b.MaxY, 1e-12)
}

func TestRemoveThenGetReturnsNotFound(t *testing.T) {
	ix := New(DefaultConfig())
	id, err := ix.InsertPoint(1, 1)
	require.NoError(t, err)
	require.NoError(t, ix.Remove(id))
	_, err = ix.Get(id)
	require.Error(t, err)
}

func TestOptimizeIsIdempotent(t *testing.T) {
	ix := New(DefaultConfig())
	_, err := ix.InsertPoint(1, 1)
	require.NoError(t, err)
	_, err = ix.InsertPoint(9, 9)
	require.NoError(t, err)
	require.NoError(t, ix.Optimize())
	first := ix.Stats()
	require.NoError(t, ix.Optimize())
	second := ix.Stats()
	assert.Equal(t, first, second)
}

func TestBuildDoesNotGrowPoolTrackCount(t *testing.T) {
	ix := New(DefaultConfig())
	_, err := ix.InsertPoint(1, 1)
	require.NoError(t, err)
	_, err = ix.InsertPoint(9, 9)
	require.NoError(t, err)

	before := ix.disk.Pool.Stats().TrackCount
	require.NoError(t, ix.Build())
	require.NoError(t, ix.Build())
	require.NoError(t, ix.Build())
	after := ix.disk.Pool.Stats().TrackCount
	assert.Equal(t, before, after, "Build must not register block bookkeeping as real pool tracks")
}

func TestQueryAdjacentFiltersByActualIntersection(t *testing.T) {
	ix := New(DefaultConfig())
	id, err := ix.InsertPoint(5, 5)
	require.NoError(t, err)
	_, err = ix.InsertPoint(500, 500)
	require.NoError(t, err)
	require.NoError(t, ix.Build())

	results := ix.QueryAdjacent(geom.NewMBR(0, 0, 10, 10))
	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].ID)
}
