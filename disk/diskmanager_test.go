package disk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urbis-gis/urbis/geom"
	"github.com/urbis-gis/urbis/page"
)

func newManager(strategy Strategy) *Manager {
	cfg := DefaultConfig()
	cfg.Strategy = strategy
	cfg.PageCapacity = 2
	cfg.PagesPerTrack = 2
	return New(cfg)
}

func TestAllocPageCreatesTrackWhenNoneFits(t *testing.T) {
	m := newManager(BestFit)
	pg, err := m.AllocPage(geom.Point{X: 1, Y: 1})
	require.NoError(t, err)
	assert.NotZero(t, pg.TrackID)
	assert.Equal(t, geom.Point{X: 1, Y: 1}, pg.Centroid)
}

func TestAllocPageBestFitPrefersSmallestExpansion(t *testing.T) {
	m := newManager(BestFit)
	p1, err := m.AllocPage(geom.Point{X: 0, Y: 0})
	require.NoError(t, err)
	// p1's track has room for one more page (capacity 2); a centroid near
	// (0,0) should land in that track rather than force a new one.
	p2, err := m.AllocPage(geom.Point{X: 1, Y: 0})
	require.NoError(t, err)
	assert.Equal(t, p1.TrackID, p2.TrackID)
}

func TestAllocPageNearestTrackSkipsFullTrack(t *testing.T) {
	m := newManager(NearestTrack)
	far, err := m.AllocPage(geom.Point{X: 1000, Y: 1000})
	require.NoError(t, err)
	// second page fills far's track (capacity 2)
	_, err = m.AllocPage(geom.Point{X: 1000, Y: 1000})
	require.NoError(t, err)

	near, err := m.AllocPage(geom.Point{X: 0, Y: 0})
	require.NoError(t, err)
	assert.NotEqual(t, far.TrackID, near.TrackID, "a full track must never be chosen, even if nominally nearest")
}

func TestAllocPageNewTrackStrategyAlwaysAllocatesFresh(t *testing.T) {
	m := newManager(NewTrack)
	a, err := m.AllocPage(geom.Point{X: 0, Y: 0})
	require.NoError(t, err)
	b, err := m.AllocPage(geom.Point{X: 0, Y: 0})
	require.NoError(t, err)
	assert.NotEqual(t, a.TrackID, b.TrackID)
}

func TestAllocPageSequentialFillsLastTrackFirst(t *testing.T) {
	m := newManager(Sequential)
	a, err := m.AllocPage(geom.Point{X: 0, Y: 0})
	require.NoError(t, err)
	b, err := m.AllocPage(geom.Point{X: 5, Y: 5})
	require.NoError(t, err)
	assert.Equal(t, a.TrackID, b.TrackID)
}

func TestRebuildAllocationTreeSkipsEmptyPages(t *testing.T) {
	m := newManager(BestFit)
	pg, err := m.AllocPage(geom.Point{X: 0, Y: 0})
	require.NoError(t, err)
	m.RebuildAllocationTree()
	assert.Equal(t, 0, m.AllocTree().Size(), "pages with no objects are not indexed for allocation lookups")
	require.NoError(t, pg.Add(geom.NewPoint(1, geom.Point{X: 0, Y: 0})))
	m.RebuildAllocationTree()
	assert.Equal(t, 1, m.AllocTree().Size())
}

func TestEstimateSeeksCountsTrackTransitionsOnly(t *testing.T) {
	m := newManager(NewTrack)
	a, err := m.AllocPage(geom.Point{X: 0, Y: 0})
	require.NoError(t, err)
	b, err := m.AllocPage(geom.Point{X: 0, Y: 0})
	require.NoError(t, err)

	seeks := m.EstimateSeeks([]page.ID{a.ID, a.ID, b.ID})
	assert.Equal(t, 1, seeks)
}
