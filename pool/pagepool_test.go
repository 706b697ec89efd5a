package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urbis-gis/urbis/geom"
	"github.com/urbis-gis/urbis/page"
)

func TestAllocatePageAssignsSequentialIDs(t *testing.T) {
	p := New(4, 2)
	a, err := p.AllocatePage(0)
	require.NoError(t, err)
	b, err := p.AllocatePage(0)
	require.NoError(t, err)
	assert.Equal(t, page.ID(1), a.ID)
	assert.Equal(t, page.ID(2), b.ID)
}

func TestAllocatePageAssignsToTrack(t *testing.T) {
	p := New(4, 2)
	tr := p.CreateTrack()
	pg, err := p.AllocatePage(tr.ID)
	require.NoError(t, err)
	assert.Equal(t, tr.ID, pg.TrackID)
	assert.Len(t, tr.Pages, 1)
}

func TestAllocatePageFullTrackFails(t *testing.T) {
	p := New(4, 1)
	tr := p.CreateTrack()
	_, err := p.AllocatePage(tr.ID)
	require.NoError(t, err)
	_, err = p.AllocatePage(tr.ID)
	require.Error(t, err)
}

func TestFreePageRemovesFromPoolAndTrack(t *testing.T) {
	p := New(4, 2)
	tr := p.CreateTrack()
	pg, err := p.AllocatePage(tr.ID)
	require.NoError(t, err)

	require.NoError(t, p.FreePage(pg.ID))
	assert.Nil(t, p.FetchPage(pg.ID))
	assert.Empty(t, tr.Pages)
}

func TestFetchPageOutOfRangeReturnsNil(t *testing.T) {
	p := New(4, 2)
	assert.Nil(t, p.FetchPage(0))
	assert.Nil(t, p.FetchPage(999))
}

func TestPagesSkipsFreedSlots(t *testing.T) {
	p := New(4, 2)
	a, _ := p.AllocatePage(0)
	_, _ = p.AllocatePage(0)
	require.NoError(t, p.FreePage(a.ID))
	assert.Len(t, p.Pages(), 1)
}

func TestQueryRegionFiltersByExtent(t *testing.T) {
	p := New(4, 2)
	a, _ := p.AllocatePage(0)
	b, _ := p.AllocatePage(0)
	require.NoError(t, a.Add(geom.NewPoint(1, geom.Point{X: 0, Y: 0})))
	require.NoError(t, b.Add(geom.NewPoint(2, geom.Point{X: 100, Y: 100})))

	hits := p.QueryRegion(geom.NewMBR(-1, -1, 1, 1))
	require.Len(t, hits, 1)
	assert.Equal(t, a.ID, hits[0].ID)
}

func TestSetPageAdvancesNextID(t *testing.T) {
	p := New(4, 2)
	p.SetPage(page.New(5, 4))
	assert.Equal(t, page.ID(6), p.NextPageID())
	assert.NotNil(t, p.FetchPage(5))
}

func TestStatsAggregatesAcrossPagesAndTracks(t *testing.T) {
	p := New(4, 2)
	tr := p.CreateTrack()
	pg, _ := p.AllocatePage(tr.ID)
	require.NoError(t, pg.Add(geom.NewPoint(1, geom.Point{X: 0, Y: 0})))

	s := p.Stats()
	assert.Equal(t, 1, s.PageCount)
	assert.Equal(t, 1, s.TrackCount)
	assert.Equal(t, 1, s.ObjectCount)
}
