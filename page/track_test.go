package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urbis-gis/urbis/geom"
)

func TestAddPageStampsTrackIDAndSetsFull(t *testing.T) {
	tr := NewTrack(1, 2)
	a := New(1, 4)
	require.NoError(t, tr.AddPage(a))
	assert.Equal(t, tr.ID, a.TrackID)
	assert.False(t, tr.IsFull)

	b := New(2, 4)
	require.NoError(t, tr.AddPage(b))
	assert.True(t, tr.IsFull)
}

func TestAddPageFailsAtCapacity(t *testing.T) {
	tr := NewTrack(1, 1)
	require.NoError(t, tr.AddPage(New(1, 4)))
	err := tr.AddPage(New(2, 4))
	require.Error(t, err)
}

func TestTrackExtentUnionsPageExtents(t *testing.T) {
	tr := NewTrack(1, 4)
	a := New(1, 4)
	require.NoError(t, a.Add(geom.NewPoint(1, geom.Point{X: 0, Y: 0})))
	b := New(2, 4)
	require.NoError(t, b.Add(geom.NewPoint(2, geom.Point{X: 10, Y: 10})))
	require.NoError(t, tr.AddPage(a))
	require.NoError(t, tr.AddPage(b))

	assert.Equal(t, geom.NewMBR(0, 0, 10, 10), tr.Extent)
}

func TestTrackCentroidSkipsEmptyPages(t *testing.T) {
	tr := NewTrack(1, 4)
	a := New(1, 4)
	require.NoError(t, a.Add(geom.NewPoint(1, geom.Point{X: 0, Y: 0})))
	empty := New(2, 4)
	require.NoError(t, tr.AddPage(a))
	require.NoError(t, tr.AddPage(empty))

	assert.Equal(t, geom.Point{X: 0, Y: 0}, tr.Centroid)
}

func TestRemovePageShiftsTailAndRecomputes(t *testing.T) {
	tr := NewTrack(1, 4)
	a := New(1, 4)
	require.NoError(t, a.Add(geom.NewPoint(1, geom.Point{X: 0, Y: 0})))
	b := New(2, 4)
	require.NoError(t, b.Add(geom.NewPoint(2, geom.Point{X: 10, Y: 10})))
	require.NoError(t, tr.AddPage(a))
	require.NoError(t, tr.AddPage(b))

	require.NoError(t, tr.RemovePage(1))
	require.Len(t, tr.Pages, 1)
	assert.Equal(t, ID(2), tr.Pages[0].ID)
	assert.Equal(t, geom.NewMBR(10, 10, 10, 10), tr.Extent)
	assert.False(t, tr.IsFull)
}

func TestRemovePageMissingReturnsNotFound(t *testing.T) {
	tr := NewTrack(1, 4)
	require.Error(t, tr.RemovePage(5))
}

func TestFindPage(t *testing.T) {
	tr := NewTrack(1, 4)
	a := New(7, 4)
	require.NoError(t, tr.AddPage(a))
	assert.Same(t, a, tr.FindPage(7))
	assert.Nil(t, tr.FindPage(8))
}

func TestObjectCountSumsAcrossPages(t *testing.T) {
	tr := NewTrack(1, 4)
	a := New(1, 4)
	require.NoError(t, a.Add(geom.NewPoint(1, geom.Point{X: 0, Y: 0})))
	require.NoError(t, a.Add(geom.NewPoint(2, geom.Point{X: 1, Y: 1})))
	b := New(2, 4)
	require.NoError(t, b.Add(geom.NewPoint(3, geom.Point{X: 2, Y: 2})))
	require.NoError(t, tr.AddPage(a))
	require.NoError(t, tr.AddPage(b))

	assert.Equal(t, 3, tr.ObjectCount())
}
