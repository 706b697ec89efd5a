package page

import (
	"github.com/urbis-gis/urbis/geom"
	"github.com/urbis-gis/urbis/urbiserr"
)

// Track is a bounded sequence of pages treated as physically contiguous for
// seek accounting.
type Track struct {
	ID       TrackID
	Capacity int
	Pages    []*Page
	Extent   geom.MBR
	Centroid geom.Point
	IsFull   bool
}

// NewTrack creates an empty track with the given id and capacity.
func NewTrack(id TrackID, capacity int) *Track {
	if capacity <= 0 {
		capacity = DefaultPagesPerTrack
	}
	return &Track{ID: id, Capacity: capacity, Extent: geom.EmptyMBR()}
}

// AddPage appends p to the track, stamping p.TrackID and updating the
// aggregate extent/centroid. Fails if the track is already at capacity.
func (t *Track) AddPage(p *Page) error {
	if len(t.Pages) >= t.Capacity {
		return urbiserr.New(urbiserr.Full, "track is at capacity")
	}
	p.TrackID = t.ID
	t.Pages = append(t.Pages, p)
	if len(t.Pages) >= t.Capacity {
		t.IsFull = true
	}
	t.updateDerived()
	return nil
}

// RemovePage removes the page with the given id, shifting the tail left.
func (t *Track) RemovePage(id ID) error {
	for i, p := range t.Pages {
		if p.ID == id {
			t.Pages = append(t.Pages[:i], t.Pages[i+1:]...)
			t.IsFull = false
			t.updateDerived()
			return nil
		}
	}
	return urbiserr.New(urbiserr.NotFound, "page not found in track")
}

// FindPage returns the page with the given id, or nil.
func (t *Track) FindPage(id ID) *Page {
	for _, p := range t.Pages {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// ObjectCount returns the total number of objects across every page in t.
func (t *Track) ObjectCount() int {
	n := 0
	for _, p := range t.Pages {
		n += len(p.Objects)
	}
	return n
}

// updateDerived recomputes Extent as the union of page extents and Centroid
// as the arithmetic mean of the centroids of non-empty pages, skipping any
// page whose extent is still empty.
func (t *Track) updateDerived() {
	t.Extent = geom.EmptyMBR()
	var cx, cy float64
	var n int
	for _, p := range t.Pages {
		t.Extent.ExpandMBR(p.Extent)
		if !p.Extent.IsEmpty() {
			cx += p.Centroid.X
			cy += p.Centroid.Y
			n++
		}
	}
	if n > 0 {
		t.Centroid = geom.Point{X: cx / float64(n), Y: cy / float64(n)}
	} else {
		t.Centroid = geom.Point{}
	}
}
