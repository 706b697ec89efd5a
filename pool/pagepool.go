// Package pool implements the Urbis page pool and LRU page cache
//: the pool exclusively owns all page and track
// storage, assigning ids and serving linear scans and MBR-intersect
// region queries; the cache layers bounded LRU retention with pin/dirty
// bookkeeping on top of it.
//
// Grounded on original_source/src/page.c's pool-adjacent helpers and
// include/page.h's PagePool-shaped field layout; the bulk-growth arrays
// below replace the source's realloc-doubling with Go slice append, which
// has the same amortized cost.
package pool

import (
	"github.com/urbis-gis/urbis/geom"
	"github.com/urbis-gis/urbis/page"
	"github.com/urbis-gis/urbis/urbiserr"
)

// Stats aggregates pool-wide counts for reporting).
type Stats struct {
	PageCount   int
	TrackCount  int
	ObjectCount int
}

// Pool owns every Page and Track. All other components (the allocation
// KD-tree, the LRU cache, the coordinator's block KD-tree and quadtree)
// reference pages and tracks by id and never hold them past a rebuild.
type Pool struct {
	pages  []*page.Page  // index 0 unused; pages[id] for id >= 1
	tracks []*page.Track // index 0 unused; tracks[id] for id >= 1

	nextPageID  page.ID
	nextTrackID page.TrackID

	pageCapacity  int
	trackCapacity int
}

// New creates an empty pool. pageCapacity and trackCapacity are the
// per-page object capacity (C_page) and per-track page capacity
// (P_track) new pages/tracks are created with.
func New(pageCapacity, trackCapacity int) *Pool {
	if pageCapacity <= 0 {
		pageCapacity = page.DefaultCapacity
	}
	if trackCapacity <= 0 {
		trackCapacity = page.DefaultPagesPerTrack
	}
	return &Pool{
		pages:         make([]*page.Page, 1), // slot 0 reserved, never assigned
		tracks:        make([]*page.Track, 1),
		nextPageID:    1,
		nextTrackID:   1,
		pageCapacity:  pageCapacity,
		trackCapacity: trackCapacity,
	}
}

// CreateTrack allocates a new empty track and returns it.
func (p *Pool) CreateTrack() *page.Track {
	id := p.nextTrackID
	p.nextTrackID++
	t := page.NewTrack(id, p.trackCapacity)
	p.tracks = append(p.tracks, t)
	return t
}

// AllocatePage creates a new page and, if trackID is non-zero, assigns it
// to that track (returning NotFound if the track does not exist or Full
// if the track has no room). A zero trackID leaves the page unassigned;
// the caller is expected to assign it via Track.AddPage shortly after.
func (p *Pool) AllocatePage(trackID page.TrackID) (*page.Page, error) {
	id := p.nextPageID
	p.nextPageID++
	pg := page.New(id, p.pageCapacity)
	p.pages = append(p.pages, pg)
	if trackID != 0 {
		t := p.FetchTrack(trackID)
		if t == nil {
			return nil, urbiserr.New(urbiserr.NotFound, "track not found")
		}
		if err := t.AddPage(pg); err != nil {
			return pg, err
		}
	}
	return pg, nil
}

// FreePage removes the page from its track (if assigned) and drops the
// pool's storage for it. Subsequent FetchPage(id) calls return nil.
func (p *Pool) FreePage(id page.ID) error {
	pg := p.FetchPage(id)
	if pg == nil {
		return urbiserr.New(urbiserr.NotFound, "page not found")
	}
	if pg.TrackID != 0 {
		if t := p.FetchTrack(pg.TrackID); t != nil {
			_ = t.RemovePage(id)
		}
	}
	p.pages[id] = nil
	return nil
}

// FetchPage returns the page with the given id, or nil if it is out of
// range or has been freed. A linear-cost scan is never required here: the
// pool indexes pages directly by id.
func (p *Pool) FetchPage(id page.ID) *page.Page {
	if int(id) <= 0 || int(id) >= len(p.pages) {
		return nil
	}
	return p.pages[id]
}

// FetchTrack returns the track with the given id, or nil.
func (p *Pool) FetchTrack(id page.TrackID) *page.Track {
	if int(id) <= 0 || int(id) >= len(p.tracks) {
		return nil
	}
	return p.tracks[id]
}

// Pages returns every live (non-freed) page, in ascending id order.
func (p *Pool) Pages() []*page.Page {
	out := make([]*page.Page, 0, len(p.pages))
	for _, pg := range p.pages[1:] {
		if pg != nil {
			out = append(out, pg)
		}
	}
	return out
}

// Tracks returns every track, in ascending id order.
func (p *Pool) Tracks() []*page.Track {
	out := make([]*page.Track, 0, len(p.tracks))
	for _, t := range p.tracks[1:] {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

// QueryRegion returns every live page whose extent intersects mbr.
func (p *Pool) QueryRegion(mbr geom.MBR) []*page.Page {
	var out []*page.Page
	for _, pg := range p.pages[1:] {
		if pg != nil && geom.Intersects(pg.Extent, mbr) {
			out = append(out, pg)
		}
	}
	return out
}

// Stats reports aggregate counts across the pool.
func (p *Pool) Stats() Stats {
	var s Stats
	for _, pg := range p.pages[1:] {
		if pg != nil {
			s.PageCount++
			s.ObjectCount += len(pg.Objects)
		}
	}
	for _, t := range p.tracks[1:] {
		if t != nil {
			s.TrackCount++
		}
	}
	return s
}

// MaxPageID returns the highest page id ever allocated (freed or not),
// used by the disk manager to size its on-disk slot table.
func (p *Pool) MaxPageID() page.ID {
	return p.nextPageID - 1
}

// NextPageID reports the id the next AllocatePage call will assign,
// without consuming it. Used by Load to resume id allocation after a
// file is read back in.
func (p *Pool) NextPageID() page.ID { return p.nextPageID }

// NextTrackID reports the id the next CreateTrack call will assign.
func (p *Pool) NextTrackID() page.TrackID { return p.nextTrackID }

// SetPage installs pg directly at its own id, growing the backing slice
// as needed and advancing nextPageID past it. Used by the disk manager
// when reloading pages from a file.
func (p *Pool) SetPage(pg *page.Page) {
	for page.ID(len(p.pages)) <= pg.ID {
		p.pages = append(p.pages, nil)
	}
	p.pages[pg.ID] = pg
	if pg.ID >= p.nextPageID {
		p.nextPageID = pg.ID + 1
	}
}

// SetTrack installs t directly at its own id, analogous to SetPage.
func (p *Pool) SetTrack(t *page.Track) {
	for page.TrackID(len(p.tracks)) <= t.ID {
		p.tracks = append(p.tracks, nil)
	}
	p.tracks[t.ID] = t
	if t.ID >= p.nextTrackID {
		p.nextTrackID = t.ID + 1
	}
}

// PageCapacity returns the per-page object capacity new pages are built with.
func (p *Pool) PageCapacity() int { return p.pageCapacity }

// TrackCapacity returns the per-track page capacity new tracks are built with.
func (p *Pool) TrackCapacity() int { return p.trackCapacity }
