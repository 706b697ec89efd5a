// Package page implements the Urbis page and track contracts: a
// fixed-capacity container of SpatialObjects with a derived
// extent/centroid/checksum, and a bounded sequence of pages treated as
// contiguous for seek accounting.
//
// Grounded on original_source/src/page.c and include/page.h.
package page

import (
	"encoding/binary"
	"hash/fnv"
	"math"

	"github.com/urbis-gis/urbis/geom"
	"github.com/urbis-gis/urbis/urbiserr"
)

// DefaultCapacity is the default number of objects a page may hold (C_page).
const DefaultCapacity = 64

// DefaultPagesPerTrack is the default number of pages a track may hold
// (P_track).
const DefaultPagesPerTrack = 16

// DefaultPageBytes is the default on-disk page slot size (P_bytes).
const DefaultPageBytes = 4096

// ID identifies a page, pool-unique and ≥ 1. Zero means "unassigned".
type ID uint32

// TrackID identifies a track, ≥ 1. Zero means "unassigned".
type TrackID uint32

// Flags are the orthogonal page status bits. FREE is the absence of any bit.
type Flags uint32

const (
	FlagAllocated Flags = 1 << 0
	FlagFull      Flags = 1 << 1
	FlagDirty     Flags = 1 << 2
	FlagPinned    Flags = 1 << 3
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// Page is a fixed-capacity container of spatial objects. Page owns its
// objects exclusively: Add deep-copies the caller's value.
type Page struct {
	ID       ID
	TrackID  TrackID
	Capacity int
	Objects  []*geom.SpatialObject
	Extent   geom.MBR
	Centroid geom.Point
	Flags    Flags
	Checksum uint64
}

// New creates an empty, allocated page with the given id, unassigned to any
// track (TrackID 0) until a Track.AddPage call stamps it.
func New(id ID, capacity int) *Page {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	p := &Page{
		ID:       id,
		Capacity: capacity,
		Objects:  make([]*geom.SpatialObject, 0, capacity),
		Extent:   geom.EmptyMBR(),
		Flags:    FlagAllocated,
	}
	p.Checksum = p.computeChecksum()
	return p
}

// Add deep-copies obj into the page. Fails with Full if the page is already
// at capacity; the page is left unmodified on failure.
func (p *Page) Add(obj *geom.SpatialObject) error {
	if len(p.Objects) >= p.Capacity {
		return urbiserr.New(urbiserr.Full, "page is at capacity")
	}
	p.Objects = append(p.Objects, obj.Copy())
	p.Flags |= FlagDirty
	p.Extent.ExpandMBR(obj.MBR)
	if len(p.Objects) >= p.Capacity {
		p.Flags |= FlagFull
	}
	p.recomputeCentroid()
	p.Checksum = p.computeChecksum()
	return nil
}

// Remove deletes the object with the given id, shifting the tail left to
// preserve insertion order. Returns NotFound if no such object exists.
func (p *Page) Remove(id geom.ObjectID) error {
	for i, obj := range p.Objects {
		if obj.ID == id {
			p.Objects = append(p.Objects[:i], p.Objects[i+1:]...)
			p.Flags |= FlagDirty
			p.Flags &^= FlagFull
			p.UpdateDerived()
			return nil
		}
	}
	return urbiserr.New(urbiserr.NotFound, "object not found in page")
}

// Find returns the object with the given id, or nil if absent.
func (p *Page) Find(id geom.ObjectID) *geom.SpatialObject {
	for _, obj := range p.Objects {
		if obj.ID == id {
			return obj
		}
	}
	return nil
}

// UpdateDerived fully recomputes Extent, Centroid, and Checksum from the
// current object set.
func (p *Page) UpdateDerived() {
	p.Extent = geom.EmptyMBR()
	for _, obj := range p.Objects {
		p.Extent.ExpandMBR(obj.MBR)
	}
	p.recomputeCentroid()
	p.Checksum = p.computeChecksum()
}

func (p *Page) recomputeCentroid() {
	if len(p.Objects) == 0 {
		p.Centroid = geom.Point{}
		return
	}
	var cx, cy float64
	for _, obj := range p.Objects {
		cx += obj.Centroid.X
		cy += obj.Centroid.Y
	}
	n := float64(len(p.Objects))
	p.Centroid = geom.Point{X: cx / n, Y: cy / n}
}

// IsFull reports whether the page has reached capacity.
func (p *Page) IsFull() bool { return len(p.Objects) >= p.Capacity }

// Utilization returns the fraction of capacity in use, 0..1.
func (p *Page) Utilization() float64 {
	if p.Capacity == 0 {
		return 0
	}
	return float64(len(p.Objects)) / float64(p.Capacity)
}

// computeChecksum hashes (page_id, track_id, object_count, per-object
// (id, centroid)) with FNV-1a, matching page_checksum in page.c exactly.
func (p *Page) computeChecksum() uint64 {
	h := fnv.New64a()
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(p.ID))
	h.Write(buf[:])
	binary.LittleEndian.PutUint32(buf[:], uint32(p.TrackID))
	h.Write(buf[:])
	binary.LittleEndian.PutUint32(buf[:], uint32(len(p.Objects)))
	h.Write(buf[:])
	var buf8 [8]byte
	var bufF [8]byte
	for _, obj := range p.Objects {
		binary.LittleEndian.PutUint64(buf8[:], uint64(obj.ID))
		h.Write(buf8[:])
		binary.LittleEndian.PutUint64(bufF[:], math.Float64bits(obj.Centroid.X))
		h.Write(bufF[:])
		binary.LittleEndian.PutUint64(bufF[:], math.Float64bits(obj.Centroid.Y))
		h.Write(bufF[:])
	}
	return h.Sum64()
}

// Verify recomputes the checksum and compares it against the stored value.
func (p *Page) Verify() bool {
	return p.Checksum == p.computeChecksum()
}
