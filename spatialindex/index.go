// Package spatialindex implements the Urbis spatial index coordinator: it
// routes insert/build/query calls through the block KD-tree, the page
// quadtree, and the disk manager, and owns the running index bounds, the
// object id counter, and build state.
//
// Grounded on original_source/src/spatialindex.c's insert/build/query
// dispatch and on zycbobby-tile38's server.go for the package-level
// default logger convention, now backed by internal/telemetry.
package spatialindex

import (
	"github.com/urbis-gis/urbis/disk"
	"github.com/urbis-gis/urbis/geom"
	"github.com/urbis-gis/urbis/internal/telemetry"
	"github.com/urbis-gis/urbis/kdtree"
	"github.com/urbis-gis/urbis/page"
	"github.com/urbis-gis/urbis/quadtree"
	"github.com/urbis-gis/urbis/urbiserr"
)

// Config configures a new Index
type Config struct {
	BlockSize      int
	PageCapacity   int
	CacheSize      int
	EnableQuadtree bool
	Persist        bool
	DataPath       string
	Strategy       disk.Strategy
	SyncOnWrite    bool
	PagesPerTrack  int
}

// DefaultConfig returns the documented default configuration.
func DefaultConfig() Config {
	return Config{
		BlockSize:      1024,
		PageCapacity:   page.DefaultCapacity,
		CacheSize:      128,
		EnableQuadtree: true,
		Strategy:       disk.BestFit,
		PagesPerTrack:  page.DefaultPagesPerTrack,
	}
}

// Block is a materialized KD-tree partition, a "block MBR" given a fresh
// id and a fresh track label once Build runs (the label is not a track
// registered in the page pool).
type Block struct {
	ID          uint64
	Bounds      geom.MBR
	Centroid    geom.Point
	TrackID     page.TrackID
	ObjectCount int
}

// AdjacentPage is one (page, track) pair returned by FindAdjacentPages.
type AdjacentPage struct {
	PageID  page.ID
	TrackID page.TrackID
}

// Stats reports a snapshot of index-wide counts stats().
type Stats struct {
	ObjectCount int
	PageCount   int
	TrackCount  int
	BlockCount  int
	IsBuilt     bool
}

// Index is the Urbis coordinator: the programmatic surface's lifecycle
// object.
type Index struct {
	config Config
	disk   *disk.Manager

	blockTree *kdtree.Tree
	qtree     *quadtree.Tree

	blocks           []Block
	nextObjectID     geom.ObjectID
	nextBlockID      uint64
	nextBlockTrackID page.TrackID

	bounds  geom.MBR
	isBuilt bool

	log *telemetry.Logger
}

// New creates an empty Index. If cfg.Persist is set, the caller should
// follow with Load(cfg.DataPath) to attach an existing file, or Save to
// create one.
func New(cfg Config) *Index {
	if cfg.BlockSize <= 0 {
		cfg.BlockSize = 1024
	}
	dcfg := disk.DefaultConfig()
	dcfg.PageCapacity = cfg.PageCapacity
	dcfg.CacheSize = cfg.CacheSize
	dcfg.Strategy = cfg.Strategy
	dcfg.SyncOnWrite = cfg.SyncOnWrite
	if cfg.PagesPerTrack > 0 {
		dcfg.PagesPerTrack = cfg.PagesPerTrack
	}
	return &Index{
		config:           cfg,
		disk:             disk.New(dcfg),
		blockTree:        kdtree.New(),
		bounds:           geom.EmptyMBR(),
		nextObjectID:     1,
		nextBlockID:      1,
		nextBlockTrackID: 1,
		log:              telemetry.Named("spatialindex"),
	}
}

// Bounds returns the running union of every inserted object's MBR.
func (ix *Index) Bounds() geom.MBR { return ix.bounds }

// Count returns the total number of live objects across the pool.
func (ix *Index) Count() int {
	n := 0
	for _, pg := range ix.disk.Pool.Pages() {
		n += len(pg.Objects)
	}
	return n
}

// Stats reports aggregate index counts.
func (ix *Index) Stats() Stats {
	ps := ix.disk.Pool.Stats()
	return Stats{
		ObjectCount: ps.ObjectCount,
		PageCount:   ps.PageCount,
		TrackCount:  ps.TrackCount,
		BlockCount:  len(ix.blocks),
		IsBuilt:     ix.isBuilt,
	}
}

// InsertPoint inserts a Point geometry and returns its assigned id.
func (ix *Index) InsertPoint(x, y float64) (geom.ObjectID, error) {
	obj := geom.NewPoint(0, geom.Point{X: x, Y: y})
	return obj.ID, ix.Insert(obj)
}

// InsertPolyline inserts a Polyline geometry and returns its assigned id.
func (ix *Index) InsertPolyline(pts []geom.Point) (geom.ObjectID, error) {
	obj, err := geom.NewPolyline(0, pts)
	if err != nil {
		return 0, err
	}
	return obj.ID, ix.Insert(obj)
}

// InsertPolygon inserts a Polygon geometry (exterior ring only) and
// returns its assigned id.
func (ix *Index) InsertPolygon(ring []geom.Point) (geom.ObjectID, error) {
	obj, err := geom.NewPolygon(0, ring, nil)
	if err != nil {
		return 0, err
	}
	return obj.ID, ix.Insert(obj)
}

// Insert assigns obj an id if it has none, recomputes its derived fields,
// routes it to a nearby non-full page (or allocates a new one), and folds
// its MBR into the index bounds.
func (ix *Index) Insert(obj *geom.SpatialObject) error {
	if obj.ID == 0 {
		obj.ID = ix.nextObjectID
		ix.nextObjectID++
	} else if obj.ID >= ix.nextObjectID {
		ix.nextObjectID = obj.ID + 1
	}
	obj.UpdateDerived()

	pg, err := ix.targetPage(obj.Centroid)
	if err != nil {
		return err
	}
	if err := pg.Add(obj); err != nil {
		if !urbiserr.Is(err, urbiserr.Full) {
			return err
		}
		pg, err = ix.disk.AllocPage(obj.Centroid)
		if err != nil {
			return err
		}
		if err := pg.Add(obj); err != nil {
			return urbiserr.New(urbiserr.Full, "no page could accept the object")
		}
	}
	pg.UpdateDerived()
	ix.disk.RebuildAllocationTree()
	ix.bounds.ExpandMBR(obj.MBR)
	ix.isBuilt = false
	return nil
}

// targetPage queries the allocation KD-tree for the page nearest to
// centroid and returns it if it has room, else allocates a fresh page via
// the disk manager.
func (ix *Index) targetPage(centroid geom.Point) (*page.Page, error) {
	if res, found := ix.disk.AllocTree().Nearest(centroid); found {
		if pg := ix.disk.Pool.FetchPage(page.ID(res.ObjectID)); pg != nil && !pg.IsFull() {
			return pg, nil
		}
	}
	return ix.disk.AllocPage(centroid)
}

// Remove deletes the object with the given id from whichever page owns
// it. Returns NotFound if no page does.
func (ix *Index) Remove(id geom.ObjectID) error {
	for _, pg := range ix.disk.Pool.Pages() {
		if pg.Find(id) != nil {
			if err := pg.Remove(id); err != nil {
				return err
			}
			ix.disk.RebuildAllocationTree()
			ix.isBuilt = false
			return nil
		}
	}
	return urbiserr.New(urbiserr.NotFound, "object not found")
}

// Get returns the object with the given id, or NotFound.
func (ix *Index) Get(id geom.ObjectID) (*geom.SpatialObject, error) {
	for _, pg := range ix.disk.Pool.Pages() {
		if obj := pg.Find(id); obj != nil {
			return obj, nil
		}
	}
	return nil, urbiserr.New(urbiserr.NotFound, "object not found")
}
