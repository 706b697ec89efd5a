package spatialindex

import (
	"github.com/urbis-gis/urbis/geom"
	"github.com/urbis-gis/urbis/page"
)

// QueryRange returns every object whose MBR intersects mbr. Uses the
// pool's extent-intersection page scan, then refines per page by
// per-object MBR intersection. Never requires Build().
func (ix *Index) QueryRange(mbr geom.MBR) []*geom.SpatialObject {
	var out []*geom.SpatialObject
	for _, pg := range ix.disk.Pool.QueryRegion(mbr) {
		for _, obj := range pg.Objects {
			if geom.Intersects(obj.MBR, mbr) {
				out = append(out, obj)
			}
		}
	}
	return out
}

// QueryPoint reduces to a degenerate range query over (x,y,x,y).
func (ix *Index) QueryPoint(x, y float64) []*geom.SpatialObject {
	return ix.QueryRange(geom.NewMBR(x, y, x, y))
}

// QueryKNN returns the k nearest objects to (x,y) by centroid distance,
// using the block KD-tree (so it reflects the state as of the most recent
// Build's "build() is required for ... k-NN freshness"). k == 0 returns an
// empty slice rather than the InvalidArg error spec.md §7 calls for: this
// signature has no error return, so the deviation is documented here
// instead.
func (ix *Index) QueryKNN(x, y float64, k int) []*geom.SpatialObject {
	results := ix.blockTree.KNearest(geom.Point{X: x, Y: y}, k)
	out := make([]*geom.SpatialObject, 0, len(results))
	for _, r := range results {
		if obj, err := ix.Get(geom.ObjectID(r.ObjectID)); err == nil {
			out = append(out, obj)
		}
	}
	return out
}

// FindAdjacentPages builds the page quadtree on demand if missing, finds
// every page adjacent to or intersecting mbr, and reports the number of
// estimated seeks to visit them in quadtree traversal order (parent before
// children, NW, NE, SW, SE).
func (ix *Index) FindAdjacentPages(mbr geom.MBR) ([]AdjacentPage, int) {
	ix.ensureQuadtree()
	items := ix.qtree.FindAdjacentToRegion(mbr)
	pairs := make([]AdjacentPage, 0, len(items))
	ids := make([]page.ID, 0, len(items))
	for _, it := range items {
		pid := it.Data.(page.ID)
		pg := ix.disk.Pool.FetchPage(pid)
		trackID := page.TrackID(0)
		if pg != nil {
			trackID = pg.TrackID
		}
		pairs = append(pairs, AdjacentPage{PageID: pid, TrackID: trackID})
		ids = append(ids, pid)
	}
	return pairs, ix.disk.EstimateSeeks(ids)
}

// QueryAdjacent returns the union of objects in pages adjacent to mbr,
// filtered to those whose own MBR intersects mbr.
func (ix *Index) QueryAdjacent(mbr geom.MBR) []*geom.SpatialObject {
	pairs, _ := ix.FindAdjacentPages(mbr)
	var out []*geom.SpatialObject
	seen := make(map[geom.ObjectID]bool)
	for _, ap := range pairs {
		pg := ix.disk.Pool.FetchPage(ap.PageID)
		if pg == nil {
			continue
		}
		for _, obj := range pg.Objects {
			if geom.Intersects(obj.MBR, mbr) && !seen[obj.ID] {
				seen[obj.ID] = true
				out = append(out, obj)
			}
		}
	}
	return out
}
