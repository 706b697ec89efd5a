package spatialindex

import (
	"time"

	"github.com/urbis-gis/urbis/geom"
)

// Save creates the backing file at path (truncating any existing file)
// when no file is open, then writes every dirty page and the header. When
// a file is already open, path is ignored and the open file is synced.
func (ix *Index) Save(path string) error {
	now := uint64(time.Now().Unix())
	if !ix.disk.IsOpen() {
		if err := ix.disk.Create(path, now); err != nil {
			return err
		}
	}
	return ix.disk.Sync(now)
}

// Sync flushes any pending page/header writes to the already-open backing
// file. Returns IO if no file is open.
func (ix *Index) Sync() error {
	return ix.disk.Sync(uint64(time.Now().Unix()))
}

// Load opens path, repopulates the pool and allocation KD-tree from it,
// recomputes the running bounds and object id counter from the reloaded
// objects (not from the disk manager's own bounds, which only tracks
// AllocPage calls and can lag behind pages an insert reused in place), and
// reconstructs the in-memory block KD-tree and page quadtree via Build.
func (ix *Index) Load(path string) error {
	if err := ix.disk.Open(path); err != nil {
		return err
	}
	ix.bounds = geom.EmptyMBR()
	var maxObjectID uint64
	for _, pg := range ix.disk.Pool.Pages() {
		for _, obj := range pg.Objects {
			ix.bounds.ExpandMBR(obj.MBR)
			if uint64(obj.ID) > maxObjectID {
				maxObjectID = uint64(obj.ID)
			}
		}
	}
	ix.nextObjectID = geom.ObjectID(maxObjectID + 1)
	return ix.Build()
}

// Close syncs and releases the backing file handle.
func (ix *Index) Close() error {
	return ix.disk.Close(uint64(time.Now().Unix()))
}
