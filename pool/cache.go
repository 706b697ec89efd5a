package pool

import (
	"container/list"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/urbis-gis/urbis/page"
	"github.com/urbis-gis/urbis/urbiserr"
)

// PageRef is the LRU cache's metadata entry for one resident page: an
// MRU-list-plus-hash-index node. It never owns page storage, only tracks
// recency and access statistics for page_id; the pool owns the storage.
type PageRef struct {
	PageID      page.ID
	AccessCount uint64
	LastAccess  uint64 // logical tick, bumped by Cache on every Get
	pinned      bool
	dirty       bool
}

// Cache is a bounded LRU cache of page metadata, backed by the Pool for
// actual page storage. The C source derived its hit-rate from per-ref
// access counters, a heuristic; this Cache tracks Hits/Misses directly
// instead.
type Cache struct {
	pool     *Pool
	capacity int

	list  *list.List // MRU at Front, LRU at Back; elements hold *PageRef
	index map[page.ID]*list.Element

	dirty *roaring.Bitmap // page ids with DIRTY set, for Flush

	tick uint64

	Hits   uint64
	Misses uint64
}

// NewCache creates a cache of the given capacity (C_cache) backed by pool.
func NewCache(pool *Pool, capacity int) *Cache {
	if capacity <= 0 {
		capacity = 128
	}
	return &Cache{
		pool:     pool,
		capacity: capacity,
		list:     list.New(),
		index:    make(map[page.ID]*list.Element),
		dirty:    roaring.New(),
	}
}

// Get returns the pool's page for id, promoting it to the MRU head. If the
// page is not resident and the cache is at capacity, it evicts an unpinned
// LRU entry first. Returns NotFound if the pool itself has no such page.
func (c *Cache) Get(id page.ID) (*page.Page, error) {
	c.tick++
	if el, ok := c.index[id]; ok {
		c.list.MoveToFront(el)
		ref := el.Value.(*PageRef)
		ref.AccessCount++
		ref.LastAccess = c.tick
		c.Hits++
		pg := c.pool.FetchPage(id)
		if pg == nil {
			c.removeEntry(id)
			return nil, urbiserr.New(urbiserr.NotFound, "page not found in pool")
		}
		return pg, nil
	}
	c.Misses++
	pg := c.pool.FetchPage(id)
	if pg == nil {
		return nil, urbiserr.New(urbiserr.NotFound, "page not found in pool")
	}
	if len(c.index) >= c.capacity {
		c.evictOne()
	}
	ref := &PageRef{PageID: id, AccessCount: 1, LastAccess: c.tick}
	el := c.list.PushFront(ref)
	c.index[id] = el
	return pg, nil
}

// Pin marks a resident page as pinned, excluding it from eviction. A page
// not yet resident is loaded first via Get.
func (c *Cache) Pin(id page.ID) error {
	if _, err := c.Get(id); err != nil {
		return err
	}
	c.index[id].Value.(*PageRef).pinned = true
	return nil
}

// Unpin clears the pinned flag on a resident page; a no-op if absent.
func (c *Cache) Unpin(id page.ID) {
	if el, ok := c.index[id]; ok {
		el.Value.(*PageRef).pinned = false
	}
}

// MarkDirty sets DIRTY on the underlying page and records its id for
// Flush, without moving it in LRU order.
func (c *Cache) MarkDirty(id page.ID) {
	if pg := c.pool.FetchPage(id); pg != nil {
		pg.Flags |= page.FlagDirty
	}
	c.dirty.Add(uint32(id))
	if el, ok := c.index[id]; ok {
		el.Value.(*PageRef).dirty = true
	}
}

// evictOne drops the least-recently-used unpinned entry. The LRU cursor
// walks from the tail forward past pinned entries
func (c *Cache) evictOne() bool {
	for el := c.list.Back(); el != nil; el = el.Prev() {
		ref := el.Value.(*PageRef)
		if ref.pinned {
			continue
		}
		c.list.Remove(el)
		delete(c.index, ref.PageID)
		return true
	}
	return false
}

// Evict drops up to n unpinned entries from the LRU tail. It never writes
// to disk; persistence is the disk manager's concern.
func (c *Cache) Evict(n int) int {
	evicted := 0
	for evicted < n {
		if !c.evictOne() {
			break
		}
		evicted++
	}
	return evicted
}

func (c *Cache) removeEntry(id page.ID) {
	if el, ok := c.index[id]; ok {
		c.list.Remove(el)
		delete(c.index, id)
	}
}

// Len returns the number of resident entries.
func (c *Cache) Len() int { return len(c.index) }

// DirtyPageIDs returns every page id Flush would persist, in ascending order.
func (c *Cache) DirtyPageIDs() []page.ID {
	ids := make([]page.ID, 0, c.dirty.GetCardinality())
	it := c.dirty.Iterator()
	for it.HasNext() {
		ids = append(ids, page.ID(it.Next()))
	}
	return ids
}

// Flush invokes persist for every page recorded through MarkDirty that
// still has DIRTY set (tracked via the roaring bitmap, not a full pool
// scan) and clears the flag on success. A page whose DIRTY flag was set
// without a MarkDirty call is not visited. persist is supplied by the disk manager, which knows
// how to serialize a page to its file slot.
func (c *Cache) Flush(persist func(pg *page.Page) error) error {
	it := c.dirty.Iterator()
	var toClear []uint32
	for it.HasNext() {
		id := it.Next()
		pg := c.pool.FetchPage(page.ID(id))
		if pg == nil {
			toClear = append(toClear, id)
			continue
		}
		if !pg.Flags.Has(page.FlagDirty) {
			toClear = append(toClear, id)
			continue
		}
		if err := persist(pg); err != nil {
			return err
		}
		pg.Flags &^= page.FlagDirty
		if el, ok := c.index[page.ID(id)]; ok {
			el.Value.(*PageRef).dirty = false
		}
		toClear = append(toClear, id)
	}
	for _, id := range toClear {
		c.dirty.Remove(id)
	}
	return nil
}
