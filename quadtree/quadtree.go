// Package quadtree implements the Urbis page quadtree: a recursive
// NW/NE/SW/SE partition over page MBRs, used by the coordinator to answer
// adjacency queries and group results by track for seek estimation.
//
// Grounded on original_source/src/quadtree.c and include/quadtree.h, and
// on zycbobby-tile38's index/qtree/qtree.go recursive-node shape, with a
// split bug from the C source fixed: an item that no single child fully
// contains must remain reachable at the parent, not be dropped when
// item_count is zeroed.
package quadtree

import (
	"math"

	"github.com/urbis-gis/urbis/geom"
	"github.com/urbis-gis/urbis/urbiserr"
)

// Payload is an opaque carrier attached to an item, e.g. a page or object
// reference. The tree never inspects it.
type Payload any

// Item is one entry stored in the tree.
type Item struct {
	ID       uint64
	Bounds   geom.MBR
	Centroid geom.Point
	Data     Payload
}

// Quadrant indexes a node's four children.
type Quadrant int

const (
	NW Quadrant = iota
	NE
	SW
	SE
)

// DefaultCapacity is the default item count a node holds before splitting
// (C_node).
const DefaultCapacity = 8

// DefaultMaxDepth is the default maximum tree depth (D_max).
const DefaultMaxDepth = 20

type node struct {
	bounds   geom.MBR
	depth    int
	isLeaf   bool
	items    []Item
	children [4]*node
}

// Tree is a page quadtree bounded to a fixed region.
type Tree struct {
	root     *node
	capacity int
	maxDepth int
	count    int
}

// New creates a tree over bounds with the given per-node capacity and
// maximum depth. A zero/negative value for either falls back to the
// package default.
func New(bounds geom.MBR, capacity, maxDepth int) *Tree {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Tree{
		root:     &node{bounds: bounds, isLeaf: true},
		capacity: capacity,
		maxDepth: maxDepth,
	}
}

// Count returns the total number of items in the tree.
func (t *Tree) Count() int { return t.count }

// Insert adds item to the tree. Returns InvalidArg (OutOfBounds) if the
// item's bounds do not intersect the tree's root bounds.
func (t *Tree) Insert(item Item) error {
	if !geom.Intersects(item.Bounds, t.root.bounds) {
		return urbiserr.New(urbiserr.InvalidArg, "item bounds out of quadtree range")
	}
	t.insertInto(t.root, item)
	t.count++
	return nil
}

func (t *Tree) insertInto(n *node, item Item) {
	if n.isLeaf {
		if len(n.items) < t.capacity || n.depth >= t.maxDepth {
			n.items = append(n.items, item)
			return
		}
		t.split(n)
		// fall through: n is now internal, item gets routed below
	}
	if child := t.childFor(n, item.Bounds); child != nil {
		t.insertInto(child, item)
		return
	}
	n.items = append(n.items, item)
}

// childFor returns the single child of n that fully contains item's
// bounds, or nil if no child does (the item must then live at n).
func (t *Tree) childFor(n *node, bounds geom.MBR) *node {
	for _, c := range n.children {
		if c != nil && geom.ContainsMBR(c.bounds, bounds) {
			return c
		}
	}
	return nil
}

// split divides n into four quadrant children and tries to push each of
// n's existing items into whichever single child fully contains it.
// Items no child contains stay at n, unlike the C source, which zeroed
// item_count unconditionally and lost spanning items.
func (t *Tree) split(n *node) {
	mid := geom.Centroid(n.bounds)
	n.children[NW] = &node{bounds: geom.NewMBR(n.bounds.MinX, mid.Y, mid.X, n.bounds.MaxY), depth: n.depth + 1, isLeaf: true}
	n.children[NE] = &node{bounds: geom.NewMBR(mid.X, mid.Y, n.bounds.MaxX, n.bounds.MaxY), depth: n.depth + 1, isLeaf: true}
	n.children[SW] = &node{bounds: geom.NewMBR(n.bounds.MinX, n.bounds.MinY, mid.X, mid.Y), depth: n.depth + 1, isLeaf: true}
	n.children[SE] = &node{bounds: geom.NewMBR(mid.X, n.bounds.MinY, n.bounds.MaxX, mid.Y), depth: n.depth + 1, isLeaf: true}
	n.isLeaf = false

	old := n.items
	n.items = n.items[:0]
	for _, it := range old {
		if child := t.childFor(n, it.Bounds); child != nil {
			t.insertInto(child, it)
		} else {
			n.items = append(n.items, it)
		}
	}
}

// RangeQuery reports every item whose bounds intersect mbr, in in-tree
// traversal order (parent before children, NW, NE, SW, SE).
func (t *Tree) RangeQuery(mbr geom.MBR) []Item {
	var out []Item
	rangeSearch(t.root, mbr, &out)
	return out
}

func rangeSearch(n *node, mbr geom.MBR, out *[]Item) {
	if n == nil || !geom.Intersects(n.bounds, mbr) {
		return
	}
	for _, it := range n.items {
		if geom.Intersects(it.Bounds, mbr) {
			*out = append(*out, it)
		}
	}
	for _, c := range n.children {
		rangeSearch(c, mbr, out)
	}
}

// PointQuery reports every item whose bounds contain p, descending only
// into children whose bounds contain p.
func (t *Tree) PointQuery(p geom.Point) []Item {
	var out []Item
	pointSearch(t.root, p, &out)
	return out
}

func pointSearch(n *node, p geom.Point, out *[]Item) {
	if n == nil || !geom.ContainsPoint(n.bounds, p) {
		return
	}
	for _, it := range n.items {
		if geom.ContainsPoint(it.Bounds, p) {
			*out = append(*out, it)
		}
	}
	for _, c := range n.children {
		pointSearch(c, p, out)
	}
}

// FindAdjacentToRegion expands region by max(1e-6, 0.01*width) on each
// axis, range-queries the expansion, then filters to items that overlap
// or touch it within a 1e-9 absolute tolerance.
func (t *Tree) FindAdjacentToRegion(region geom.MBR) []Item {
	width := region.MaxX - region.MinX
	expandX := math.Max(1e-6, 0.01*width)
	expandY := expandX
	expanded := geom.MBR{
		MinX: region.MinX - expandX, MinY: region.MinY - expandY,
		MaxX: region.MaxX + expandX, MaxY: region.MaxY + expandY,
	}
	candidates := t.RangeQuery(expanded)
	out := make([]Item, 0, len(candidates))
	for _, it := range candidates {
		if geom.AdjacentOrIntersects(it.Bounds, expanded, 1e-9) {
			out = append(out, it)
		}
	}
	return out
}

// FindByID returns the item with the given id and true, or a zero Item
// and false. Linear in the items of each visited node.
func (t *Tree) FindByID(id uint64) (Item, bool) {
	return findByID(t.root, id)
}

func findByID(n *node, id uint64) (Item, bool) {
	if n == nil {
		return Item{}, false
	}
	for _, it := range n.items {
		if it.ID == id {
			return it, true
		}
	}
	for _, c := range n.children {
		if it, ok := findByID(c, id); ok {
			return it, true
		}
	}
	return Item{}, false
}

// Remove deletes the item with the given id. Returns NotFound if absent.
func (t *Tree) Remove(id uint64) error {
	if removeFrom(t.root, id) {
		t.count--
		return nil
	}
	return urbiserr.New(urbiserr.NotFound, "item not found in quadtree")
}

func removeFrom(n *node, id uint64) bool {
	if n == nil {
		return false
	}
	for i, it := range n.items {
		if it.ID == id {
			n.items = append(n.items[:i], n.items[i+1:]...)
			return true
		}
	}
	for _, c := range n.children {
		if removeFrom(c, id) {
			return true
		}
	}
	return false
}

// Update removes the item with the given id (if present) and reinserts it
// with newBounds/newCentroid/newData
func (t *Tree) Update(id uint64, newBounds geom.MBR, newCentroid geom.Point, newData Payload) error {
	_ = t.Remove(id) // ignore NotFound: Update also serves as an upsert
	return t.Insert(Item{ID: id, Bounds: newBounds, Centroid: newCentroid, Data: newData})
}
