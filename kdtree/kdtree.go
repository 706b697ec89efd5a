// Package kdtree implements the Urbis 2-D KD-tree: a
// median-split bulk loader over object centroids, used both to partition
// bulk-inserted data into blocks and, inside package disk, as the
// allocation tree that finds a nearby existing page for new objects.
//
// Grounded on original_source/src/kdtree.c and include/kdtree.h. The
// source's void* data slot becomes the Payload interface type: callers
// attach their own typed carrier and type-assert it back on the way out.
package kdtree

import (
	"math"
	"sort"

	"github.com/tidwall/tinyqueue"
	"github.com/urbis-gis/urbis/geom"
	"github.com/urbis-gis/urbis/urbiserr"
)

// Payload is an opaque carrier a caller attaches to a tree node, e.g. a
// disk.pageRef. The tree never inspects it.
type Payload any

// Item is one (point, id, payload) tuple accepted by BulkLoad or Insert.
type Item struct {
	Point    geom.Point
	ObjectID uint64
	Data     Payload
}

// Result is one match returned by a query, carrying the same fields as
// Item plus nothing else: kdtree never ranks by anything but distance.
type Result struct {
	Point    geom.Point
	ObjectID uint64
	Data     Payload
}

// node is an internal KD-tree node. SplitDim alternates with depth: 0 (x)
// at even depth, 1 (y) at odd depth.
type node struct {
	point       geom.Point
	objectID    uint64
	data        Payload
	splitDim    int
	left, right *node
	bounds      geom.MBR
	subtreeSize int
	order       int // insertion order, for deterministic k-nearest ties
}

// Tree is a 2-D KD-tree over object centroids.
type Tree struct {
	root      *node
	size      int
	bounds    geom.MBR
	nextOrder int
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{bounds: geom.EmptyMBR()}
}

// Size returns the number of points in the tree.
func (t *Tree) Size() int { return t.size }

// Bounds returns the MBR of every point in the tree.
func (t *Tree) Bounds() geom.MBR { return t.bounds }

// BulkLoad replaces the tree's contents with a balanced tree built by
// repeated median splits, alternating the split axis with depth. Ties on
// the split axis place equal coordinates in the right subtree.
func (t *Tree) BulkLoad(items []Item) {
	t.root = nil
	t.size = len(items)
	t.nextOrder = 0
	t.bounds = geom.EmptyMBR()
	if len(items) == 0 {
		return
	}
	buf := make([]Item, len(items))
	copy(buf, items)
	t.root = t.buildMedian(buf, 0)
	t.bounds = t.root.bounds
}

func (t *Tree) buildMedian(items []Item, depth int) *node {
	if len(items) == 0 {
		return nil
	}
	dim := depth % 2
	sort.Slice(items, func(i, j int) bool {
		if dim == 0 {
			return items[i].Point.X < items[j].Point.X
		}
		return items[i].Point.Y < items[j].Point.Y
	})
	m := len(items) / 2
	n := &node{
		point:    items[m].Point,
		objectID: items[m].ObjectID,
		data:     items[m].Data,
		splitDim: dim,
		order:    t.nextOrder,
	}
	t.nextOrder++
	n.left = t.buildMedian(items[:m], depth+1)
	n.right = t.buildMedian(items[m+1:], depth+1)
	n.subtreeSize = 1
	n.bounds = geom.MBR{MinX: n.point.X, MinY: n.point.Y, MaxX: n.point.X, MaxY: n.point.Y}
	if n.left != nil {
		n.subtreeSize += n.left.subtreeSize
		n.bounds.ExpandMBR(n.left.bounds)
	}
	if n.right != nil {
		n.subtreeSize += n.right.subtreeSize
		n.bounds.ExpandMBR(n.right.bounds)
	}
	return n
}

// Insert adds a single point without rebalancing. Callers should rebuild
// via BulkLoad if repeated inserts skew the tree.
func (t *Tree) Insert(item Item) {
	t.size++
	t.bounds.ExpandPoint(item.Point)
	if t.root == nil {
		t.root = &node{
			point: item.Point, objectID: item.ObjectID, data: item.Data,
			splitDim: 0, subtreeSize: 1,
			bounds: geom.MBR{MinX: item.Point.X, MinY: item.Point.Y, MaxX: item.Point.X, MaxY: item.Point.Y},
			order:  t.nextOrder,
		}
		t.nextOrder++
		return
	}
	insertInto(t.root, item, 0, &t.nextOrder)
}

func insertInto(n *node, item Item, depth int, nextOrder *int) {
	n.subtreeSize++
	n.bounds.ExpandPoint(item.Point)
	dim := depth % 2
	var goLeft bool
	if dim == 0 {
		goLeft = item.Point.X < n.point.X
	} else {
		goLeft = item.Point.Y < n.point.Y
	}
	if goLeft {
		if n.left == nil {
			n.left = newLeaf(item, (depth+1)%2, *nextOrder)
			*nextOrder++
			return
		}
		insertInto(n.left, item, depth+1, nextOrder)
	} else {
		if n.right == nil {
			n.right = newLeaf(item, (depth+1)%2, *nextOrder)
			*nextOrder++
			return
		}
		insertInto(n.right, item, depth+1, nextOrder)
	}
}

func newLeaf(item Item, splitDim, order int) *node {
	return &node{
		point: item.Point, objectID: item.ObjectID, data: item.Data,
		splitDim: splitDim, subtreeSize: 1, order: order,
		bounds: geom.MBR{MinX: item.Point.X, MinY: item.Point.Y, MaxX: item.Point.X, MaxY: item.Point.Y},
	}
}

// Nearest returns the single closest point to q. found is false for an
// empty tree.
func (t *Tree) Nearest(q geom.Point) (res Result, found bool) {
	if t.root == nil {
		return Result{}, false
	}
	best := t.root
	bestDistSq := geom.DistanceSq(q, t.root.point)
	nearestSearch(t.root, q, 0, &best, &bestDistSq)
	return Result{Point: best.point, ObjectID: best.objectID, Data: best.data}, true
}

func nearestSearch(n *node, q geom.Point, depth int, best **node, bestDistSq *float64) {
	if n == nil {
		return
	}
	d := geom.DistanceSq(q, n.point)
	if d < *bestDistSq || (d == *bestDistSq && n.objectID < (*best).objectID) {
		*bestDistSq = d
		*best = n
	}
	dim := depth % 2
	var diff float64
	var near, far *node
	if dim == 0 {
		diff = q.X - n.point.X
	} else {
		diff = q.Y - n.point.Y
	}
	if diff < 0 {
		near, far = n.left, n.right
	} else {
		near, far = n.right, n.left
	}
	nearestSearch(near, q, depth+1, best, bestDistSq)
	if diff*diff <= *bestDistSq {
		nearestSearch(far, q, depth+1, best, bestDistSq)
	}
}

// candidate is a tinyqueue.Item used as a bounded max-heap of the best k
// so far: Less reports the *worse* candidate so the worst rises to the
// top and gets evicted first, mirroring original_source/src/kdtree.c's
// k_nearest partial-selection but via a priority queue (grounded on
// zycbobby-tile38's index/rtree/knn.go use of tidwall/tinyqueue for
// best-first traversal).
type candidate struct {
	distSq float64
	id     uint64
	order  int
	res    Result
}

func (a *candidate) Less(b tinyqueue.Item) bool {
	bb := b.(*candidate)
	if a.distSq != bb.distSq {
		return a.distSq > bb.distSq
	}
	if a.id != bb.id {
		return a.id > bb.id
	}
	return a.order > bb.order
}

// KNearest returns min(k, Size()) points in non-decreasing distance to q,
// ties broken by lower object id then lower insertion order.
func (t *Tree) KNearest(q geom.Point, k int) []Result {
	if k <= 0 || t.root == nil {
		return nil
	}
	heap := tinyqueue.New(nil)
	worstDistSq := math.Inf(1)
	knnSearch(t.root, q, 0, k, heap, &worstDistSq)
	out := make([]candidate, 0, heap.Len())
	for heap.Len() > 0 {
		out = append(out, *heap.Pop().(*candidate))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].distSq != out[j].distSq {
			return out[i].distSq < out[j].distSq
		}
		if out[i].id != out[j].id {
			return out[i].id < out[j].id
		}
		return out[i].order < out[j].order
	})
	results := make([]Result, len(out))
	for i, c := range out {
		results[i] = c.res
	}
	return results
}

func knnSearch(n *node, q geom.Point, depth, k int, heap *tinyqueue.Queue, worstDistSq *float64) {
	if n == nil {
		return
	}
	d := geom.DistanceSq(q, n.point)
	heap.Push(&candidate{
		distSq: d, id: n.objectID, order: n.order,
		res: Result{Point: n.point, ObjectID: n.objectID, Data: n.data},
	})
	if heap.Len() > k {
		heap.Pop()
	}
	if heap.Len() == k {
		*worstDistSq = heap.Peek().(*candidate).distSq
	}
	dim := depth % 2
	var diff float64
	var near, far *node
	if dim == 0 {
		diff = q.X - n.point.X
	} else {
		diff = q.Y - n.point.Y
	}
	if diff < 0 {
		near, far = n.left, n.right
	} else {
		near, far = n.right, n.left
	}
	knnSearch(near, q, depth+1, k, heap, worstDistSq)
	if heap.Len() < k || diff*diff < *worstDistSq {
		knnSearch(far, q, depth+1, k, heap, worstDistSq)
	}
}

// RangeQuery reports every point contained (inclusive) within mbr, pruning
// subtrees whose bounds do not intersect it.
func (t *Tree) RangeQuery(mbr geom.MBR) []Result {
	var out []Result
	rangeSearch(t.root, mbr, &out)
	return out
}

func rangeSearch(n *node, mbr geom.MBR, out *[]Result) {
	if n == nil || !geom.Intersects(n.bounds, mbr) {
		return
	}
	if geom.ContainsPoint(mbr, n.point) {
		*out = append(*out, Result{Point: n.point, ObjectID: n.objectID, Data: n.data})
	}
	rangeSearch(n.left, mbr, out)
	rangeSearch(n.right, mbr, out)
}

// RadiusQuery reports every point within r of q: a range query over
// (q ± r) refined by an exact squared-distance test.
func (t *Tree) RadiusQuery(q geom.Point, r float64) []Result {
	box := geom.MBR{MinX: q.X - r, MinY: q.Y - r, MaxX: q.X + r, MaxY: q.Y + r}
	candidates := t.RangeQuery(box)
	rSq := r * r
	out := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		if geom.DistanceSq(q, c.Point) <= rSq {
			out = append(out, c)
		}
	}
	return out
}

// Partition descends from the root, emitting node.bounds as a block MBR
// whenever subtree_size <= maxPointsPerBlock or the node is a leaf, else
// recursing into both children and emitting the node's own point as a
// single-point block between them, so every point lies in some block.
// Order matches in-order tree traversal (left, node, right) stabilized to
// the loader's construction order.
func (t *Tree) Partition(maxPointsPerBlock int) []geom.MBR {
	var out []geom.MBR
	partitionNode(t.root, maxPointsPerBlock, &out)
	return out
}

func partitionNode(n *node, maxPointsPerBlock int, out *[]geom.MBR) {
	if n == nil {
		return
	}
	if n.subtreeSize <= maxPointsPerBlock || (n.left == nil && n.right == nil) {
		*out = append(*out, n.bounds)
		return
	}
	partitionNode(n.left, maxPointsPerBlock, out)
	*out = append(*out, geom.MBR{MinX: n.point.X, MinY: n.point.Y, MaxX: n.point.X, MaxY: n.point.Y})
	partitionNode(n.right, maxPointsPerBlock, out)
}

// Block is one emission of Partition, carrying the subtree's object count
// alongside its bounds so callers can materialize a block without a
// second pass over every point.
type Block struct {
	Bounds geom.MBR
	Count  int
}

// PartitionBlocks is Partition with each block's contained point count
// attached, for callers (the coordinator's Build) that need both.
func (t *Tree) PartitionBlocks(maxPointsPerBlock int) []Block {
	var out []Block
	partitionBlocks(t.root, maxPointsPerBlock, &out)
	return out
}

func partitionBlocks(n *node, maxPointsPerBlock int, out *[]Block) {
	if n == nil {
		return
	}
	if n.subtreeSize <= maxPointsPerBlock || (n.left == nil && n.right == nil) {
		*out = append(*out, Block{Bounds: n.bounds, Count: n.subtreeSize})
		return
	}
	partitionBlocks(n.left, maxPointsPerBlock, out)
	*out = append(*out, Block{Bounds: geom.MBR{MinX: n.point.X, MinY: n.point.Y, MaxX: n.point.X, MaxY: n.point.Y}, Count: 1})
	partitionBlocks(n.right, maxPointsPerBlock, out)
}

// Depth returns the longest root-to-leaf path length, 0 for an empty tree.
func (t *Tree) Depth() int {
	return depthOf(t.root)
}

func depthOf(n *node) int {
	if n == nil {
		return 0
	}
	l, r := depthOf(n.left), depthOf(n.right)
	if l > r {
		return l + 1
	}
	return r + 1
}

// IsBalanced reports whether Depth() <= 2*ceil(log2(size+1)).
func (t *Tree) IsBalanced() bool {
	if t.size == 0 {
		return true
	}
	bound := 2 * int(math.Ceil(math.Log2(float64(t.size+1))))
	return t.Depth() <= bound
}

// FindLeaf descends the tree by the same split rule used during
// insertion and returns the leaf a point p would land in, or an error for
// an empty tree. Exposed for the disk manager's nearby-page lookups that
// want a cheap single-sided walk rather than a full Nearest search.
func (t *Tree) FindLeaf(p geom.Point) (Result, error) {
	if t.root == nil {
		return Result{}, urbiserr.New(urbiserr.NotFound, "tree is empty")
	}
	n := t.root
	depth := 0
	for {
		dim := depth % 2
		var goLeft bool
		if dim == 0 {
			goLeft = p.X < n.point.X
		} else {
			goLeft = p.Y < n.point.Y
		}
		next := n.right
		if goLeft {
			next = n.left
		}
		if next == nil {
			return Result{Point: n.point, ObjectID: n.objectID, Data: n.data}, nil
		}
		n = next
		depth++
	}
}
