package bvh

import (
	"math"
	"time"

	"github.com/mpoboas/cosig-raytracing/log"
	"github.com/mpoboas/cosig-raytracing/scene"
	"github.com/mpoboas/cosig-raytracing/types"
)

type Axis uint8

const (
	XAxis Axis = iota
	YAxis
	ZAxis
)

const (
	// Work ranges holding up to this many items become leaves.
	DefaultMinLeafItems = 4

	// Splits past this depth always produce leaves so that traversal can
	// run with a fixed-size node stack.
	maxDepth = 48
)

// The BoundedVolume interface is implemented by all primitives that can be
// partitioned by the bvh builder.
type BoundedVolume interface {
	BBox() [2]types.Vec3
	Center() types.Vec3
}

// A callback that is called whenever the BVH builder creates a new leaf.
type LeafCallback func(leaf *scene.BvhNode, itemList []BoundedVolume)

type stats struct {
	partitionedItems int
	totalItems       int
	nodes            int
	leafs            int
	maxDepth         int
}

type builder struct {
	logger log.Logger

	// Bvh nodes stored as a contiguous list
	nodes []scene.BvhNode

	// A callback invoked to set up BVH leafs depending on the type of
	// partitioned bounding volume
	leafCb LeafCallback

	// The minimum number of items that are required for creating a leaf.
	minLeafItems int

	// Stats
	stats stats
}

// A queued partition step. The item slice aliases the original work list so
// all partitioning happens in place.
type workRange struct {
	items     []BoundedVolume
	nodeIndex uint32
	depth     int
}

// Construct a BVH from a set of bounded volumes.
//
// Nodes are split at the spatial median of their longest bounding box axis
// and their items partitioned in place. Child node pairs always occupy
// adjacent slots of the returned list; nodes only store the index of their
// left child.
//
// The minLeafItems param should be used to specify the minimum number of
// items that can form a leaf. The builder automatically generates leafs
// when the incoming work length is <= minLeafItems or when a median split
// fails to separate the items.
func Build(workList []BoundedVolume, minLeafItems int, leafCb LeafCallback) []scene.BvhNode {
	b := &builder{
		logger:       log.New("bvh builder"),
		nodes:        make([]scene.BvhNode, 0, 2*len(workList)+1),
		leafCb:       leafCb,
		minLeafItems: minLeafItems,
		stats: stats{
			totalItems: len(workList),
		},
	}

	start := time.Now()

	// The root always occupies slot 0. An empty work list yields a single
	// node with inverted bounds; the slab test can never hit it so its
	// child indices are never read.
	b.nodes = append(b.nodes, makeNode(workList))
	b.stats.nodes++

	queue := []workRange{{items: workList, nodeIndex: 0, depth: 0}}
	for len(queue) > 0 {
		work := queue[0]
		queue = queue[1:]

		if work.depth > b.stats.maxDepth {
			b.stats.maxDepth = work.depth
		}

		if len(work.items) == 0 {
			continue
		}

		if len(work.items) <= b.minLeafItems || work.depth >= maxDepth {
			b.createLeaf(work.nodeIndex, work.items)
			continue
		}

		axis, pivot := splitPlane(&b.nodes[work.nodeIndex])
		split := partitionItems(work.items, axis, pivot)

		// A degenerate split cannot separate the items; emit a leaf instead
		if split == 0 || split == len(work.items) {
			b.createLeaf(work.nodeIndex, work.items)
			continue
		}

		leftItems := work.items[:split]
		rightItems := work.items[split:]

		leftIndex := uint32(len(b.nodes))
		b.nodes = append(b.nodes, makeNode(leftItems), makeNode(rightItems))
		b.nodes[work.nodeIndex].SetChildNodes(leftIndex)
		b.stats.nodes += 2

		queue = append(
			queue,
			workRange{items: leftItems, nodeIndex: leftIndex, depth: work.depth + 1},
			workRange{items: rightItems, nodeIndex: leftIndex + 1, depth: work.depth + 1},
		)
	}

	b.logger.Debugf(
		"BVH tree build time: %d ms, maxDepth: %d, nodes: %d, leafs: %d",
		time.Since(start).Nanoseconds()/1e6,
		b.stats.maxDepth, b.stats.nodes, b.stats.leafs,
	)

	return b.nodes
}

// Setup the node at nodeIndex as a leaf containing all items in the work list.
func (b *builder) createLeaf(nodeIndex uint32, workList []BoundedVolume) {
	b.leafCb(&b.nodes[nodeIndex], workList)

	// update stats
	b.stats.leafs++
	b.stats.partitionedItems += len(workList)
}

// Create a node whose bounds enclose every item in workList. An empty work
// list produces inverted bounds.
func makeNode(workList []BoundedVolume) scene.BvhNode {
	node := scene.BvhNode{
		Min: types.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		Max: types.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}
	for _, item := range workList {
		itemBBox := item.BBox()
		node.Min = types.MinVec3(node.Min, itemBBox[0])
		node.Max = types.MaxVec3(node.Max, itemBBox[1])
	}
	return node
}

// Select the longest axis of the node bounds and its spatial median.
func splitPlane(node *scene.BvhNode) (Axis, float32) {
	side := node.Max.Sub(node.Min)
	axis := XAxis
	if side[YAxis] > side[axis] {
		axis = YAxis
	}
	if side[ZAxis] > side[axis] {
		axis = ZAxis
	}
	return axis, (node.Min[axis] + node.Max[axis]) * 0.5
}

// Partition workList in place with a two-pointer pass so that items whose
// center lies below the split plane precede the rest. Returns the index of
// the first right-side item.
func partitionItems(workList []BoundedVolume, axis Axis, pivot float32) int {
	left, right := 0, len(workList)-1
	for left <= right {
		for left <= right && workList[left].Center()[axis] < pivot {
			left++
		}
		for left <= right && workList[right].Center()[axis] >= pivot {
			right--
		}
		if left < right {
			workList[left], workList[right] = workList[right], workList[left]
			left++
			right--
		}
	}
	return left
}
