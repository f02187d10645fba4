package geom

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

const bvhLeafSize = 4

type BVHNode struct {
	Bounds    AABB
	Left      int32
	Right     int32
	LeafFirst int32
	LeafCount int32
}

func (n *BVHNode) IsLeaf() bool {
	return n.Left < 0
}

type bvhItem struct {
	Bounds   AABB
	Centroid mgl32.Vec3
	Index    int
}

// BVH is a median split bounding volume hierarchy over triangle indices.
type BVH struct {
	Nodes []BVHNode
	Order []int // triangle indices referenced by leaves
}

func NewTriangleBVH(m *Mesh) *BVH {
	n := m.TriangleCount()
	items := make([]bvhItem, n)
	for i := 0; i < n; i++ {
		a, b, c := m.Triangle(i)
		box := EmptyAABB().Extend(a).Extend(b).Extend(c)
		items[i] = bvhItem{Bounds: box, Centroid: box.Center(), Index: i}
	}
	return buildBVH(items)
}

func buildBVH(items []bvhItem) *BVH {
	b := &BVH{}
	if len(items) == 0 {
		return b
	}
	b.recursiveBuild(items)
	return b
}

func (b *BVH) recursiveBuild(items []bvhItem) int32 {
	idx := int32(len(b.Nodes))
	b.Nodes = append(b.Nodes, BVHNode{Left: -1, Right: -1, LeafFirst: -1})

	bounds := EmptyAABB()
	centroids := EmptyAABB()
	for _, it := range items {
		bounds = bounds.Union(it.Bounds)
		centroids = centroids.Extend(it.Centroid)
	}
	b.Nodes[idx].Bounds = bounds

	if len(items) <= bvhLeafSize {
		b.Nodes[idx].LeafFirst = int32(len(b.Order))
		b.Nodes[idx].LeafCount = int32(len(items))
		for _, it := range items {
			b.Order = append(b.Order, it.Index)
		}
		return idx
	}

	// Split on the widest centroid axis
	extent := centroids.Size()
	axis := 0
	if extent.Y() > extent.X() {
		axis = 1
	}
	if extent.Z() > extent[axis] {
		axis = 2
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Centroid[axis] < items[j].Centroid[axis]
	})

	mid := len(items) / 2
	left := b.recursiveBuild(items[:mid])
	right := b.recursiveBuild(items[mid:])
	b.Nodes[idx].Left = left
	b.Nodes[idx].Right = right

	return idx
}

// Traverse calls visit for every leaf item whose node box the ray enters
// before the current best distance. visit returns the (possibly shortened)
// best distance so far.
func (b *BVH) Traverse(ray Ray, tMax float32, visit func(index int) float32) {
	if len(b.Nodes) == 0 {
		return
	}
	best := tMax
	stack := make([]int32, 0, 64)
	stack = append(stack, 0)
	for len(stack) > 0 {
		ni := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := &b.Nodes[ni]

		tNear, _, ok := node.Bounds.IntersectRay(ray)
		if !ok || tNear > best {
			continue
		}
		if node.IsLeaf() {
			for _, idx := range b.Order[node.LeafFirst : node.LeafFirst+node.LeafCount] {
				best = visit(idx)
			}
			continue
		}
		stack = append(stack, node.Left, node.Right)
	}
}
