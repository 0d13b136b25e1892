package breakable

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/Faultbox/midgard-shatter/pkg/math"
)

const nullNode = -1

type treeNode struct {
	box    math.AABB
	parent int
	left   int
	right  int
	piece  *Piece
}

func (n *treeNode) isLeaf() bool { return n.left == nullNode }

// bvh is an AABB hierarchy over the pieces of one compound. It is built once
// and only shrinks afterwards.
type bvh struct {
	nodes    []treeNode
	root     int
	free     []int
	maxStack int
}

// buildTree builds the hierarchy top-down, splitting each range at the mean
// centre on the axis of largest variance.
func buildTree(pieces []*Piece, maxStack int) *bvh {
	t := &bvh{root: nullNode, maxStack: maxStack}
	if len(pieces) == 0 {
		return t
	}
	t.nodes = make([]treeNode, 0, 2*len(pieces)-1)
	items := append([]*Piece(nil), pieces...)
	t.root = t.buildRange(items, nullNode)
	return t
}

func (t *bvh) buildRange(items []*Piece, parent int) int {
	idx := len(t.nodes)
	t.nodes = append(t.nodes, treeNode{parent: parent, left: nullNode, right: nullNode})

	if len(items) == 1 {
		p := items[0]
		t.nodes[idx].box = p.bounds
		t.nodes[idx].piece = p
		p.leaf = idx
		return idx
	}

	var mean, sq math.Vec3
	for _, p := range items {
		c := p.bounds.Center()
		mean = mean.Add(c)
		sq = sq.Add(c.Mul(c))
	}
	inv := 1 / float32(len(items))
	mean = mean.Scale(inv)
	variance := sq.Scale(inv).Sub(mean.Mul(mean))
	axis := 0
	if variance.Y > variance.Index(axis) {
		axis = 1
	}
	if variance.Z > variance.Index(axis) {
		axis = 2
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].bounds.Center().Index(axis) < items[j].bounds.Center().Index(axis)
	})
	split := sort.Search(len(items), func(i int) bool {
		return items[i].bounds.Center().Index(axis) >= mean.Index(axis)
	})
	if split == 0 || split == len(items) {
		split = len(items) / 2
	}

	left := t.buildRange(items[:split], idx)
	right := t.buildRange(items[split:], idx)
	t.nodes[idx].left = left
	t.nodes[idx].right = right
	t.nodes[idx].box = t.nodes[left].box.Union(t.nodes[right].box)
	return idx
}

// removeLeaf detaches a leaf, promotes its sibling into the parent's place
// and refits the ancestors.
func (t *bvh) removeLeaf(leaf int) {
	invariant(t.nodes[leaf].isLeaf(), "removing an internal node")
	t.nodes[leaf].piece = nil
	t.free = append(t.free, leaf)

	if leaf == t.root {
		t.root = nullNode
		return
	}

	parent := t.nodes[leaf].parent
	grand := t.nodes[parent].parent
	sibling := t.nodes[parent].left
	if sibling == leaf {
		sibling = t.nodes[parent].right
	}
	t.free = append(t.free, parent)

	if grand == nullNode {
		t.root = sibling
		t.nodes[sibling].parent = nullNode
		return
	}
	if t.nodes[grand].left == parent {
		t.nodes[grand].left = sibling
	} else {
		t.nodes[grand].right = sibling
	}
	t.nodes[sibling].parent = grand

	for i := grand; i != nullNode; i = t.nodes[i].parent {
		n := &t.nodes[i]
		n.box = t.nodes[n.left].box.Union(t.nodes[n.right].box)
	}
}

// query calls fn for every leaf whose box overlaps box. fn returns false to
// stop the walk.
func (t *bvh) query(box math.AABB, fn func(*Piece) bool) error {
	if t.root == nullNode {
		return nil
	}
	stack := []int{t.root}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.nodes[i]
		if !n.box.Overlaps(box) {
			continue
		}
		if n.isLeaf() {
			if !fn(n.piece) {
				return nil
			}
			continue
		}
		if len(stack)+2 > t.maxStack {
			return errors.Wrap(ErrCapacityExceeded, "tree query")
		}
		stack = append(stack, n.left, n.right)
	}
	return nil
}

// rayCast walks leaves whose boxes the segment p0-p1 enters before the
// current best hit. fn returns the hit parameter for a leaf, or a negative
// value for a miss; the walk then only visits boxes entered earlier.
func (t *bvh) rayCast(p0, p1 math.Vec3, fn func(*Piece, float32) float32) error {
	if t.root == nullNode {
		return nil
	}
	best := float32(1)
	stack := []int{t.root}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.nodes[i]
		if _, hit := n.box.RayIntersect(p0, p1, best); !hit {
			continue
		}
		if n.isLeaf() {
			if h := fn(n.piece, best); h >= 0 && h < best {
				best = h
			}
			continue
		}
		if len(stack)+2 > t.maxStack {
			return errors.Wrap(ErrCapacityExceeded, "tree ray cast")
		}
		stack = append(stack, n.left, n.right)
	}
	return nil
}

// nearPoint visits leaves whose boxes lie within radius of origin.
func (t *bvh) nearPoint(origin math.Vec3, radius float32, fn func(*Piece) bool) error {
	if t.root == nullNode {
		return nil
	}
	r2 := radius * radius
	stack := []int{t.root}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.nodes[i]
		if n.box.DistanceSquaredToPoint(origin) > r2 {
			continue
		}
		if n.isLeaf() {
			if !fn(n.piece) {
				return nil
			}
			continue
		}
		if len(stack)+2 > t.maxStack {
			return errors.Wrap(ErrCapacityExceeded, "tree radius query")
		}
		stack = append(stack, n.left, n.right)
	}
	return nil
}

// leaves returns the live leaves in depth-first order.
func (t *bvh) leaves() []int {
	if t.root == nullNode {
		return nil
	}
	var out []int
	stack := []int{t.root}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if t.nodes[i].isLeaf() {
			out = append(out, i)
			continue
		}
		stack = append(stack, t.nodes[i].right, t.nodes[i].left)
	}
	return out
}

// clone copies the node array; leaves still point at the source pieces
// until the caller re-points them.
func (t *bvh) clone() *bvh {
	return &bvh{
		nodes:    append([]treeNode(nil), t.nodes...),
		root:     t.root,
		free:     append([]int(nil), t.free...),
		maxStack: t.maxStack,
	}
}
