package breakable

import (
	"github.com/pkg/errors"
)

// NodeID is a generation-checked handle to a graph node. The zero value is
// never valid.
type NodeID struct {
	index uint32
	gen   uint32
}

// Index returns the arena slot of the node.
func (id NodeID) Index() int { return int(id.index) }

// IsZero reports whether id is the zero handle.
func (id NodeID) IsZero() bool { return id.gen == 0 }

// Segment is one material's run of triangles inside a node mesh.
type Segment struct {
	Material  int
	Indices   []uint32
	FaceCount int
	// visOffset is the first face in the visibility map (piece nodes).
	visOffset int
	// indirectBase is the first slot in the indirect map (main node).
	indirectBase int
}

type nodeMesh struct {
	segments []Segment
	visible  bool
}

func (m nodeMesh) faceCount() int {
	n := 0
	for _, s := range m.segments {
		n += s.FaceCount
	}
	return n
}

type graphNode struct {
	gen      uint32
	alive    bool
	piece    *Piece
	mesh     nodeMesh
	island   int32
	distance int32
	lru      uint32
	edges    []NodeID
}

// graph is the node arena. Slot 0 is the anchor and the last slot is the
// main node; piece nodes sit in between and are tombstoned on delete.
type graph struct {
	nodes []graphNode
}

func newGraph(pieces int) *graph {
	g := &graph{nodes: make([]graphNode, pieces+2)}
	for i := range g.nodes {
		g.nodes[i] = graphNode{gen: 1, alive: true, island: -1, distance: DynamicIslandCost}
	}
	return g
}

func (g *graph) anchor() NodeID { return NodeID{index: 0, gen: g.nodes[0].gen} }

func (g *graph) main() NodeID {
	i := len(g.nodes) - 1
	return NodeID{index: uint32(i), gen: g.nodes[i].gen}
}

func (g *graph) id(i int) NodeID { return NodeID{index: uint32(i), gen: g.nodes[i].gen} }

func (g *graph) get(id NodeID) (*graphNode, bool) {
	if id.gen == 0 || int(id.index) >= len(g.nodes) {
		return nil, false
	}
	n := &g.nodes[id.index]
	if !n.alive || n.gen != id.gen {
		return nil, false
	}
	return n, true
}

// pieceNode resolves a live piece node, rejecting the two sentinels.
func (g *graph) pieceNode(id NodeID) (*graphNode, error) {
	n, ok := g.get(id)
	if !ok || n.piece == nil {
		return nil, errors.Wrapf(ErrInvalidNode, "node %d gen %d", id.index, id.gen)
	}
	return n, nil
}

func (g *graph) isSentinel(id NodeID) bool {
	return id.index == 0 || int(id.index) == len(g.nodes)-1
}

// pieceIDs lists live piece nodes in arena order.
func (g *graph) pieceIDs() []NodeID {
	var out []NodeID
	for i := 1; i < len(g.nodes)-1; i++ {
		if g.nodes[i].alive {
			out = append(out, g.id(i))
		}
	}
	return out
}

func (g *graph) hasEdge(a, b NodeID) bool {
	n, ok := g.get(a)
	if !ok {
		return false
	}
	for _, e := range n.edges {
		if e == b {
			return true
		}
	}
	return false
}

func (g *graph) addEdge(a, b NodeID) {
	invariant(a != b, "self edge")
	invariant(!g.hasEdge(a, b), "edge already linked")
	invariant(!g.hasEdge(b, a), "edge lists disagree")
	na, _ := g.get(a)
	nb, _ := g.get(b)
	na.edges = append(na.edges, b)
	nb.edges = append(nb.edges, a)
}

func (g *graph) deleteEdge(a, b NodeID) {
	if na, ok := g.get(a); ok {
		na.edges = removeID(na.edges, b)
	}
	if nb, ok := g.get(b); ok {
		nb.edges = removeID(nb.edges, a)
	}
}

// deleteNode unlinks the node from its neighbours and tombstones the slot.
func (g *graph) deleteNode(id NodeID) {
	n, ok := g.get(id)
	if !ok {
		return
	}
	for _, e := range n.edges {
		if nb, ok := g.get(e); ok {
			before := len(nb.edges)
			nb.edges = removeID(nb.edges, id)
			invariant(len(nb.edges) == before-1, "neighbour edge list disagrees")
		}
	}
	*n = graphNode{gen: n.gen + 1, island: -1, distance: DynamicIslandCost}
}

func removeID(ids []NodeID, id NodeID) []NodeID {
	for i, e := range ids {
		if e == id {
			ids[i] = ids[len(ids)-1]
			return ids[:len(ids)-1]
		}
	}
	return ids
}

// edgeCount returns the number of undirected piece-to-piece edges.
func (g *graph) edgeCount() int {
	n := 0
	for i := 1; i < len(g.nodes)-1; i++ {
		node := &g.nodes[i]
		if !node.alive {
			continue
		}
		for _, e := range node.edges {
			if !g.isSentinel(e) {
				n++
			}
		}
	}
	return n / 2
}

// enumerateIslands colours every connected group of piece nodes with a fresh
// island index and resets distances. The anchor and main nodes do not take
// part; the anchor ends up at distance 0. It returns the number of islands.
func (g *graph) enumerateIslands(maxStack int) (int32, error) {
	for i := range g.nodes {
		g.nodes[i].island = -1
		g.nodes[i].distance = DynamicIslandCost
	}

	var color int32
	var stack []int
	for i := 1; i < len(g.nodes)-1; i++ {
		root := &g.nodes[i]
		if !root.alive || root.island != -1 {
			continue
		}
		root.island = color
		stack = append(stack[:0], i)
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, e := range g.nodes[cur].edges {
				if g.isSentinel(e) {
					continue
				}
				nb := &g.nodes[e.index]
				if nb.island != -1 {
					continue
				}
				nb.island = color
				if len(stack) >= maxStack {
					return color, errors.Wrap(ErrCapacityExceeded, "island flood fill")
				}
				stack = append(stack, int(e.index))
			}
		}
		color++
	}
	g.nodes[0].distance = 0
	return color, nil
}

// relaxDistances propagates distance-to-anchor from the anchor. Pieces linked
// to the anchor sit at 0 and every piece-to-piece edge costs 1. A node is
// queued again whenever a strictly shorter distance reaches it, so the queue
// works as a small relaxation queue rather than a single BFS sweep.
func (g *graph) relaxDistances(maxQueue int) error {
	g.nodes[0].distance = 0
	queue := []int{0}
	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		node := &g.nodes[cur]
		for _, e := range node.edges {
			if g.isSentinel(e) {
				continue
			}
			cost := node.distance + 1
			if cur == 0 {
				cost = 0
			}
			nb := &g.nodes[e.index]
			if nb.distance <= cost {
				continue
			}
			nb.distance = cost
			if len(queue)-head >= maxQueue {
				return errors.Wrap(ErrCapacityExceeded, "distance queue")
			}
			queue = append(queue, int(e.index))
		}
	}
	return nil
}
