package breakable

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DeleteComponentBegin opens a removal transaction. Any pending state from an
// earlier unfinished transaction is discarded.
func (c *Compound) DeleteComponentBegin() {
	c.lru++
	c.pending = c.pending[:0]
	c.inTransaction = true
}

// DeleteComponent removes one piece. Its faces are hidden, the interior
// faces of its neighbours are revealed and the neighbours are remembered for
// DeleteComponentEnd. Outside a transaction the piece is removed without
// checking what stays connected.
func (c *Compound) DeleteComponent(id NodeID) error {
	n, err := c.graph.pieceNode(id)
	if err != nil {
		return err
	}

	c.hideFaces(n)
	for _, e := range n.edges {
		if c.graph.isSentinel(e) {
			continue
		}
		nb := &c.graph.nodes[e.index]
		c.revealInterior(nb)
		if c.inTransaction && nb.lru != c.lru {
			nb.lru = c.lru
			c.pending = append(c.pending, e)
		}
	}

	p := n.piece
	c.tree.removeLeaf(p.leaf)
	last := c.pieces[len(c.pieces)-1]
	c.pieces[p.slot] = last
	last.slot = p.slot
	c.pieces = c.pieces[:len(c.pieces)-1]

	c.graph.deleteNode(id)
	p.shape.Release()
	return nil
}

// DeleteComponentEnd closes the transaction. Starting from every neighbour
// of a removed piece it flood-fills towards the anchor, nearest nodes first.
// Fills that reach an anchored piece are cancelled; every other fill becomes
// a new island whose pieces are removed and returned.
func (c *Compound) DeleteComponentEnd() ([]Island, error) {
	c.lru++
	defer func() {
		c.pending = c.pending[:0]
		c.inTransaction = false
	}()

	type doomed struct {
		index int32
		nodes []NodeID
	}
	var islands []doomed

	for _, seed := range c.pending {
		root, ok := c.graph.get(seed)
		if !ok || root.lru == c.lru {
			continue
		}
		root.lru = c.lru

		var members []NodeID
		attached := false
		stack := []NodeID{seed}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			node := &c.graph.nodes[cur.index]
			members = append(members, cur)
			if node.distance == 0 {
				attached = true
				break
			}
			for _, e := range node.edges {
				if c.graph.isSentinel(e) {
					continue
				}
				nb := &c.graph.nodes[e.index]
				if nb.lru == c.lru {
					continue
				}
				nb.lru = c.lru
				if len(stack) >= c.opts.MaxTraversal {
					return nil, errors.Wrap(ErrCapacityExceeded, "detach flood fill")
				}
				stack = c.pushByDistance(stack, e)
			}
		}
		if attached {
			continue
		}

		island := doomed{index: c.lastIslandColor, nodes: members}
		c.lastIslandColor++
		for _, m := range members {
			c.graph.nodes[m.index].island = island.index
		}
		islands = append(islands, island)
	}

	// Classification is done; now it is safe to mutate the graph.
	out := make([]Island, 0, len(islands))
	for _, isl := range islands {
		res := Island{Index: isl.index, Pieces: make([]DetachedPiece, 0, len(isl.nodes))}
		for _, id := range isl.nodes {
			n, ok := c.graph.get(id)
			invariant(ok, "doomed node vanished")
			res.Pieces = append(res.Pieces, c.detach(n))
		}
		for _, id := range isl.nodes {
			if err := c.DeleteComponent(id); err != nil {
				return out, err
			}
		}
		out = append(out, res)
		c.log.Debug("island detached", zap.Int32("island", isl.index), zap.Int("pieces", len(isl.nodes)))
	}
	return out, nil
}

// pushByDistance inserts id keeping the stack sorted so the node nearest the
// anchor is on top.
func (c *Compound) pushByDistance(stack []NodeID, id NodeID) []NodeID {
	d := c.graph.nodes[id.index].distance
	i := len(stack)
	stack = append(stack, id)
	for i > 0 && c.graph.nodes[stack[i-1].index].distance < d {
		stack[i] = stack[i-1]
		i--
	}
	stack[i] = id
	return stack
}
