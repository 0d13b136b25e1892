package breakable

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// SetAnchoredParts links every piece touching one of the anchors to the
// anchor node, then recomputes islands and distances. Anchor matrices are in
// compound space. Existing anchor links are kept.
func (c *Compound) SetAnchoredParts(anchors []Anchor) error {
	if c.inTransaction {
		return ErrTransactionOpen
	}
	anchor := c.graph.anchor()
	linked := 0
	for _, p := range c.pieces {
		if c.graph.hasEdge(p.node, anchor) {
			continue
		}
		pm := toMat64(p.offset)
		for _, a := range anchors {
			if c.world.Collide(p.shape, pm, a.Shape, toMat64(a.Matrix), c.opts.AnchorContacts) > 0 {
				c.graph.addEdge(anchor, p.node)
				linked++
				break
			}
		}
	}
	if err := c.recomputeIslands(); err != nil {
		return err
	}
	c.log.Debug("anchors set",
		zap.Int("anchors", len(anchors)),
		zap.Int("linked", linked),
		zap.Int("anchored", len(c.graph.nodes[0].edges)),
	)
	return nil
}

// ResetAnchor removes every anchor link and recomputes islands.
func (c *Compound) ResetAnchor() error {
	if c.inTransaction {
		return ErrTransactionOpen
	}
	anchor := c.graph.anchor()
	for _, e := range append([]NodeID(nil), c.graph.nodes[0].edges...) {
		c.graph.deleteEdge(anchor, e)
	}
	return c.recomputeIslands()
}

func (c *Compound) recomputeIslands() error {
	count, err := c.graph.enumerateIslands(c.opts.MaxTraversal)
	if err != nil {
		return err
	}
	c.lastIslandColor = count
	return errors.Wrap(c.graph.relaxDistances(c.opts.MaxTraversal), "anchor distances")
}
