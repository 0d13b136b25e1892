// Package breakable implements a fracturable compound body: a set of convex
// pieces held together by a contact graph, anchored to the world, that
// sheds pieces and whole islands of pieces as they are knocked loose.
package breakable

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-shatter/pkg/collide"
	"github.com/Faultbox/midgard-shatter/pkg/hull"
	"github.com/Faultbox/midgard-shatter/pkg/math"
	"github.com/Faultbox/midgard-shatter/pkg/mesh"
)

// Compound is a breakable body. It is not safe for concurrent use.
type Compound struct {
	log   *zap.Logger
	opts  Options
	world World

	graph  *graph
	pieces []*Piece
	tree   *bvh

	vb                      *VertexBuffer
	visibility              []byte
	indirect                []int32
	visibilityMapIndexCount int

	lru             uint32
	lastIslandColor int32
	pending         []NodeID
	inTransaction   bool

	skipped  []SkippedPiece
	released bool
}

// New builds a compound from piece descriptions. Pieces whose hull cannot be
// built are skipped and reported by Skipped; if none survive New returns
// ErrNoPieces. A nil world uses collide.NewWorld.
func New(world World, descs []PieceDesc, opts Options) (*Compound, error) {
	opts = opts.withDefaults()
	if world == nil {
		world = collide.NewWorld()
	}
	c := &Compound{
		log:   opts.Logger,
		opts:  opts,
		world: world,
	}

	var meshes []*mesh.Mesh
	for i, d := range descs {
		p, err := c.newPiece(d)
		if err != nil {
			if !errors.Is(err, hull.ErrDegenerate) && !errors.Is(err, hull.ErrNotConvex) {
				return nil, err
			}
			c.log.Warn("skipping piece", zap.Int("index", i), zap.Int("id", d.ID), zap.Error(err))
			c.skipped = append(c.skipped, SkippedPiece{Index: i, ID: d.ID, Err: err})
			continue
		}
		p.slot = len(c.pieces)
		c.pieces = append(c.pieces, p)
		meshes = append(meshes, d.Mesh)
	}
	if len(c.pieces) == 0 {
		return nil, errors.Wrapf(ErrNoPieces, "%d descriptions, %d skipped", len(descs), len(c.skipped))
	}

	c.graph = newGraph(len(c.pieces))
	for i, p := range c.pieces {
		c.graph.nodes[i+1].piece = p
		p.node = c.graph.id(i + 1)
	}

	c.tree = buildTree(c.pieces, opts.MaxTraversal)
	if err := c.buildVisuals(meshes); err != nil {
		c.Release()
		return nil, err
	}
	if err := c.discoverAdjacency(); err != nil {
		c.Release()
		return nil, err
	}
	if err := c.ResetAnchor(); err != nil {
		c.Release()
		return nil, err
	}

	c.log.Debug("compound built",
		zap.Int("pieces", len(c.pieces)),
		zap.Int("skipped", len(c.skipped)),
		zap.Int("edges", c.graph.edgeCount()),
		zap.Int("vertices", c.vb.Count()),
		zap.Int("faces", c.visibilityMapIndexCount),
		zap.Int32("islands", c.lastIslandColor),
	)
	return c, nil
}

func (c *Compound) newPiece(d PieceDesc) (*Piece, error) {
	if d.Mesh == nil || len(d.Mesh.Triangles) == 0 {
		return nil, errors.Wrap(hull.ErrDegenerate, "empty mesh")
	}
	h, err := hull.Build(d.Mesh.Points(), c.opts.HullTolerance)
	if err != nil {
		return nil, err
	}
	volume, centroid, unitInertia := h.MassProperties()
	if volume <= 0 {
		return nil, errors.Wrap(hull.ErrDegenerate, "zero volume")
	}

	density := d.Density
	if density <= 0 {
		density = 1
	}
	impulse := d.BreakImpulse
	if impulse <= 0 {
		impulse = c.opts.BreakImpulse
	}

	center := math.V3(float32(centroid[0]), float32(centroid[1]), float32(centroid[2]))
	mass := density * float32(volume)
	p := &Piece{
		shape:            NewConvexShape(h.Translate(centroid.Mul(-1))),
		offset:           math.TranslateVec3(center),
		centroid:         center,
		volume:           float32(volume),
		mass:             mass,
		inertia:          math.V3(float32(unitInertia[0]), float32(unitInertia[1]), float32(unitInertia[2])).Scale(mass),
		breakImpulse:     impulse,
		density:          density,
		id:               d.ID,
		interiorMaterial: d.interior(),
	}
	p.bounds = shapeBounds(p.shape.Hull(), p.offset).Expand(c.opts.CollisionPadding)
	return p, nil
}

func shapeBounds(h *hull.Hull, offset math.Mat4) math.AABB {
	lo, hi := h.Bounds()
	local := math.AABB{
		Min: math.V3(float32(lo[0]), float32(lo[1]), float32(lo[2])),
		Max: math.V3(float32(hi[0]), float32(hi[1]), float32(hi[2])),
	}
	return local.Transform(offset)
}

// discoverAdjacency links every pair of pieces whose shapes touch or come
// within the adjacency threshold.
func (c *Compound) discoverAdjacency() error {
	thr := c.opts.adjacencyThreshold()
	thr2 := float64(thr) * float64(thr)
	for _, p := range c.pieces {
		pm := toMat64(p.offset)
		err := c.tree.query(p.bounds.Expand(thr), func(q *Piece) bool {
			if q == p || c.graph.hasEdge(p.node, q.node) {
				return true
			}
			res := c.world.ClosestPoint(p.shape, pm, q.shape, toMat64(q.offset))
			if !res.Disjoint || res.Distance*res.Distance < thr2 {
				c.graph.addEdge(p.node, q.node)
			}
			return true
		})
		if err != nil {
			return errors.Wrapf(err, "adjacency of piece %d", p.id)
		}
	}
	return nil
}

// Clone returns an independent compound sharing the hull geometry and the
// vertex buffer with c. Each copy can be fractured on its own.
func (c *Compound) Clone() (*Compound, error) {
	if c.inTransaction {
		return nil, ErrTransactionOpen
	}
	out := &Compound{
		log:                     c.log,
		opts:                    c.opts,
		world:                   c.world,
		vb:                      c.vb.AddRef(),
		visibility:              append([]byte(nil), c.visibility...),
		indirect:                append([]int32(nil), c.indirect...),
		visibilityMapIndexCount: c.visibilityMapIndexCount,
		lru:                     c.lru,
		lastIslandColor:         c.lastIslandColor,
		skipped:                 append([]SkippedPiece(nil), c.skipped...),
		graph:                   &graph{nodes: make([]graphNode, len(c.graph.nodes))},
		pieces:                  make([]*Piece, len(c.pieces)),
	}

	// Old piece -> new piece, filled while copying the graph, then used to
	// re-point the tree leaves.
	lookup := make(map[*Piece]*Piece, len(c.pieces))
	for i := range c.graph.nodes {
		src := &c.graph.nodes[i]
		dst := &out.graph.nodes[i]
		*dst = *src
		dst.edges = append([]NodeID(nil), src.edges...)
		if src.piece == nil {
			continue
		}
		p := *src.piece
		p.shape = src.piece.shape.AddRef()
		dst.piece = &p
		lookup[src.piece] = &p
		out.pieces[p.slot] = &p
	}

	out.tree = c.tree.clone()
	for _, leaf := range out.tree.leaves() {
		n := &out.tree.nodes[leaf]
		n.piece = lookup[n.piece]
	}
	return out, nil
}

// Release drops the compound's references to shared geometry. The compound
// must not be used afterwards.
func (c *Compound) Release() {
	if c.released {
		return
	}
	c.released = true
	for _, p := range c.pieces {
		p.shape.Release()
	}
	if c.vb != nil {
		c.vb.Release()
	}
}

// Anchor returns the world-attachment node.
func (c *Compound) Anchor() NodeID { return c.graph.anchor() }

// Main returns the node aggregating the intact visual mesh.
func (c *Compound) Main() NodeID { return c.graph.main() }

// Valid reports whether id refers to a live node.
func (c *Compound) Valid(id NodeID) bool {
	_, ok := c.graph.get(id)
	return ok
}

// Pieces returns the live piece nodes in node order.
func (c *Compound) Pieces() []NodeID {
	return c.graph.pieceIDs()
}

// PieceCount returns the number of live pieces.
func (c *Compound) PieceCount() int {
	return len(c.pieces)
}

// Piece returns the piece owned by a node.
func (c *Compound) Piece(id NodeID) (*Piece, error) {
	n, err := c.graph.pieceNode(id)
	if err != nil {
		return nil, err
	}
	return n.piece, nil
}

// FindPiece returns the node of the live piece with the given caller id.
func (c *Compound) FindPiece(pieceID int) (NodeID, bool) {
	for _, p := range c.pieces {
		if p.id == pieceID {
			return p.node, true
		}
	}
	return NodeID{}, false
}

// Neighbors returns the nodes linked to id, including the anchor.
func (c *Compound) Neighbors(id NodeID) ([]NodeID, error) {
	n, ok := c.graph.get(id)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidNode, "node %d", id.index)
	}
	return append([]NodeID(nil), n.edges...), nil
}

// HasEdge reports whether a and b are linked.
func (c *Compound) HasEdge(a, b NodeID) bool {
	return c.graph.hasEdge(a, b)
}

// Island returns the island index of a node.
func (c *Compound) Island(id NodeID) (int32, error) {
	n, ok := c.graph.get(id)
	if !ok {
		return 0, errors.Wrapf(ErrInvalidNode, "node %d", id.index)
	}
	return n.island, nil
}

// Distance returns the distance to the anchor, DynamicIslandCost if none.
func (c *Compound) Distance(id NodeID) (int32, error) {
	n, ok := c.graph.get(id)
	if !ok {
		return 0, errors.Wrapf(ErrInvalidNode, "node %d", id.index)
	}
	return n.distance, nil
}

// Skipped lists the input pieces dropped during construction.
func (c *Compound) Skipped() []SkippedPiece {
	return c.skipped
}

// Debris describes a live piece as a free body without removing it.
func (c *Compound) Debris(id NodeID) (DetachedPiece, error) {
	n, err := c.graph.pieceNode(id)
	if err != nil {
		return DetachedPiece{}, err
	}
	return c.detach(n), nil
}

func (c *Compound) detach(n *graphNode) DetachedPiece {
	p := n.piece
	return DetachedPiece{
		ID:           p.id,
		Shape:        p.shape.AddRef(),
		Offset:       p.offset,
		Centroid:     p.centroid,
		Volume:       p.volume,
		Mass:         p.mass,
		Inertia:      p.inertia,
		BreakImpulse: p.breakImpulse,
		Mesh:         c.pieceMesh(n),
	}
}

// Stats summarises the compound for logging.
type Stats struct {
	Pieces          int
	Skipped         int
	Edges           int
	AnchoredPieces  int
	Islands         int
	Vertices        int
	Faces           int
	VisibleFaces    int
	Materials       int
	LastIslandColor int32
}

// Stats returns current counts.
func (c *Compound) Stats() Stats {
	islands := make(map[int32]bool)
	for _, id := range c.graph.pieceIDs() {
		islands[c.graph.nodes[id.index].island] = true
	}
	return Stats{
		Pieces:          len(c.pieces),
		Skipped:         len(c.skipped),
		Edges:           c.graph.edgeCount(),
		AnchoredPieces:  len(c.graph.nodes[0].edges),
		Islands:         len(islands),
		Vertices:        c.vb.Count(),
		Faces:           c.visibilityMapIndexCount,
		VisibleFaces:    c.VisibleFaceCount(),
		Materials:       len(c.graph.nodes[len(c.graph.nodes)-1].mesh.segments),
		LastIslandColor: c.lastIslandColor,
	}
}

// placement returns a rigid matrix translating to p.
func placement(p math.Vec3) mgl64.Mat4 {
	return mgl64.Translate3D(float64(p.X), float64(p.Y), float64(p.Z))
}
