package breakable

import (
	"encoding/binary"
	"io"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-shatter/pkg/collide"
	"github.com/Faultbox/midgard-shatter/pkg/hull"
	"github.com/Faultbox/midgard-shatter/pkg/math"
)

// Stream layout, all little-endian:
//
//	header   magic "BRKC", version, collision padding
//	pieces   count, then per piece ids, mass properties, offset and hull
//	graph    node count, {lru=0, distance, island} per node, the mesh of
//	         every node after the anchor, then every node's neighbour list
//	scalars  lru=0, last island colour, visibility map count, visibility
//	         bytes, indirect map
//	vertices count, positions, normals, uvs
const (
	serialMagic   = "BRKC"
	serialVersion = 1

	// Sanity limits for counts read from a stream.
	maxSerialCount = 1 << 24
)

type streamWriter struct {
	w   io.Writer
	err error
}

func (s *streamWriter) put(v any) {
	if s.err != nil {
		return
	}
	if err := binary.Write(s.w, binary.LittleEndian, v); err != nil {
		s.err = errors.Wrap(ErrSerializationIO, err.Error())
	}
}

func (s *streamWriter) count(n int) { s.put(uint32(n)) }

type streamReader struct {
	r   io.Reader
	err error
}

func (s *streamReader) get(v any) {
	if s.err != nil {
		return
	}
	if err := binary.Read(s.r, binary.LittleEndian, v); err != nil {
		s.err = errors.Wrap(ErrSerializationIO, err.Error())
	}
}

func (s *streamReader) count(what string) int {
	var n uint32
	s.get(&n)
	if s.err == nil && n > maxSerialCount {
		s.err = errors.Wrapf(ErrBadFormat, "%s count %d", what, n)
	}
	return int(n)
}

func (s *streamReader) fail(format string, args ...any) {
	if s.err == nil {
		s.err = errors.Wrapf(ErrBadFormat, format, args...)
	}
}

// Serialize writes the compound to w. The transaction counter is written as
// zero.
func (c *Compound) Serialize(w io.Writer) error {
	if c.inTransaction {
		return ErrTransactionOpen
	}
	s := &streamWriter{w: w}
	s.put([]byte(serialMagic))
	s.put(uint32(serialVersion))
	s.put(c.opts.CollisionPadding)

	// Live nodes are written compacted: anchor, pieces in node order, main.
	ids := append([]NodeID{c.graph.anchor()}, c.graph.pieceIDs()...)
	ids = append(ids, c.graph.main())
	index := make(map[NodeID]uint32, len(ids))
	for i, id := range ids {
		index[id] = uint32(i)
	}

	pieces := ids[1 : len(ids)-1]
	s.count(len(pieces))
	for _, id := range pieces {
		writePiece(s, c.graph.nodes[id.index].piece)
	}

	s.count(len(ids))
	for _, id := range ids {
		n := &c.graph.nodes[id.index]
		s.put(uint32(0))
		s.put(n.distance)
		s.put(n.island)
	}
	for _, id := range ids[1:] {
		writeMesh(s, &c.graph.nodes[id.index].mesh)
	}
	for _, id := range ids {
		edges := c.graph.nodes[id.index].edges
		s.count(len(edges))
		for _, e := range edges {
			s.put(index[e])
		}
	}

	s.put(uint32(0))
	s.put(c.lastIslandColor)
	s.count(c.visibilityMapIndexCount)
	s.count(len(c.visibility))
	s.put(c.visibility)
	s.count(len(c.indirect))
	s.put(c.indirect)

	s.count(c.vb.Count())
	s.put(c.vb.Positions)
	s.put(c.vb.Normals)
	s.put(c.vb.UVs)
	return s.err
}

func writePiece(s *streamWriter, p *Piece) {
	s.put(int32(p.id))
	s.put(p.density)
	s.put(int32(p.interiorMaterial))
	s.put(p.breakImpulse)
	s.put([16]float32(p.offset))
	s.put(p.centroid.Array())
	s.put(p.volume)
	s.put(p.mass)
	s.put(p.inertia.Array())

	h := p.shape.Hull()
	s.count(len(h.Vertices))
	for _, v := range h.Vertices {
		s.put([3]float64(v))
	}
	s.count(len(h.Faces))
	for _, f := range h.Faces {
		s.count(len(f))
		for _, v := range f {
			s.put(uint32(v))
		}
	}
}

func writeMesh(s *streamWriter, m *nodeMesh) {
	visible := uint8(0)
	if m.visible {
		visible = 1
	}
	s.put(visible)
	s.count(len(m.segments))
	for _, seg := range m.segments {
		s.put(int32(seg.Material))
		s.count(seg.FaceCount)
		s.put(int32(seg.visOffset))
		s.put(int32(seg.indirectBase))
		s.count(len(seg.Indices))
		s.put(seg.Indices)
	}
}

// Deserialize reads a compound written by Serialize. A nil world uses
// collide.NewWorld. Stream failures wrap ErrSerializationIO and malformed
// data wraps ErrBadFormat.
func Deserialize(r io.Reader, world World, opts Options) (*Compound, error) {
	opts = opts.withDefaults()
	if world == nil {
		world = collide.NewWorld()
	}
	s := &streamReader{r: r}

	magic := make([]byte, len(serialMagic))
	s.get(magic)
	var version uint32
	s.get(&version)
	if s.err != nil {
		return nil, s.err
	}
	if string(magic) != serialMagic {
		return nil, errors.Wrapf(ErrBadFormat, "magic %q", magic)
	}
	if version != serialVersion {
		return nil, errors.Wrapf(ErrBadFormat, "version %d", version)
	}
	s.get(&opts.CollisionPadding)

	c := &Compound{log: opts.Logger, opts: opts, world: world}

	pieceCount := s.count("piece")
	for i := 0; i < pieceCount && s.err == nil; i++ {
		p := readPiece(s)
		if p == nil {
			break
		}
		p.slot = i
		p.bounds = shapeBounds(p.shape.Hull(), p.offset).Expand(opts.CollisionPadding)
		c.pieces = append(c.pieces, p)
	}

	nodeCount := s.count("node")
	if s.err == nil && nodeCount != pieceCount+2 {
		s.fail("%d nodes for %d pieces", nodeCount, pieceCount)
	}
	if s.err != nil {
		c.Release()
		return nil, s.err
	}

	c.graph = newGraph(pieceCount)
	for i := range c.graph.nodes {
		n := &c.graph.nodes[i]
		var lru uint32
		s.get(&lru)
		s.get(&n.distance)
		s.get(&n.island)
	}
	for i := 1; i < nodeCount && s.err == nil; i++ {
		c.graph.nodes[i].mesh = readMesh(s)
	}
	for i := 0; i < nodeCount && s.err == nil; i++ {
		n := s.count("edge")
		for j := 0; j < n && s.err == nil; j++ {
			var to uint32
			s.get(&to)
			if int(to) >= nodeCount || int(to) == i {
				s.fail("node %d edge to %d", i, to)
				break
			}
			c.graph.nodes[i].edges = append(c.graph.nodes[i].edges, c.graph.id(int(to)))
		}
	}
	for i, p := range c.pieces {
		c.graph.nodes[i+1].piece = p
		p.node = c.graph.id(i + 1)
	}

	var lru uint32
	s.get(&lru)
	s.get(&c.lastIslandColor)
	c.visibilityMapIndexCount = s.count("visibility index")
	if s.err == nil {
		c.visibility = make([]byte, s.count("visibility"))
		s.get(c.visibility)
	}
	if s.err == nil {
		c.indirect = make([]int32, s.count("indirect"))
		s.get(c.indirect)
	}
	if s.err == nil {
		vc := s.count("vertex")
		c.vb = newVertexBuffer(vc)
		c.vb.Positions = c.vb.Positions[:vc*3]
		c.vb.Normals = c.vb.Normals[:vc*3]
		c.vb.UVs = c.vb.UVs[:vc*2]
		s.get(c.vb.Positions)
		s.get(c.vb.Normals)
		s.get(c.vb.UVs)
	}
	if s.err == nil {
		s.err = c.validate()
	}
	if s.err != nil {
		c.Release()
		return nil, s.err
	}

	c.tree = buildTree(c.pieces, opts.MaxTraversal)
	c.log.Debug("compound loaded",
		zap.Int("pieces", len(c.pieces)),
		zap.Int("edges", c.graph.edgeCount()),
		zap.Int("vertices", c.vb.Count()),
	)
	return c, nil
}

func readPiece(s *streamReader) *Piece {
	var id, interior int32
	var offset [16]float32
	var centroid, inertia [3]float32
	p := &Piece{}
	s.get(&id)
	s.get(&p.density)
	s.get(&interior)
	s.get(&p.breakImpulse)
	s.get(&offset)
	s.get(&centroid)
	s.get(&p.volume)
	s.get(&p.mass)
	s.get(&inertia)

	vc := s.count("hull vertex")
	if s.err != nil {
		return nil
	}
	verts := make([]mgl64.Vec3, vc)
	for i := range verts {
		var v [3]float64
		s.get(&v)
		verts[i] = v
	}
	fc := s.count("hull face")
	if s.err != nil {
		return nil
	}
	faces := make([][]int, fc)
	for i := range faces {
		n := s.count("hull loop")
		if s.err != nil {
			return nil
		}
		faces[i] = make([]int, n)
		for j := range faces[i] {
			var v uint32
			s.get(&v)
			faces[i][j] = int(v)
		}
	}
	if s.err != nil {
		return nil
	}
	h, err := hull.FromFaces(verts, faces)
	if err != nil {
		s.fail("piece %d hull: %v", id, err)
		return nil
	}

	p.id = int(id)
	p.interiorMaterial = int(interior)
	p.offset = math.Mat4(offset)
	p.centroid = math.FromArray(centroid)
	p.inertia = math.FromArray(inertia)
	p.shape = NewConvexShape(h)
	return p
}

func readMesh(s *streamReader) nodeMesh {
	var m nodeMesh
	var visible uint8
	s.get(&visible)
	m.visible = visible != 0
	n := s.count("segment")
	for i := 0; i < n && s.err == nil; i++ {
		var material, visOffset, indirectBase int32
		var seg Segment
		s.get(&material)
		seg.FaceCount = s.count("segment face")
		s.get(&visOffset)
		s.get(&indirectBase)
		indices := s.count("segment index")
		if s.err != nil {
			break
		}
		if indices != seg.FaceCount*3 {
			s.fail("segment with %d faces has %d indices", seg.FaceCount, indices)
			break
		}
		seg.Material = int(material)
		seg.visOffset = int(visOffset)
		seg.indirectBase = int(indirectBase)
		seg.Indices = make([]uint32, indices)
		s.get(seg.Indices)
		m.segments = append(m.segments, seg)
	}
	return m
}

// validate checks cross references read from a stream.
func (c *Compound) validate() error {
	for i := range c.graph.nodes {
		for _, e := range c.graph.nodes[i].edges {
			if !c.graph.hasEdge(e, c.graph.id(i)) {
				return errors.Wrapf(ErrBadFormat, "edge %d-%d is one-sided", i, e.index)
			}
		}
	}
	vertices := uint32(c.vb.Count())
	for i := 1; i < len(c.graph.nodes); i++ {
		isMain := i == len(c.graph.nodes)-1
		for _, seg := range c.graph.nodes[i].mesh.segments {
			for _, v := range seg.Indices {
				if v >= vertices {
					return errors.Wrapf(ErrBadFormat, "node %d index %d past %d vertices", i, v, vertices)
				}
			}
			if isMain {
				if seg.indirectBase < 0 || seg.indirectBase+seg.FaceCount > len(c.indirect) {
					return errors.Wrapf(ErrBadFormat, "main segment outside indirect map")
				}
			} else if seg.visOffset < 0 || seg.visOffset+seg.FaceCount > len(c.visibility) {
				return errors.Wrapf(ErrBadFormat, "node %d segment outside visibility map", i)
			}
		}
	}
	for _, v := range c.indirect {
		if v < 0 || int(v) >= len(c.visibility) {
			return errors.Wrapf(ErrBadFormat, "indirect entry %d", v)
		}
	}
	return nil
}
