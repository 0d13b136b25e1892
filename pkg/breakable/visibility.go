package breakable

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/Faultbox/midgard-shatter/pkg/mesh"
)

const materialCount = 256

// buildVisuals welds the piece triangle streams into the shared vertex
// buffer, builds each piece node's per-material segments and the main node's
// aggregated segments, and lays out the visibility and indirect maps.
// meshes is indexed like the piece nodes, starting at node slot 1.
func (c *Compound) buildVisuals(meshes []*mesh.Mesh) error {
	var flat []mesh.Vertex
	type localSeg struct {
		material int
		first    []int // first flat vertex of each triangle
	}
	pieceSegs := make([][]localSeg, len(meshes))
	var histogram [materialCount]int

	for p, m := range meshes {
		byMaterial := make(map[int]*localSeg)
		for _, tri := range m.Triangles {
			if tri.Material < 0 || tri.Material >= materialCount {
				return errors.Wrapf(ErrMaterialRange, "piece %d material %d", p, tri.Material)
			}
			seg, ok := byMaterial[tri.Material]
			if !ok {
				seg = &localSeg{material: tri.Material}
				byMaterial[tri.Material] = seg
			}
			seg.first = append(seg.first, len(flat))
			flat = append(flat, tri.V[:]...)
			histogram[tri.Material]++
		}
		for _, seg := range byMaterial {
			pieceSegs[p] = append(pieceSegs[p], *seg)
		}
		sort.Slice(pieceSegs[p], func(i, j int) bool {
			return pieceSegs[p][i].material < pieceSegs[p][j].material
		})
	}

	unique, remap := mesh.Weld(flat, c.opts.WeldTolerance)
	vb := newVertexBuffer(len(unique))
	for _, v := range unique {
		vb.Positions = append(vb.Positions, v.Position[:]...)
		vb.Normals = append(vb.Normals, v.Normal[:]...)
		vb.UVs = append(vb.UVs, v.TexCoord[:]...)
	}
	c.vb = vb

	// One main segment per material present, in material order.
	mainIndex := make(map[int]int)
	var mainSegs []Segment
	totalFaces := 0
	for mat, count := range histogram {
		if count == 0 {
			continue
		}
		mainIndex[mat] = len(mainSegs)
		mainSegs = append(mainSegs, Segment{
			Material:     mat,
			Indices:      make([]uint32, 0, count*3),
			indirectBase: totalFaces,
		})
		totalFaces += count
	}

	c.visibility = make([]byte, totalFaces)
	c.indirect = make([]int32, totalFaces)
	visOffset := 0
	for p, segs := range pieceSegs {
		node := &c.graph.nodes[p+1]
		interior := node.piece.interiorMaterial
		node.mesh = nodeMesh{visible: true}
		for _, ls := range segs {
			seg := Segment{
				Material:  ls.material,
				Indices:   make([]uint32, 0, len(ls.first)*3),
				FaceCount: len(ls.first),
				visOffset: visOffset,
			}
			main := &mainSegs[mainIndex[ls.material]]
			for f, first := range ls.first {
				tri := [3]uint32{remap[first], remap[first+1], remap[first+2]}
				seg.Indices = append(seg.Indices, tri[:]...)

				c.indirect[main.indirectBase+main.FaceCount] = int32(visOffset + f)
				main.Indices = append(main.Indices, tri[:]...)
				main.FaceCount++

				if ls.material != interior {
					c.visibility[visOffset+f] = 1
				}
			}
			visOffset += seg.FaceCount
			node.mesh.segments = append(node.mesh.segments, seg)
		}
	}
	c.graph.nodes[len(c.graph.nodes)-1].mesh = nodeMesh{segments: mainSegs, visible: true}
	c.visibilityMapIndexCount = totalFaces
	return nil
}

// hideFaces clears the visibility of every face of a piece node.
func (c *Compound) hideFaces(n *graphNode) {
	for _, seg := range n.mesh.segments {
		for f := 0; f < seg.FaceCount; f++ {
			c.visibility[seg.visOffset+f] = 0
		}
	}
	n.mesh.visible = false
	c.visibilityMapIndexCount -= n.mesh.faceCount()
	invariant(c.visibilityMapIndexCount >= 0, "visibility map count underflow")
}

// revealInterior shows a neighbour's interior faces once the piece covering
// them is gone.
func (c *Compound) revealInterior(n *graphNode) {
	for _, seg := range n.mesh.segments {
		if seg.Material != n.piece.interiorMaterial {
			continue
		}
		for f := 0; f < seg.FaceCount; f++ {
			c.visibility[seg.visOffset+f] = 1
		}
	}
}

// Segments returns a copy of the material segments of a node. Segment
// indices refer to the shared vertex buffer.
func (c *Compound) Segments(id NodeID) ([]Segment, error) {
	n, ok := c.graph.get(id)
	if !ok || id == c.graph.anchor() {
		return nil, errors.Wrapf(ErrInvalidNode, "node %d", id.index)
	}
	out := make([]Segment, len(n.mesh.segments))
	for i, seg := range n.mesh.segments {
		out[i] = seg
		out[i].Indices = append([]uint32(nil), seg.Indices...)
	}
	return out, nil
}

// SegmentIndexStream copies the triangle indices of one segment into out and
// returns the number written. For the main node only faces that are
// currently visible are copied.
func (c *Compound) SegmentIndexStream(id NodeID, seg int, out []uint32) (int, error) {
	n := 0
	err := c.eachSegmentTriangle(id, seg, func(tri []uint32) error {
		if n+3 > len(out) {
			return errors.Wrapf(ErrCapacityExceeded, "index stream needs more than %d slots", len(out))
		}
		copy(out[n:], tri)
		n += 3
		return nil
	})
	return n, err
}

// SegmentIndexStreamShort is SegmentIndexStream for 16-bit index buffers.
func (c *Compound) SegmentIndexStreamShort(id NodeID, seg int, out []uint16) (int, error) {
	n := 0
	err := c.eachSegmentTriangle(id, seg, func(tri []uint32) error {
		if n+3 > len(out) {
			return errors.Wrapf(ErrCapacityExceeded, "index stream needs more than %d slots", len(out))
		}
		for i, v := range tri {
			if v > 0xffff {
				return errors.Wrapf(ErrCapacityExceeded, "index %d does not fit 16 bits", v)
			}
			out[n+i] = uint16(v)
		}
		n += 3
		return nil
	})
	return n, err
}

func (c *Compound) eachSegmentTriangle(id NodeID, seg int, fn func([]uint32) error) error {
	segs, err := c.Segments(id)
	if err != nil {
		return err
	}
	if seg < 0 || seg >= len(segs) {
		return errors.Wrapf(ErrInvalidNode, "segment %d of %d", seg, len(segs))
	}
	s := &segs[seg]
	filter := id == c.graph.main()
	for f := 0; f < s.FaceCount; f++ {
		if filter && c.visibility[c.indirect[s.indirectBase+f]] == 0 {
			continue
		}
		if err := fn(s.Indices[f*3 : f*3+3]); err != nil {
			return err
		}
	}
	return nil
}

// VertexCount returns the number of welded vertices.
func (c *Compound) VertexCount() int {
	return c.vb.Count()
}

// VertexStreams copies the shared vertex buffer into caller arrays. Strides
// are in floats; a nil destination is skipped.
func (c *Compound) VertexStreams(posStride int, pos []float32, nrmStride int, nrm []float32, uvStride int, uv []float32) error {
	count := c.vb.Count()
	fill := func(dst []float32, stride, width int, src []float32, name string) error {
		if dst == nil {
			return nil
		}
		if stride < width || (count > 0 && len(dst) < (count-1)*stride+width) {
			return errors.Wrapf(ErrCapacityExceeded, "%s stream: %d floats at stride %d", name, len(dst), stride)
		}
		for i := 0; i < count; i++ {
			copy(dst[i*stride:i*stride+width], src[i*width:i*width+width])
		}
		return nil
	}
	if err := fill(pos, posStride, 3, c.vb.Positions, "position"); err != nil {
		return err
	}
	if err := fill(nrm, nrmStride, 3, c.vb.Normals, "normal"); err != nil {
		return err
	}
	return fill(uv, uvStride, 2, c.vb.UVs, "uv")
}

// VisibleFaceCount returns the number of faces currently drawn by the main node.
func (c *Compound) VisibleFaceCount() int {
	n := 0
	for _, v := range c.visibility {
		if v != 0 {
			n++
		}
	}
	return n
}

// VisibilityMapIndexCount returns the number of faces owned by live pieces.
func (c *Compound) VisibilityMapIndexCount() int {
	return c.visibilityMapIndexCount
}

// VisibilityMap returns a copy of the per-face visibility flags in piece order.
func (c *Compound) VisibilityMap() []byte {
	return append([]byte(nil), c.visibility...)
}

// pieceMesh rebuilds a piece's triangle stream from the shared buffer.
func (c *Compound) pieceMesh(n *graphNode) *mesh.Mesh {
	m := &mesh.Mesh{}
	vert := func(i uint32) mesh.Vertex {
		var v mesh.Vertex
		copy(v.Position[:], c.vb.Positions[i*3:i*3+3])
		copy(v.Normal[:], c.vb.Normals[i*3:i*3+3])
		copy(v.TexCoord[:], c.vb.UVs[i*2:i*2+2])
		return v
	}
	for _, seg := range n.mesh.segments {
		for f := 0; f < seg.FaceCount; f++ {
			idx := seg.Indices[f*3 : f*3+3]
			m.Triangles = append(m.Triangles, mesh.Triangle{
				V:        [3]mesh.Vertex{vert(idx[0]), vert(idx[1]), vert(idx[2])},
				Material: seg.Material,
			})
		}
	}
	return m
}
