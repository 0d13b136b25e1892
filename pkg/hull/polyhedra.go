package hull

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// HalfEdge is one directed side of a polyhedron edge. Indices refer to the
// owning Polyhedron; Face is -1 once the edge has been removed.
type HalfEdge struct {
	Origin int
	Twin   int
	Next   int
	Face   int
}

// Polyhedron is an index-based half-edge mesh.
type Polyhedron struct {
	Edges []HalfEdge
	// FaceEdge holds one edge of each face loop, -1 for merged faces.
	FaceEdge []int
}

// Loop returns the vertex loop of face f.
func (p *Polyhedron) Loop(f int) []int {
	var loop []int
	start := p.FaceEdge[f]
	for e := start; ; {
		loop = append(loop, p.Edges[e].Origin)
		e = p.Edges[e].Next
		if e == start {
			break
		}
	}
	return loop
}

func (p *Polyhedron) prev(e int) int {
	for i := p.Edges[e].Next; ; i = p.Edges[i].Next {
		if p.Edges[i].Next == e {
			return i
		}
	}
}

func (p *Polyhedron) vertexCount() int {
	seen := make(map[int]struct{})
	for _, e := range p.Edges {
		if e.Face >= 0 {
			seen[e.Origin] = struct{}{}
		}
	}
	return len(seen)
}

func newPolyhedron(points []mgl64.Vec3, tris [][3]int) *Polyhedron {
	loops := make([][]int, len(tris))
	for i, t := range tris {
		loops[i] = []int{t[0], t[1], t[2]}
	}
	// The incremental hull always yields a closed manifold.
	p, err := polyhedronFromLoops(len(points), loops)
	if err != nil {
		panic(err)
	}
	return &p
}

// polyhedronFromLoops links face loops into half-edges, pairing twins.
func polyhedronFromLoops(vertexCount int, loops [][]int) (Polyhedron, error) {
	var p Polyhedron
	twins := make(map[[2]int]int)
	for f, loop := range loops {
		base := len(p.Edges)
		p.FaceEdge = append(p.FaceEdge, base)
		for i, v := range loop {
			w := loop[(i+1)%len(loop)]
			if v == w {
				return p, errors.Wrapf(ErrDegenerate, "face %d repeats vertex %d", f, v)
			}
			key := [2]int{v, w}
			if _, dup := twins[key]; dup {
				return p, errors.Wrapf(ErrDegenerate, "edge %d-%d used twice", v, w)
			}
			twins[key] = base + i
			p.Edges = append(p.Edges, HalfEdge{
				Origin: v,
				Twin:   -1,
				Next:   base + (i+1)%len(loop),
				Face:   f,
			})
		}
	}
	for key, e := range twins {
		t, ok := twins[[2]int{key[1], key[0]}]
		if !ok {
			return p, errors.Wrapf(ErrDegenerate, "edge %d-%d has no twin", key[0], key[1])
		}
		p.Edges[e].Twin = t
	}
	return p, nil
}

// mergeCoplanar removes edges shared by faces whose normals agree within
// coplanarDot. An edge is kept when its removal would leave a dangling
// vertex, i.e. the faces also share the neighbouring edge.
func (p *Polyhedron) mergeCoplanar(points []mgl64.Vec3) {
	normals := make([]mgl64.Vec3, len(p.FaceEdge))
	for f := range p.FaceEdge {
		normals[f] = newellNormal(points, p.Loop(f)).Normalize()
	}

	for merged := true; merged; {
		merged = false
		for e := range p.Edges {
			if p.Edges[e].Face < 0 {
				continue
			}
			t := p.Edges[e].Twin
			f1, f2 := p.Edges[e].Face, p.Edges[t].Face
			if f1 == f2 || normals[f1].Dot(normals[f2]) <= coplanarDot {
				continue
			}
			ep, tp := p.prev(e), p.prev(t)
			if p.Edges[p.Edges[e].Next].Twin == tp || p.Edges[p.Edges[t].Next].Twin == ep {
				continue
			}

			p.Edges[ep].Next = p.Edges[t].Next
			p.Edges[tp].Next = p.Edges[e].Next
			p.Edges[e].Face = -1
			p.Edges[t].Face = -1
			for i := p.Edges[ep].Next; ; i = p.Edges[i].Next {
				p.Edges[i].Face = f1
				if i == ep {
					break
				}
			}
			p.FaceEdge[f1] = ep
			p.FaceEdge[f2] = -1
			normals[f1] = newellNormal(points, p.Loop(f1)).Normalize()
			merged = true
		}
	}
}

// isConvex checks every vertex against every face plane.
func (p *Polyhedron) isConvex(points []mgl64.Vec3, tol float64) bool {
	var used []int
	seen := make(map[int]bool)
	for _, e := range p.Edges {
		if e.Face >= 0 && !seen[e.Origin] {
			seen[e.Origin] = true
			used = append(used, e.Origin)
		}
	}
	for f, start := range p.FaceEdge {
		if start < 0 {
			continue
		}
		plane := facePlane(points, p.Loop(f))
		if plane.Normal.LenSqr() == 0 {
			return false
		}
		for _, v := range used {
			if plane.Distance(points[v]) > tol {
				return false
			}
		}
	}
	return true
}

// compact drops removed faces and unused vertices, returning fresh vertex
// and face loop arrays.
func (p *Polyhedron) compact(points []mgl64.Vec3) ([]mgl64.Vec3, [][]int) {
	remap := make(map[int]int)
	var verts []mgl64.Vec3
	var faces [][]int
	for f, start := range p.FaceEdge {
		if start < 0 {
			continue
		}
		loop := p.Loop(f)
		for i, v := range loop {
			n, ok := remap[v]
			if !ok {
				n = len(verts)
				remap[v] = n
				verts = append(verts, points[v])
			}
			loop[i] = n
		}
		faces = append(faces, loop)
	}
	return verts, faces
}
