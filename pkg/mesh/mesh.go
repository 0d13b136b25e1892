package mesh

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/midgard-shatter/pkg/hull"
	"github.com/Faultbox/midgard-shatter/pkg/math"
)

// Points returns every vertex position at double precision, ready for the
// hull builder.
func (m *Mesh) Points() []mgl64.Vec3 {
	pts := make([]mgl64.Vec3, 0, len(m.Triangles)*3)
	for _, t := range m.Triangles {
		for _, v := range t.V {
			pts = append(pts, mgl64.Vec3{float64(v.Position[0]), float64(v.Position[1]), float64(v.Position[2])})
		}
	}
	return pts
}

// Vertices returns the flat vertex stream, three per triangle.
func (m *Mesh) Vertices() []Vertex {
	out := make([]Vertex, 0, len(m.Triangles)*3)
	for _, t := range m.Triangles {
		out = append(out, t.V[:]...)
	}
	return out
}

// Bounds returns the bounding box of the mesh.
func (m *Mesh) Bounds() Bounds {
	bounds := Bounds{
		Min: [3]float32{1e10, 1e10, 1e10},
		Max: [3]float32{-1e10, -1e10, -1e10},
	}
	for _, t := range m.Triangles {
		for _, v := range t.V {
			updateBounds(&bounds, v.Position)
		}
	}
	return bounds
}

// Materials returns the distinct materials in ascending order.
func (m *Mesh) Materials() []int {
	seen := make(map[int]bool)
	var out []int
	for _, t := range m.Triangles {
		if !seen[t.Material] {
			seen[t.Material] = true
			out = append(out, t.Material)
		}
	}
	sort.Ints(out)
	return out
}

// Transform returns a copy with positions and normals moved by a rigid matrix.
func (m *Mesh) Transform(mat math.Mat4) *Mesh {
	out := &Mesh{Triangles: make([]Triangle, len(m.Triangles))}
	for i, t := range m.Triangles {
		for j, v := range t.V {
			p := mat.TransformVec3(math.FromArray(v.Position))
			n := mat.TransformDirection(math.FromArray(v.Normal)).Normalize()
			t.V[j].Position = p.Array()
			t.V[j].Normal = n.Array()
		}
		out.Triangles[i] = t
	}
	return out
}

// SetMaterial returns a copy with every triangle switched to material.
func (m *Mesh) SetMaterial(material int) *Mesh {
	out := &Mesh{Triangles: append([]Triangle(nil), m.Triangles...)}
	for i := range out.Triangles {
		out.Triangles[i].Material = material
	}
	return out
}

// Box builds an axis-aligned box centred on the origin with planar UVs on
// every face.
func Box(half math.Vec3, material int) *Mesh {
	faces := [6][3]math.Vec3{
		{{X: 1}, {Y: 1}, {Z: 1}},
		{{X: -1}, {Z: 1}, {Y: 1}},
		{{Y: 1}, {Z: 1}, {X: 1}},
		{{Y: -1}, {X: 1}, {Z: 1}},
		{{Z: 1}, {X: 1}, {Y: 1}},
		{{Z: -1}, {Y: 1}, {X: 1}},
	}
	quad := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

	m := &Mesh{}
	for _, f := range faces {
		n, u, v := f[0], f[1], f[2]
		var corners [4]Vertex
		for i, q := range quad {
			p := n.Mul(half).Add(u.Mul(half).Scale(q[0])).Add(v.Mul(half).Scale(q[1]))
			corners[i] = Vertex{
				Position: p.Array(),
				Normal:   n.Array(),
				TexCoord: [2]float32{(q[0] + 1) / 2, (q[1] + 1) / 2},
			}
		}
		m.Triangles = append(m.Triangles,
			Triangle{V: [3]Vertex{corners[0], corners[1], corners[2]}, Material: material},
			Triangle{V: [3]Vertex{corners[0], corners[2], corners[3]}, Material: material},
		)
	}
	return m
}

// FromHull fans every hull face into triangles with flat normals and a
// planar projection for UVs.
func FromHull(h *hull.Hull, material int) *Mesh {
	m := &Mesh{}
	for f, loop := range h.Faces {
		n := h.Planes[f].Normal
		u, v := tangents(n)
		normal := [3]float32{float32(n[0]), float32(n[1]), float32(n[2])}

		vert := func(i int) Vertex {
			p := h.Vertices[i]
			return Vertex{
				Position: [3]float32{float32(p[0]), float32(p[1]), float32(p[2])},
				Normal:   normal,
				TexCoord: [2]float32{float32(p.Dot(u)), float32(p.Dot(v))},
			}
		}
		for i := 1; i+1 < len(loop); i++ {
			m.Triangles = append(m.Triangles, Triangle{
				V:        [3]Vertex{vert(loop[0]), vert(loop[i]), vert(loop[i+1])},
				Material: material,
			})
		}
	}
	return m
}

// tangents returns two unit vectors spanning the plane orthogonal to n.
func tangents(n mgl64.Vec3) (u, v mgl64.Vec3) {
	ref := mgl64.Vec3{1, 0, 0}
	ax, ay, az := abs(n[0]), abs(n[1]), abs(n[2])
	if ay <= ax && ay <= az {
		ref = mgl64.Vec3{0, 1, 0}
	} else if az <= ax && az <= ay {
		ref = mgl64.Vec3{0, 0, 1}
	}
	u = ref.Cross(n).Normalize()
	v = n.Cross(u)
	return u, v
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func updateBounds(bounds *Bounds, pos [3]float32) {
	for i := 0; i < 3; i++ {
		if pos[i] < bounds.Min[i] {
			bounds.Min[i] = pos[i]
		}
		if pos[i] > bounds.Max[i] {
			bounds.Max[i] = pos[i]
		}
	}
}
