package mesh

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-shatter/pkg/hull"
	"github.com/Faultbox/midgard-shatter/pkg/math"
)

func TestBoxOutwardNormals(t *testing.T) {
	m := Box(math.V3(1, 2, 3), 4)
	require.Len(t, m.Triangles, 12)

	for i, tri := range m.Triangles {
		a := math.FromArray(tri.V[0].Position)
		b := math.FromArray(tri.V[1].Position)
		c := math.FromArray(tri.V[2].Position)
		geo := b.Sub(a).Cross(c.Sub(a)).Normalize()
		n := math.FromArray(tri.V[0].Normal)
		assert.InDelta(t, 1, geo.Dot(n), 1e-6, "triangle %d winding", i)
		assert.Greater(t, a.Dot(n), float32(0), "triangle %d faces outward", i)
		assert.Equal(t, 4, tri.Material)
	}

	b := m.Bounds()
	assert.Equal(t, [3]float32{-1, -2, -3}, b.Min)
	assert.Equal(t, [3]float32{1, 2, 3}, b.Max)
}

func TestWeldBox(t *testing.T) {
	m := Box(math.V3(0.5, 0.5, 0.5), 0)
	unique, indices := Weld(m.Vertices(), DefaultWeldTolerance)

	// 4 corners per face: normals differ across faces so nothing merges
	// between faces, while the two triangles of a face share a diagonal.
	assert.Len(t, unique, 24)
	assert.Len(t, indices, 36)
	for i, idx := range indices {
		assert.Equal(t, m.Vertices()[i].Position, unique[idx].Position)
	}
}

func TestWeldTolerance(t *testing.T) {
	verts := []Vertex{
		{Position: [3]float32{1, 1, 1}},
		{Position: [3]float32{1, 1, 1.0000001}},
		{Position: [3]float32{1, 1, 1.1}},
	}
	unique, indices := Weld(verts, 1e-6)
	assert.Len(t, unique, 2)
	assert.Equal(t, []uint32{0, 0, 1}, indices)
}

func TestFromHull(t *testing.T) {
	var pts []mgl64.Vec3
	for _, x := range []float64{0, 1} {
		for _, y := range []float64{0, 1} {
			for _, z := range []float64{0, 1} {
				pts = append(pts, mgl64.Vec3{x, y, z})
			}
		}
	}
	h, err := hull.Build(pts, 0.005)
	require.NoError(t, err)

	m := FromHull(h, 2)
	assert.Len(t, m.Triangles, 12)
	assert.Equal(t, []int{2}, m.Materials())

	again, err := hull.Build(m.Points(), 0.005)
	require.NoError(t, err)
	v, e, f := again.Euler()
	assert.Equal(t, []int{8, 12, 6}, []int{v, e, f})
}

func TestTransform(t *testing.T) {
	m := Box(math.V3(0.5, 0.5, 0.5), 0).Transform(math.Translate(10, 0, 0))
	b := m.Bounds()
	assert.Equal(t, [3]float32{9.5, -0.5, -0.5}, b.Min)
	assert.Equal(t, [3]float32{10.5, 0.5, 0.5}, b.Max)
}

func TestReadOFF(t *testing.T) {
	const tetra = `OFF
4 4 6
0 0 0
1 0 0
0 1 0
0 0 1
3 0 2 1
3 0 1 3
3 0 3 2
3 1 2 3
`
	m, err := ReadOFF(strings.NewReader(tetra), 7)
	require.NoError(t, err)
	require.Len(t, m.Triangles, 4)
	assert.Equal(t, []int{7}, m.Materials())

	h, err := hull.Build(m.Points(), 0.005)
	require.NoError(t, err)
	vol, _, _ := h.MassProperties()
	assert.InDelta(t, 1.0/6, vol, 1e-9)
}

func TestReadOFFError(t *testing.T) {
	_, err := ReadOFF(strings.NewReader("not an off file"), 0)
	assert.Error(t, err)
}
