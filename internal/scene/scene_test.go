package scene

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-shatter/pkg/breakable"
	"github.com/Faultbox/midgard-shatter/pkg/hull"
	"github.com/Faultbox/midgard-shatter/pkg/math"
)

const rowScene = `
pieces:
  - id: 0
    box: [0.5, 0.5, 0.5]
    interior_material: 1
  - id: 1
    box: [0.5, 0.5, 0.5]
    position: [1, 0, 0]
    interior_material: 1
  - id: 2
    off: tetra.off
    position: [1.5, -0.5, -0.5]
    material: 2
  - id: 3
    points: [[0, 0, 0], [1, 0, 0], [0, 1, 0], [0, 0, 1], [0.1, 0.1, 0.1]]
    position: [0, 5, 0]
    rotation: {axis: [0, 0, 1], degrees: 90}
anchors:
  - box: [0.5, 0.5, 0.5]
    position: [-1, 0, 0]
`

const tetraOFF = `OFF
4 4 0
0 0 0
1 0 0
0 1 0
0 0 1
3 0 2 1
3 0 1 3
3 0 3 2
3 1 2 3
`

func writeScene(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tetra.off"), []byte(tetraOFF), 0644))
	path := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadAndBuild(t *testing.T) {
	s, err := Load(writeScene(t, rowScene))
	require.NoError(t, err)
	require.Len(t, s.Pieces, 4)
	require.Len(t, s.Anchors, 1)

	descs, anchors, err := s.Build(nil, 1, 0)
	require.NoError(t, err)
	require.Len(t, descs, 4)
	require.Len(t, anchors, 1)

	assert.Equal(t, 1, descs[0].InteriorMaterial)
	assert.True(t, descs[0].HasInterior)
	assert.False(t, descs[2].HasInterior)
	assert.Equal(t, []int{2}, descs[2].Mesh.Materials())
	assert.Equal(t, math.V3(-1, 0, 0), anchors[0].Matrix.Position())

	b := descs[1].Mesh.Bounds()
	assert.InDelta(t, 0.5, b.Min[0], 1e-6)
	assert.InDelta(t, 1.5, b.Max[0], 1e-6)

	// Rotated 90 degrees about Z, the unit tetrahedron spans x in [-1, 0].
	b = descs[3].Mesh.Bounds()
	assert.InDelta(t, -1, b.Min[0], 1e-5)
	assert.InDelta(t, 0, b.Max[0], 1e-5)
	assert.InDelta(t, 5, b.Min[1], 1e-5)

	c, err := breakable.New(nil, descs, breakable.Options{})
	require.NoError(t, err)
	defer c.Release()
	require.NoError(t, c.SetAnchoredParts(anchors))
	assert.Equal(t, 4, c.PieceCount())

	n0, _ := c.FindPiece(0)
	n1, _ := c.FindPiece(1)
	n2, _ := c.FindPiece(2)
	assert.True(t, c.HasEdge(n0, n1))
	assert.True(t, c.HasEdge(n1, n2))
	assert.True(t, c.HasEdge(c.Anchor(), n0))
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"two shapes", "pieces:\n  - box: [1, 1, 1]\n    points: [[0, 0, 0]]\n", ErrInvalidScene},
		{"no shape", "pieces:\n  - id: 3\n", ErrInvalidScene},
		{"flat points", "pieces:\n  - points: [[0, 0, 0], [1, 0, 0], [0, 1, 0], [1, 1, 0]]\n", hull.ErrDegenerate},
		{"no cells", "shatter:\n  - box: [1, 1, 1]\n", ErrInvalidScene},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse([]byte(tt.body), t.TempDir())
			require.NoError(t, err)
			_, _, err = s.Build(nil, 1, 0)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	_, _, err := (&Scene{Pieces: []Piece{{OFF: "missing.off"}}, dir: t.TempDir()}).Build(nil, 1, 0)
	assert.Error(t, err)

	_, err = Parse([]byte("pieces: {"), "")
	assert.Error(t, err)
}

func TestShatter(t *testing.T) {
	body := `
shatter:
  - box: [0.5, 0.5, 0.5]
    position: [0, 1, 0]
    cells: 6
    seed: 3
    first_id: 100
    material: 4
anchors:
  - box: [2, 0.25, 2]
    position: [0, 0.25, 0]
`
	s, err := Parse([]byte(body), "")
	require.NoError(t, err)
	descs, anchors, err := s.Build(nil, 1, 0)
	require.NoError(t, err)
	require.NotEmpty(t, descs)
	assert.LessOrEqual(t, len(descs), 6)

	total := float32(0)
	hasInner, hasOuter := false, false
	for i, d := range descs {
		assert.Equal(t, 100+i, d.ID)
		assert.Equal(t, 5, d.InteriorMaterial)
		for _, m := range d.Mesh.Materials() {
			hasInner = hasInner || m == 5
			hasOuter = hasOuter || m == 4
		}
		b := d.Mesh.Bounds()
		assert.GreaterOrEqual(t, b.Min[1], float32(0.5-1e-4))
		assert.LessOrEqual(t, b.Max[1], float32(1.5+1e-4))
	}
	assert.True(t, hasInner)
	assert.True(t, hasOuter)

	c, err := breakable.New(nil, descs, breakable.Options{})
	require.NoError(t, err)
	defer c.Release()
	require.NoError(t, c.SetAnchoredParts(anchors))
	for _, id := range c.Pieces() {
		p, err := c.Piece(id)
		require.NoError(t, err)
		total += p.Volume()
	}
	assert.InDelta(t, 1, total, 0.1)
	assert.Greater(t, c.Stats().AnchoredPieces, 0)
	assert.Greater(t, c.Stats().Edges, 0)

	// The same seed gives the same cells.
	again, _, err := s.Build(nil, 1, 0)
	require.NoError(t, err)
	require.Len(t, again, len(descs))
	for i := range descs {
		assert.Equal(t, descs[i].Mesh.Bounds(), again[i].Mesh.Bounds())
	}
}

func TestPlacementMatrix(t *testing.T) {
	p := Placement{Position: Vec3{1, 2, 3}}
	assert.Equal(t, math.Translate(1, 2, 3), p.Matrix())

	p.Rotation = &Rotation{Axis: Vec3{0, 1, 0}, Degrees: 180}
	v := p.Matrix().TransformVec3(math.V3(1, 0, 0))
	assert.InDelta(t, 0, v.X, 1e-5)
	assert.InDelta(t, 2, v.Y, 1e-5)
	assert.InDelta(t, 3, v.Z, 1e-5)

	// A zero axis falls back to no rotation.
	p.Rotation = &Rotation{Degrees: 45}
	assert.Equal(t, math.Translate(1, 2, 3), p.Matrix())

	p.Rotation = nil
	p.Euler = &Vec3{0, 0, 90}
	v = p.Matrix().TransformVec3(math.V3(1, 0, 0))
	assert.InDelta(t, 1, v.X, 1e-5)
	assert.InDelta(t, 3, v.Y, 1e-5)
	assert.InDelta(t, 3, v.Z, 1e-5)
}
