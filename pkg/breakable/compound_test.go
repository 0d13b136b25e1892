package breakable

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-shatter/pkg/math"
	"github.com/Faultbox/midgard-shatter/pkg/mesh"
)

func TestNewRow(t *testing.T) {
	c := newRow(t, 3)

	assert.Equal(t, 3, c.PieceCount())
	assert.Len(t, c.Pieces(), 3)
	assert.Empty(t, c.Skipped())

	p, err := c.Piece(node(t, c, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, p.ID())
	assert.InDelta(t, 1, p.Volume(), 1e-4)
	assert.InDelta(t, 1, p.Mass(), 1e-4)
	assert.InDelta(t, 1.0/6, p.Inertia().X, 1e-4)
	assert.InDelta(t, 1, p.Centroid().X, 1e-4)
	assert.InDelta(t, 1, p.Offset().Position().X, 1e-4)
	assert.Equal(t, float32(DefaultBreakImpulse), p.BreakImpulse())
	assert.Equal(t, float32(1), p.Density())
	assert.Equal(t, interiorMaterial, p.InteriorMaterial())
	assert.Equal(t, int32(1), p.Shape().RefCount())

	// Shapes are centred on their centroid.
	lo, hi := p.Shape().Hull().Bounds()
	assert.InDelta(t, -0.5, lo[0], 1e-6)
	assert.InDelta(t, 0.5, hi[0], 1e-6)

	stats := c.Stats()
	assert.Equal(t, 2, stats.Edges)
	assert.Equal(t, 72, stats.Vertices)
	assert.Equal(t, 36, stats.Faces)
	assert.Equal(t, 28, stats.VisibleFaces)
	assert.Equal(t, 2, stats.Materials)
	assert.Equal(t, 1, stats.Islands)
	assert.Equal(t, 0, stats.AnchoredPieces)
}

func TestAdjacencySymmetric(t *testing.T) {
	descs := append(cubeRow(3, 0, 0), cubeRow(2, 10, 10)...)
	c, err := New(nil, descs, Options{})
	require.NoError(t, err)
	defer c.Release()

	for _, id := range c.Pieces() {
		nbs, err := c.Neighbors(id)
		require.NoError(t, err)
		for _, nb := range nbs {
			assert.True(t, c.HasEdge(nb, id))
		}
	}
	assert.True(t, c.HasEdge(node(t, c, 0), node(t, c, 1)))
	assert.False(t, c.HasEdge(node(t, c, 0), node(t, c, 2)))
	assert.False(t, c.HasEdge(node(t, c, 2), node(t, c, 10)))
}

func TestIslandPartition(t *testing.T) {
	descs := append(cubeRow(3, 0, 0), cubeRow(2, 10, 10)...)
	c, err := New(nil, descs, Options{})
	require.NoError(t, err)
	defer c.Release()

	island := func(pieceID int) int32 {
		i, err := c.Island(node(t, c, pieceID))
		require.NoError(t, err)
		return i
	}
	assert.Equal(t, island(0), island(1))
	assert.Equal(t, island(1), island(2))
	assert.Equal(t, island(10), island(11))
	assert.NotEqual(t, island(0), island(10))
	assert.Equal(t, 2, c.Stats().Islands)
	assert.Equal(t, int32(2), c.Stats().LastIslandColor)
}

func TestAnchorDistances(t *testing.T) {
	c := newRow(t, 3, wall(0, -1))

	assert.Equal(t, int32(0), distance(t, c, 0))
	assert.Equal(t, int32(1), distance(t, c, 1))
	assert.Equal(t, int32(2), distance(t, c, 2))
	assert.True(t, c.HasEdge(c.Anchor(), node(t, c, 0)))
	assert.Equal(t, 1, c.Stats().AnchoredPieces)

	d, err := c.Distance(c.Anchor())
	require.NoError(t, err)
	assert.Equal(t, int32(0), d)

	require.NoError(t, c.ResetAnchor())
	for id := 0; id < 3; id++ {
		assert.Equal(t, int32(DynamicIslandCost), distance(t, c, id))
	}
	assert.Equal(t, 0, c.Stats().AnchoredPieces)
}

func TestAnchorDistancesUnreachable(t *testing.T) {
	descs := append(cubeRow(2, 0, 0), cubeRow(1, 10, 10)...)
	c, err := New(nil, descs, Options{})
	require.NoError(t, err)
	defer c.Release()
	require.NoError(t, c.SetAnchoredParts([]Anchor{wall(0, -1)}))

	assert.Equal(t, int32(0), distance(t, c, 0))
	assert.Equal(t, int32(1), distance(t, c, 1))
	assert.Equal(t, int32(DynamicIslandCost), distance(t, c, 10))
}

func TestAnchorBothEnds(t *testing.T) {
	c := newRow(t, 5, wall(0, -1), wall(4, 1))

	want := []int32{0, 1, 2, 1, 0}
	for id, d := range want {
		assert.Equal(t, d, distance(t, c, id), "piece %d", id)
	}
}

func TestSkippedPieces(t *testing.T) {
	flat := &mesh.Mesh{Triangles: []mesh.Triangle{{V: [3]mesh.Vertex{
		{Position: [3]float32{0, 0, 0}},
		{Position: [3]float32{1, 0, 0}},
		{Position: [3]float32{0, 1, 0}},
	}}}}
	descs := append(cubeRow(2, 0, 0),
		PieceDesc{Mesh: flat, ID: 7},
		PieceDesc{ID: 8},
	)
	c, err := New(nil, descs, Options{})
	require.NoError(t, err)
	defer c.Release()

	assert.Equal(t, 2, c.PieceCount())
	require.Len(t, c.Skipped(), 2)
	assert.Equal(t, 2, c.Skipped()[0].Index)
	assert.Equal(t, 7, c.Skipped()[0].ID)
	assert.Equal(t, 8, c.Skipped()[1].ID)
	_, ok := c.FindPiece(7)
	assert.False(t, ok)

	_, err = New(nil, []PieceDesc{{Mesh: flat}}, Options{})
	assert.True(t, errors.Is(err, ErrNoPieces))
}

func TestMaterialRange(t *testing.T) {
	descs := cubeRow(1, 0, 0)
	descs[0].Mesh = descs[0].Mesh.SetMaterial(300)
	_, err := New(nil, descs, Options{})
	assert.True(t, errors.Is(err, ErrMaterialRange))
}

func TestTraversalCapacity(t *testing.T) {
	_, err := New(nil, cubeRow(3, 0, 0), Options{MaxTraversal: 1})
	assert.True(t, errors.Is(err, ErrCapacityExceeded))
}

func TestInvalidNode(t *testing.T) {
	c := newRow(t, 2)

	_, err := c.Piece(c.Anchor())
	assert.True(t, errors.Is(err, ErrInvalidNode))
	_, err = c.Piece(NodeID{})
	assert.True(t, errors.Is(err, ErrInvalidNode))
	assert.True(t, errors.Is(c.DeleteComponent(c.Main()), ErrInvalidNode))

	id := node(t, c, 0)
	require.NoError(t, c.DeleteComponent(id))
	assert.False(t, c.Valid(id))
	_, err = c.Piece(id)
	assert.True(t, errors.Is(err, ErrInvalidNode))
	assert.True(t, errors.Is(c.DeleteComponent(id), ErrInvalidNode))
}

func TestCloneIndependent(t *testing.T) {
	c := newRow(t, 3, wall(0, -1))
	shape := c.pieces[0].shape

	cp, err := c.Clone()
	require.NoError(t, err)
	assert.Equal(t, int32(2), shape.RefCount())
	assert.Equal(t, int32(2), c.vb.RefCount())

	cp.DeleteComponentBegin()
	require.NoError(t, cp.DeleteComponent(node(t, cp, 1)))
	islands, err := cp.DeleteComponentEnd()
	require.NoError(t, err)
	releaseIslands(islands)

	assert.Equal(t, 1, cp.PieceCount())
	assert.Equal(t, 3, c.PieceCount())
	assert.Equal(t, 28, c.VisibleFaceCount())
	assert.True(t, c.HasEdge(node(t, c, 0), node(t, c, 1)))

	// The clone's tree points at its own pieces.
	hits, err := cp.ComponentsInRadius(math.V3(2, 0, 0), 0.1, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
	hits, err = c.ComponentsInRadius(math.V3(2, 0, 0), 0.1, 0)
	require.NoError(t, err)
	assert.Equal(t, []NodeID{node(t, c, 2)}, hits)

	cp.Release()
	assert.Equal(t, int32(1), shape.RefCount())
	assert.Equal(t, int32(1), c.vb.RefCount())
}

func TestDebris(t *testing.T) {
	c := newRow(t, 2)
	d, err := c.Debris(node(t, c, 1))
	require.NoError(t, err)
	defer d.Shape.Release()

	assert.Equal(t, 1, d.ID)
	assert.Equal(t, int32(2), d.Shape.RefCount())
	assert.InDelta(t, 1, d.Mass, 1e-4)
	require.Len(t, d.Mesh.Triangles, 12)
	assert.Equal(t, []int{skinMaterial, interiorMaterial}, d.Mesh.Materials())
	b := d.Mesh.Bounds()
	assert.InDelta(t, 0.5, b.Min[0], 1e-6)
	assert.InDelta(t, 1.5, b.Max[0], 1e-6)
}
