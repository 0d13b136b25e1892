package breakable

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-shatter/pkg/collide"
	"github.com/Faultbox/midgard-shatter/pkg/math"
	"github.com/Faultbox/midgard-shatter/pkg/mesh"
)

const (
	skinMaterial     = 0
	interiorMaterial = 1
)

// cubeRow returns n unit cubes centred at x = 0, 1, ... so neighbours share a
// face. Faces that touch a neighbour use the interior material.
func cubeRow(n int, startID int, x0 float32) []PieceDesc {
	descs := make([]PieceDesc, n)
	for i := range descs {
		m := mesh.Box(math.V3(0.5, 0.5, 0.5), skinMaterial)
		for t := range m.Triangles {
			nx := m.Triangles[t].V[0].Normal[0]
			if (nx > 0 && i < n-1) || (nx < 0 && i > 0) {
				m.Triangles[t].Material = interiorMaterial
			}
		}
		descs[i] = PieceDesc{
			Mesh:             m.Transform(math.Translate(x0+float32(i), 0, 0)),
			ID:               startID + i,
			HasInterior:      true,
			InteriorMaterial: interiorMaterial,
		}
	}
	return descs
}

// wall is an anchor box touching the cube centred at x from the given side.
func wall(x float32, side float32) Anchor {
	return Anchor{
		Shape:  collide.Box{Half: mgl64.Vec3{0.5, 0.5, 0.5}},
		Matrix: math.Translate(x+side, 0, 0),
	}
}

func newRow(t *testing.T, n int, anchors ...Anchor) *Compound {
	t.Helper()
	c, err := New(nil, cubeRow(n, 0, 0), Options{})
	require.NoError(t, err)
	if len(anchors) > 0 {
		require.NoError(t, c.SetAnchoredParts(anchors))
	}
	t.Cleanup(c.Release)
	return c
}

func node(t *testing.T, c *Compound, pieceID int) NodeID {
	t.Helper()
	id, ok := c.FindPiece(pieceID)
	require.True(t, ok, "piece %d", pieceID)
	return id
}

func distance(t *testing.T, c *Compound, pieceID int) int32 {
	t.Helper()
	d, err := c.Distance(node(t, c, pieceID))
	require.NoError(t, err)
	return d
}

func releaseIslands(islands []Island) {
	for _, isl := range islands {
		for _, p := range isl.Pieces {
			p.Shape.Release()
		}
	}
}
