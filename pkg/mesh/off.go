package mesh

import (
	"io"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

// ReadOFF decodes an Object File Format mesh. Every face gets a flat normal,
// zero UVs and the given material.
func ReadOFF(r io.Reader, material int) (*Mesh, error) {
	triangles, err := model3d.ReadOFF(r)
	if err != nil {
		return nil, errors.Wrap(err, "read OFF")
	}
	return FromTriangles(triangles, material), nil
}

// FromTriangles converts model3d triangles into a visual mesh.
func FromTriangles(triangles []*model3d.Triangle, material int) *Mesh {
	m := &Mesh{Triangles: make([]Triangle, 0, len(triangles))}
	for _, t := range triangles {
		e1 := t[1].Sub(t[0])
		e2 := t[2].Sub(t[0])
		n := e1.Cross(e2)
		if l := n.Norm(); l > 0 {
			n = n.Scale(1 / l)
		}
		normal := [3]float32{float32(n.X), float32(n.Y), float32(n.Z)}

		var tri Triangle
		tri.Material = material
		for i, c := range t {
			tri.V[i] = Vertex{
				Position: [3]float32{float32(c.X), float32(c.Y), float32(c.Z)},
				Normal:   normal,
			}
		}
		m.Triangles = append(m.Triangles, tri)
	}
	return m
}
