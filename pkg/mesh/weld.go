package mesh

import "github.com/chewxy/math32"

// DefaultWeldTolerance is the grid used when merging identical vertices.
const DefaultWeldTolerance = 1e-6

type weldKey [8]int64

// Weld merges vertices whose position, normal and UV agree on a tolerance
// grid. It returns the unique vertices and one index per input vertex.
func Weld(vertices []Vertex, tolerance float32) ([]Vertex, []uint32) {
	if tolerance <= 0 {
		tolerance = DefaultWeldTolerance
	}
	q := func(x float32) int64 {
		return int64(math32.Round(x / tolerance))
	}

	lookup := make(map[weldKey]uint32, len(vertices))
	unique := make([]Vertex, 0, len(vertices))
	indices := make([]uint32, len(vertices))
	for i, v := range vertices {
		key := weldKey{
			q(v.Position[0]), q(v.Position[1]), q(v.Position[2]),
			q(v.Normal[0]), q(v.Normal[1]), q(v.Normal[2]),
			q(v.TexCoord[0]), q(v.TexCoord[1]),
		}
		idx, ok := lookup[key]
		if !ok {
			idx = uint32(len(unique))
			lookup[key] = idx
			unique = append(unique, v)
		}
		indices[i] = idx
	}
	return unique, indices
}
