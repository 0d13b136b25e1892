// Package mesh holds the visual triangle streams that fracture pieces are
// authored from, and the welding that turns them into indexed buffers.
package mesh

// Vertex represents a mesh vertex with position, normal, and texture coordinates.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
}

// Triangle is one visual face and the material it is drawn with.
type Triangle struct {
	V        [3]Vertex
	Material int
}

// Mesh is an unindexed triangle stream.
type Mesh struct {
	Triangles []Triangle
}

// Bounds holds an axis-aligned bounding box.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}
