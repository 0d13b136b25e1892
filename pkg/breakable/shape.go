package breakable

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/midgard-shatter/pkg/collide"
	"github.com/Faultbox/midgard-shatter/pkg/hull"
	"github.com/Faultbox/midgard-shatter/pkg/math"
)

// World answers the narrow-phase queries the compound needs. Matrices place
// each shape in compound space. *collide.World implements it.
type World interface {
	ClosestPoint(a collide.Convex, ma mgl64.Mat4, b collide.Convex, mb mgl64.Mat4) collide.Closest
	Collide(a collide.Convex, ma mgl64.Mat4, b collide.Convex, mb mgl64.Mat4, maxContacts int) int
}

// Anchor is a world-fixed collision shape placed in compound space.
type Anchor struct {
	Shape  collide.Convex
	Matrix math.Mat4
}

// ConvexShape is hull geometry shared between a compound, its clones and
// detached debris. The hull is centred on the piece centroid.
type ConvexShape struct {
	hull *hull.Hull
	refs atomic.Int32
}

// NewConvexShape wraps h with a reference count of one.
func NewConvexShape(h *hull.Hull) *ConvexShape {
	s := &ConvexShape{hull: h}
	s.refs.Store(1)
	return s
}

// AddRef takes another reference and returns the shape.
func (s *ConvexShape) AddRef() *ConvexShape {
	s.refs.Add(1)
	return s
}

// Release drops a reference. It reports true when this was the last one;
// the hull is dropped at that point.
func (s *ConvexShape) Release() bool {
	n := s.refs.Add(-1)
	invariant(n >= 0, "convex shape over-released")
	if n == 0 {
		s.hull = nil
		return true
	}
	return false
}

// RefCount returns the number of live references.
func (s *ConvexShape) RefCount() int32 {
	return s.refs.Load()
}

// Hull returns the underlying geometry, nil once fully released.
func (s *ConvexShape) Hull() *hull.Hull {
	return s.hull
}

// Support implements collide.Convex.
func (s *ConvexShape) Support(dir mgl64.Vec3) mgl64.Vec3 {
	return s.hull.Support(dir)
}

// Points implements collide.Convex.
func (s *ConvexShape) Points() []mgl64.Vec3 {
	return s.hull.Vertices
}

// VertexBuffer is the welded vertex stream shared by every copy of a
// compound. Positions and normals hold three floats per vertex, UVs two.
type VertexBuffer struct {
	Positions []float32
	Normals   []float32
	UVs       []float32
	refs      atomic.Int32
}

func newVertexBuffer(count int) *VertexBuffer {
	vb := &VertexBuffer{
		Positions: make([]float32, 0, count*3),
		Normals:   make([]float32, 0, count*3),
		UVs:       make([]float32, 0, count*2),
	}
	vb.refs.Store(1)
	return vb
}

// Count returns the number of vertices.
func (vb *VertexBuffer) Count() int {
	return len(vb.Positions) / 3
}

// AddRef takes another reference and returns the buffer.
func (vb *VertexBuffer) AddRef() *VertexBuffer {
	vb.refs.Add(1)
	return vb
}

// Release drops a reference, freeing the streams with the last one.
func (vb *VertexBuffer) Release() bool {
	n := vb.refs.Add(-1)
	invariant(n >= 0, "vertex buffer over-released")
	if n == 0 {
		vb.Positions, vb.Normals, vb.UVs = nil, nil, nil
		return true
	}
	return false
}

// RefCount returns the number of live references.
func (vb *VertexBuffer) RefCount() int32 {
	return vb.refs.Load()
}

func toMat64(m math.Mat4) mgl64.Mat4 {
	return mgl64.Mat4(m.Float64())
}
