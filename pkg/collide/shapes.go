// Package collide answers narrow-phase queries between convex shapes: GJK
// closest points and a discrete contact count.
package collide

import "github.com/go-gl/mathgl/mgl64"

// Convex is any shape described by its support mapping in local space.
type Convex interface {
	// Support returns the point of the shape furthest along dir.
	Support(dir mgl64.Vec3) mgl64.Vec3
	// Points returns the shape's vertices, used for contact counting.
	Points() []mgl64.Vec3
}

// Box is an axis-aligned box centred on the origin.
type Box struct {
	Half mgl64.Vec3
}

// Support implements Convex.
func (b Box) Support(dir mgl64.Vec3) mgl64.Vec3 {
	var p mgl64.Vec3
	for i := 0; i < 3; i++ {
		if dir[i] >= 0 {
			p[i] = b.Half[i]
		} else {
			p[i] = -b.Half[i]
		}
	}
	return p
}

// Points implements Convex.
func (b Box) Points() []mgl64.Vec3 {
	pts := make([]mgl64.Vec3, 0, 8)
	for _, x := range []float64{-b.Half[0], b.Half[0]} {
		for _, y := range []float64{-b.Half[1], b.Half[1]} {
			for _, z := range []float64{-b.Half[2], b.Half[2]} {
				pts = append(pts, mgl64.Vec3{x, y, z})
			}
		}
	}
	return pts
}

// Point is a single point at the local origin.
type Point struct{}

// Support implements Convex.
func (Point) Support(mgl64.Vec3) mgl64.Vec3 { return mgl64.Vec3{} }

// Points implements Convex.
func (Point) Points() []mgl64.Vec3 { return []mgl64.Vec3{{}} }

// transformed places a shape in the world with a rigid matrix.
type transformed struct {
	shape Convex
	m     mgl64.Mat4
	rt    mgl64.Mat3
}

func place(s Convex, m mgl64.Mat4) transformed {
	return transformed{shape: s, m: m, rt: m.Mat3().Transpose()}
}

func (t transformed) support(dir mgl64.Vec3) mgl64.Vec3 {
	local := t.shape.Support(t.rt.Mul3x1(dir))
	return t.m.Mul4x1(local.Vec4(1)).Vec3()
}

func (t transformed) points() []mgl64.Vec3 {
	local := t.shape.Points()
	out := make([]mgl64.Vec3, len(local))
	for i, p := range local {
		out[i] = t.m.Mul4x1(p.Vec4(1)).Vec3()
	}
	return out
}
