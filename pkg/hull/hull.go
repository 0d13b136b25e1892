// Package hull builds watertight convex polyhedra from point clouds.
//
// The builder runs at double precision on a copy of the input normalised into
// a unit box, repairs sliver triangles, converts the triangle hull into a
// half-edge polyhedron and collapses coplanar faces before handing back the
// compact result.
package hull

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// Build parameters, expressed in the normalised unit box.
const (
	sliverArea     = 1e-12
	coplanarDot    = 0.99995
	convexityTol   = 1e-3
	boundingAxis   = 0.999
	boundingDupDot = 0.999
	minPlaneEps    = 1e-10
)

// Sentinel errors. Both are recoverable: callers skip the offending piece.
var (
	ErrDegenerate = errors.New("hull: point set is degenerate")
	ErrNotConvex  = errors.New("hull: polyhedron failed convexity check")
)

// Plane is n·p + D = 0 with the outside on the positive side.
type Plane struct {
	Normal mgl64.Vec3
	D      float64
}

// Distance returns the signed distance from p to the plane.
func (p Plane) Distance(v mgl64.Vec3) float64 {
	return p.Normal.Dot(v) + p.D
}

// Flip returns the plane facing the other way.
func (p Plane) Flip() Plane {
	return Plane{Normal: p.Normal.Mul(-1), D: -p.D}
}

// PlaneFromPoint returns the plane through point with the given normal.
func PlaneFromPoint(normal, point mgl64.Vec3) Plane {
	n := normal.Normalize()
	return Plane{Normal: n, D: -n.Dot(point)}
}

// Hull is a compact convex polyhedron.
type Hull struct {
	Vertices []mgl64.Vec3
	// Faces holds one counter-clockwise (seen from outside) vertex loop per face.
	Faces          [][]int
	Planes         []Plane
	BoundingPlanes []Plane
	Poly           Polyhedron
}

// Build computes the convex hull of points. tolerance is the relative merge
// distance: points closer than tolerance times the extent of the input are
// treated as one.
func Build(points []mgl64.Vec3, tolerance float64) (*Hull, error) {
	if len(points) < 4 {
		return nil, errors.Wrapf(ErrDegenerate, "%d points", len(points))
	}

	lo, hi := points[0], points[0]
	for _, p := range points[1:] {
		for i := 0; i < 3; i++ {
			lo[i] = math.Min(lo[i], p[i])
			hi[i] = math.Max(hi[i], p[i])
		}
	}
	center := lo.Add(hi).Mul(0.5)
	size := hi.Sub(lo)
	scale := math.Max(size[0], math.Max(size[1], size[2]))
	if scale < 1e-30 {
		return nil, errors.Wrap(ErrDegenerate, "zero extent")
	}

	norm := make([]mgl64.Vec3, len(points))
	for i, p := range points {
		norm[i] = p.Sub(center).Mul(1 / scale)
	}
	unique := mergePoints(norm, tolerance)

	planeEps := math.Max(tolerance*0.01, minPlaneEps)
	tris, err := repairedHull(unique, planeEps)
	if err != nil {
		return nil, err
	}

	poly := newPolyhedron(unique, tris)
	if poly.vertexCount() > 4 {
		poly.mergeCoplanar(unique)
	}
	if !poly.isConvex(unique, convexityTol) {
		return nil, ErrNotConvex
	}

	verts, faces := poly.compact(unique)
	for i := range verts {
		verts[i] = verts[i].Mul(scale).Add(center)
	}
	return FromFaces(verts, faces)
}

// BuildStrided builds a hull from count points packed in data, each starting
// stride floats after the previous one.
func BuildStrided(data []float32, stride, count int, tolerance float64) (*Hull, error) {
	if stride < 3 || len(data) < (count-1)*stride+3 {
		return nil, errors.Wrapf(ErrDegenerate, "stride %d count %d over %d floats", stride, count, len(data))
	}
	points := make([]mgl64.Vec3, count)
	for i := range points {
		o := i * stride
		points[i] = mgl64.Vec3{float64(data[o]), float64(data[o+1]), float64(data[o+2])}
	}
	return Build(points, tolerance)
}

// FromFaces assembles a hull from vertices and outward face loops without
// recomputing the hull. The faces must describe a closed convex polyhedron.
func FromFaces(vertices []mgl64.Vec3, faces [][]int) (*Hull, error) {
	if len(vertices) < 4 || len(faces) < 4 {
		return nil, errors.Wrapf(ErrDegenerate, "%d vertices, %d faces", len(vertices), len(faces))
	}
	for _, f := range faces {
		if len(f) < 3 {
			return nil, errors.Wrap(ErrDegenerate, "face with fewer than 3 vertices")
		}
		for _, v := range f {
			if v < 0 || v >= len(vertices) {
				return nil, errors.Wrapf(ErrDegenerate, "face index %d out of range", v)
			}
		}
	}
	poly, err := polyhedronFromLoops(len(vertices), faces)
	if err != nil {
		return nil, err
	}

	h := &Hull{
		Vertices: vertices,
		Faces:    faces,
		Poly:     poly,
		Planes:   make([]Plane, len(faces)),
	}
	for i, f := range faces {
		h.Planes[i] = facePlane(vertices, f)
	}
	h.BoundingPlanes = boundingPlanes(h.Planes)
	return h, nil
}

// Support returns the vertex furthest along dir.
func (h *Hull) Support(dir mgl64.Vec3) mgl64.Vec3 {
	best := h.Vertices[0]
	bestDot := best.Dot(dir)
	for _, v := range h.Vertices[1:] {
		if d := v.Dot(dir); d > bestDot {
			best, bestDot = v, d
		}
	}
	return best
}

// Points returns the hull vertices.
func (h *Hull) Points() []mgl64.Vec3 {
	return h.Vertices
}

// Contains reports whether p lies inside the hull, allowing tol slack.
func (h *Hull) Contains(p mgl64.Vec3, tol float64) bool {
	for _, pl := range h.Planes {
		if pl.Distance(p) > tol {
			return false
		}
	}
	return true
}

// Bounds returns the axis-aligned extent of the hull.
func (h *Hull) Bounds() (lo, hi mgl64.Vec3) {
	lo, hi = h.Vertices[0], h.Vertices[0]
	for _, v := range h.Vertices[1:] {
		for i := 0; i < 3; i++ {
			lo[i] = math.Min(lo[i], v[i])
			hi[i] = math.Max(hi[i], v[i])
		}
	}
	return lo, hi
}

// Translate returns a copy of the hull moved by offset.
func (h *Hull) Translate(offset mgl64.Vec3) *Hull {
	verts := make([]mgl64.Vec3, len(h.Vertices))
	for i, v := range h.Vertices {
		verts[i] = v.Add(offset)
	}
	out := &Hull{
		Vertices:       verts,
		Faces:          h.Faces,
		Poly:           h.Poly,
		Planes:         make([]Plane, len(h.Planes)),
		BoundingPlanes: make([]Plane, len(h.BoundingPlanes)),
	}
	for i, p := range h.Planes {
		out.Planes[i] = Plane{Normal: p.Normal, D: p.D - p.Normal.Dot(offset)}
	}
	for i, p := range h.BoundingPlanes {
		out.BoundingPlanes[i] = Plane{Normal: p.Normal, D: p.D - p.Normal.Dot(offset)}
	}
	return out
}

// Euler returns the vertex, edge and face counts.
func (h *Hull) Euler() (v, e, f int) {
	return len(h.Vertices), len(h.Poly.Edges) / 2, len(h.Faces)
}

// mergePoints collapses points closer than tol using a uniform grid.
func mergePoints(points []mgl64.Vec3, tol float64) []mgl64.Vec3 {
	if tol <= 0 {
		tol = minPlaneEps
	}
	type cell [3]int64
	key := func(p mgl64.Vec3) cell {
		return cell{int64(math.Floor(p[0] / tol)), int64(math.Floor(p[1] / tol)), int64(math.Floor(p[2] / tol))}
	}

	grid := make(map[cell][]int)
	out := make([]mgl64.Vec3, 0, len(points))
	tol2 := tol * tol
	for _, p := range points {
		k := key(p)
		dup := false
	search:
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for dz := int64(-1); dz <= 1; dz++ {
					for _, idx := range grid[cell{k[0] + dx, k[1] + dy, k[2] + dz}] {
						if out[idx].Sub(p).LenSqr() < tol2 {
							dup = true
							break search
						}
					}
				}
			}
		}
		if !dup {
			grid[k] = append(grid[k], len(out))
			out = append(out, p)
		}
	}
	return out
}

// facePlane fits a plane to a face loop with Newell's method.
func facePlane(vertices []mgl64.Vec3, loop []int) Plane {
	n := newellNormal(vertices, loop)
	var c mgl64.Vec3
	for _, i := range loop {
		c = c.Add(vertices[i])
	}
	c = c.Mul(1 / float64(len(loop)))
	if n.LenSqr() == 0 {
		return Plane{Normal: n, D: 0}
	}
	return PlaneFromPoint(n, c)
}

func newellNormal(vertices []mgl64.Vec3, loop []int) mgl64.Vec3 {
	var n mgl64.Vec3
	for i := range loop {
		a := vertices[loop[i]]
		b := vertices[loop[(i+1)%len(loop)]]
		n[0] += (a[1] - b[1]) * (a[2] + b[2])
		n[1] += (a[2] - b[2]) * (a[0] + b[0])
		n[2] += (a[0] - b[0]) * (a[1] + b[1])
	}
	return n
}
