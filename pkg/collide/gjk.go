package collide

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Closest is the result of a closest-point query. Normal points from A to B
// and is zero when the shapes overlap.
type Closest struct {
	PointA   mgl64.Vec3
	PointB   mgl64.Vec3
	Normal   mgl64.Vec3
	Distance float64
	Disjoint bool
}

// World holds the tuning for narrow-phase queries.
type World struct {
	MaxIterations int
	// Epsilon is the relative GJK convergence threshold.
	Epsilon float64
	// ContactTolerance is the gap under which Collide reports contact.
	ContactTolerance float64
}

// NewWorld returns a World with default tuning.
func NewWorld() *World {
	return &World{
		MaxIterations:    64,
		Epsilon:          1e-10,
		ContactTolerance: 1e-3,
	}
}

type simplexVertex struct {
	a, b, w mgl64.Vec3
}

// ClosestPoint runs GJK on the Minkowski difference of the two placed
// shapes and returns witness points on each.
func (w *World) ClosestPoint(a Convex, ma mgl64.Mat4, b Convex, mb mgl64.Mat4) Closest {
	return w.closest(place(a, ma), place(b, mb))
}

func (w *World) closest(ta, tb transformed) Closest {
	support := func(dir mgl64.Vec3) simplexVertex {
		pa := ta.support(dir.Mul(-1))
		pb := tb.support(dir)
		return simplexVertex{a: pa, b: pb, w: pa.Sub(pb)}
	}

	dir := tb.m.Col(3).Vec3().Sub(ta.m.Col(3).Vec3())
	if dir.LenSqr() < 1e-12 {
		dir = mgl64.Vec3{1, 0, 0}
	}
	simplex := []simplexVertex{support(dir)}
	weights := []float64{1}
	v := simplex[0].w

	maxIter := w.MaxIterations
	if maxIter <= 0 {
		maxIter = 64
	}
	for iter := 0; iter < maxIter; iter++ {
		vv := v.LenSqr()
		if vv < 1e-24 {
			return overlapping(simplex, weights)
		}

		next := support(v)
		if vv-v.Dot(next.w) <= w.Epsilon*vv {
			break
		}
		duplicate := false
		for _, s := range simplex {
			if s.w.Sub(next.w).LenSqr() < 1e-24 {
				duplicate = true
				break
			}
		}
		if duplicate {
			break
		}

		grown := append(append(make([]simplexVertex, 0, 4), simplex...), next)
		pts := make([]mgl64.Vec3, len(grown))
		for i, s := range grown {
			pts[i] = s.w
		}
		point, keep, lambda, inside := closestOnSimplex(pts)
		if inside {
			return overlapping(grown, equalWeights(len(grown)))
		}
		// No progress means we are as close as floating point allows.
		if point.LenSqr() >= vv {
			break
		}

		simplex = make([]simplexVertex, len(keep))
		for i, k := range keep {
			simplex[i] = grown[k]
		}
		weights = lambda
		v = point
	}

	var pa, pb mgl64.Vec3
	for i, s := range simplex {
		pa = pa.Add(s.a.Mul(weights[i]))
		pb = pb.Add(s.b.Mul(weights[i]))
	}
	dist := v.Len()
	res := Closest{PointA: pa, PointB: pb, Distance: dist, Disjoint: dist > 0}
	if dist > 0 {
		res.Normal = pb.Sub(pa).Mul(1 / dist)
	}
	return res
}

func overlapping(simplex []simplexVertex, weights []float64) Closest {
	var pa, pb mgl64.Vec3
	for i, s := range simplex {
		pa = pa.Add(s.a.Mul(weights[i]))
		pb = pb.Add(s.b.Mul(weights[i]))
	}
	return Closest{PointA: pa, PointB: pb}
}

func equalWeights(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1 / float64(n)
	}
	return out
}

// closestOnSimplex returns the point of the simplex nearest the origin, the
// indices of the sub-simplex that supports it with their barycentric
// weights, and whether the origin is enclosed by a tetrahedron.
func closestOnSimplex(pts []mgl64.Vec3) (mgl64.Vec3, []int, []float64, bool) {
	switch len(pts) {
	case 1:
		return pts[0], []int{0}, []float64{1}, false
	case 2:
		p, keep, l := closestOnSegment(pts[0], pts[1])
		return p, keep, l, false
	case 3:
		p, keep, l := closestOnTriangle(pts[0], pts[1], pts[2])
		return p, keep, l, false
	default:
		return closestOnTetrahedron(pts[0], pts[1], pts[2], pts[3])
	}
}

func closestOnSegment(a, b mgl64.Vec3) (mgl64.Vec3, []int, []float64) {
	ab := b.Sub(a)
	denom := ab.LenSqr()
	if denom == 0 {
		return a, []int{0}, []float64{1}
	}
	t := -a.Dot(ab) / denom
	switch {
	case t <= 0:
		return a, []int{0}, []float64{1}
	case t >= 1:
		return b, []int{1}, []float64{1}
	}
	return a.Add(ab.Mul(t)), []int{0, 1}, []float64{1 - t, t}
}

// closestOnTriangle follows the Voronoi region walk from Ericson's
// Real-Time Collision Detection, with the query point at the origin.
func closestOnTriangle(a, b, c mgl64.Vec3) (mgl64.Vec3, []int, []float64) {
	ab, ac := b.Sub(a), c.Sub(a)
	ap := a.Mul(-1)
	d1, d2 := ab.Dot(ap), ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a, []int{0}, []float64{1}
	}

	bp := b.Mul(-1)
	d3, d4 := ab.Dot(bp), ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b, []int{1}, []float64{1}
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		t := d1 / (d1 - d3)
		return a.Add(ab.Mul(t)), []int{0, 1}, []float64{1 - t, t}
	}

	cp := c.Mul(-1)
	d5, d6 := ab.Dot(cp), ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c, []int{2}, []float64{1}
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		t := d2 / (d2 - d6)
		return a.Add(ac.Mul(t)), []int{0, 2}, []float64{1 - t, t}
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		t := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Sub(b).Mul(t)), []int{1, 2}, []float64{1 - t, t}
	}

	sum := va + vb + vc
	if sum == 0 {
		// Degenerate triangle; fall back to its best edge.
		p, keep, l := closestOnSegment(a, b)
		return p, keep, l
	}
	denom := 1 / sum
	v, w := vb*denom, vc*denom
	return a.Add(ab.Mul(v)).Add(ac.Mul(w)), []int{0, 1, 2}, []float64{1 - v - w, v, w}
}

func closestOnTetrahedron(a, b, c, d mgl64.Vec3) (mgl64.Vec3, []int, []float64, bool) {
	faces := [4][4]int{
		{0, 1, 2, 3},
		{0, 2, 3, 1},
		{0, 3, 1, 2},
		{1, 3, 2, 0},
	}
	pts := [4]mgl64.Vec3{a, b, c, d}

	best := math.Inf(1)
	var bestPoint mgl64.Vec3
	var bestKeep []int
	var bestWeights []float64
	outside := false
	for _, f := range faces {
		p0, p1, p2, opp := pts[f[0]], pts[f[1]], pts[f[2]], pts[f[3]]
		n := p1.Sub(p0).Cross(p2.Sub(p0))
		// Origin and the opposite vertex on different sides of the face.
		so := n.Dot(p0.Mul(-1))
		sd := n.Dot(opp.Sub(p0))
		if sd == 0 || so*sd >= 0 {
			continue
		}
		outside = true
		q, keep, l := closestOnTriangle(p0, p1, p2)
		if d := q.LenSqr(); d < best {
			best = d
			bestPoint = q
			bestKeep = make([]int, len(keep))
			for i, k := range keep {
				bestKeep[i] = f[k]
			}
			bestWeights = l
		}
	}
	if !outside {
		return mgl64.Vec3{}, []int{0, 1, 2, 3}, []float64{0.25, 0.25, 0.25, 0.25}, true
	}
	return bestPoint, bestKeep, bestWeights, false
}
