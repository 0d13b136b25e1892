package hull

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

type hullFace struct {
	v       [3]int
	normal  mgl64.Vec3
	offset  float64
	alive   bool
	visit   int
	outside []int
}

func (f *hullFace) distance(p mgl64.Vec3) float64 {
	return f.normal.Dot(p) - f.offset
}

type edgeKey [2]int

// incremental grows a triangle hull one farthest point at a time.
type incremental struct {
	points []mgl64.Vec3
	eps    float64
	faces  []hullFace
	edges  map[edgeKey]int
	stamp  int
}

// repairedHull triangulates the hull of points and rebuilds without the
// offending vertex whenever a sliver triangle shows up.
func repairedHull(points []mgl64.Vec3, eps float64) ([][3]int, error) {
	pts := append([]mgl64.Vec3(nil), points...)
	for len(pts) >= 4 {
		tris, err := triangulate(pts, eps)
		if err != nil {
			return nil, err
		}

		drop := -1
		for _, t := range tris {
			a, b, c := pts[t[0]], pts[t[1]], pts[t[2]]
			if b.Sub(a).Cross(c.Sub(a)).Len() >= sliverArea {
				continue
			}
			// Drop the vertex sitting between the other two.
			ab, bc, ca := b.Sub(a).LenSqr(), c.Sub(b).LenSqr(), a.Sub(c).LenSqr()
			switch {
			case ab >= bc && ab >= ca:
				drop = t[2]
			case bc >= ab && bc >= ca:
				drop = t[0]
			default:
				drop = t[1]
			}
			break
		}
		if drop < 0 {
			// Callers index the original slice; remap onto it.
			if len(pts) != len(points) {
				return remapTriangles(tris, pts, points), nil
			}
			return tris, nil
		}
		pts = append(pts[:drop], pts[drop+1:]...)
	}
	return nil, errors.Wrap(ErrDegenerate, "too few points after sliver repair")
}

func remapTriangles(tris [][3]int, from, to []mgl64.Vec3) [][3]int {
	index := make(map[mgl64.Vec3]int, len(to))
	for i, p := range to {
		index[p] = i
	}
	out := make([][3]int, len(tris))
	for i, t := range tris {
		out[i] = [3]int{index[from[t[0]]], index[from[t[1]]], index[from[t[2]]]}
	}
	return out
}

func triangulate(points []mgl64.Vec3, eps float64) ([][3]int, error) {
	h := &incremental{
		points: points,
		eps:    eps,
		edges:  make(map[edgeKey]int),
	}
	if err := h.seed(); err != nil {
		return nil, err
	}
	for h.step() {
	}

	var tris [][3]int
	for i := range h.faces {
		if h.faces[i].alive {
			tris = append(tris, h.faces[i].v)
		}
	}
	return tris, nil
}

// seed builds the initial tetrahedron from extreme points and distributes the
// remaining points into the outside sets.
func (h *incremental) seed() error {
	pts := h.points

	i0 := 0
	for i, p := range pts {
		if p[0] < pts[i0][0] {
			i0 = i
		}
	}
	i1, best := -1, 0.0
	for i, p := range pts {
		if d := p.Sub(pts[i0]).LenSqr(); d > best {
			i1, best = i, d
		}
	}
	if i1 < 0 || best < minPlaneEps*minPlaneEps {
		return errors.Wrap(ErrDegenerate, "all points coincide")
	}

	axis := pts[i1].Sub(pts[i0]).Normalize()
	i2, best := -1, 0.0
	for i, p := range pts {
		if d := p.Sub(pts[i0]).Cross(axis).LenSqr(); d > best {
			i2, best = i, d
		}
	}
	if i2 < 0 || best < minPlaneEps*minPlaneEps {
		return errors.Wrap(ErrDegenerate, "points are collinear")
	}

	n := pts[i1].Sub(pts[i0]).Cross(pts[i2].Sub(pts[i0])).Normalize()
	i3, best := -1, 0.0
	for i, p := range pts {
		d := n.Dot(p.Sub(pts[i0]))
		if d < 0 {
			d = -d
		}
		if d > best {
			i3, best = i, d
		}
	}
	if i3 < 0 || best < h.eps {
		return errors.Wrap(ErrDegenerate, "points are coplanar")
	}

	tet := [4]int{i0, i1, i2, i3}
	centroid := pts[i0].Add(pts[i1]).Add(pts[i2]).Add(pts[i3]).Mul(0.25)
	for _, t := range [4][3]int{{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}} {
		a, b, c := tet[t[0]], tet[t[1]], tet[t[2]]
		fn := pts[b].Sub(pts[a]).Cross(pts[c].Sub(pts[a]))
		if fn.Dot(centroid.Sub(pts[a])) > 0 {
			b, c = c, b
		}
		h.addFace(a, b, c)
	}

	for i := range pts {
		if i == i0 || i == i1 || i == i2 || i == i3 {
			continue
		}
		h.assign(i, 0)
	}
	return nil
}

func (h *incremental) addFace(a, b, c int) int {
	pa, pb, pc := h.points[a], h.points[b], h.points[c]
	n := pb.Sub(pa).Cross(pc.Sub(pa))
	if l := n.Len(); l > 0 {
		n = n.Mul(1 / l)
	}
	idx := len(h.faces)
	h.faces = append(h.faces, hullFace{
		v:      [3]int{a, b, c},
		normal: n,
		offset: n.Dot(pa),
		alive:  true,
	})
	h.edges[edgeKey{a, b}] = idx
	h.edges[edgeKey{b, c}] = idx
	h.edges[edgeKey{c, a}] = idx
	return idx
}

// assign puts point p into the outside set of the first face at or after
// first that it lies above. Points above no face are interior and dropped.
func (h *incremental) assign(p, first int) {
	for f := first; f < len(h.faces); f++ {
		face := &h.faces[f]
		if face.alive && face.distance(h.points[p]) > h.eps {
			face.outside = append(face.outside, p)
			return
		}
	}
}

// step adds the point farthest above any face. It reports false once every
// outside set is empty.
func (h *incremental) step() bool {
	bestFace, bestPoint, bestDist := -1, -1, h.eps
	for f := range h.faces {
		face := &h.faces[f]
		if !face.alive {
			continue
		}
		for _, p := range face.outside {
			if d := face.distance(h.points[p]); d > bestDist {
				bestFace, bestPoint, bestDist = f, p, d
			}
		}
	}
	if bestFace < 0 {
		return false
	}
	apex := h.points[bestPoint]

	h.stamp++
	visible := []int{bestFace}
	h.faces[bestFace].visit = h.stamp
	for i := 0; i < len(visible); i++ {
		v := h.faces[visible[i]].v
		for k := 0; k < 3; k++ {
			nb, ok := h.edges[edgeKey{v[(k+1)%3], v[k]}]
			if !ok || h.faces[nb].visit == h.stamp {
				continue
			}
			if h.faces[nb].distance(apex) > h.eps {
				h.faces[nb].visit = h.stamp
				visible = append(visible, nb)
			}
		}
	}

	var horizon []edgeKey
	var orphans []int
	for _, f := range visible {
		face := &h.faces[f]
		for k := 0; k < 3; k++ {
			a, b := face.v[k], face.v[(k+1)%3]
			if nb, ok := h.edges[edgeKey{b, a}]; ok && h.faces[nb].visit != h.stamp {
				horizon = append(horizon, edgeKey{a, b})
			}
		}
		for _, p := range face.outside {
			if p != bestPoint {
				orphans = append(orphans, p)
			}
		}
	}
	for _, f := range visible {
		face := &h.faces[f]
		face.alive = false
		face.outside = nil
		for k := 0; k < 3; k++ {
			delete(h.edges, edgeKey{face.v[k], face.v[(k+1)%3]})
		}
	}

	first := len(h.faces)
	for _, e := range horizon {
		h.addFace(e[0], e[1], bestPoint)
	}
	for _, p := range orphans {
		h.assign(p, first)
	}
	return true
}
