// Package clip cuts convex hulls with planes. It is used when authoring
// fracture pieces: a solid is split into Voronoi cells before it is handed to
// the breakable compound.
package clip

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/Faultbox/midgard-shatter/pkg/hull"
)

// ErrNoCells is returned when every Voronoi cell degenerated.
var ErrNoCells = errors.New("clip: no cell survived the partition")

// planeEps is the band around a cutting plane treated as on-plane.
const planeEps = 1e-9

// ClipByPlane returns the point sets of the parts of h on the negative and
// positive side of plane. Vertices on the plane and edge crossings go to
// both sides.
func ClipByPlane(h *hull.Hull, plane hull.Plane) (neg, pos []mgl64.Vec3) {
	dist := make([]float64, len(h.Vertices))
	for i, v := range h.Vertices {
		d := plane.Distance(v)
		dist[i] = d
		if d <= planeEps {
			neg = append(neg, v)
		}
		if d >= -planeEps {
			pos = append(pos, v)
		}
	}

	for i, e := range h.Poly.Edges {
		// Visit each undirected edge once.
		if e.Twin < i {
			continue
		}
		a := e.Origin
		b := h.Poly.Edges[e.Twin].Origin
		da, db := dist[a], dist[b]
		if (da < -planeEps && db > planeEps) || (da > planeEps && db < -planeEps) {
			t := da / (da - db)
			p := h.Vertices[a].Add(h.Vertices[b].Sub(h.Vertices[a]).Mul(t))
			neg = append(neg, p)
			pos = append(pos, p)
		}
	}
	return neg, pos
}

// Split cuts h in two. A side that is empty or too thin to form a solid is
// returned as nil; an error is only returned when neither side survives.
func Split(h *hull.Hull, plane hull.Plane, tolerance float64) (neg, pos *hull.Hull, err error) {
	negPts, posPts := ClipByPlane(h, plane)

	var negErr, posErr error
	if len(negPts) >= 4 {
		neg, negErr = hull.Build(negPts, tolerance)
	} else {
		negErr = hull.ErrDegenerate
	}
	if len(posPts) >= 4 {
		pos, posErr = hull.Build(posPts, tolerance)
	} else {
		posErr = hull.ErrDegenerate
	}
	if negErr != nil && posErr != nil {
		return nil, nil, errors.Wrap(negErr, "split")
	}
	return neg, pos, nil
}

// VoronoiPartition cuts h into one convex cell per seed. Each cell keeps the
// part of h closer to its seed than to any other. Cells that degenerate are
// dropped.
func VoronoiPartition(h *hull.Hull, seeds []mgl64.Vec3, tolerance float64) ([]*hull.Hull, error) {
	var cells []*hull.Hull
	for i, s := range seeds {
		cell := h
		for j, other := range seeds {
			if i == j || cell == nil {
				continue
			}
			dir := other.Sub(s)
			if dir.LenSqr() == 0 {
				continue
			}
			bisector := hull.PlaneFromPoint(dir, s.Add(other).Mul(0.5))
			// Skip planes that miss the cell entirely.
			if bisector.Distance(cell.Support(dir.Mul(-1))) >= 0 {
				cell = nil
				break
			}
			if bisector.Distance(cell.Support(dir)) <= 0 {
				continue
			}
			neg, _, err := Split(cell, bisector, tolerance)
			if err != nil {
				cell = nil
				break
			}
			cell = neg
		}
		if cell != nil {
			cells = append(cells, cell)
		}
	}
	if len(cells) == 0 {
		return nil, ErrNoCells
	}
	return cells, nil
}

// RandomSeeds draws count points uniformly from the interior of h by
// rejection sampling its bounding box.
func RandomSeeds(h *hull.Hull, count int, rng *rand.Rand) []mgl64.Vec3 {
	lo, hi := h.Bounds()
	size := hi.Sub(lo)
	seeds := make([]mgl64.Vec3, 0, count)
	for attempts := 0; len(seeds) < count && attempts < count*1000; attempts++ {
		p := mgl64.Vec3{
			lo[0] + rng.Float64()*size[0],
			lo[1] + rng.Float64()*size[1],
			lo[2] + rng.Float64()*size[2],
		}
		if h.Contains(p, 0) {
			seeds = append(seeds, p)
		}
	}
	return seeds
}
