package breakable

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/midgard-shatter/pkg/collide"
	"github.com/Faultbox/midgard-shatter/pkg/math"
)

// RayHit is the first piece hit by a segment.
type RayHit struct {
	Node NodeID
	// T is the hit parameter along p0 + T*(p1-p0).
	T      float32
	Point  math.Vec3
	Normal math.Vec3
}

// ComponentsInRadius returns up to maxCount pieces whose shape comes within
// radius of origin. A maxCount of zero or less means no limit.
func (c *Compound) ComponentsInRadius(origin math.Vec3, radius float32, maxCount int) ([]NodeID, error) {
	var out []NodeID
	probe := placement(origin)
	r := float64(radius)
	err := c.tree.nearPoint(origin, radius, func(p *Piece) bool {
		res := c.world.ClosestPoint(p.shape, toMat64(p.offset), collide.Point{}, probe)
		if !res.Disjoint || res.Distance <= r {
			out = append(out, p.node)
		}
		return maxCount <= 0 || len(out) < maxCount
	})
	return out, err
}

// RayCast returns the first piece hit by the segment p0-p1.
func (c *Compound) RayCast(p0, p1 math.Vec3) (RayHit, bool, error) {
	var best RayHit
	found := false
	err := c.tree.rayCast(p0, p1, func(p *Piece, maxT float32) float32 {
		t, n, ok := rayHull(p, p0, p1, maxT)
		if !ok {
			return -1
		}
		best = RayHit{Node: p.node, T: t, Normal: n}
		found = true
		return t
	})
	if found {
		best.Point = p0.Add(p1.Sub(p0).Scale(best.T))
	}
	return best, found, err
}

// rayHull clips the segment against the piece's face planes.
func rayHull(p *Piece, p0, p1 math.Vec3, maxT float32) (float32, math.Vec3, bool) {
	inv := p.offset.InverseRigid()
	a := inv.TransformVec3(p0)
	d := inv.TransformVec3(p1).Sub(a)
	la := mgl64.Vec3{float64(a.X), float64(a.Y), float64(a.Z)}
	ld := mgl64.Vec3{float64(d.X), float64(d.Y), float64(d.Z)}

	enter, exit := float64(0), float64(maxT)
	var normal mgl64.Vec3
	for _, pl := range p.shape.Hull().Planes {
		denom := pl.Normal.Dot(ld)
		dist := pl.Distance(la)
		if denom == 0 {
			if dist > 0 {
				return 0, math.Vec3{}, false
			}
			continue
		}
		t := -dist / denom
		if denom < 0 {
			if t > enter {
				enter = t
				normal = pl.Normal
			}
		} else if t < exit {
			exit = t
		}
		if enter > exit {
			return 0, math.Vec3{}, false
		}
	}
	n := p.offset.TransformDirection(math.V3(float32(normal[0]), float32(normal[1]), float32(normal[2])))
	return math32.Max(float32(enter), 0), n, true
}
