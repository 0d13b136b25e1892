package collide

import "github.com/go-gl/mathgl/mgl64"

// Collide counts contact points between the placed shapes, capped at
// maxContacts. Vertices of either shape lying within ContactTolerance of the
// other count as contacts; touching shapes always report at least one.
func (w *World) Collide(a Convex, ma mgl64.Mat4, b Convex, mb mgl64.Mat4, maxContacts int) int {
	if maxContacts <= 0 {
		return 0
	}
	ta, tb := place(a, ma), place(b, mb)
	c := w.closest(ta, tb)
	if c.Disjoint && c.Distance > w.ContactTolerance {
		return 0
	}

	count := 0
	probe := func(points []mgl64.Vec3, other transformed) {
		for _, p := range points {
			if count >= maxContacts {
				return
			}
			pc := w.closest(place(Point{}, mgl64.Translate3D(p[0], p[1], p[2])), other)
			if !pc.Disjoint || pc.Distance <= w.ContactTolerance {
				count++
			}
		}
	}
	probe(ta.points(), tb)
	probe(tb.points(), ta)

	if count == 0 {
		count = 1
	}
	return count
}
