package hull

import "github.com/go-gl/mathgl/mgl64"

// MassProperties integrates the hull as a solid of unit density. inertia is
// the diagonal of the inertia tensor about the centroid divided by the
// volume, so scaling it by a body's mass gives that body's inertia.
func (h *Hull) MassProperties() (volume float64, centroid, inertia mgl64.Vec3) {
	var cov mgl64.Mat3
	var first mgl64.Vec3
	if len(h.Vertices) > 0 {
		first = h.Vertices[0]
	}

	// Fan every face into tetrahedra with apex at the first vertex.
	for _, loop := range h.Faces {
		a := h.Vertices[loop[0]]
		for i := 1; i+1 < len(loop); i++ {
			b := h.Vertices[loop[i]]
			c := h.Vertices[loop[i+1]]

			p0, p1, p2, p3 := first, a, b, c
			det := p1.Sub(p0).Dot(p2.Sub(p0).Cross(p3.Sub(p0)))
			vol := det / 6
			if vol == 0 {
				continue
			}
			volume += vol
			centroid = centroid.Add(p0.Add(p1).Add(p2).Add(p3).Mul(vol / 4))

			// Canonical tetrahedron covariance: det/120 * (S S^T + sum v v^T).
			s := p0.Add(p1).Add(p2).Add(p3)
			sum := s.OuterProd3(s)
			for _, v := range [4]mgl64.Vec3{p0, p1, p2, p3} {
				sum = sum.Add(v.OuterProd3(v))
			}
			cov = cov.Add(sum.Mul(det / 120))
		}
	}
	if volume <= 0 {
		return 0, first, mgl64.Vec3{}
	}
	centroid = centroid.Mul(1 / volume)

	// Shift the second moment to the centroid.
	cov = cov.Sub(centroid.OuterProd3(centroid).Mul(volume))
	xx, yy, zz := cov.At(0, 0), cov.At(1, 1), cov.At(2, 2)
	inertia = mgl64.Vec3{yy + zz, xx + zz, xx + yy}.Mul(1 / volume)
	return volume, centroid, inertia
}
