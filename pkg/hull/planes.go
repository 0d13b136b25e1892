package hull

import "math"

// boundingPlanes keeps the face planes that add information beyond an
// axis-aligned box: normals close to a coordinate axis and near duplicates
// are dropped.
func boundingPlanes(planes []Plane) []Plane {
	var out []Plane
next:
	for _, p := range planes {
		n := p.Normal
		if math.Abs(n[0]) > boundingAxis || math.Abs(n[1]) > boundingAxis || math.Abs(n[2]) > boundingAxis {
			continue
		}
		for _, q := range out {
			if q.Normal.Dot(n) > boundingDupDot {
				continue next
			}
		}
		out = append(out, p)
	}
	return out
}
