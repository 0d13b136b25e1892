package math

import "github.com/chewxy/math32"

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max Vec3
}

// EmptyAABB returns an inverted box that any Extend call will fix up.
func EmptyAABB() AABB {
	inf := math32.Inf(1)
	return AABB{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// Extend grows the box to include p.
func (b AABB) Extend(p Vec3) AABB {
	return AABB{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Union returns the box enclosing both.
func (b AABB) Union(o AABB) AABB {
	return AABB{Min: b.Min.Min(o.Min), Max: b.Max.Max(o.Max)}
}

// Expand pads the box by d on every side.
func (b AABB) Expand(d float32) AABB {
	pad := Vec3{d, d, d}
	return AABB{Min: b.Min.Sub(pad), Max: b.Max.Add(pad)}
}

// Overlaps reports whether two boxes intersect (touching counts).
func (b AABB) Overlaps(o AABB) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y &&
		b.Min.Z <= o.Max.Z && b.Max.Z >= o.Min.Z
}

// Contains reports whether o lies entirely inside b.
func (b AABB) Contains(o AABB) bool {
	return b.Min.X <= o.Min.X && b.Min.Y <= o.Min.Y && b.Min.Z <= o.Min.Z &&
		b.Max.X >= o.Max.X && b.Max.Y >= o.Max.Y && b.Max.Z >= o.Max.Z
}

// Center returns the midpoint.
func (b AABB) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the edge lengths.
func (b AABB) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// DistanceSquaredToPoint returns the squared distance from p to the box,
// zero when p is inside.
func (b AABB) DistanceSquaredToPoint(p Vec3) float32 {
	var d float32
	for i := 0; i < 3; i++ {
		v := p.Index(i)
		if lo := b.Min.Index(i); v < lo {
			d += (lo - v) * (lo - v)
		} else if hi := b.Max.Index(i); v > hi {
			d += (v - hi) * (v - hi)
		}
	}
	return d
}

// RayIntersect clips the segment p0 + t*(p1-p0), t in [0, maxT], against the
// box using the slab method. It returns the entry parameter and whether the
// segment hits.
func (b AABB) RayIntersect(p0, p1 Vec3, maxT float32) (float32, bool) {
	dir := p1.Sub(p0)
	tmin, tmax := float32(0), maxT
	for i := 0; i < 3; i++ {
		o, d := p0.Index(i), dir.Index(i)
		lo, hi := b.Min.Index(i), b.Max.Index(i)
		if math32.Abs(d) < 1e-12 {
			if o < lo || o > hi {
				return 0, false
			}
			continue
		}
		inv := 1 / d
		t1, t2 := (lo-o)*inv, (hi-o)*inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math32.Max(tmin, t1)
		tmax = math32.Min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	return tmin, true
}

// Transform returns the box enclosing b after transforming it by m.
func (b AABB) Transform(m Mat4) AABB {
	c := m.TransformVec3(b.Center())
	h := b.Size().Scale(0.5)
	ext := Vec3{
		math32.Abs(m[0])*h.X + math32.Abs(m[4])*h.Y + math32.Abs(m[8])*h.Z,
		math32.Abs(m[1])*h.X + math32.Abs(m[5])*h.Y + math32.Abs(m[9])*h.Z,
		math32.Abs(m[2])*h.X + math32.Abs(m[6])*h.Y + math32.Abs(m[10])*h.Z,
	}
	return AABB{Min: c.Sub(ext), Max: c.Add(ext)}
}
