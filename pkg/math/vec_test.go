package math

import (
	"testing"
)

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	z := x.Cross(y)
	expected := Vec3{0, 0, 1}
	if z != expected {
		t.Errorf("X x Y = %v, want %v", z, expected)
	}
}

func TestVec3Normalize(t *testing.T) {
	v := Vec3{3, 0, 4}.Normalize()
	if abs(v.Length()-1) > 1e-6 {
		t.Errorf("Length after Normalize = %v, want 1", v.Length())
	}
	if (Vec3{}).Normalize() != (Vec3{}) {
		t.Error("zero vector should normalize to zero")
	}
}

func TestVec3MinMax(t *testing.T) {
	a := Vec3{1, 5, -2}
	b := Vec3{3, -1, 0}
	if got := a.Min(b); got != (Vec3{1, -1, -2}) {
		t.Errorf("Min = %v", got)
	}
	if got := a.Max(b); got != (Vec3{3, 5, 0}) {
		t.Errorf("Max = %v", got)
	}
}

func TestAABBOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b AABB
		want bool
	}{
		{"disjoint", AABB{Vec3{0, 0, 0}, Vec3{1, 1, 1}}, AABB{Vec3{2, 2, 2}, Vec3{3, 3, 3}}, false},
		{"touching", AABB{Vec3{0, 0, 0}, Vec3{1, 1, 1}}, AABB{Vec3{1, 0, 0}, Vec3{2, 1, 1}}, true},
		{"nested", AABB{Vec3{0, 0, 0}, Vec3{4, 4, 4}}, AABB{Vec3{1, 1, 1}, Vec3{2, 2, 2}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Errorf("Overlaps = %v, want %v", got, tt.want)
			}
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Errorf("Overlaps (swapped) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAABBRayIntersect(t *testing.T) {
	b := AABB{Vec3{-1, -1, -1}, Vec3{1, 1, 1}}

	tHit, ok := b.RayIntersect(Vec3{-5, 0, 0}, Vec3{5, 0, 0}, 1)
	if !ok || abs(tHit-0.4) > 1e-6 {
		t.Errorf("RayIntersect = %v, %v, want 0.4, true", tHit, ok)
	}

	if _, ok := b.RayIntersect(Vec3{-5, 3, 0}, Vec3{5, 3, 0}, 1); ok {
		t.Error("ray above the box should miss")
	}
	if _, ok := b.RayIntersect(Vec3{-5, 0, 0}, Vec3{-3, 0, 0}, 1); ok {
		t.Error("short segment should miss")
	}
}

func TestAABBDistance(t *testing.T) {
	b := AABB{Vec3{0, 0, 0}, Vec3{1, 1, 1}}
	if d := b.DistanceSquaredToPoint(Vec3{0.5, 0.5, 0.5}); d != 0 {
		t.Errorf("inside distance = %v, want 0", d)
	}
	if d := b.DistanceSquaredToPoint(Vec3{3, 1, 1}); d != 4 {
		t.Errorf("distance = %v, want 4", d)
	}
}

func TestAABBTransform(t *testing.T) {
	b := AABB{Vec3{-1, -2, -3}, Vec3{1, 2, 3}}
	got := b.Transform(QuatFromAxisAngle(Vec3{Z: 1}, 3.14159265/2).ToMat4().Mul(Identity()))
	if abs(got.Max.X-2) > 1e-4 || abs(got.Max.Y-1) > 1e-4 || abs(got.Max.Z-3) > 1e-4 {
		t.Errorf("Transform = %v", got)
	}
}
