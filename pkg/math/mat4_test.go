package math

import (
	"math"
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	expected := Mat4{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	if m != expected {
		t.Errorf("Identity() = %v, want %v", m, expected)
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())
	if result != m {
		t.Errorf("m * I = %v, want %v", result, m)
	}
}

func TestTranslate(t *testing.T) {
	m := Translate(5, 10, 15)
	if m[12] != 5 || m[13] != 10 || m[14] != 15 {
		t.Errorf("Translate: got [%v, %v, %v], want [5, 10, 15]", m[12], m[13], m[14])
	}
}

func TestTransformVec3(t *testing.T) {
	m := Translate(10, 20, 30)
	result := m.TransformVec3(Vec3{1, 2, 3})
	expected := Vec3{11, 22, 33}
	if result != expected {
		t.Errorf("TransformVec3 = %v, want %v", result, expected)
	}
}

func TestRotateY90(t *testing.T) {
	m := QuatFromAxisAngle(Vec3{Y: 1}, float32(math.Pi/2)).ToMat4()
	result := m.TransformDirection(Vec3{1, 0, 0})

	// X axis maps to -Z
	if abs(result.X) > 0.0001 || abs(result.Y) > 0.0001 || abs(result.Z+1) > 0.0001 {
		t.Errorf("RotateY(90) * [1,0,0] = %v, want [0, 0, -1]", result)
	}
}

func TestInverseRigid(t *testing.T) {
	m := Pose(QuatFromEuler(Vec3{30, 45, 60}), Vec3{1, -2, 3})
	inv := m.InverseRigid()
	p := Vec3{0.5, 7, -3}
	back := inv.TransformVec3(m.TransformVec3(p))
	if back.Distance(p) > 1e-4 {
		t.Errorf("InverseRigid round trip = %v, want %v", back, p)
	}

	if id := inv.Mul(m); id.Position().Length() > 1e-4 {
		t.Errorf("InverseRigid * m translation = %v, want zero", id.Position())
	}
}

func TestUntransformDirection(t *testing.T) {
	m := QuatFromAxisAngle(Vec3{Z: 1}, float32(math.Pi/3)).ToMat4()
	d := Vec3{1, 2, 3}
	back := m.UntransformDirection(m.TransformDirection(d))
	if back.Distance(d) > 1e-5 {
		t.Errorf("UntransformDirection = %v, want %v", back, d)
	}
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
