package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func NewTransform() Transform {
	return Transform{
		Position: mgl32.Vec3{0, 0, 0},
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

func (t Transform) ObjectToWorld() mgl32.Mat4 {
	// M = T * R * S
	translate := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	rotate := t.Rotation.Mat4()
	scale := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())

	return translate.Mul4(rotate).Mul4(scale)
}

func (t Transform) WorldToObject() mgl32.Mat4 {
	// inv(M) = inv(S) * inv(R) * inv(T)
	invScale := mgl32.Scale3D(safeInv(t.Scale.X()), safeInv(t.Scale.Y()), safeInv(t.Scale.Z()))
	invRotate := t.Rotation.Conjugate().Mat4()
	invTranslate := mgl32.Translate3D(-t.Position.X(), -t.Position.Y(), -t.Position.Z())

	return invScale.Mul4(invRotate).Mul4(invTranslate)
}

// NormalMatrix returns the matrix that maps object space normals to world
// space, transpose(inverse(M)) restricted to the upper 3x3.
func (t Transform) NormalMatrix() mgl32.Mat3 {
	return t.WorldToObject().Mat3().Transpose()
}

func (t Transform) TransformPoint(p mgl32.Vec3) mgl32.Vec3 {
	return t.ObjectToWorld().Mul4x1(p.Vec4(1.0)).Vec3()
}

// TransformNormal maps an object space normal to a unit world space normal.
func (t Transform) TransformNormal(n mgl32.Vec3) mgl32.Vec3 {
	return normalizeOr(t.NormalMatrix().Mul3x1(n), n)
}

func safeInv(v float32) float32 {
	if v > -1e-8 && v < 1e-8 {
		return 0
	}
	return 1.0 / v
}

func normalizeOr(v, fallback mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l < 1e-12 {
		return fallback
	}
	return v.Mul(1.0 / l)
}

// LookAt returns the rotation whose local +Z axis points from eye toward
// target, with local +Y as close to up as possible. This is the object
// convention (not the camera one, which looks down -Z).
func LookAt(eye, target, up mgl32.Vec3) mgl32.Quat {
	z := target.Sub(eye)
	if z.Len() < 1e-12 {
		return mgl32.QuatIdent()
	}
	z = z.Normalize()

	x := up.Cross(z)
	if x.Len() < 1e-6 {
		// up is parallel to the view direction, pick another reference axis
		alt := mgl32.Vec3{0, 0, 1}
		if math.Abs(float64(z.Z())) > 0.9 {
			alt = mgl32.Vec3{1, 0, 0}
		}
		x = alt.Cross(z)
	}
	x = x.Normalize()
	y := z.Cross(x)

	m := mgl32.Mat3FromCols(x, y, z)
	return mgl32.Mat4ToQuat(m.Mat4()).Normalize()
}

// SpinAbout composes a rotation of angle radians around base's local +Z.
func SpinAbout(base mgl32.Quat, angle float32) mgl32.Quat {
	return base.Mul(mgl32.QuatRotate(angle, mgl32.Vec3{0, 0, 1})).Normalize()
}

// WrapAngle folds an angle into [-pi, pi).
func WrapAngle(a float32) float32 {
	tau := 2 * math.Pi
	w := math.Mod(float64(a)+math.Pi, tau)
	if w < 0 {
		w += tau
	}
	return float32(w - math.Pi)
}

// SameOrientation reports whether two unit quaternions describe the same
// rotation within eps, treating q and -q as equal.
func SameOrientation(a, b mgl32.Quat, eps float32) bool {
	d := a.Dot(b)
	if d < 0 {
		d = -d
	}
	return d >= 1-eps
}
