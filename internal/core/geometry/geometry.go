// Package geometry holds the small set of vector helpers the turtle needs
// on top of mathgl: plane bases, projections and angle/axis rotations.
// Angles are in degrees throughout.
package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon is the length below which a vector is treated as zero.
const Epsilon = 1e-5

var (
	Right   = mgl64.Vec3{1, 0, 0}
	Up      = mgl64.Vec3{0, 1, 0}
	Forward = mgl64.Vec3{0, 0, 1}
)

// SafeNormalize returns v scaled to unit length, or the zero vector when v
// is too short to have a direction.
func SafeNormalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < Epsilon {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}

// SafeNormalize2 is SafeNormalize for plane vectors.
func SafeNormalize2(v mgl64.Vec2) mgl64.Vec2 {
	l := v.Len()
	if l < Epsilon {
		return mgl64.Vec2{}
	}
	return v.Mul(1 / l)
}

// IsZero reports whether v is shorter than Epsilon.
func IsZero(v mgl64.Vec3) bool {
	return v.Len() < Epsilon
}

// Basis is an orthonormal pair spanning the plane orthogonal to some axis.
type Basis struct {
	X mgl64.Vec3
	Y mgl64.Vec3
}

// OrthogonalPlaneBasis builds a basis of the plane orthogonal to zAxis.
// X is derived from the world right vector, falling back to world up when
// zAxis is parallel to right.
func OrthogonalPlaneBasis(zAxis mgl64.Vec3) Basis {
	x := SafeNormalize(Right.Cross(zAxis))
	if IsZero(x) {
		x = SafeNormalize(Up.Cross(zAxis))
	}
	y := SafeNormalize(x.Cross(zAxis))
	return Basis{X: x, Y: y}
}

// ProjectOntoBasis expresses v in plane coordinates of b.
func ProjectOntoBasis(v mgl64.Vec3, b Basis) mgl64.Vec2 {
	return mgl64.Vec2{b.X.Dot(v), b.Y.Dot(v)}
}

// ProjectFromBasis maps plane coordinates back into world space.
func ProjectFromBasis(p mgl64.Vec2, b Basis) mgl64.Vec3 {
	return b.X.Mul(p[0]).Add(b.Y.Mul(p[1]))
}

// AngleAxis returns a rotation of degrees around axis. A degenerate axis
// yields the identity.
func AngleAxis(degrees float64, axis mgl64.Vec3) mgl64.Quat {
	n := SafeNormalize(axis)
	if IsZero(n) {
		return mgl64.QuatIdent()
	}
	return mgl64.QuatRotate(mgl64.DegToRad(degrees), n)
}

// AngleBetween returns the unsigned angle between a and b in degrees.
func AngleBetween(a, b mgl64.Vec3) float64 {
	na, nb := SafeNormalize(a), SafeNormalize(b)
	if IsZero(na) || IsZero(nb) {
		return 0
	}
	return mgl64.RadToDeg(math.Acos(mgl64.Clamp(na.Dot(nb), -1, 1)))
}

// RotateTowards returns the rotation that turns from toward to, limited to
// maxDegrees. Antiparallel vectors rotate around an arbitrary axis
// orthogonal to from.
func RotateTowards(from, to mgl64.Vec3, maxDegrees float64) mgl64.Quat {
	angle := AngleBetween(from, to)
	if angle < Epsilon {
		return mgl64.QuatIdent()
	}
	axis := SafeNormalize(from.Cross(to))
	if IsZero(axis) {
		axis = OrthogonalPlaneBasis(from).X
	}
	return AngleAxis(math.Min(maxDegrees, angle), axis)
}

// Lerp interpolates between a and b, clamping t to [0, 1].
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*mgl64.Clamp(t, 0, 1)
}

// Sign returns -1 for negative values and 1 otherwise.
func Sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
