package geometry

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

const tolerance = 1e-9

func assertVecEqual(t *testing.T, want, got mgl64.Vec3) {
	t.Helper()
	assert.Truef(t, want.ApproxEqualThreshold(got, 1e-6), "want %v, got %v", want, got)
}

func TestOrthogonalPlaneBasisIsOrthonormal(t *testing.T) {
	for _, z := range []mgl64.Vec3{Up, Right, Forward, {1, 2, 3}, {-0.3, 0.1, -5}} {
		b := OrthogonalPlaneBasis(z)
		assert.InDelta(t, 1, b.X.Len(), tolerance)
		assert.InDelta(t, 1, b.Y.Len(), tolerance)
		assert.InDelta(t, 0, b.X.Dot(b.Y), tolerance)
		assert.InDelta(t, 0, b.X.Dot(z), tolerance)
		assert.InDelta(t, 0, b.Y.Dot(z), tolerance)
	}
}

func TestOrthogonalPlaneBasisOfUp(t *testing.T) {
	b := OrthogonalPlaneBasis(Up)
	assertVecEqual(t, Forward, b.X)
	assertVecEqual(t, Right.Mul(-1), b.Y)
}

func TestOrthogonalPlaneBasisOfZero(t *testing.T) {
	b := OrthogonalPlaneBasis(mgl64.Vec3{})
	assert.True(t, IsZero(b.X))
	assert.True(t, IsZero(b.Y))
}

func TestProjectionRoundTrip(t *testing.T) {
	b := OrthogonalPlaneBasis(mgl64.Vec3{0.2, 1, -0.4})
	p := mgl64.Vec2{0.75, -1.5}
	got := ProjectOntoBasis(ProjectFromBasis(p, b), b)
	assert.InDelta(t, p[0], got[0], tolerance)
	assert.InDelta(t, p[1], got[1], tolerance)
}

func TestAngleAxis(t *testing.T) {
	q := AngleAxis(90, Up)
	assertVecEqual(t, mgl64.Vec3{0, 0, -1}, q.Rotate(Right))

	q = AngleAxis(45, mgl64.Vec3{})
	assertVecEqual(t, Right, q.Rotate(Right))
}

func TestRotateTowardsClamps(t *testing.T) {
	from := Right
	q := RotateTowards(from, Up, 30)
	assert.InDelta(t, 30, AngleBetween(from, q.Rotate(from)), 1e-6)
	assert.InDelta(t, 60, AngleBetween(q.Rotate(from), Up), 1e-6)

	q = RotateTowards(from, Up, 120)
	assertVecEqual(t, Up, q.Rotate(from))
}

func TestRotateTowardsAntiparallel(t *testing.T) {
	q := RotateTowards(Up, Up.Mul(-1), 10)
	assert.InDelta(t, 10, AngleBetween(Up, q.Rotate(Up)), 1e-6)
}

func TestRotateTowardsParallelIsIdentity(t *testing.T) {
	q := RotateTowards(Up, Up.Mul(3), 10)
	assertVecEqual(t, Up, q.Rotate(Up))
}

func TestLerpAndSign(t *testing.T) {
	assert.InDelta(t, 30, Lerp(30, 90, 0), tolerance)
	assert.InDelta(t, 60, Lerp(30, 90, 0.5), tolerance)
	assert.InDelta(t, 90, Lerp(30, 90, 2), tolerance)
	assert.Equal(t, 1.0, Sign(0))
	assert.Equal(t, -1.0, Sign(-0.1))
}
