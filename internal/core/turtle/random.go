package turtle

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/zeusync/arbor/internal/core/geometry"
)

// Source supplies uniform values in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// NewSource returns a deterministic source for seed.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// randomRotation picks an axis on a quarter arc of the plane orthogonal to
// from, a sign, and a magnitude in [minAngle, maxAngle]. Draw order is
// fixed so that a seed reproduces the same tree.
func randomRotation(src Source, minAngle, maxAngle float64, from mgl64.Vec3) mgl64.Quat {
	basis := geometry.OrthogonalPlaneBasis(from)
	theta := math.Pi * src.Float64() / 2
	axis := geometry.ProjectFromBasis(mgl64.Vec2{math.Cos(theta), math.Sin(theta)}, basis)
	sign := geometry.Sign(src.Float64() - 0.5)
	angle := sign * geometry.Lerp(minAngle, maxAngle, src.Float64())
	return geometry.AngleAxis(angle, axis)
}
