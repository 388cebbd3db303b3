package turtle

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/zeusync/arbor/internal/core/geometry"
)

// Config holds the interpreter tunables. Angles are in degrees.
type Config struct {
	LeafScale              float64    `json:"leaf_scale" yaml:"leaf_scale"`
	MaxLeafSize            float64    `json:"max_leaf_size" yaml:"max_leaf_size"`
	ContinueStep           float64    `json:"continue_step" yaml:"continue_step"`
	MinContinueScaleFactor float64    `json:"min_continue_scale_factor" yaml:"min_continue_scale_factor"`
	MaxContinueScaleFactor float64    `json:"max_continue_scale_factor" yaml:"max_continue_scale_factor"`
	BranchScaleFactor      float64    `json:"branch_scale_factor" yaml:"branch_scale_factor"`
	BranchMinAngle         float64    `json:"branch_min_angle" yaml:"branch_min_angle"`
	BranchMaxAngle         float64    `json:"branch_max_angle" yaml:"branch_max_angle"`
	ContinueMaxAngle       float64    `json:"continue_max_angle" yaml:"continue_max_angle"`
	BiasAngle              float64    `json:"bias_angle" yaml:"bias_angle"`
	BiasDirection          mgl64.Vec3 `json:"bias_direction" yaml:"bias_direction"`
	// PhyllotaxisJitter randomizes the fixed-angle branch commands by up to
	// this many degrees. Zero keeps them exact.
	PhyllotaxisJitter float64 `json:"phyllotaxis_jitter,omitempty" yaml:"phyllotaxis_jitter,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		LeafScale:              0.8,
		MaxLeafSize:            0.5,
		ContinueStep:           1,
		MinContinueScaleFactor: 0.9,
		MaxContinueScaleFactor: 1,
		BranchScaleFactor:      0.7,
		BranchMinAngle:         30,
		BranchMaxAngle:         90,
		ContinueMaxAngle:       15,
		BiasAngle:              5,
		BiasDirection:          geometry.Up,
	}
}

// Validate checks every tunable against its allowed range.
func (c Config) Validate() error {
	checks := []struct {
		name     string
		value    float64
		min, max float64
	}{
		{"leaf_scale", c.LeafScale, 0.25, 2},
		{"max_leaf_size", c.MaxLeafSize, 0.125, 2},
		{"continue_step", c.ContinueStep, 0.25, 2},
		{"max_continue_scale_factor", c.MaxContinueScaleFactor, 0, 2},
		{"branch_scale_factor", c.BranchScaleFactor, 0, 1},
		{"branch_min_angle", c.BranchMinAngle, 0, 120},
		{"branch_max_angle", c.BranchMaxAngle, 0, 120},
		{"continue_max_angle", c.ContinueMaxAngle, 0, 90},
		{"bias_angle", c.BiasAngle, 0, 30},
		{"phyllotaxis_jitter", c.PhyllotaxisJitter, 0, 90},
	}
	for _, ch := range checks {
		// Negated so that NaN fails.
		if !(ch.value >= ch.min && ch.value <= ch.max) {
			return fmt.Errorf("%w: %s=%g not in [%g, %g]", ErrInvalidConfig, ch.name, ch.value, ch.min, ch.max)
		}
	}

	// "+" divides by this factor.
	if !(c.MinContinueScaleFactor > 0 && c.MinContinueScaleFactor <= 1) {
		return fmt.Errorf("%w: min_continue_scale_factor=%g not in (0, 1]", ErrInvalidConfig, c.MinContinueScaleFactor)
	}
	if c.MinContinueScaleFactor > c.MaxContinueScaleFactor {
		return fmt.Errorf("%w: min_continue_scale_factor exceeds max_continue_scale_factor", ErrInvalidConfig)
	}
	if c.BranchMinAngle > c.BranchMaxAngle {
		return fmt.Errorf("%w: branch_min_angle exceeds branch_max_angle", ErrInvalidConfig)
	}
	for _, v := range c.BiasDirection {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: bias_direction=%v is not finite", ErrInvalidConfig, c.BiasDirection)
		}
	}
	if geometry.IsZero(c.BiasDirection) {
		return fmt.Errorf("%w: bias_direction must be non-zero", ErrInvalidConfig)
	}
	return nil
}
