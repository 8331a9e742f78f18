package plushie

import (
	"math"

	"github.com/matzehuels/plushie/pkg/errors"
	"github.com/matzehuels/plushie/pkg/hook"
)

// Default simulation settings.
const (
	DefaultTimestep              float32 = 1.0
	DefaultGravity               float32 = 5e-4
	DefaultStitchDistance        float32 = 1.0
	DefaultSingleLoopForce       float32 = 0.05
	DefaultCentroidNumber                = 2
	DefaultCentroidForce         float32 = 0.05
	DefaultMinNodesPerCentroid           = 60
	DefaultAcceptableTension     float32 = 0.02
	DefaultMaxRelaxingIterations         = 100
	DefaultAcceptableGrowth      float32 = 0.03
	DefaultForceExpansionAfter   float32 = 100
)

// InitializerKind selects how node positions are seeded.
type InitializerKind string

const (
	// Cylinder places every node up front, one stacked ring per round.
	Cylinder InitializerKind = "cylinder"
	// OneByOne starts from the root and grows one node at a time as the shape settles.
	OneByOne InitializerKind = "one-by-one"
)

// Params configures the simulation. Field tags match the keys of the params
// file and the setparams command.
type Params struct {
	Timestep              float32 `json:"timestep" toml:"timestep" yaml:"timestep"`
	Floor                 bool    `json:"floor" toml:"floor" yaml:"floor"`
	Gravity               float32 `json:"gravity" toml:"gravity" yaml:"gravity"`
	KeepRootAtOrigin      bool    `json:"keep_root_at_origin" toml:"keep_root_at_origin" yaml:"keep_root_at_origin"`
	DesiredStitchDistance float32 `json:"desired_stitch_distance" toml:"desired_stitch_distance" yaml:"desired_stitch_distance"`
	SingleLoopForce       float32 `json:"single_loop_force" toml:"single_loop_force" yaml:"single_loop_force"`
	MinimumDisplacement   float32 `json:"minimum_displacement" toml:"minimum_displacement" yaml:"minimum_displacement"`

	Centroids   CentroidParams    `json:"centroids" toml:"centroids" yaml:"centroids"`
	AutoStop    AutoStopParams    `json:"autostop" toml:"autostop" yaml:"autostop"`
	Initializer InitializerParams `json:"initializer" toml:"initializer" yaml:"initializer"`

	HookLeniency hook.Leniency         `json:"hook_leniency" toml:"hook_leniency" yaml:"hook_leniency"`
	TipFromFO    bool                  `json:"tip_from_fo" toml:"tip_from_fo" yaml:"tip_from_fo"`
	Limbs        map[string]LimbParams `json:"limbs,omitempty" toml:"limbs,omitempty" yaml:"limbs,omitempty"`
}

// CentroidParams configures the stuffing simulation.
type CentroidParams struct {
	// Number of centroids. More centroids push harder; bigger shapes need more.
	Number int `json:"number" toml:"number" yaml:"number"`
	// Force scales how hard each centroid pushes the skin outward.
	Force float32 `json:"force" toml:"force" yaml:"force"`
	// MinNodesPerCentroid is how many nodes each centroid needs before another is added.
	MinNodesPerCentroid int `json:"min_nodes_per_centroid" toml:"min_nodes_per_centroid" yaml:"min_nodes_per_centroid"`
}

// AutoStopParams decides when relaxation is done.
type AutoStopParams struct {
	AcceptableTension     float32 `json:"acceptable_tension" toml:"acceptable_tension" yaml:"acceptable_tension"`
	MaxRelaxingIterations int     `json:"max_relaxing_iterations" toml:"max_relaxing_iterations" yaml:"max_relaxing_iterations"`
}

// InitializerParams configures how nodes get their starting positions.
type InitializerParams struct {
	Kind InitializerKind `json:"kind" toml:"kind" yaml:"kind"`
	// AcceptableDisplacementForExpanding is how still the newest node must be
	// before the next one is grown (one-by-one only).
	AcceptableDisplacementForExpanding float32 `json:"acceptable_displacement_for_expanding" toml:"acceptable_displacement_for_expanding" yaml:"acceptable_displacement_for_expanding"`
	// ForceExpansionAfterTime grows the next node after this much simulated
	// time even if the shape has not settled (one-by-one only).
	ForceExpansionAfterTime float32 `json:"force_expansion_after_time" toml:"force_expansion_after_time" yaml:"force_expansion_after_time"`
}

// LimbParams pins coordinates of the root of a named ring, started with mr(n, name).
type LimbParams struct {
	LockX *float32 `json:"lock_x,omitempty" toml:"lock_x,omitempty" yaml:"lock_x,omitempty"`
	LockY *float32 `json:"lock_y,omitempty" toml:"lock_y,omitempty" yaml:"lock_y,omitempty"`
	LockZ *float32 `json:"lock_z,omitempty" toml:"lock_z,omitempty" yaml:"lock_z,omitempty"`
}

// DefaultParams returns the settings used when nothing else is configured.
func DefaultParams() Params {
	return Params{
		Timestep:              DefaultTimestep,
		Floor:                 true,
		Gravity:               DefaultGravity,
		KeepRootAtOrigin:      true,
		DesiredStitchDistance: DefaultStitchDistance,
		SingleLoopForce:       DefaultSingleLoopForce,
		Centroids: CentroidParams{
			Number:              DefaultCentroidNumber,
			Force:               DefaultCentroidForce,
			MinNodesPerCentroid: DefaultMinNodesPerCentroid,
		},
		AutoStop: AutoStopParams{
			AcceptableTension:     DefaultAcceptableTension,
			MaxRelaxingIterations: DefaultMaxRelaxingIterations,
		},
		Initializer: InitializerParams{
			Kind:                               Cylinder,
			AcceptableDisplacementForExpanding: DefaultAcceptableGrowth,
			ForceExpansionAfterTime:            DefaultForceExpansionAfter,
		},
		HookLeniency: hook.NoMercy,
		TipFromFO:    true,
	}
}

// Hook returns the pattern interpretation settings.
func (p Params) Hook() hook.Params {
	return hook.Params{TipFromFO: p.TipFromFO, Leniency: p.HookLeniency}
}

// Validate reports the first setting that cannot be simulated.
func (p Params) Validate() error {
	finite := map[string]float32{
		"timestep":                    p.Timestep,
		"gravity":                     p.Gravity,
		"desired_stitch_distance":     p.DesiredStitchDistance,
		"single_loop_force":           p.SingleLoopForce,
		"minimum_displacement":        p.MinimumDisplacement,
		"centroids.force":             p.Centroids.Force,
		"autostop.acceptable_tension": p.AutoStop.AcceptableTension,
	}
	for name, v := range finite {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return errors.New(errors.ErrCodeInvalidParams, "%s must be finite, got %v", name, v)
		}
	}

	switch {
	case p.Timestep <= 0:
		return errors.New(errors.ErrCodeInvalidParams, "timestep must be positive, got %v", p.Timestep)
	case p.DesiredStitchDistance <= 0:
		return errors.New(errors.ErrCodeInvalidParams, "desired_stitch_distance must be positive, got %v", p.DesiredStitchDistance)
	case p.MinimumDisplacement < 0:
		return errors.New(errors.ErrCodeInvalidParams, "minimum_displacement cannot be negative")
	case p.Centroids.Number < 0:
		return errors.New(errors.ErrCodeInvalidParams, "centroids.number cannot be negative")
	case p.Centroids.MinNodesPerCentroid < 0:
		return errors.New(errors.ErrCodeInvalidParams, "centroids.min_nodes_per_centroid cannot be negative")
	case p.AutoStop.MaxRelaxingIterations < 0:
		return errors.New(errors.ErrCodeInvalidParams, "autostop.max_relaxing_iterations cannot be negative")
	}

	switch p.Initializer.Kind {
	case Cylinder, OneByOne:
	default:
		return errors.New(errors.ErrCodeInvalidParams, "unknown initializer %q (want %q or %q)", p.Initializer.Kind, Cylinder, OneByOne)
	}

	for name := range p.Limbs {
		if err := errors.ValidateLimbName(name); err != nil {
			return err
		}
	}
	return nil
}
