// Package dynamics defines the vehicle model the planners use to timestamp edges and to lift
// geometric paths into state trajectories.
package dynamics

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// State is a full dynamical state. Its layout is owned by the Dynamics that produced it.
type State []float64

// Dynamics is the vehicle model. Implementations must be safe for concurrent use.
type Dynamics interface {
	// BestPossibleTime returns a lower bound on the time needed to travel directly between the two
	// points. It must never overestimate the true travel time.
	BestPossibleTime(from, to r3.Vector) float64

	// LiftGeometricTrajectory turns timestamped positions into states, one per position.
	LiftGeometricTrajectory(positions []r3.Vector, times []float64) ([]State, error)
}

// PointMass is a speed limited point mass. Its states are [x, y, z, vx, vy, vz].
type PointMass struct {
	maxSpeed float64
}

// NewPointMass returns a point mass that can never exceed maxSpeed.
func NewPointMass(maxSpeed float64) (*PointMass, error) {
	if maxSpeed <= 0 {
		return nil, errors.Errorf("max speed must be positive, got %f", maxSpeed)
	}
	return &PointMass{maxSpeed: maxSpeed}, nil
}

// MaxSpeed returns the speed limit.
func (pm *PointMass) MaxSpeed() float64 {
	return pm.maxSpeed
}

// BestPossibleTime is the straight line distance traveled at full speed.
func (pm *PointMass) BestPossibleTime(from, to r3.Vector) float64 {
	return from.Distance(to) / pm.maxSpeed
}

// LiftGeometricTrajectory assigns each waypoint the constant velocity of its outgoing segment. The
// final waypoint is at rest.
func (pm *PointMass) LiftGeometricTrajectory(positions []r3.Vector, times []float64) ([]State, error) {
	if len(positions) != len(times) {
		return nil, errors.Errorf("got %d positions but %d times", len(positions), len(times))
	}
	states := make([]State, 0, len(positions))
	for i, p := range positions {
		var v r3.Vector
		if i+1 < len(positions) {
			dt := times[i+1] - times[i]
			if dt < 0 {
				return nil, errors.Errorf("times decrease between waypoints %d and %d", i, i+1)
			}
			if dt > 0 {
				v = positions[i+1].Sub(p).Mul(1 / dt)
			}
		}
		states = append(states, State{p.X, p.Y, p.Z, v.X, v.Y, v.Z})
	}
	return states, nil
}

// Position returns the position part of a point mass state.
func Position(s State) r3.Vector {
	return r3.Vector{X: s[0], Y: s[1], Z: s[2]}
}
