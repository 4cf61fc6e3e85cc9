package inject

import (
	"github.com/golang/geo/r3"

	"go.viam.com/metaplanner/dynamics"
)

// Dynamics is an injected vehicle model.
type Dynamics struct {
	dynamics.Dynamics
	BestPossibleTimeFunc        func(from, to r3.Vector) float64
	LiftGeometricTrajectoryFunc func(positions []r3.Vector, times []float64) ([]dynamics.State, error)
}

// NewDynamics returns a new injected Dynamics wrapping the given one.
func NewDynamics(d dynamics.Dynamics) *Dynamics {
	return &Dynamics{Dynamics: d}
}

// BestPossibleTime calls the injected BestPossibleTime or the real version.
func (d *Dynamics) BestPossibleTime(from, to r3.Vector) float64 {
	if d.BestPossibleTimeFunc == nil {
		return d.Dynamics.BestPossibleTime(from, to)
	}
	return d.BestPossibleTimeFunc(from, to)
}

// LiftGeometricTrajectory calls the injected LiftGeometricTrajectory or the real version.
func (d *Dynamics) LiftGeometricTrajectory(positions []r3.Vector, times []float64) ([]dynamics.State, error) {
	if d.LiftGeometricTrajectoryFunc == nil {
		return d.Dynamics.LiftGeometricTrajectory(positions, times)
	}
	return d.LiftGeometricTrajectoryFunc(positions, times)
}
