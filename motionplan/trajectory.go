package motionplan

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"go.viam.com/metaplanner/dynamics"
	"go.viam.com/metaplanner/space"
)

// Trajectory is a timed sequence of states produced by one successful Plan call. It is not
// modified after construction; accessors return copies.
type Trajectory struct {
	times          []float64
	positions      []r3.Vector
	states         []dynamics.State
	incomingValues []space.ValueFunctionID
	outgoingValues []space.ValueFunctionID
	collisionProbs []float64
}

// NewTrajectory checks that every sequence has one entry per waypoint and that times never
// decrease.
func NewTrajectory(
	times []float64,
	positions []r3.Vector,
	states []dynamics.State,
	incomingValues, outgoingValues []space.ValueFunctionID,
	collisionProbs []float64,
) (*Trajectory, error) {
	n := len(times)
	if len(positions) != n || len(states) != n || len(incomingValues) != n || len(outgoingValues) != n || len(collisionProbs) != n {
		return nil, errors.Errorf(
			"trajectory sequences differ in length: %d times, %d positions, %d states, %d incoming, %d outgoing, %d probabilities",
			n, len(positions), len(states), len(incomingValues), len(outgoingValues), len(collisionProbs))
	}
	for i := 1; i < n; i++ {
		if times[i] < times[i-1] {
			return nil, errors.Errorf("trajectory time decreases at waypoint %d", i)
		}
	}
	return &Trajectory{
		times:          append([]float64(nil), times...),
		positions:      append([]r3.Vector(nil), positions...),
		states:         append([]dynamics.State(nil), states...),
		incomingValues: append([]space.ValueFunctionID(nil), incomingValues...),
		outgoingValues: append([]space.ValueFunctionID(nil), outgoingValues...),
		collisionProbs: append([]float64(nil), collisionProbs...),
	}, nil
}

// Len returns the number of waypoints.
func (t *Trajectory) Len() int {
	return len(t.times)
}

// Times returns the arrival time of each waypoint.
func (t *Trajectory) Times() []float64 {
	return append([]float64(nil), t.times...)
}

// Positions returns the geometric path the states were lifted from.
func (t *Trajectory) Positions() []r3.Vector {
	return append([]r3.Vector(nil), t.positions...)
}

// States returns the lifted dynamical states.
func (t *Trajectory) States() []dynamics.State {
	states := make([]dynamics.State, 0, len(t.states))
	for _, s := range t.states {
		states = append(states, append(dynamics.State(nil), s...))
	}
	return states
}

// IncomingValues returns the incoming value function of each state.
func (t *Trajectory) IncomingValues() []space.ValueFunctionID {
	return append([]space.ValueFunctionID(nil), t.incomingValues...)
}

// OutgoingValues returns the outgoing value function of each state.
func (t *Trajectory) OutgoingValues() []space.ValueFunctionID {
	return append([]space.ValueFunctionID(nil), t.outgoingValues...)
}

// CollisionProbabilities returns, for each waypoint, the worst collision probability seen on the
// edge arriving at it. The first waypoint has no incoming edge and reports 0.
func (t *Trajectory) CollisionProbabilities() []float64 {
	return append([]float64(nil), t.collisionProbs...)
}

// StartTime returns the time of the first waypoint.
func (t *Trajectory) StartTime() float64 {
	if len(t.times) == 0 {
		return 0
	}
	return t.times[0]
}

// Duration returns the time between the first and last waypoints.
func (t *Trajectory) Duration() float64 {
	if len(t.times) == 0 {
		return 0
	}
	return t.times[len(t.times)-1] - t.times[0]
}

// MaxCollisionProbability returns the worst collision probability along the whole trajectory.
func (t *Trajectory) MaxCollisionProbability() float64 {
	if len(t.collisionProbs) == 0 {
		return 0
	}
	return floats.Max(t.collisionProbs)
}

// PathLength returns the summed straight line distance between consecutive waypoints.
func (t *Trajectory) PathLength() float64 {
	lengths := make([]float64, 0, len(t.positions))
	for i := 1; i < len(t.positions); i++ {
		lengths = append(lengths, t.positions[i].Distance(t.positions[i-1]))
	}
	return floats.Sum(lengths)
}

// buildTrajectory walks the terminal node back to the root and lifts the resulting path into a
// trajectory tagged with the planner's value functions.
func buildTrajectory(
	tree *searchTree,
	terminal int,
	dyn dynamics.Dynamics,
	incoming, outgoing space.ValueFunctionID,
) (*Trajectory, error) {
	positions, times, probs := tree.path(terminal)

	states, err := dyn.LiftGeometricTrajectory(positions, times)
	if err != nil {
		return nil, newOracleError("lift geometric trajectory", err)
	}
	if len(states) != len(positions) {
		return nil, newOracleError("lift geometric trajectory",
			errors.Errorf("got %d states for %d waypoints", len(states), len(positions)))
	}

	incomingValues := make([]space.ValueFunctionID, len(states))
	outgoingValues := make([]space.ValueFunctionID, len(states))
	for i := range states {
		incomingValues[i] = incoming
		outgoingValues[i] = outgoing
	}
	return NewTrajectory(times, positions, states, incomingValues, outgoingValues, probs)
}
