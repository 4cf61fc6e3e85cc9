package motionplan

import (
	"context"
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/test"

	"go.viam.com/metaplanner/dynamics"
	"go.viam.com/metaplanner/logging"
)

type planFunc func(ctx context.Context) (*Trajectory, error)

func (f planFunc) Plan(ctx context.Context, _, _ r3.Vector, _ float64, _ time.Duration) (*Trajectory, error) {
	return f(ctx)
}

func TestNewPlanner(t *testing.T) {
	logger := logging.NewTestLogger(t)
	pm, err := dynamics.NewPointMass(1)
	test.That(t, err, test.ShouldBeNil)

	mp, err := NewPlanner(AStarPlanner, openSpace(), pm, nil, logger)
	test.That(t, err, test.ShouldBeNil)
	_, ok := mp.(*TimeVaryingAStar)
	test.That(t, ok, test.ShouldBeTrue)

	mp, err = NewPlanner(RRTPlanner, openSpace(), pm, nil, logger)
	test.That(t, err, test.ShouldBeNil)
	_, ok = mp.(*TimeVaryingRRT)
	test.That(t, ok, test.ShouldBeTrue)

	_, err = NewPlanner("prm", openSpace(), pm, nil, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "prm")

	_, err = NewPlanner(AStarPlanner, nil, pm, nil, logger)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewPlanner(RRTPlanner, openSpace(), nil, nil, logger)
	test.That(t, err, test.ShouldNotBeNil)

	bad := NewBasicPlannerOptions()
	bad.GridResolution = 0
	_, err = NewPlanner(AStarPlanner, openSpace(), pm, bad, logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestRaceFirstSuccessWins(t *testing.T) {
	want, err := NewTrajectory(nil, nil, nil, nil, nil, nil)
	test.That(t, err, test.ShouldBeNil)

	cancelled := make(chan struct{})
	planners := []Planner{
		planFunc(func(context.Context) (*Trajectory, error) { return nil, ErrOpenSetExhausted }),
		planFunc(func(ctx context.Context) (*Trajectory, error) {
			<-ctx.Done()
			close(cancelled)
			return nil, ctx.Err()
		}),
		planFunc(func(context.Context) (*Trajectory, error) { return want, nil }),
	}

	got, err := Race(context.Background(), planners, r3.Vector{}, r3.Vector{X: 1}, 0, time.Second)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldEqual, want)

	// the loser is told to stop
	select {
	case <-cancelled:
	case <-time.After(5 * time.Second):
		t.Fatal("losing planner was not cancelled")
	}
}

func TestRaceAllFail(t *testing.T) {
	planners := []Planner{
		planFunc(func(context.Context) (*Trajectory, error) { return nil, ErrOpenSetExhausted }),
		planFunc(func(context.Context) (*Trajectory, error) { return nil, ErrBudgetExceeded }),
	}
	_, err := Race(context.Background(), planners, r3.Vector{}, r3.Vector{X: 1}, 0, time.Second)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, len(multierr.Errors(err)), test.ShouldEqual, 2)
	test.That(t, errors.Is(err, ErrOpenSetExhausted), test.ShouldBeTrue)
	test.That(t, errors.Is(err, ErrBudgetExceeded), test.ShouldBeTrue)

	_, err = Race(context.Background(), nil, r3.Vector{}, r3.Vector{X: 1}, 0, time.Second)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestRaceSurvivesPanic(t *testing.T) {
	want, err := NewTrajectory(nil, nil, nil, nil, nil, nil)
	test.That(t, err, test.ShouldBeNil)

	panics := planFunc(func(context.Context) (*Trajectory, error) { panic("bad oracle") })
	got, err := Race(context.Background(), []Planner{
		panics,
		planFunc(func(context.Context) (*Trajectory, error) { return want, nil }),
	}, r3.Vector{}, r3.Vector{X: 1}, 0, time.Second)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldEqual, want)

	_, err = Race(context.Background(), []Planner{panics}, r3.Vector{}, r3.Vector{X: 1}, 0, time.Second)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "bad oracle")
}

func TestRaceRealPlanners(t *testing.T) {
	logger := logging.NewTestLogger(t)
	pm, err := dynamics.NewPointMass(1)
	test.That(t, err, test.ShouldBeNil)

	box := slabSpace()
	box.SampleFunc = func() (r3.Vector, error) { return r3.Vector{X: 1, Z: 1}, nil }
	astar, err := NewTimeVaryingAStar(box, pm, nil, logger)
	test.That(t, err, test.ShouldBeNil)
	rrt, err := NewTimeVaryingRRT(box, pm, nil, logger)
	test.That(t, err, test.ShouldBeNil)

	stop := r3.Vector{X: 2, Y: 2, Z: 2}
	traj, err := Race(context.Background(), []Planner{astar, rrt}, r3.Vector{}, stop, 0, 5*time.Second)
	test.That(t, err, test.ShouldBeNil)
	positions := traj.Positions()
	test.That(t, positions[0], test.ShouldResemble, r3.Vector{})
	test.That(t, positions[len(positions)-1], test.ShouldResemble, stop)
}
