// Package motionplan plans collision free trajectories through spaces whose obstacles move over
// time. Two interchangeable strategies are provided: a time-varying A* over an implicit grid and a
// time-varying RRT over continuous space.
package motionplan

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/metaplanner/dynamics"
	"go.viam.com/metaplanner/logging"
	"go.viam.com/metaplanner/space"
)

// Planner plans a trajectory between two points within a wall clock budget. Each Plan call owns
// its search state, so one Planner may serve concurrent calls.
type Planner interface {
	Plan(ctx context.Context, start, stop r3.Vector, startTime float64, budget time.Duration) (*Trajectory, error)
}

// PlannerType names a planning strategy.
type PlannerType string

// the set of supported planning strategies.
const (
	AStarPlanner PlannerType = "astar"
	RRTPlanner   PlannerType = "rrt"
)

// NewPlanner creates a planner of the given type.
func NewPlanner(
	plannerType PlannerType,
	s space.Space,
	d dynamics.Dynamics,
	opts *PlannerOptions,
	logger logging.Logger,
) (Planner, error) {
	var mp Planner
	var err error
	switch plannerType {
	case AStarPlanner:
		mp, err = NewTimeVaryingAStar(s, d, opts, logger)
	case RRTPlanner:
		mp, err = NewTimeVaryingRRT(s, d, opts, logger)
	default:
		return nil, errors.Errorf("unknown planner type %q", plannerType)
	}
	if err != nil {
		return nil, err
	}
	return mp, nil
}

// planner holds what both strategies share. Nothing in it changes during a Plan call.
type planner struct {
	space    space.Space
	dynamics dynamics.Dynamics
	opts     *PlannerOptions
	logger   logging.Logger
	clock    clock.Clock
	meta     *PlanMeta
	checker  *segmentChecker
}

func newPlanner(s space.Space, d dynamics.Dynamics, opts *PlannerOptions, logger logging.Logger) (*planner, error) {
	if s == nil {
		return nil, errors.New("planner requires a space")
	}
	if d == nil {
		return nil, errors.New("planner requires dynamics")
	}
	if opts == nil {
		opts = NewBasicPlannerOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewLogger("motionplan")
	}
	meta := NewPlanMeta()
	return &planner{
		space:    s,
		dynamics: d,
		opts:     opts,
		logger:   logger,
		clock:    opts.clock(),
		meta:     meta,
		checker:  newSegmentChecker(s, opts, meta),
	}, nil
}

// Meta returns timing information accumulated over every Plan call.
func (p *planner) Meta() *PlanMeta {
	return p.meta
}

func (p *planner) buildTrajectory(tree *searchTree, terminal int) (*Trajectory, error) {
	defer p.meta.DeferTiming("buildTrajectory", time.Now())
	return buildTrajectory(tree, terminal, p.dynamics, p.opts.IncomingValue, p.opts.OutgoingValue)
}

type planResult struct {
	traj *Trajectory
	err  error
}

// Race runs every planner concurrently on the same request and returns the first trajectory found.
// The remaining planners are cancelled. If every planner fails, the combined errors are returned.
func Race(
	ctx context.Context,
	planners []Planner,
	start, stop r3.Vector,
	startTime float64,
	budget time.Duration,
) (*Trajectory, error) {
	if len(planners) == 0 {
		return nil, errors.New("no planners to race")
	}
	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan planResult, len(planners))
	for _, mp := range planners {
		mp := mp
		utils.PanicCapturingGoWithCallback(func() {
			traj, err := mp.Plan(raceCtx, start, stop, startTime, budget)
			results <- planResult{traj: traj, err: err}
		}, func(err interface{}) {
			results <- planResult{err: errors.Errorf("planner panicked: %v", err)}
		})
	}

	var errs error
	for range planners {
		res := <-results
		if res.err == nil {
			return res.traj, nil
		}
		errs = multierr.Append(errs, res.err)
	}
	return nil, errs
}
