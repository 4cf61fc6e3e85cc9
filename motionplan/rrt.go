package motionplan

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"

	"go.viam.com/metaplanner/dynamics"
	"go.viam.com/metaplanner/logging"
	"go.viam.com/metaplanner/space"
)

// TimeVaryingRRT grows a tree through continuous space toward samples drawn from the space,
// timestamping every edge with the dynamics' best possible travel time. It returns the first
// trajectory that reaches the goal.
type TimeVaryingRRT struct {
	*planner

	randMu   sync.Mutex
	randseed *rand.Rand
}

// NewTimeVaryingRRT creates a sampling planner. Nil options use NewBasicPlannerOptions.
func NewTimeVaryingRRT(
	s space.Space,
	d dynamics.Dynamics,
	opts *PlannerOptions,
	logger logging.Logger,
) (*TimeVaryingRRT, error) {
	p, err := newPlanner(s, d, opts, logger)
	if err != nil {
		return nil, err
	}
	return &TimeVaryingRRT{
		planner:  p,
		randseed: rand.New(rand.NewSource(int64(p.opts.RandomSeed))), //nolint:gosec
	}, nil
}

// Plan searches for a trajectory from start to stop, departing at startTime, giving up once budget
// has elapsed. Both endpoints must be valid in the space.
func (mp *TimeVaryingRRT) Plan(
	ctx context.Context,
	start, stop r3.Vector,
	startTime float64,
	budget time.Duration,
) (*Trajectory, error) {
	ctx, span := trace.StartSpan(ctx, "TimeVaryingRRT::Plan")
	defer span.End()
	defer mp.meta.DeferTiming("TimeVaryingRRT.Plan", time.Now())

	deadline := mp.clock.Now().Add(budget)
	logger := mp.logger.WithFields("plan_id", uuid.NewString())

	if err := mp.checkEndpoints(start, stop, startTime); err != nil {
		logger.Warn(err)
		return nil, err
	}

	tree, terminal, err := mp.grow(ctx, start, stop, startTime, deadline, logger)
	if err != nil {
		logger.Warnw("tree search failed", "error", err, "tree_size", tree.len())
		return nil, err
	}
	traj, err := mp.buildTrajectory(tree.searchTree, terminal)
	if err != nil {
		return nil, err
	}
	logger.Infow("returning trajectory", "waypoints", traj.Len(), "tree_size", tree.len(),
		"max_collision_probability", traj.MaxCollisionProbability())
	return traj, nil
}

// checkEndpoints validates both endpoints at the departure time, since the arrival time at the goal
// is not known before planning.
func (mp *TimeVaryingRRT) checkEndpoints(start, stop r3.Vector, startTime float64) error {
	for _, endpoint := range []struct {
		name  string
		point r3.Vector
	}{{"start", start}, {"stop", stop}} {
		valid, _, err := mp.space.IsValid(endpoint.point, mp.opts.IncomingValue, mp.opts.OutgoingValue, startTime)
		if err != nil {
			return newOracleError("endpoint validity", err)
		}
		if !valid {
			return errors.Wrapf(ErrInvalidEndpoint, "%s point %v", endpoint.name, endpoint.point)
		}
	}
	return nil
}

// rrtTree is the state of one Plan call: the node arena and a spatial index over it.
type rrtTree struct {
	*searchTree
	index *spatialIndex
}

func (mp *TimeVaryingRRT) grow(
	ctx context.Context,
	start, stop r3.Vector,
	startTime float64,
	deadline time.Time,
	logger logging.Logger,
) (*rrtTree, int, error) {
	tree := &rrtTree{searchTree: newSearchTree(), index: newSpatialIndex()}
	root := tree.add(newSearchNode(start, noParent, startTime, 0, 0, 0))
	tree.index.insert(start, root)

	for iter := 1; mp.clock.Now().Before(deadline); iter++ {
		if err := ctx.Err(); err != nil {
			return tree, noParent, err
		}
		if mp.opts.LoggingInterval > 0 && iter%mp.opts.LoggingInterval == 0 {
			logger.Debugf("iteration %d, tree has %d nodes", iter, tree.index.len())
		}

		sample, err := mp.sample(stop)
		if err != nil {
			return tree, noParent, err
		}

		nearestIdx, ok := tree.index.nearest(sample)
		if !ok {
			panic("spatial index lost the root")
		}
		nearest := tree.at(nearestIdx)
		if nearest.point.Distance(sample) <= samePointTolerance {
			continue
		}

		sampleTime := nearest.time + mp.dynamics.BestPossibleTime(nearest.point, sample)
		ok, prob, err := mp.checker.check(nearest.point, sample, nearest.time, sampleTime)
		if err != nil {
			return tree, noParent, err
		}
		if !ok {
			continue
		}

		sampleIdx := tree.add(newSearchNode(sample, nearestIdx, sampleTime, tree.costToCome(nearestIdx, sample), 0, prob))
		tree.index.insert(sample, sampleIdx)
		if sample.Distance(stop) <= samePointTolerance {
			return tree, sampleIdx, nil
		}

		stopTime := sampleTime + mp.dynamics.BestPossibleTime(sample, stop)
		ok, prob, err = mp.checker.check(sample, stop, sampleTime, stopTime)
		if err != nil {
			return tree, noParent, err
		}
		if ok {
			terminus := newSearchNode(stop, sampleIdx, stopTime, tree.costToCome(sampleIdx, stop), 0, prob)
			return tree, tree.add(terminus), nil
		}
	}
	return tree, noParent, ErrBudgetExceeded
}

// sample draws the next point to extend toward, which is the goal with probability GoalBias.
func (mp *TimeVaryingRRT) sample(stop r3.Vector) (r3.Vector, error) {
	if mp.opts.GoalBias > 0 {
		mp.randMu.Lock()
		toGoal := mp.randseed.Float64() < mp.opts.GoalBias
		mp.randMu.Unlock()
		if toGoal {
			return stop, nil
		}
	}
	sample, err := mp.space.Sample()
	if err != nil {
		return r3.Vector{}, newOracleError("sample", err)
	}
	return sample, nil
}
