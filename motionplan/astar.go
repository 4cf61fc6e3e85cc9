package motionplan

import (
	"container/heap"
	"context"
	"math"
	"time"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"go.opencensus.io/trace"

	"go.viam.com/metaplanner/dynamics"
	"go.viam.com/metaplanner/logging"
	"go.viam.com/metaplanner/space"
)

// gridCell is a point of the implicit grid, counted in grid steps from the start point.
type gridCell struct {
	X, Y, Z int64
}

func (c gridCell) add(o gridCell) gridCell {
	return gridCell{c.X + o.X, c.Y + o.Y, c.Z + o.Z}
}

// neighborOffsets are the 26 surrounding cells plus the cell itself.
var neighborOffsets = func() []gridCell {
	offsets := make([]gridCell, 0, 27)
	for x := int64(-1); x <= 1; x++ {
		for y := int64(-1); y <= 1; y++ {
			for z := int64(-1); z <= 1; z++ {
				offsets = append(offsets, gridCell{x, y, z})
			}
		}
	}
	return offsets
}()

type openEntry struct {
	node     int
	cell     gridCell
	priority float64
	point    r3.Vector
	time     float64
}

// less orders entries by priority, then position, then time, then creation order.
func (e openEntry) less(o openEntry) bool {
	switch {
	case e.priority != o.priority:
		return e.priority < o.priority
	case e.point.X != o.point.X:
		return e.point.X < o.point.X
	case e.point.Y != o.point.Y:
		return e.point.Y < o.point.Y
	case e.point.Z != o.point.Z:
		return e.point.Z < o.point.Z
	case e.time != o.time:
		return e.time < o.time
	default:
		return e.node < o.node
	}
}

type openHeap []openEntry

func (h openHeap) Len() int           { return len(h) }
func (h openHeap) Less(i, j int) bool { return h[i].less(h[j]) }
func (h openHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *openHeap) Push(x any) {
	*h = append(*h, x.(openEntry))
}

func (h *openHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// openSet is the A* frontier. It holds at most one live candidate per grid cell; replaced
// candidates stay in the heap and are skipped when popped.
type openSet struct {
	heap openHeap
	best map[gridCell]openEntry
}

func newOpenSet() *openSet {
	return &openSet{best: map[gridCell]openEntry{}}
}

// Len returns the number of live candidates.
func (o *openSet) Len() int {
	return len(o.best)
}

// improves reports whether a candidate with the given priority would replace the cell's current
// candidate, or the cell has none.
func (o *openSet) improves(cell gridCell, priority float64) bool {
	current, ok := o.best[cell]
	return !ok || priority < current.priority
}

func (o *openSet) push(e openEntry) {
	heap.Push(&o.heap, e)
	o.best[e.cell] = e
}

// pop removes and returns the live candidate with the lowest priority.
func (o *openSet) pop() (openEntry, bool) {
	for o.heap.Len() > 0 {
		e := heap.Pop(&o.heap).(openEntry)
		if current, ok := o.best[e.cell]; ok && current.node == e.node {
			delete(o.best, e.cell)
			return e, true
		}
	}
	return openEntry{}, false
}

// TimeVaryingAStar searches an implicit 27-connected grid whose edge validity depends on when the
// edge is traversed.
type TimeVaryingAStar struct {
	*planner
}

// NewTimeVaryingAStar creates a grid planner. Nil options use NewBasicPlannerOptions.
func NewTimeVaryingAStar(
	s space.Space,
	d dynamics.Dynamics,
	opts *PlannerOptions,
	logger logging.Logger,
) (*TimeVaryingAStar, error) {
	p, err := newPlanner(s, d, opts, logger)
	if err != nil {
		return nil, err
	}
	return &TimeVaryingAStar{planner: p}, nil
}

// Plan searches for a trajectory from start to stop, departing at startTime, giving up once budget
// has elapsed. Start and stop are not validated up front; an infeasible problem exhausts the open
// set. A grid point matches stop only when it is strictly within half a grid resolution on every
// axis, so a stop lying exactly halfway between grid points is never reached.
func (mp *TimeVaryingAStar) Plan(
	ctx context.Context,
	start, stop r3.Vector,
	startTime float64,
	budget time.Duration,
) (*Trajectory, error) {
	ctx, span := trace.StartSpan(ctx, "TimeVaryingAStar::Plan")
	defer span.End()
	defer mp.meta.DeferTiming("TimeVaryingAStar.Plan", time.Now())

	deadline := mp.clock.Now().Add(budget)
	logger := mp.logger.WithFields("plan_id", uuid.NewString())

	search := mp.newSearch(start, stop, startTime, logger)
	terminal, err := search.run(ctx, deadline)
	if err != nil {
		logger.Warnw("grid search failed", "error", err, "expanded", len(search.expanded))
		return nil, err
	}
	traj, err := mp.buildTrajectory(search.tree, terminal)
	if err != nil {
		return nil, err
	}
	logger.Infow("returning trajectory", "waypoints", traj.Len(), "expanded", len(search.expanded),
		"max_collision_probability", traj.MaxCollisionProbability())
	return traj, nil
}

// aStarSearch is the state of one Plan call.
type aStarSearch struct {
	*TimeVaryingAStar
	logger logging.Logger

	start, stop r3.Vector
	tree        *searchTree
	open        *openSet
	closed      map[gridCell]struct{}

	// cells in the order they were expanded
	expanded []gridCell
}

func (mp *TimeVaryingAStar) newSearch(start, stop r3.Vector, startTime float64, logger logging.Logger) *aStarSearch {
	s := &aStarSearch{
		TimeVaryingAStar: mp,
		logger:           logger,
		start:            start,
		stop:             stop,
		tree:             newSearchTree(),
		open:             newOpenSet(),
		closed:           map[gridCell]struct{}{},
	}
	root := newSearchNode(start, noParent, startTime, 0, mp.dynamics.BestPossibleTime(start, stop), 0)
	s.insertCandidate(gridCell{}, root)
	return s
}

// position returns the location of a grid cell. Positions are computed from the start point rather
// than accumulated step by step so that they never drift off the grid.
func (s *aStarSearch) position(c gridCell) r3.Vector {
	res := s.opts.GridResolution
	return s.start.Add(r3.Vector{X: float64(c.X) * res, Y: float64(c.Y) * res, Z: float64(c.Z) * res})
}

func (s *aStarSearch) atGoal(point r3.Vector) bool {
	tol := s.opts.GridResolution / 2
	return math.Abs(point.X-s.stop.X) < tol &&
		math.Abs(point.Y-s.stop.Y) < tol &&
		math.Abs(point.Z-s.stop.Z) < tol
}

// insertCandidate adds the node to the tree and the open set unless the cell already holds a
// candidate with an equal or lower priority.
func (s *aStarSearch) insertCandidate(cell gridCell, n searchNode) bool {
	if !s.open.improves(cell, n.priority) {
		return false
	}
	idx := s.tree.add(n)
	s.open.push(openEntry{node: idx, cell: cell, priority: n.priority, point: n.point, time: n.time})
	return true
}

func (s *aStarSearch) run(ctx context.Context, deadline time.Time) (int, error) {
	for s.clock.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return noParent, err
		}

		entry, ok := s.open.pop()
		if !ok {
			s.logger.Errorf("open set is empty after %d expansions", len(s.expanded))
			return noParent, ErrOpenSetExhausted
		}
		next := s.tree.at(entry.node)

		if s.atGoal(next.point) {
			terminal, ok, err := s.connectGoal(entry.node)
			if err != nil {
				return noParent, err
			}
			if ok {
				return terminal, nil
			}
			s.logger.Debugw("could not connect goal from grid point", "point", next.point, "time", next.time)

			// Only one cell can match the goal, so it stays open for an arrival from another parent.
			if err := s.expand(entry.node, entry.cell); err != nil {
				return noParent, err
			}
			continue
		}

		s.closed[entry.cell] = struct{}{}
		s.expanded = append(s.expanded, entry.cell)
		if s.opts.LoggingInterval > 0 && len(s.expanded)%s.opts.LoggingInterval == 0 {
			s.logger.Debugf("expanded %d grid points, %d open, current priority %f",
				len(s.expanded), s.open.Len(), next.priority)
		}

		if err := s.expand(entry.node, entry.cell); err != nil {
			return noParent, err
		}
	}
	return noParent, ErrBudgetExceeded
}

// connectGoal replaces the grid point reached near the goal with the exact goal, connected from that
// grid point's parent. The root connects directly.
func (s *aStarSearch) connectGoal(nodeIdx int) (int, bool, error) {
	parentIdx := nodeIdx
	if p := s.tree.at(nodeIdx).parent; p != noParent {
		parentIdx = p
	}
	parent := s.tree.at(parentIdx)

	terminusTime := parent.time + s.dynamics.BestPossibleTime(parent.point, s.stop)
	ok, prob, err := s.checker.check(parent.point, s.stop, parent.time, terminusTime)
	if err != nil || !ok {
		return noParent, false, err
	}
	terminus := newSearchNode(s.stop, parentIdx, terminusTime, s.tree.costToCome(parentIdx, s.stop), 0, prob)
	return s.tree.add(terminus), true, nil
}

func (s *aStarSearch) expand(nodeIdx int, cell gridCell) error {
	next := s.tree.at(nodeIdx)
	for _, offset := range neighborOffsets {
		neighborCell := cell.add(offset)
		if _, ok := s.closed[neighborCell]; ok {
			continue
		}
		// The self neighbor is only open for the goal cell; wait there once per arrival.
		if offset == (gridCell{}) && next.parent != noParent && s.tree.at(next.parent).point == next.point {
			continue
		}
		neighbor := s.position(neighborCell)

		dt := s.opts.StayPutTime
		if offset != (gridCell{}) {
			dt = s.dynamics.BestPossibleTime(next.point, neighbor)
		}
		neighborTime := next.time + dt

		ok, prob, err := s.checker.check(next.point, neighbor, next.time, neighborTime)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		candidate := newSearchNode(
			neighbor,
			nodeIdx,
			neighborTime,
			s.tree.costToCome(nodeIdx, neighbor),
			s.dynamics.BestPossibleTime(neighbor, s.stop),
			prob,
		)
		s.insertCandidate(neighborCell, candidate)
	}
	return nil
}
