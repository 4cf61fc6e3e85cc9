package motionplan

import (
	"github.com/benbjohnson/clock"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/metaplanner/space"
)

// default values for planning options.
const (
	// Spacing of the implicit grid searched by the A* planner.
	defaultGridResolution = 1.0

	// Check the space every this many units of distance along an edge.
	defaultCollisionCheckResolution = 0.1

	// Seconds spent by a grid transition that stays in place.
	defaultStayPutTime = 1.0

	// Probability of drawing the goal instead of a space sample in the RRT.
	defaultGoalBias = 0.

	// random seed.
	defaultRandomSeed = 0

	// Log search progress every this many iterations.
	defaultLoggingInterval = 1000
)

// PlannerOptions are a set of options to be passed to a planner which will specify how to solve a
// planning problem.
type PlannerOptions struct {
	// Value functions whose safety criterion the space applies. They are threaded through to every
	// space query and tagged on every state of the output trajectory.
	IncomingValue space.ValueFunctionID `json:"incoming_value"`
	OutgoingValue space.ValueFunctionID `json:"outgoing_value"`

	// Spacing of the A* grid. Unused by the RRT.
	GridResolution float64 `json:"grid_resolution"`

	// Distance between consecutive space queries along an edge.
	CollisionCheckResolution float64 `json:"collision_check_resolution"`

	// Seconds spent by an A* transition that stays in place. Cells are closed before their neighbors
	// are generated, so the grid search only waits at the goal cell after a failed final leg.
	StayPutTime float64 `json:"stay_put_time"`

	// Probability in [0, 1) that the RRT extends toward the goal rather than a sample.
	GoalBias float64 `json:"goal_bias"`

	// The random seed used by the RRT goal bias.
	RandomSeed int `json:"rseed"`

	// Number of iterations between progress logs.
	LoggingInterval int `json:"logging_interval"`

	// Clock used to enforce planning budgets. Defaults to the wall clock.
	Clock clock.Clock `json:"-"`
}

// NewBasicPlannerOptions specifies a set of basic options for the planner.
func NewBasicPlannerOptions() *PlannerOptions {
	return &PlannerOptions{
		GridResolution:           defaultGridResolution,
		CollisionCheckResolution: defaultCollisionCheckResolution,
		StayPutTime:              defaultStayPutTime,
		GoalBias:                 defaultGoalBias,
		RandomSeed:               defaultRandomSeed,
		LoggingInterval:          defaultLoggingInterval,
	}
}

// NewPlannerOptionsFromExtra returns basic default settings updated by overridden parameters found
// in an untyped "extra" map, keyed by the json names of the options.
func NewPlannerOptionsFromExtra(extra map[string]interface{}) (*PlannerOptions, error) {
	opt := NewBasicPlannerOptions()

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           opt,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(extra); err != nil {
		return nil, errors.Wrap(err, "invalid planner options")
	}
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	return opt, nil
}

// Validate returns every problem with the options.
func (p *PlannerOptions) Validate() error {
	var err error
	if !(p.GridResolution > 0) {
		err = multierr.Append(err, errors.Errorf("grid_resolution must be positive, got %f", p.GridResolution))
	}
	if !(p.CollisionCheckResolution > 0) {
		err = multierr.Append(err, errors.Errorf(
			"collision_check_resolution must be positive, got %f", p.CollisionCheckResolution))
	}
	if !(p.StayPutTime > 0) {
		err = multierr.Append(err, errors.Errorf("stay_put_time must be positive, got %f", p.StayPutTime))
	}
	if p.GoalBias < 0 || p.GoalBias >= 1 {
		err = multierr.Append(err, errors.Errorf("goal_bias must be in [0, 1), got %f", p.GoalBias))
	}
	return err
}

func (p *PlannerOptions) clock() clock.Clock {
	if p.Clock == nil {
		return clock.New()
	}
	return p.Clock
}
