package motionplan

import (
	"testing"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.viam.com/test"
)

func TestPlannerOptionsFromExtra(t *testing.T) {
	opts, err := NewPlannerOptionsFromExtra(nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, opts, test.ShouldResemble, NewBasicPlannerOptions())

	opts, err = NewPlannerOptionsFromExtra(map[string]interface{}{
		"grid_resolution": 0.5,
		"stay_put_time":   "2",
		"rseed":           7.0,
		"goal_bias":       0.05,
		"incoming_value":  3,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, opts.GridResolution, test.ShouldEqual, 0.5)
	test.That(t, opts.StayPutTime, test.ShouldEqual, 2)
	test.That(t, opts.RandomSeed, test.ShouldEqual, 7)
	test.That(t, opts.GoalBias, test.ShouldEqual, 0.05)
	test.That(t, int(opts.IncomingValue), test.ShouldEqual, 3)
	test.That(t, opts.CollisionCheckResolution, test.ShouldEqual, defaultCollisionCheckResolution)

	_, err = NewPlannerOptionsFromExtra(map[string]interface{}{"max_ik_solutions": 10})
	test.That(t, err, test.ShouldNotBeNil)

	_, err = NewPlannerOptionsFromExtra(map[string]interface{}{"goal_bias": 1})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestPlannerOptionsValidate(t *testing.T) {
	test.That(t, NewBasicPlannerOptions().Validate(), test.ShouldBeNil)

	opts := NewBasicPlannerOptions()
	opts.GridResolution = -1
	opts.CollisionCheckResolution = 0
	opts.GoalBias = -0.1
	err := opts.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, len(multierr.Errors(err)), test.ShouldEqual, 3)
}

func TestPlannerOptionsClock(t *testing.T) {
	opts := NewBasicPlannerOptions()
	test.That(t, opts.clock(), test.ShouldNotBeNil)

	mock := clock.NewMock()
	opts.Clock = mock
	test.That(t, opts.clock(), test.ShouldEqual, mock)
}
