package motionplan

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/metaplanner/space"
	"go.viam.com/metaplanner/testutils/inject"
)

type query struct {
	point r3.Vector
	time  float64
}

// recordingSpace returns a space that records every validity query and answers with valid.
func recordingSpace(valid func(r3.Vector, float64) bool) (*inject.Space, *[]query) {
	queries := []query{}
	s := inject.NewSpace(nil)
	s.IsValidFunc = func(point r3.Vector, incoming, outgoing space.ValueFunctionID, time float64) (bool, float64, error) {
		queries = append(queries, query{point, time})
		return valid(point, time), point.X / 10, nil
	}
	return s, &queries
}

func testChecker(s space.Space) *segmentChecker {
	return newSegmentChecker(s, NewBasicPlannerOptions(), NewPlanMeta())
}

func TestSegmentCheckInterpolatesTime(t *testing.T) {
	s, queries := recordingSpace(func(r3.Vector, float64) bool { return true })
	sc := testChecker(s)

	ok, maxProb, err := sc.check(r3.Vector{}, r3.Vector{X: 1}, 2, 3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, len(*queries), test.ShouldEqual, 10)
	for i, q := range *queries {
		test.That(t, q.point.X, test.ShouldAlmostEqual, float64(i)*0.1)
		test.That(t, q.time, test.ShouldAlmostEqual, 2+q.point.X)
		test.That(t, q.time, test.ShouldBeLessThan, 3)
	}
	test.That(t, maxProb, test.ShouldAlmostEqual, 0.09)
	test.That(t, sc.meta.Counters("checkSegment").Calls(), test.ShouldEqual, 1)
}

func TestSegmentCheckShortCircuits(t *testing.T) {
	s, queries := recordingSpace(func(p r3.Vector, _ float64) bool { return p.X < 0.25 })
	sc := testChecker(s)

	ok, _, err := sc.check(r3.Vector{}, r3.Vector{X: 1}, 0, 1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, len(*queries), test.ShouldEqual, 4)
}

func TestSegmentCheckWait(t *testing.T) {
	// the point becomes occupied at t == 1
	s, queries := recordingSpace(func(_ r3.Vector, time float64) bool { return time < 1 })
	sc := testChecker(s)
	here := r3.Vector{X: 1, Y: 2, Z: 3}

	ok, _, err := sc.check(here, here, 0, 0.5)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	for i, q := range *queries {
		test.That(t, q.point, test.ShouldResemble, here)
		test.That(t, q.time, test.ShouldBeLessThan, 0.5)
		if i > 0 {
			test.That(t, q.time, test.ShouldBeGreaterThan, (*queries)[i-1].time)
		}
	}

	// waiting longer can only make things worse
	ok, _, err = sc.check(here, here, 0, 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestSegmentCheckWaitMonotonic(t *testing.T) {
	here := r3.Vector{X: 1, Y: 2, Z: 3}
	for _, tc := range []struct {
		name  string
		valid func(r3.Vector, float64) bool
		ok    bool
	}{
		{"free", func(r3.Vector, float64) bool { return true }, true},
		{"occupied", func(r3.Vector, float64) bool { return false }, false},
		{"occupied elsewhere", func(p r3.Vector, _ float64) bool { return p.X > 2 }, false},
		{"free here only", func(p r3.Vector, _ float64) bool { return p == here }, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := recordingSpace(tc.valid)
			sc := testChecker(s)
			for _, d := range []float64{0.05, 0.5, 1, 3} {
				short, _, err := sc.check(here, here, 2, 2+d)
				test.That(t, err, test.ShouldBeNil)
				long, _, err := sc.check(here, here, 2, 2+2*d)
				test.That(t, err, test.ShouldBeNil)
				test.That(t, short, test.ShouldEqual, tc.ok)
				test.That(t, long, test.ShouldEqual, short)
			}
		})
	}
}

func TestSegmentCheckNoDuration(t *testing.T) {
	s, queries := recordingSpace(func(r3.Vector, float64) bool { return false })
	sc := testChecker(s)

	for _, stopTime := range []float64{1, 0.5, math.NaN()} {
		ok, prob, err := sc.check(r3.Vector{}, r3.Vector{X: 1}, 1, stopTime)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, prob, test.ShouldEqual, 0)
	}
	test.That(t, *queries, test.ShouldBeEmpty)
}

func TestSegmentCheckOracleError(t *testing.T) {
	cause := errors.New("map unavailable")
	s := inject.NewSpace(nil)
	s.IsValidFunc = func(r3.Vector, space.ValueFunctionID, space.ValueFunctionID, float64) (bool, float64, error) {
		return false, 0, cause
	}
	_, _, err := testChecker(s).check(r3.Vector{}, r3.Vector{X: 1}, 0, 1)
	test.That(t, errors.Is(err, cause), test.ShouldBeTrue)

	var oracleErr *OracleError
	test.That(t, errors.As(err, &oracleErr), test.ShouldBeTrue)
	test.That(t, oracleErr.Op, test.ShouldEqual, "collision check")
}

func TestSegmentCheckPassesValueFunctions(t *testing.T) {
	var seen []space.ValueFunctionID
	s := inject.NewSpace(nil)
	s.IsValidFunc = func(_ r3.Vector, incoming, outgoing space.ValueFunctionID, _ float64) (bool, float64, error) {
		seen = append(seen, incoming, outgoing)
		return true, 0, nil
	}
	opts := NewBasicPlannerOptions()
	opts.IncomingValue = 4
	opts.OutgoingValue = 7
	opts.CollisionCheckResolution = 1

	ok, _, err := newSegmentChecker(s, opts, nil).check(r3.Vector{}, r3.Vector{Y: 1}, 0, 1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, seen, test.ShouldResemble, []space.ValueFunctionID{4, 7})
}
