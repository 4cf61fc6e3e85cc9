package motionplan

import (
	"time"

	"github.com/golang/geo/r3"

	"go.viam.com/metaplanner/space"
)

const (
	// Two points closer than this are the same point.
	samePointTolerance = 1e-8

	// A wait in place is checked at this fraction of its duration.
	waitCheckFraction = 0.1
)

// segmentChecker validates straight line edges traversed over a time interval against the space.
type segmentChecker struct {
	space      space.Space
	incoming   space.ValueFunctionID
	outgoing   space.ValueFunctionID
	resolution float64
	meta       *PlanMeta
}

func newSegmentChecker(s space.Space, opts *PlannerOptions, meta *PlanMeta) *segmentChecker {
	return &segmentChecker{
		space:      s,
		incoming:   opts.IncomingValue,
		outgoing:   opts.OutgoingValue,
		resolution: opts.CollisionCheckResolution,
		meta:       meta,
	}
}

// check walks from start to stop every resolution units of distance, timestamping each query by
// linear interpolation between startTime and stopTime. It stops at the first invalid query and
// returns whether the segment is valid and the largest collision probability seen. The stop point
// itself is not queried.
func (sc *segmentChecker) check(start, stop r3.Vector, startTime, stopTime float64) (bool, float64, error) {
	if sc.meta != nil {
		defer sc.meta.DeferTiming("checkSegment", time.Now())
	}

	var direction r3.Vector
	var stepLength, dt float64
	if length := stop.Sub(start).Norm(); length <= samePointTolerance {
		dt = (stopTime - startTime) * waitCheckFraction
	} else {
		direction = stop.Sub(start).Mul(1 / length)
		stepLength = sc.resolution
		dt = (stopTime - startTime) * sc.resolution / length
	}
	if !(dt > 0) {
		return true, 0, nil
	}

	maxProb := 0.
	for i := 0; ; i++ {
		queryTime := startTime + float64(i)*dt
		if queryTime >= stopTime {
			break
		}
		query := start.Add(direction.Mul(float64(i) * stepLength))
		valid, prob, err := sc.space.IsValid(query, sc.incoming, sc.outgoing, queryTime)
		if err != nil {
			return false, maxProb, newOracleError("collision check", err)
		}
		if prob > maxProb {
			maxProb = prob
		}
		if !valid {
			return false, maxProb, nil
		}
	}
	return true, maxProb, nil
}
