// Package space defines the occupancy oracle the planners query and a probabilistic box
// implementation of it whose obstacles move over time.
package space

import (
	"github.com/golang/geo/r3"
)

// ValueFunctionID identifies the safety criterion an oracle applies when answering validity
// queries. Planners never inspect it; they only pass it through.
type ValueFunctionID int

// Space is the time-varying occupancy oracle. Implementations must be safe for concurrent use
// since several planners may query one Space at once.
type Space interface {
	// IsValid reports whether the point is a valid configuration at the given time for the pair of
	// value functions, along with the collision probability at that point.
	IsValid(point r3.Vector, incoming, outgoing ValueFunctionID, time float64) (bool, float64, error)

	// CollisionProbability returns the total collision probability at the point and time.
	CollisionProbability(point r3.Vector, incoming, outgoing ValueFunctionID, time float64) (float64, error)

	// Sample draws a point from the space's sampling distribution.
	Sample() (r3.Vector, error)

	// Bounds returns the lower and upper corners of the space.
	Bounds() (lower, upper r3.Vector)
}
