package inject

import (
	"sync/atomic"

	"github.com/golang/geo/r3"

	"go.viam.com/metaplanner/space"
)

// Space is an injected occupancy oracle. It counts the queries made against it.
type Space struct {
	space.Space
	IsValidFunc func(point r3.Vector, incoming, outgoing space.ValueFunctionID, time float64) (bool, float64, error)
	CollisionProbabilityFunc func(
		point r3.Vector, incoming, outgoing space.ValueFunctionID, time float64,
	) (float64, error)
	SampleFunc func() (r3.Vector, error)
	BoundsFunc func() (r3.Vector, r3.Vector)

	validCalls  atomic.Int64
	sampleCalls atomic.Int64
}

// NewSpace returns a new injected Space wrapping the given one, which may be nil when every
// function that will be called is injected.
func NewSpace(s space.Space) *Space {
	return &Space{Space: s}
}

// IsValid calls the injected IsValid or the real version.
func (s *Space) IsValid(point r3.Vector, incoming, outgoing space.ValueFunctionID, time float64) (bool, float64, error) {
	s.validCalls.Add(1)
	if s.IsValidFunc == nil {
		return s.Space.IsValid(point, incoming, outgoing, time)
	}
	return s.IsValidFunc(point, incoming, outgoing, time)
}

// CollisionProbability calls the injected CollisionProbability or the real version.
func (s *Space) CollisionProbability(point r3.Vector, incoming, outgoing space.ValueFunctionID, time float64) (float64, error) {
	if s.CollisionProbabilityFunc == nil {
		return s.Space.CollisionProbability(point, incoming, outgoing, time)
	}
	return s.CollisionProbabilityFunc(point, incoming, outgoing, time)
}

// Sample calls the injected Sample or the real version.
func (s *Space) Sample() (r3.Vector, error) {
	s.sampleCalls.Add(1)
	if s.SampleFunc == nil {
		return s.Space.Sample()
	}
	return s.SampleFunc()
}

// Bounds calls the injected Bounds or the real version.
func (s *Space) Bounds() (r3.Vector, r3.Vector) {
	if s.BoundsFunc == nil {
		return s.Space.Bounds()
	}
	return s.BoundsFunc()
}

// IsValidCalls returns how many times IsValid has been called.
func (s *Space) IsValidCalls() int {
	return int(s.validCalls.Load())
}

// SampleCalls returns how many times Sample has been called.
func (s *Space) SampleCalls() int {
	return int(s.sampleCalls.Load())
}
