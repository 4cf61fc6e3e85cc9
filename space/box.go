package space

import (
	"math"
	"math/rand"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

const (
	// Collision probability at or above which a point is invalid.
	defaultCollisionThreshold = 0.1

	// Standard deviation of the obstacle position uncertainty, in the same units as positions.
	defaultPositionStdDev = 0.25
)

// Obstacle is a sphere moving at constant velocity. Its center at time t is Center + t*Velocity.
type Obstacle struct {
	Center   r3.Vector `json:"center"`
	Velocity r3.Vector `json:"velocity"`
	Radius   float64   `json:"radius"`
}

// CenterAt returns the obstacle center at the given time.
func (o Obstacle) CenterAt(time float64) r3.Vector {
	return o.Center.Add(o.Velocity.Mul(time))
}

// BoxConfig describes a ProbabilisticBox.
type BoxConfig struct {
	Lower     r3.Vector  `json:"lower"`
	Upper     r3.Vector  `json:"upper"`
	Obstacles []Obstacle `json:"obstacles"`

	// Tracking error bound for each value function. Obstacles are inflated by the larger of the
	// incoming and outgoing bounds.
	TrackingBounds map[ValueFunctionID]float64 `json:"tracking_bounds"`

	CollisionThreshold float64 `json:"collision_threshold"`
	PositionStdDev     float64 `json:"position_std_dev"`
	RandomSeed         int     `json:"rseed"`
}

// Validate returns an error if the box is malformed.
func (cfg *BoxConfig) Validate() error {
	if cfg.Lower.X > cfg.Upper.X || cfg.Lower.Y > cfg.Upper.Y || cfg.Lower.Z > cfg.Upper.Z {
		return errors.Errorf("lower corner %v exceeds upper corner %v", cfg.Lower, cfg.Upper)
	}
	for i, o := range cfg.Obstacles {
		if o.Radius < 0 {
			return errors.Errorf("obstacle %d has negative radius %f", i, o.Radius)
		}
	}
	if cfg.CollisionThreshold < 0 || cfg.CollisionThreshold > 1 {
		return errors.Errorf("collision threshold %f outside [0, 1]", cfg.CollisionThreshold)
	}
	return nil
}

// ProbabilisticBox is an axis-aligned box containing uncertain, moving spherical obstacles. The
// collision probability at a point decays with a Gaussian falloff in the distance to the nearest
// (inflated) obstacle surface, and is 1 inside an obstacle.
type ProbabilisticBox struct {
	lower, upper   r3.Vector
	obstacles      []Obstacle
	trackingBounds map[ValueFunctionID]float64
	threshold      float64
	stdDev         float64

	mu       sync.Mutex
	randseed *rand.Rand
}

// NewProbabilisticBox returns a box built from the config. Zero threshold and deviation fields
// take their defaults.
func NewProbabilisticBox(cfg BoxConfig) (*ProbabilisticBox, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	threshold := cfg.CollisionThreshold
	if threshold == 0 {
		threshold = defaultCollisionThreshold
	}
	stdDev := cfg.PositionStdDev
	if stdDev <= 0 {
		stdDev = defaultPositionStdDev
	}
	bounds := make(map[ValueFunctionID]float64, len(cfg.TrackingBounds))
	for id, b := range cfg.TrackingBounds {
		bounds[id] = b
	}
	return &ProbabilisticBox{
		lower:          cfg.Lower,
		upper:          cfg.Upper,
		obstacles:      append([]Obstacle(nil), cfg.Obstacles...),
		trackingBounds: bounds,
		threshold:      threshold,
		stdDev:         stdDev,
		randseed:       rand.New(rand.NewSource(int64(cfg.RandomSeed))), //nolint:gosec
	}, nil
}

// Contains reports whether the point is inside the box, boundary included.
func (b *ProbabilisticBox) Contains(point r3.Vector) bool {
	return point.X >= b.lower.X && point.X <= b.upper.X &&
		point.Y >= b.lower.Y && point.Y <= b.upper.Y &&
		point.Z >= b.lower.Z && point.Z <= b.upper.Z
}

// Bounds returns the box corners.
func (b *ProbabilisticBox) Bounds() (r3.Vector, r3.Vector) {
	return b.lower, b.upper
}

// IsValid reports whether the point lies in the box with collision probability below the
// threshold. Out of bounds points are invalid with probability 1.
func (b *ProbabilisticBox) IsValid(point r3.Vector, incoming, outgoing ValueFunctionID, time float64) (bool, float64, error) {
	if !b.Contains(point) {
		return false, 1, nil
	}
	prob, err := b.CollisionProbability(point, incoming, outgoing, time)
	if err != nil {
		return false, 0, err
	}
	return prob < b.threshold, prob, nil
}

// CollisionProbability returns the probability of colliding with any obstacle, treating obstacles
// as independent.
func (b *ProbabilisticBox) CollisionProbability(point r3.Vector, incoming, outgoing ValueFunctionID, time float64) (float64, error) {
	if math.IsNaN(time) || math.IsNaN(point.X) || math.IsNaN(point.Y) || math.IsNaN(point.Z) {
		return 0, errors.New("cannot query collision probability for NaN point or time")
	}
	padding := math.Max(b.trackingBounds[incoming], b.trackingBounds[outgoing])

	free := 1.0
	for _, o := range b.obstacles {
		surface := point.Distance(o.CenterAt(time)) - o.Radius - padding
		if surface <= 0 {
			return 1, nil
		}
		p := math.Exp(-surface * surface / (2 * b.stdDev * b.stdDev))
		free *= 1 - p
	}
	return 1 - free, nil
}

// Sample draws a point uniformly from the box.
func (b *ProbabilisticBox) Sample() (r3.Vector, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return r3.Vector{
		X: b.lower.X + b.randseed.Float64()*(b.upper.X-b.lower.X),
		Y: b.lower.Y + b.randseed.Float64()*(b.upper.Y-b.lower.Y),
		Z: b.lower.Z + b.randseed.Float64()*(b.upper.Z-b.lower.Z),
	}, nil
}
