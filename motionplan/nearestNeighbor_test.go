package motionplan

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestNearestNeighbor(t *testing.T) {
	si := newSpatialIndex()
	_, ok := si.nearest(r3.Vector{})
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, si.nearestNeighbors(r3.Vector{}, 3), test.ShouldBeEmpty)

	// Node i sits at x == i.
	for i := 0; i < 110; i++ {
		si.insert(r3.Vector{X: float64(i)}, i)
	}
	test.That(t, si.len(), test.ShouldEqual, 110)

	nn, ok := si.nearest(r3.Vector{X: 23.1})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, nn, test.ShouldEqual, 23)

	// Off-axis queries use the full 3D distance.
	nn, ok = si.nearest(r3.Vector{X: 723.6, Y: 5, Z: -2})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, nn, test.ShouldEqual, 109)

	test.That(t, si.nearestNeighbors(r3.Vector{X: 50.4}, 3), test.ShouldResemble, []int{50, 51, 49})
}

func TestNearestNeighborsFewerThanK(t *testing.T) {
	si := newSpatialIndex()
	si.insert(r3.Vector{Z: 2}, 0)
	si.insert(r3.Vector{Z: -1}, 1)
	test.That(t, si.nearestNeighbors(r3.Vector{}, 5), test.ShouldResemble, []int{1, 0})
}
