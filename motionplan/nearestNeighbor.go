package motionplan

import (
	"sort"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// indexedPoint is a tree node's position as stored in the k-d tree.
type indexedPoint struct {
	point r3.Vector
	node  int
}

// Compare returns the signed distance of p from the plane passing through c and perpendicular to
// the dimension d.
func (p indexedPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(indexedPoint)
	switch d {
	case 0:
		return p.point.X - q.point.X
	case 1:
		return p.point.Y - q.point.Y
	case 2:
		return p.point.Z - q.point.Z
	default:
		panic("illegal dimension")
	}
}

func (p indexedPoint) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between the positions.
func (p indexedPoint) Distance(c kdtree.Comparable) float64 {
	d := p.point.Sub(c.(indexedPoint).point)
	return d.Dot(d)
}

// spatialIndex answers nearest neighbor queries over the positions of a search tree's nodes. Time
// is not part of the metric.
type spatialIndex struct {
	tree *kdtree.Tree
	size int
}

func newSpatialIndex() *spatialIndex {
	return &spatialIndex{tree: &kdtree.Tree{}}
}

func (si *spatialIndex) insert(point r3.Vector, node int) {
	si.tree.Insert(indexedPoint{point: point, node: node}, false)
	si.size++
}

func (si *spatialIndex) len() int {
	return si.size
}

// nearest returns the node closest to point, or false if the index is empty.
func (si *spatialIndex) nearest(point r3.Vector) (int, bool) {
	if si.size == 0 {
		return noParent, false
	}
	c, _ := si.tree.Nearest(indexedPoint{point: point})
	if c == nil {
		return noParent, false
	}
	return c.(indexedPoint).node, true
}

// nearestNeighbors returns up to k nodes ordered by increasing distance from point.
func (si *spatialIndex) nearestNeighbors(point r3.Vector, k int) []int {
	if k <= 0 || si.size == 0 {
		return nil
	}
	keeper := kdtree.NewNKeeper(k)
	si.tree.NearestSet(keeper, indexedPoint{point: point})

	found := make([]kdtree.ComparableDist, 0, k)
	for _, cd := range keeper.Heap {
		// the keeper starts with an empty sentinel that survives when fewer than k nodes exist
		if cd.Comparable == nil {
			continue
		}
		found = append(found, cd)
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].Dist != found[j].Dist {
			return found[i].Dist < found[j].Dist
		}
		return found[i].Comparable.(indexedPoint).node < found[j].Comparable.(indexedPoint).node
	})

	nodes := make([]int, 0, len(found))
	for _, cd := range found {
		nodes = append(nodes, cd.Comparable.(indexedPoint).node)
	}
	return nodes
}
