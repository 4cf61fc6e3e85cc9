package motionplan

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// noParent is the parent index of a tree's root.
const noParent = -1

// searchNode is one accepted point in a search tree. Nodes are never changed once added to their
// tree; the parent is referenced by index into the same tree.
type searchNode struct {
	point r3.Vector
	time  float64

	costToCome float64
	heuristic  float64
	priority   float64

	// worst collision probability seen along the edge from the parent
	collisionProb float64

	parent int
}

func newSearchNode(point r3.Vector, parent int, time, costToCome, heuristic, collisionProb float64) searchNode {
	return searchNode{
		point:         point,
		time:          time,
		costToCome:    costToCome,
		heuristic:     heuristic,
		priority:      costToCome + heuristic,
		collisionProb: collisionProb,
		parent:        parent,
	}
}

// searchTree is an arena owning every node created during one Plan call.
type searchTree struct {
	nodes []searchNode
}

func newSearchTree() *searchTree {
	return &searchTree{}
}

// add appends the node and returns its index. A node's parent must already be in the tree.
func (t *searchTree) add(n searchNode) int {
	if n.parent != noParent && (n.parent < 0 || n.parent >= len(t.nodes)) {
		panic(fmt.Sprintf("search node parent %d is not in a tree of %d nodes", n.parent, len(t.nodes)))
	}
	t.nodes = append(t.nodes, n)
	return len(t.nodes) - 1
}

func (t *searchTree) at(idx int) searchNode {
	return t.nodes[idx]
}

func (t *searchTree) len() int {
	return len(t.nodes)
}

// costToCome returns the cost of reaching point through the given parent. Cost is distance only;
// travel time is used for timestamps and the heuristic.
func (t *searchTree) costToCome(parent int, point r3.Vector) float64 {
	if parent == noParent {
		panic("parent should never be absent when computing cost to come")
	}
	p := t.at(parent)
	return p.costToCome + p.point.Distance(point)
}

// path walks from the terminal node back to the root and returns the root-to-terminal positions,
// arrival times and incoming edge collision probabilities.
func (t *searchTree) path(terminal int) ([]r3.Vector, []float64, []float64) {
	positions := []r3.Vector{}
	times := []float64{}
	probs := []float64{}
	for idx := terminal; idx != noParent; idx = t.at(idx).parent {
		n := t.at(idx)
		positions = append(positions, n.point)
		times = append(times, n.time)
		probs = append(probs, n.collisionProb)
	}

	// reverse the slices
	for i, j := 0, len(positions)-1; i < j; i, j = i+1, j-1 {
		positions[i], positions[j] = positions[j], positions[i]
		times[i], times[j] = times[j], times[i]
		probs[i], probs[j] = probs[j], probs[i]
	}
	return positions, times, probs
}
