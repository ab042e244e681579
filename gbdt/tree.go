package gbdt

import "math"

// Node is a single node of a regression tree. Leaves have both children set
// to -1.
type Node struct {
	NodeID     int `json:"id"`
	LeftChild  int `json:"left"`
	RightChild int `json:"right"`

	// Split information (internal nodes)
	SplitFeature int     `json:"feature"`
	Threshold    float64 `json:"threshold"`
	DefaultLeft  bool    `json:"default_left"` // direction taken by NaN
	Gain         float64 `json:"gain,omitempty"`

	// Leaf information
	LeafValue float64 `json:"value"`

	// Cover is the hessian sum of the training rows that reached the node.
	Cover float64 `json:"cover"`
}

// IsLeaf returns true if the node is a leaf node
func (n *Node) IsLeaf() bool {
	return n.LeftChild == -1 && n.RightChild == -1
}

// Tree is one boosting round. Nodes[0] is the root.
type Tree struct {
	ShrinkageRate float64 `json:"shrinkage"`
	Nodes         []Node  `json:"nodes"`
}

// Predict walks the tree for one row and returns the shrunk leaf value.
func (t *Tree) Predict(features []float64) float64 {
	nodeID := 0
	for nodeID >= 0 && nodeID < len(t.Nodes) {
		node := &t.Nodes[nodeID]
		if node.IsLeaf() {
			return node.LeafValue * t.ShrinkageRate
		}

		v := features[node.SplitFeature]
		switch {
		case math.IsNaN(v):
			if node.DefaultLeft {
				nodeID = node.LeftChild
			} else {
				nodeID = node.RightChild
			}
		case v <= node.Threshold:
			nodeID = node.LeftChild
		default:
			nodeID = node.RightChild
		}
	}
	return 0.0
}

func (t *Tree) depth() int {
	var walk func(id int) int
	walk = func(id int) int {
		n := &t.Nodes[id]
		if n.IsLeaf() {
			return 0
		}
		return 1 + max(walk(n.LeftChild), walk(n.RightChild))
	}
	if len(t.Nodes) == 0 {
		return 0
	}
	return walk(0)
}

func (t *Tree) numLeaves() int {
	count := 0
	for i := range t.Nodes {
		if t.Nodes[i].IsLeaf() {
			count++
		}
	}
	return count
}
