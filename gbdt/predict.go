package gbdt

import "github.com/ippan-network/dlc-consensus/fixedpoint"

// maxTreeDepth bounds the tree walk so a malformed or adversarial
// model (e.g. a cycle slipped past Validate) cannot hang scoring.
const maxTreeDepth = 64

// Predict walks every tree in the model against features, sums the
// leaf values in fixed-point, scales by the model's learning rate,
// adds bias, and clamps the result to [0, Scale]. The walk uses only
// integer comparisons (feature ≤ threshold) so the result is bitwise
// identical across hosts for a fixed model and feature vector.
func Predict(m Model, features FeatureVector) fixedpoint.Value {
	var sum int64
	for _, tree := range m.Trees {
		sum += walkTree(tree, features)
	}

	scaled := fixedpoint.Value(sum).Mul(m.learningRate())
	withBias := scaled.Add(fixedpoint.Value(m.Bias))
	return withBias.Clamp(0, fixedpoint.Value(fixedpoint.Scale))
}

// walkTree descends from the root (node 0) following
// feature ≤ threshold to the left child, else the right, until it
// reaches a leaf.
func walkTree(tree Tree, features FeatureVector) int64 {
	if len(tree.Nodes) == 0 {
		return 0
	}
	idx := uint32(0)
	for depth := 0; depth < maxTreeDepth; depth++ {
		node := tree.Nodes[idx]
		if node.IsLeaf {
			return node.Value
		}
		var feature int64
		if node.FeatureIndex >= 0 && node.FeatureIndex < FeatureCount {
			feature = features[node.FeatureIndex]
		}
		if feature <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
		if int(idx) >= len(tree.Nodes) {
			return 0
		}
	}
	return 0
}
