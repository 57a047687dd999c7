// Package gbdt implements the Deterministic GBDT validator scorer
// (C6): canonical-JSON model loading with integrity and signature
// verification, fixed-point tree-walk prediction, primary/shadow
// verifier selection, and the reward-weighting math selection feeds
// into C8's emission and distribution step.
package gbdt

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ippan-network/dlc-consensus/fixedpoint"
)

// Model-level errors, surfaced as the spec's ModelIntegrity kind —
// fatal at startup, never during a running round.
var (
	ErrEmptyTrees        = errors.New("gbdt: model has no trees")
	ErrNoFeatures         = errors.New("gbdt: model declares zero features")
	ErrEmptyTree         = errors.New("gbdt: a tree has no nodes")
	ErrInvalidChild      = errors.New("gbdt: node references an out-of-range child")
	ErrInvalidFeature    = errors.New("gbdt: node references an out-of-range feature index")
	ErrLeafHasChildren   = errors.New("gbdt: leaf node declares non-zero children")
	ErrChecksumMismatch  = errors.New("gbdt: model checksum does not match package")
	ErrSignatureInvalid  = errors.New("gbdt: model package signature does not verify")
)

// Node is a single decision-tree node: an internal split on
// Feature ≤ Threshold, or — when IsLeaf is true — a fixed-point leaf
// value. Comparisons are always integer; no float ever enters the
// tree walk.
type Node struct {
	FeatureIndex int   `json:"feature_index"`
	Threshold    int64 `json:"threshold"`
	Left         uint32 `json:"left"`
	Right        uint32 `json:"right"`
	IsLeaf       bool  `json:"is_leaf"`
	Value        int64 `json:"value"`
}

// Tree is one member of the boosted ensemble.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Model is a complete D-GBDT ensemble. LearningRate and Scale are
// fixed-point values (raw int64 at fixedpoint.Scale precision);
// Bias is added to the summed, learning-rate-scaled leaf output
// before the final [0, Scale] clamp.
type Model struct {
	Version      uint32            `json:"version"`
	FeatureCount int               `json:"feature_count"`
	Bias         int64             `json:"bias"`
	Scale        int64             `json:"scale"`
	LearningRate int64             `json:"learning_rate"`
	Trees        []Tree            `json:"trees"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// ModelPackage bundles a Model with the integrity checksum and
// signature the reference implementation ships alongside it. The
// checksum is deliberately SHA-256, not BLAKE3, matching the original
// ai_core model package format bit-for-bit (see DESIGN.md's hash
// Open Question resolution).
type ModelPackage struct {
	Model        Model
	HashSHA256   [32]byte
	Signature    [64]byte
	SignerPubKey [32]byte
	CreatedAt    uint64
}

// ComputeHash returns the SHA-256 digest of the model's canonical JSON
// encoding. Go's encoding/json marshals struct fields in declaration
// order and map[string]string keys in sorted order, so this is
// reproducible across hosts without a separate canonicalization pass.
func (m Model) ComputeHash() ([32]byte, error) {
	encoded, err := json.Marshal(m)
	if err != nil {
		return [32]byte{}, fmt.Errorf("gbdt: marshal model: %w", err)
	}
	return sha256.Sum256(encoded), nil
}

// Validate checks the model's structural invariants: non-empty tree
// set, every tree non-empty, every internal node's children and
// feature index in range, and leaf nodes carrying no children.
func (m Model) Validate() error {
	if len(m.Trees) == 0 {
		return ErrEmptyTrees
	}
	if m.FeatureCount == 0 {
		return ErrNoFeatures
	}
	for _, tree := range m.Trees {
		if len(tree.Nodes) == 0 {
			return ErrEmptyTree
		}
		for _, node := range tree.Nodes {
			if node.IsLeaf {
				if node.Left != 0 || node.Right != 0 {
					return ErrLeafHasChildren
				}
				continue
			}
			if int(node.Left) >= len(tree.Nodes) || int(node.Right) >= len(tree.Nodes) {
				return ErrInvalidChild
			}
			if node.FeatureIndex >= m.FeatureCount {
				return ErrInvalidFeature
			}
		}
	}
	return nil
}

// VerifyIntegrity recomputes the model's checksum and compares it
// against the package's recorded HashSHA256, then verifies the
// Ed25519 signature over that checksum. Both checks must pass for a
// package to be accepted; a mismatch at either step is the
// ModelIntegrity error kind and must be treated as fatal at startup.
func (p ModelPackage) VerifyIntegrity() error {
	computed, err := p.Model.ComputeHash()
	if err != nil {
		return err
	}
	if !bytes.Equal(computed[:], p.HashSHA256[:]) {
		return ErrChecksumMismatch
	}
	if !ed25519.Verify(ed25519.PublicKey(p.SignerPubKey[:]), p.HashSHA256[:], p.Signature[:]) {
		return ErrSignatureInvalid
	}
	return p.Model.Validate()
}

// learningRate returns the model's learning rate as a fixed-point
// Value, defaulting to 1.0 (Scale) when unset so legacy models
// without the field behave as a plain sum-of-leaves ensemble.
func (m Model) learningRate() fixedpoint.Value {
	if m.LearningRate == 0 {
		return fixedpoint.Value(fixedpoint.Scale)
	}
	return fixedpoint.Value(m.LearningRate)
}
