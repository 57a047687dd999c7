// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ippan-network/dlc-consensus/config"
	"github.com/ippan-network/dlc-consensus/engine"
	"github.com/ippan-network/dlc-consensus/fixedpoint"
	"github.com/ippan-network/dlc-consensus/gbdt"
	"github.com/ippan-network/dlc-consensus/storage"
	"github.com/ippan-network/dlc-consensus/types"
)

func benchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark single-process round throughput",
		Long: `Builds an in-memory engine with --validators bonded validators and a
flat D-GBDT model, then runs --rounds rounds back to back, reporting
rounds/second. This measures the round pipeline's own overhead, not
gossip or storage I/O latency.`,
		RunE: runBench,
	}
	cmd.Flags().String("network", "local", "Network preset: mainnet, testnet, or local")
	cmd.Flags().Int("validators", 21, "Number of bonded validators")
	cmd.Flags().Int("rounds", 1000, "Number of rounds to process")
	return cmd
}

func runBench(cmd *cobra.Command, _ []string) error {
	network, _ := cmd.Flags().GetString("network")
	numValidators, _ := cmd.Flags().GetInt("validators")
	numRounds, _ := cmd.Flags().GetInt("rounds")

	var params config.Parameters
	switch network {
	case "mainnet":
		params = config.Mainnet()
	case "testnet":
		params = config.Testnet()
	case "local":
		params = config.Local()
	default:
		return fmt.Errorf("dlcnode: unknown network preset %q", network)
	}

	modelPkg, err := benchModelPackage()
	if err != nil {
		return err
	}

	store := storage.NewMemory()
	logger := zap.NewNop()
	e, err := engine.New(params, store, modelPkg, nil, logger)
	if err != nil {
		return fmt.Errorf("dlcnode: construct engine: %w", err)
	}

	for i := 0; i < numValidators; i++ {
		id := validatorID(i)
		if err := e.AddValidatorBond(id, types.AmountFromIPN(1000)); err != nil {
			return fmt.Errorf("dlcnode: bond validator %d: %w", i, err)
		}
	}

	fmt.Printf("=== Round throughput benchmark ===\n")
	fmt.Printf("Network: %s\n", network)
	fmt.Printf("Validators: %d\n", numValidators)
	fmt.Printf("Rounds: %d\n", numRounds)

	ctx := context.Background()
	start := time.Now()
	for r := 1; r <= numRounds; r++ {
		if _, err := e.ProcessRound(ctx, types.RoundID(r)); err != nil {
			return fmt.Errorf("dlcnode: round %d failed: %w", r, err)
		}
	}
	elapsed := time.Since(start)

	fmt.Printf("\nElapsed: %s\n", elapsed)
	fmt.Printf("Rounds/sec: %.1f\n", float64(numRounds)/elapsed.Seconds())
	return nil
}

func validatorID(i int) types.ValidatorID {
	var id types.ValidatorID
	id[30] = byte(i >> 8)
	id[31] = byte(i)
	return id
}

// benchModelPackage builds a minimal, self-signed D-GBDT model package
// for benchmarking — a flat scorer (every candidate gets the same
// score), since the benchmark measures pipeline overhead, not scoring
// quality.
func benchModelPackage() (gbdt.ModelPackage, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return gbdt.ModelPackage{}, fmt.Errorf("dlcnode: generate benchmark signing key: %w", err)
	}
	model := gbdt.Model{
		Version:      1,
		FeatureCount: gbdt.FeatureCount,
		Bias:         0,
		Scale:        fixedpoint.Scale,
		LearningRate: fixedpoint.Scale,
		Trees: []gbdt.Tree{{Nodes: []gbdt.Node{
			{IsLeaf: true, Value: int64(fixedpoint.Scale)},
		}}},
	}
	hash, err := model.ComputeHash()
	if err != nil {
		return gbdt.ModelPackage{}, err
	}
	sig := ed25519.Sign(priv, hash[:])

	var pkg gbdt.ModelPackage
	pkg.Model = model
	pkg.HashSHA256 = hash
	copy(pkg.Signature[:], sig)
	copy(pkg.SignerPubKey[:], pub)
	return pkg, nil
}
