// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ippan-network/dlc-consensus/config"
)

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a parameter set against the protocol's invariants",
		Long: `Loads a network preset (or a YAML file via --file) and reports whether
it satisfies every bound spec.md §6 names: temporal finality window,
shadow verifier count, reputation threshold, halving interval, supply
cap, and fee-cap ratio.`,
		RunE: runChecker,
	}
	cmd.Flags().String("network", "mainnet", "Network preset: mainnet, testnet, or local")
	cmd.Flags().String("file", "", "Path to a YAML parameter file (overrides --network)")
	return cmd
}

func runChecker(cmd *cobra.Command, _ []string) error {
	network, _ := cmd.Flags().GetString("network")
	file, _ := cmd.Flags().GetString("file")

	var (
		params config.Parameters
		err    error
	)
	switch {
	case file != "":
		params, err = config.Load(file)
		if err != nil {
			return fmt.Errorf("dlcnode: load %s: %w", file, err)
		}
	default:
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
	}

	fmt.Printf("=== Parameter check: %s ===\n", describe(file, network))
	fmt.Printf("  temporal_finality_ms:     %d\n", params.TemporalFinalityMs)
	fmt.Printf("  shadow_verifier_count:    %d\n", params.ShadowVerifierCount)
	fmt.Printf("  min_reputation_score:     %d\n", params.MinReputationScoreMicro)
	fmt.Printf("  require_validator_bond:   %v\n", params.RequireValidatorBond)
	fmt.Printf("  initial_round_reward:     %d\n", params.InitialRoundRewardMicro)
	fmt.Printf("  halving_interval_rounds:  %d\n", params.HalvingIntervalRounds)
	fmt.Printf("  max_supply:               %d\n", params.MaxSupplyMicro)
	fmt.Printf("  fee_cap:                  %d/%d\n", params.FeeCapNum, params.FeeCapDen)
	fmt.Printf("  proposer_weight_bps:      %d\n", params.ProposerWeightBps)
	fmt.Printf("  verifier_weight_bps:      %d\n", params.VerifierWeightBps)

	if err := params.Validate(); err != nil {
		fmt.Printf("\nINVALID: %v\n", err)
		return err
	}
	fmt.Println("\nvalid")
	return nil
}

func describe(file, network string) string {
	if file != "" {
		return file
	}
	return network
}
