// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ippan-network/dlc-consensus/config"
	"github.com/ippan-network/dlc-consensus/engine"
	"github.com/ippan-network/dlc-consensus/gbdt"
	"github.com/ippan-network/dlc-consensus/storage"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a node, advancing rounds on a ticker",
		Long: `Opens (or creates) a Pebble store at --data-dir, loads and verifies the
D-GBDT model package at --model, and drives round.Executor.ProcessRound
on a ticker paced by temporal_finality_ms until interrupted.`,
		RunE: runNode,
	}
	cmd.Flags().String("network", "local", "Network preset: mainnet, testnet, or local")
	cmd.Flags().String("data-dir", "./dlcnode-data", "Pebble data directory")
	cmd.Flags().String("model", "", "Path to a signed D-GBDT model package (JSON)")
	return cmd
}

func runNode(cmd *cobra.Command, _ []string) error {
	network, _ := cmd.Flags().GetString("network")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	modelPath, _ := cmd.Flags().GetString("model")

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
	if err := params.Validate(); err != nil {
		return fmt.Errorf("dlcnode: invalid parameters: %w", err)
	}
	if modelPath == "" {
		return fmt.Errorf("dlcnode: --model is required")
	}
	modelPkg, err := gbdt.LoadModelPackage(modelPath)
	if err != nil {
		return err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("dlcnode: construct logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	store, err := storage.OpenPebble(dataDir)
	if err != nil {
		return fmt.Errorf("dlcnode: open store: %w", err)
	}
	defer func() { _ = store.Close() }()

	e, err := engine.New(params, store, modelPkg, nil, logger)
	if err != nil {
		return fmt.Errorf("dlcnode: construct engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(params.RoundInterval())
	defer ticker.Stop()

	logger.Info("dlcnode started", zap.String("network", network), zap.String("data_dir", dataDir))

	for {
		select {
		case <-ctx.Done():
			logger.Info("dlcnode stopping")
			return store.Flush()
		case <-ticker.C:
			state, err := e.GetState()
			if err != nil {
				logger.Warn("failed to read chain state", zap.Error(err))
				continue
			}
			round := state.Round
			result, err := e.ProcessRound(ctx, round)
			if err != nil {
				logger.Warn("round processing failed", zap.Uint64("round", uint64(round)), zap.Error(err))
				continue
			}
			logger.Info("round processed",
				zap.Uint64("round", uint64(result.Round)),
				zap.Int("participants", result.TotalParticipants),
				zap.String("emission_atomic", result.EmissionAtomic.String()),
			)
			if err := store.Flush(); err != nil {
				logger.Warn("flush failed", zap.Error(err))
			}
		}
	}
}
