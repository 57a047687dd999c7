// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command dlcnode is the operator-facing entry point for the DLC
// consensus core: running a node, checking a parameter file, and
// benchmarking round throughput. It is a thin wrapper around the
// engine package, not an RPC/wallet surface.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dlcnode",
	Short: "IPPAN Deterministic Learning Consensus node",
	Long: `dlcnode drives the Deterministic Learning Consensus core: running a
node against a gossip transport and storage backend, validating a
parameter file against the protocol's invariants, and benchmarking
round throughput on a single process.`,
}

func main() {
	rootCmd.AddCommand(runCmd(), checkCmd(), benchCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
