// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parsdao/p2pswap/registry"
	"github.com/parsdao/p2pswap/swap"
)

// Version is set at build time with -ldflags "-X ...commands.Version=...".
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the swapctl version and engine address",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "swapctl %s\n", Version)
		fmt.Fprintf(cmd.OutOrStdout(), "engine  %s (%s)\n", swap.ContractAddress.Hex(), swap.ConfigKey)
		if info, ok := registry.GetPrecompileInfo(registry.SwapEngine); ok {
			fmt.Fprintf(cmd.OutOrStdout(), "        %s: %s, %s\n", info.Name, info.Description, info.LPRange)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
