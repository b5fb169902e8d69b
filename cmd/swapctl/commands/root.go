// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package commands is the swapctl command tree.
package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/luxfi/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/parsdao/p2pswap/cmd/swapctl/config"
	"github.com/parsdao/p2pswap/swap"
)

var (
	v      = viper.New()
	cfg    *config.Config
	logger log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "swapctl",
	Short: "Inspect and exercise the peer-to-peer swap engine",
	Long: `swapctl works with the escrow-free swap engine precompile.

Examples:
  swapctl fingerprint terms.yaml
  swapctl simulate
  swapctl simulate nft-for-nft reentrancy --log-level debug`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		if cfg, err = config.Load(v); err != nil {
			return err
		}
		if logger, err = swap.NewLogger(cfg.LogLevel); err != nil {
			return err
		}
		if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
			color.NoColor = true
		}
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	if err := v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		panic(fmt.Sprintf("bind log-level flag: %v", err))
	}
}
