// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	ethtypes "github.com/luxfi/geth/core/types"
	"github.com/spf13/cobra"

	"github.com/parsdao/p2pswap/indexer"
	"github.com/parsdao/p2pswap/indexer/memory"
	"github.com/parsdao/p2pswap/indexer/postgres"
	"github.com/parsdao/p2pswap/swap"
)

var listScenarios bool

var simulateCmd = &cobra.Command{
	Use:   "simulate [scenario...]",
	Short: "Run swap scenarios on an in-memory host",
	Long: `Run swap scenarios on an in-memory host and print the engine's events.

Every scenario runs against the same host. Events are indexed into PostgreSQL
when postgres_dsn is configured, otherwise into memory.

Examples:
  swapctl simulate
  swapctl simulate --list
  swapctl simulate open-offer cancel`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().BoolVar(&listScenarios, "list", false, "List the available scenarios")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if listScenarios {
		for _, sc := range scenarios {
			fmt.Fprintf(out, "  %-12s %s\n", color.CyanString(sc.name), sc.description)
		}
		return nil
	}
	selected, err := lookupScenarios(args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	store, closeStore, err := openStore(ctx, out)
	if err != nil {
		return err
	}
	defer closeStore()

	w := newWorld(cfg.BlockTime, cfg.ExpiryWindow, logger)
	observer := indexer.NewObserver(store, w.client.Address(), logger)

	failed := 0
	for _, sc := range selected {
		fmt.Fprintf(out, "\n%s %s\n", color.New(color.Bold).Sprint(sc.name), sc.description)
		w.logs = nil
		runErr := sc.run(w)
		for _, l := range w.logs {
			fmt.Fprintf(out, "    %s\n", describeLog(l))
		}
		if err := observer.Observe(ctx, w.logs); err != nil {
			return fmt.Errorf("index %s: %w", sc.name, err)
		}
		if runErr != nil {
			failed++
			fmt.Fprintf(out, "  %s %v\n", color.RedString("✗"), runErr)
			continue
		}
		fmt.Fprintf(out, "  %s passed\n", color.GreenString("✓"))
	}

	open, err := store.Open(ctx, alice)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nOpen swaps involving alice: %d\n", len(open))
	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(selected))
	}
	return nil
}

func openStore(ctx context.Context, out io.Writer) (indexer.Store, func(), error) {
	if cfg.PostgresDSN == "" {
		return memory.NewStore(), func() {}, nil
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Writer = out
	s.Suffix = " Connecting to the indexer database..."
	s.Start()
	pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
	if err == nil {
		err = pool.Migrate(ctx)
		if err != nil {
			pool.Close()
		}
	}
	s.Stop()
	if err != nil {
		return nil, nil, err
	}
	logger.Info("indexing into postgres")
	return postgres.NewStore(pool), pool.Close, nil
}

func describeLog(l *ethtypes.Log) string {
	ev, err := swap.UnpackEvent(l)
	if err != nil {
		return color.RedString("undecodable log: %v", err)
	}
	switch ev := ev.(type) {
	case *swap.SwapInitiatedEvent:
		return fmt.Sprintf("%s id=%d initiator=%s acceptor=%s %s→%s",
			color.CyanString(swap.EventSwapInitiated), ev.SwapID, ev.Initiator.Hex(), acceptorLabel(&ev.Swap),
			ev.Swap.InitiatorAssetType, ev.Swap.AcceptorAssetType)
	case *swap.SwapRemovedEvent:
		return fmt.Sprintf("%s id=%d initiator=%s",
			color.YellowString(swap.EventSwapRemoved), ev.SwapID, ev.Initiator.Hex())
	case *swap.SwapCompleteEvent:
		return fmt.Sprintf("%s id=%d acceptor=%s",
			color.GreenString(swap.EventSwapComplete), ev.SwapID, ev.Acceptor.Hex())
	case *swap.ValuePortionTransferredEvent:
		return fmt.Sprintf("%s to=%s amount=%s",
			swap.EventValuePortionTransferred, ev.Recipient.Hex(), ev.Amount)
	default:
		return fmt.Sprintf("%T", ev)
	}
}
