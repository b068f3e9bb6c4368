package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/hughsie/zif/config"
	"github.com/hughsie/zif/history"
)

// newHistoryCommand exposes the append-only transaction record
// (history.Store, spec.md §4.6) as "zif history list" and "zif history
// info <id>", mirroring yum's own history subcommand.
func newHistoryCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "inspect the committed transaction history",
	}
	cmd.AddCommand(newHistoryListCommand(opts), newHistoryInfoCommand(opts))
	return cmd
}

func openHistory(ctx context.Context, opts *RootOptions) (*config.Options, *history.Store, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	hist, err := history.Open(ctx, cfg.HistoryDB)
	if err != nil {
		return nil, nil, fmt.Errorf("opening history database: %w", err)
	}
	return cfg, hist, nil
}

func newHistoryListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list every recorded transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			_, hist, err := openHistory(ctx, opts)
			if err != nil {
				return err
			}
			defer hist.Close()

			tsList, err := hist.ListTransactions(ctx)
			if err != nil {
				return err
			}
			for _, ts := range tsList {
				entries, err := hist.GetPackages(ctx, ts)
				if err != nil {
					return err
				}
				when := time.Unix(ts, 0).Format(time.RFC3339)
				fmt.Fprintf(cmd.OutOrStdout(), "%d | %s | %d package(s)\n", ts, when, len(entries))
			}
			return nil
		},
	}
}

func newHistoryInfoCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info <transaction-id>",
		Short: "show the packages touched by one recorded transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid transaction timestamp %q: %w", args[0], err)
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			_, hist, err := openHistory(ctx, opts)
			if err != nil {
				return err
			}
			defer hist.Close()

			entries, err := hist.GetPackages(ctx, ts)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%-40s %-10s %-8s %-20s %s\n",
					e.Name+"-"+e.Version+"."+e.Arch, e.Reason, e.FromRepo, e.InstalledBy, e.CommandLine)
			}
			return nil
		},
	}
}
