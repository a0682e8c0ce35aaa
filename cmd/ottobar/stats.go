package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/ottobar/internal/domain"
	"github.com/hammamikhairi/ottobar/internal/gateway"
	"github.com/hammamikhairi/ottobar/internal/logger"
	"github.com/hammamikhairi/ottobar/internal/stats"
)

func newStatsCommand(root *rootOptions) *cobra.Command {
	opts := &peerOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show order statistics of a running appliance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, ctx, cancel, err := opts.dial(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			defer client.Close()

			rawStats, err := client.Request(ctx, gateway.ResourceStats)
			if err != nil {
				return err
			}
			s, err := gateway.DecodeStats(rawStats)
			if err != nil {
				return err
			}
			rawMenu, err := client.Request(ctx, gateway.ResourceMenu)
			if err != nil {
				return err
			}
			catalog, _, err := gateway.DecodeMenu(rawMenu)
			if err != nil {
				return err
			}
			return printStats(cmd.OutOrStdout(), s, catalog)
		},
	}
	opts.bind(cmd)
	return cmd
}

// printStats writes the counters and the popularity ranking as a table.
func printStats(w io.Writer, s domain.Stats, catalog domain.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "completed\t%d\n", s.OrdersCompleted)
	fmt.Fprintf(tw, "cancelled\t%d\n", s.OrdersCancelled)
	fmt.Fprintf(tw, "timed out\t%d\n", s.OrdersTimedOut)
	fmt.Fprintf(tw, "preset\t%d\n", s.PresetOrders)
	fmt.Fprintf(tw, "custom\t%d\n", s.CustomOrders)
	fmt.Fprintf(tw, "random\t%d\n", s.RandomOrders)
	fmt.Fprintln(tw)

	ranked := 0
	for _, r := range stats.NewTracker(s, nil, logger.Nop()).Top(domain.TopN, catalog) {
		if r.Count == 0 {
			break
		}
		ranked++
		fmt.Fprintf(tw, "%d.\t%s\t%d\n", ranked, r.Name, r.Count)
	}
	if ranked == 0 {
		fmt.Fprintln(tw, "no preset orders yet")
	}
	return tw.Flush()
}
