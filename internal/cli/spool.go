package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/strongdm/checkout-actions/pkg/analytics/sinks/batch"
	"github.com/strongdm/checkout-actions/pkg/analytics/sinks/sqlite"
)

func newSpoolCmd(a *app) *cobra.Command {
	spoolCmd := &cobra.Command{
		Use:   "spool",
		Short: "Inspect and deliver events persisted in the sqlite spool",
	}
	spoolCmd.AddCommand(newSpoolListCmd(a))
	spoolCmd.AddCommand(newSpoolReplayCmd(a))
	return spoolCmd
}

func (a *app) openSpool() (*sqlite.Spool, error) {
	if a.cfg.Analytics.Spool == "" {
		return nil, fmt.Errorf("no spool configured; set analytics.spool or CHECKOUT_ANALYTICS_SPOOL")
	}
	return sqlite.Open(a.cfg.Analytics.Spool, sqlite.WithLogger(a.logger))
}

func newSpoolListCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending spooled events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spool, err := a.openSpool()
			if err != nil {
				return err
			}
			defer spool.Close()

			records, err := spool.Pending(cmd.Context(), limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SEQ\tKIND\tATTEMPT\tTIME\tID")
			for _, r := range records {
				header := r.Event.EventHeader()
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", r.Seq, r.Kind, orDash(r.CheckoutAttemptID),
					time.Unix(header.Timestamp, 0).UTC().Format(time.RFC3339), header.ID)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of events to list")
	return cmd
}

func newSpoolReplayCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Deliver spooled events to the analytics endpoint",
		Long: `Deliver spooled events grouped by checkout attempt and delete each group
once it was accepted. Events recorded before an attempt id was known stay
in the spool.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spool, err := a.openSpool()
			if err != nil {
				return err
			}
			defer spool.Close()

			c, err := a.clients()
			if err != nil {
				return err
			}
			sink := batch.NewBatchSink(c.analytics, a.cfg.AnalyticsConfiguration(),
				batch.WithUnboundedBuffers(),
				batch.WithManualFlush(),
				batch.WithLogger(a.logger),
			)
			defer sink.Close()

			res, err := sqlite.Replay(cmd.Context(), spool, sink, limit)
			fmt.Fprintf(cmd.OutOrStdout(), "delivered=%d skipped=%d failed=%d\n", res.Delivered, res.Skipped, res.Failed)
			return err
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 500, "Maximum number of events to replay (0 for all)")
	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
