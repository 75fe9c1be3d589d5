package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/trackauction/app/plugins"
	"github.com/kilianp07/trackauction/core/auction/ledger"
)

var (
	historyCompany string
	historySince   time.Duration
	historyExact   bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded auctions from the ledger",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyCompany, "company", "", "only auctions won at least partly by this company")
	historyCmd.Flags().DurationVar(&historySince, "since", 0, "only auctions newer than this duration")
	historyCmd.Flags().BoolVar(&historyExact, "exact-only", false, "skip auctions resolved by an interrupted search")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := plugins.NewLedgerStore(cfg.Ledger)
	if err != nil {
		return err
	}
	defer store.Close()

	q := ledger.Query{Company: historyCompany, ExactOnly: historyExact}
	if historySince > 0 {
		q.Start = time.Now().Add(-historySince)
	}
	recs, err := store.Query(cmd.Context(), q)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, r := range recs {
		status := "exact"
		switch {
		case r.Error != "" && len(r.Accepted) == 0:
			status = "failed: " + r.Error
		case !r.Exact:
			status = "interrupted"
		}
		fmt.Fprintf(out, "%s %s total=%d bids=%d winners=%v %s\n",
			r.Timestamp.Format(time.RFC3339), r.ID, r.Total, r.Bids, r.Winners(), status)
	}
	return nil
}
