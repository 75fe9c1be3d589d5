package cmd

import (
	"fmt"
	"io"

	"github.com/kilianp07/trackauction/app"
	"github.com/kilianp07/trackauction/pkg/export"
	"github.com/kilianp07/trackauction/pkg/render"
)

// Output formats.
const (
	formatText = "text"
	formatJSON = "json"
	formatCSV  = "csv"
)

// printOutcome writes o in format. companies is the expected number of
// bidding companies and only feeds the text summary.
func printOutcome(w io.Writer, r *render.Renderer, o *app.Outcome, format string, companies int) error {
	res := o.Result
	switch format {
	case formatJSON:
		return export.WriteJSON(w, export.NewSummary(o.ID, o.Strategy, o.Bids, res))
	case formatCSV:
		return export.WriteCSV(w, res.Allocation)
	case formatText:
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	for i, b := range o.Bids {
		status := "rejected"
		if res.IsAccepted(i) {
			status = "accepted"
		}
		fmt.Fprintf(w, "bid %s: company %s, amount %d, %s\n", b.Label(i), b.Company, b.Amount, status)
		if err := r.Bid(w, b); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	exact := "exact"
	if !res.Exact {
		exact = fmt.Sprintf("best found, bound %.1f", res.UpperBound)
	}
	fmt.Fprintf(w, "auction %s: total %d (%s)\n", o.ID, res.Total, exact)
	fmt.Fprintf(w, "winners: %d of %d companies\n", len(res.Allocation.Companies()), companies)
	return r.Allocation(w, res.Allocation)
}
