package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/trackauction/core/timetable"
	"github.com/kilianp07/trackauction/pkg/render"
)

var (
	bidReq   timetable.Request
	bidStops []string
)

var bidCmd = &cobra.Command{
	Use:     "bid",
	Short:   "Build one bid from a movement and print its cells",
	Example: `  trackauction bid --company 1 --start-time 10 --end-location 6 --stop 3:5`,
	RunE:    runBid,
}

func init() {
	f := bidCmd.Flags()
	f.StringVar(&bidReq.Company, "company", "0", "bidding company")
	f.IntVar(&bidReq.StartTime, "start-time", 0, "first time slot")
	f.IntVar(&bidReq.StartLocation, "start-location", 0, "first location")
	f.IntVar(&bidReq.EndLocation, "end-location", 0, "final location")
	f.StringArrayVar(&bidStops, "stop", nil, "stop as location:wait, repeatable, served in order")
	f.IntVar(&bidReq.Speed, "speed", 1, "locations advanced per time slot")
	f.IntVar(&bidReq.Size, "size", 1, "locations occupied by the train")
	f.Int64Var(&bidReq.Amount, "amount", 1, "amount offered")
	rootCmd.AddCommand(bidCmd)
}

// parseStops reads location:wait pairs.
func parseStops(raw []string) ([]timetable.Stop, error) {
	stops := make([]timetable.Stop, 0, len(raw))
	for _, s := range raw {
		loc, wait, ok := strings.Cut(s, ":")
		if !ok {
			return nil, fmt.Errorf("stop %q: want location:wait", s)
		}
		l, err := strconv.Atoi(strings.TrimSpace(loc))
		if err != nil {
			return nil, fmt.Errorf("stop %q: location: %w", s, err)
		}
		w, err := strconv.Atoi(strings.TrimSpace(wait))
		if err != nil {
			return nil, fmt.Errorf("stop %q: wait: %w", s, err)
		}
		stops = append(stops, timetable.Stop{Location: l, Wait: w})
	}
	return stops, nil
}

func runBid(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	stops, err := parseStops(bidStops)
	if err != nil {
		return err
	}
	req := bidReq
	req.Stops = stops

	builder, err := timetable.NewBuilder(cfg.Grid.Grid())
	if err != nil {
		return err
	}
	bid, err := builder.Build(req)
	if err != nil {
		return err
	}
	r, err := render.New(cfg.Grid.Grid(), render.Options{TimeDisplay: cfg.Grid.TimeDisplay})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "company %s, amount %d, %d cells\n", bid.Company, bid.Amount, len(bid.Cells))
	return r.Bid(out, bid)
}
