package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/trackauction/app"
	"github.com/kilianp07/trackauction/config"
	"github.com/kilianp07/trackauction/core/model"
	"github.com/kilianp07/trackauction/core/timetable"
	"github.com/kilianp07/trackauction/infra/logger"
	"github.com/kilianp07/trackauction/pkg/render"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Build the sample bids, resolve them and print the allocation",
	RunE:  runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

// sampleRequests are two movements of company 0 around the track.
func sampleRequests() []timetable.Request {
	return []timetable.Request{
		{
			Company:       "0",
			StartTime:     0,
			StartLocation: 0,
			EndLocation:   0,
			Stops:         []timetable.Stop{{Location: 0, Wait: 32}, {Location: 4, Wait: 32}, {Location: 8, Wait: 32}, {Location: 0, Wait: 32}},
			Speed:         1,
			Size:          2,
			Amount:        1024,
		},
		{
			Company:       "0",
			StartTime:     64,
			StartLocation: 0,
			EndLocation:   8,
			Stops:         []timetable.Stop{{Location: 0, Wait: 32}, {Location: 4, Wait: 32}, {Location: 8, Wait: 32}},
			Speed:         1,
			Size:          3,
			Amount:        2048,
		},
	}
}

func runDemo(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	builder, err := timetable.NewBuilder(cfg.Grid.Grid())
	if err != nil {
		return err
	}
	var bids []model.Bid
	for _, req := range sampleRequests() {
		bid, err := builder.Build(req)
		if err != nil {
			return fmt.Errorf("build sample bid: %w", err)
		}
		bids = append(bids, bid)
	}
	return runAuction(cmd.Context(), cmd.OutOrStdout(), cfg, bids, formatText)
}

// runAuction resolves bids through the service and prints the outcome.
func runAuction(ctx context.Context, out io.Writer, cfg *config.Config, bids []model.Bid, format string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	done := svc.Start(ctx)

	outcome, err := svc.Auction(ctx, bids)
	if err != nil {
		return err
	}
	r, err := render.New(cfg.Grid.Grid(), render.Options{TimeDisplay: cfg.Grid.TimeDisplay, Legend: true})
	if err != nil {
		return err
	}
	if err := printOutcome(out, r, outcome, format, cfg.Grid.Companies); err != nil {
		return err
	}
	if cfg.Metrics.PrometheusAddr != "" {
		fmt.Fprintf(statusWriter(out), "serving metrics on %s, interrupt to exit\n", cfg.Metrics.PrometheusAddr)
		<-ctx.Done()
		<-done
	}
	return nil
}

// statusWriter sends status lines to stderr when out is stdout so that
// machine readable formats stay clean.
func statusWriter(out io.Writer) io.Writer {
	if out == os.Stdout {
		return os.Stderr
	}
	return out
}
