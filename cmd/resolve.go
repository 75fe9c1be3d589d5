package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	bidsPath     string
	outputFormat string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve the bids listed in a file",
	Example: `  trackauction resolve -f bids.yaml
  trackauction resolve -f bids.yaml --format json --strategy deadline:2s`,
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVarP(&bidsPath, "file", "f", "", "bids file (yaml or json)")
	resolveCmd.Flags().StringVar(&outputFormat, "format", formatText, "output format: text, json or csv")
	_ = resolveCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, _ []string) error {
	switch outputFormat {
	case formatText, formatJSON, formatCSV:
	default:
		return fmt.Errorf("unknown format %q", outputFormat)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	bids, err := loadBids(bidsPath, cfg.Grid.Grid())
	if err != nil {
		return err
	}
	return runAuction(cmd.Context(), cmd.OutOrStdout(), cfg, bids, outputFormat)
}
