package cmd

import (
	"fmt"
	"os"
	"spx-premium-scanner/presenters"
	"spx-premium-scanner/services"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var scanCmd = &cobra.Command{
	Use:   "scan [today|tomorrow]",
	Short: "Scan the chain with a preset or explicit bounds",
	Long: `Scan with a named preset (today: 0DTE, tomorrow: 1DTE) or with explicit
bounds. Without a preset --trading-days is required. --target-bid switches to
finding the strike closest to a given bid.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: services.PresetNames(),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		opts := services.ScanOptions{}
		if len(args) == 1 {
			opts.Preset = args[0]
		}
		if err := readBoundFlags(cmd.Flags(), &opts); err != nil {
			return err
		}
		if opts.Preset == "" && opts.TradingDays == nil {
			return usageError(cmd, fmt.Errorf("a preset or --trading-days is required"))
		}
		record, _ := cmd.Flags().GetBool("record")
		return runScan(cmd, a, opts, record)
	}),
}

var queryCmd = &cobra.Command{
	Use:   "query <query>",
	Short: "Scan with a query string",
	Example: `  spx-scanner query "tradingdays=1 AND minbid>=2 AND distance BETWEEN 300 AND 450"
  spx-scanner query td1 minbid2 distance300`,
	Args: cobra.MinimumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		record, _ := cmd.Flags().GetBool("record")
		return runScan(cmd, a, services.ScanOptions{Query: strings.Join(args, " ")}, record)
	}),
}

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Scan with a boolean filter expression",
	Example: `  spx-scanner filter --trading-days 1 --filter "bid >= 2 AND distance_from_spx >= 300"
  spx-scanner filter --trading-days 0 --filter "(bid > 1 OR volume > 500) AND awayFromStrike BETWEEN 100 AND 250"`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		expr, _ := cmd.Flags().GetString("filter")
		if strings.TrimSpace(expr) == "" {
			return usageError(cmd, fmt.Errorf("--filter is required (fields: %s)", strings.Join(services.FilterFieldNames(), ", ")))
		}
		if !cmd.Flags().Changed("trading-days") {
			return usageError(cmd, services.ErrMissingTradingDays)
		}
		days, _ := cmd.Flags().GetInt("trading-days")
		record, _ := cmd.Flags().GetBool("record")
		return runScan(cmd, a, services.ScanOptions{Filter: expr, TradingDays: &days}, record)
	}),
}

func init() {
	f := scanCmd.Flags()
	f.Int("trading-days", 0, "Trading days until expiration (0 = today)")
	f.Float64("min-premium", 0, "Minimum bid")
	f.Float64("max-premium", 0, "Maximum bid")
	f.Float64("min-distance", 0, "Minimum distance below spot")
	f.Float64("max-distance", 0, "Maximum distance below spot")
	f.Float64("target-bid", 0, "Find the strike whose bid is closest to this value")
	f.Int("context", services.DefaultContextSize, "Strikes shown either side of the anchor")
	f.Bool("record", false, "Record the recommended strike as a PENDING order")

	queryCmd.Flags().Int("context", services.DefaultContextSize, "Strikes shown either side of the anchor")
	queryCmd.Flags().Bool("record", false, "Record the recommended strike as a PENDING order")

	filterCmd.Flags().String("filter", "", "Filter expression")
	filterCmd.Flags().Int("trading-days", 0, "Trading days until expiration (0 = today)")
	filterCmd.Flags().Int("context", services.DefaultContextSize, "Strikes shown either side of the anchor")
	filterCmd.Flags().Bool("record", false, "Record the recommended strike as a PENDING order")
}

// readBoundFlags copies only the flags the user set, so presets keep their own values
func readBoundFlags(flags *pflag.FlagSet, opts *services.ScanOptions) error {
	if flags.Changed("trading-days") {
		v, err := flags.GetInt("trading-days")
		if err != nil {
			return err
		}
		opts.TradingDays = &v
	}

	floats := []struct {
		name string
		dst  **float64
	}{
		{"min-premium", &opts.MinPremium},
		{"max-premium", &opts.MaxPremium},
		{"min-distance", &opts.MinDistance},
		{"max-distance", &opts.MaxDistance},
		{"target-bid", &opts.TargetBid},
	}
	for _, f := range floats {
		if !flags.Changed(f.name) {
			continue
		}
		v, err := flags.GetFloat64(f.name)
		if err != nil {
			return err
		}
		*f.dst = &v
	}
	return nil
}

func runScan(cmd *cobra.Command, a *app, opts services.ScanOptions, record bool) error {
	if cmd.Flags().Changed("context") {
		size, _ := cmd.Flags().GetInt("context")
		opts.ContextSize = &size
	}

	req, err := a.scans.BuildRequest(opts)
	if err != nil {
		if services.IsInputError(err) {
			return usageError(cmd, err)
		}
		return err
	}

	report, err := a.scans.Run(cmd.Context(), req)
	if err != nil {
		return err
	}
	presenters.RenderScanReport(os.Stdout, report)

	if !record || report.Recommendation != services.RecommendTrade {
		return nil
	}
	ticket, err := services.TicketFromReport(report)
	if err != nil {
		return err
	}
	order, err := a.orders.Record(ticket, report.Label)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout)
	presenters.RenderOrder(os.Stdout, order)
	return nil
}
