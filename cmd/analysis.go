package cmd

import (
	"fmt"
	"os"
	"spx-premium-scanner/presenters"
	"spx-premium-scanner/services"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <dte> [targetBid]",
	Short: "Summarise bids by level, or find the strike closest to a target bid",
	Args:  cobra.RangeArgs(1, 2),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		days, err := parseTradingDays(cmd, args[0])
		if err != nil {
			return err
		}

		if len(args) == 2 {
			target, err := strconv.ParseFloat(args[1], 64)
			if err != nil || !services.IsFinite(target) || target <= 0 {
				return usageError(cmd, fmt.Errorf("%w: target bid must be a positive number, got %q", services.ErrInvalidInput, args[1]))
			}
			return runScan(cmd, a, services.ScanOptions{TradingDays: &days, TargetBid: &target}, false)
		}

		snapshot, err := a.scans.FetchChain(cmd.Context(), "", days)
		if err != nil {
			return err
		}
		var levels []services.BidLevelSummary
		if snapshot.Expiration != nil {
			levels = services.SummarizeBidLevels(snapshot.Spot, snapshot.Quotes, services.BidLevels)
		}
		presenters.RenderBidLevels(os.Stdout, snapshot, levels)
		return nil
	}),
}

var levelsCmd = &cobra.Command{
	Use:   "levels [dte]",
	Short: "Show the best bid at fixed distances below spot",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		days := 0
		if len(args) == 1 {
			var err error
			if days, err = parseTradingDays(cmd, args[0]); err != nil {
				return err
			}
		}

		snapshot, err := a.scans.FetchChain(cmd.Context(), "", days)
		if err != nil {
			return err
		}
		var levels []services.KeyLevel
		if snapshot.Expiration != nil {
			levels = services.FindKeyLevels(snapshot.Spot, snapshot.Quotes, services.KeyLevelDistances)
		}
		presenters.RenderKeyLevels(os.Stdout, snapshot, levels)
		return nil
	}),
}

var quoteCmd = &cobra.Command{
	Use:   "quote <symbol>",
	Short: "Show a quote for a symbol",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		if a.quotes == nil {
			return fmt.Errorf("quotes are not available from the %s provider", a.cfg.DataProvider)
		}
		start := time.Now()
		quote, err := a.quotes.GetQuote(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		presenters.RenderQuote(os.Stdout, quote, time.Since(start))
		return nil
	}),
}

func parseTradingDays(cmd *cobra.Command, arg string) (int, error) {
	days, err := strconv.Atoi(arg)
	if err != nil || days < 0 {
		return 0, usageError(cmd, fmt.Errorf("%w: trading days must be a whole number >= 0, got %q", services.ErrInvalidQuery, arg))
	}
	return days, nil
}
