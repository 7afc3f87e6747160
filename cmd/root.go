// Package cmd wires configuration, market data and storage into the
// command line and HTTP entry points.
package cmd

import (
	"fmt"
	"spx-premium-scanner/config"
	"spx-premium-scanner/database"
	"spx-premium-scanner/interfaces"
	"spx-premium-scanner/services"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "spx-scanner",
	Short: "Scans SPX put chains for premium-selling candidates",
	Long: `Scans the put chain of the expiration a given number of trading days out
and ranks strikes by bid, subject to premium and distance-from-spot bounds.

Queries take either form:
  spx-scanner query "tradingdays=1 AND minbid>=2 AND distance BETWEEN 300 AND 450"
  spx-scanner query "td1 minbid2 distance300"`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("provider", "", "Market data provider: yahoo, alpaca or csv (overrides DATA_PROVIDER)")
	rootCmd.PersistentFlags().String("symbol", "", "Underlying symbol (overrides UNDERLYING)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (overrides LOG_LEVEL)")

	rootCmd.AddCommand(scanCmd, queryCmd, filterCmd, analyzeCmd, levelsCmd, ordersCmd, quoteCmd, serveCmd)
}

// app holds the wired dependencies for one command invocation
type app struct {
	cfg      *config.Config
	calendar *services.NYSECalendar
	quotes   interfaces.QuoteService
	storage  *database.LocalStorage
	journal  *services.ScanJournal
	scans    *services.ScanService
	orders   *services.OrderLog
	loggers  []*logrus.Logger
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := applyFlagOverrides(cmd, cfg); err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		calendar: services.NewNYSECalendar(cfg.ExtraHolidays),
	}

	var data interfaces.MarketDataService
	switch cfg.DataProvider {
	case "alpaca":
		if cfg.AlpacaAPIKey == "" || cfg.AlpacaSecretKey == "" {
			return nil, fmt.Errorf("ALPACA_API_KEY and ALPACA_SECRET_KEY are required for the alpaca provider")
		}
		alpaca := services.NewAlpacaMarketDataService(cfg.AlpacaAPIKey, cfg.AlpacaSecretKey)
		if services.IsIndexSymbol(cfg.Underlying) {
			yahoo := services.NewYahooMarketDataService(cfg.YahooBaseURL)
			alpaca.WithSpotSource(yahoo)
			a.loggers = append(a.loggers, yahoo.Logger())
			a.quotes = yahoo
		}
		a.loggers = append(a.loggers, alpaca.Logger())
		data = alpaca
	case "csv":
		if cfg.ChainCSV == "" {
			return nil, fmt.Errorf("CHAIN_CSV is required for the csv provider")
		}
		data = services.NewCSVMarketDataService(cfg.ChainCSV, cfg.CSVSpot)
	default:
		yahoo := services.NewYahooMarketDataService(cfg.YahooBaseURL)
		a.loggers = append(a.loggers, yahoo.Logger())
		a.quotes = yahoo
		data = yahoo
	}

	a.storage, err = database.NewLocalStorage(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	a.journal = services.NewScanJournal(cfg.JournalDir)
	a.scans = services.NewScanService(data, a.calendar, a.storage, a.journal, services.ScanSettings{
		Symbol:      cfg.Underlying,
		Location:    cfg.MarketTimezone,
		Defaults:    cfg.QueryDefaults(),
		ContextSize: cfg.ContextSize,
	})
	a.orders = services.NewOrderLog(a.storage)

	a.loggers = append(a.loggers, a.storage.Logger(), a.journal.Logger(), a.scans.Logger(), a.orders.Logger())
	a.setLogLevel(a.loggers...)
	return a, nil
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if provider, _ := flags.GetString("provider"); provider != "" {
		provider = strings.ToLower(provider)
		switch provider {
		case "yahoo", "alpaca", "csv":
			cfg.DataProvider = provider
		default:
			return fmt.Errorf("invalid provider %q: expected yahoo, alpaca or csv", provider)
		}
	}
	if symbol, _ := flags.GetString("symbol"); symbol != "" {
		cfg.Underlying = symbol
	}
	if level, _ := flags.GetString("log-level"); level != "" {
		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		cfg.LogLevel = parsed
	}
	return nil
}

func (a *app) setLogLevel(loggers ...*logrus.Logger) {
	for _, l := range loggers {
		l.SetLevel(a.cfg.LogLevel)
	}
}

func (a *app) Close() {
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			a.storage.Logger().WithError(err).Warn("Failed to close storage")
		}
	}
}

// withApp builds the dependencies before running fn. Usage is only
// printed for argument errors cobra detects itself.
func withApp(fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, a, args)
	}
}

// usageError prints the command usage and returns err
func usageError(cmd *cobra.Command, err error) error {
	cmd.PrintErrln(cmd.UsageString())
	return err
}
