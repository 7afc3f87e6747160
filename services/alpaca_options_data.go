package services

import (
	"context"
	"fmt"
	"sort"
	"spx-premium-scanner/interfaces"
	"strconv"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/sirupsen/logrus"
)

// alpacaDataClient is the subset of the Alpaca market data client used here
type alpacaDataClient interface {
	GetOptionChain(underlyingSymbol string, req marketdata.GetOptionChainRequest) (map[string]marketdata.OptionSnapshot, error)
	GetLatestTrade(symbol string, req marketdata.GetLatestTradeRequest) (*marketdata.Trade, error)
}

// AlpacaMarketDataService serves option chains from Alpaca's options snapshots.
// Alpaca lists equity and ETF options, so the underlying is e.g. SPY rather than ^SPX.
// Snapshots carry no volume or open interest; those fields stay 0.
type AlpacaMarketDataService struct {
	client alpacaDataClient
	spot   interfaces.SpotSource
	logger *logrus.Logger
}

// NewAlpacaMarketDataService creates a new Alpaca options data service
func NewAlpacaMarketDataService(apiKey, secretKey string) *AlpacaMarketDataService {
	client := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: secretKey,
	})
	return newAlpacaMarketDataService(client)
}

func newAlpacaMarketDataService(client alpacaDataClient) *AlpacaMarketDataService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return &AlpacaMarketDataService{
		client: client,
		logger: logger,
	}
}

// WithSpotSource takes spot prices from src instead of Alpaca's latest trade.
// Alpaca has no index trades, so index underlyings need another source.
func (s *AlpacaMarketDataService) WithSpotSource(src interfaces.SpotSource) *AlpacaMarketDataService {
	s.spot = src
	return s
}

// Logger exposes the service logger so callers can adjust its level
func (s *AlpacaMarketDataService) Logger() *logrus.Logger {
	return s.logger
}

// OCCSymbol is a decoded OCC option symbol, e.g. SPY251020P00570000
type OCCSymbol struct {
	Root       string
	Expiration time.Time
	Put        bool
	Strike     float64
}

// ParseOCCSymbol decodes root, expiry, type and strike from an OCC symbol
func ParseOCCSymbol(symbol string) (OCCSymbol, error) {
	// root + YYMMDD + C/P + strike*1000 as 8 digits
	if len(symbol) < 16 {
		return OCCSymbol{}, fmt.Errorf("invalid OCC symbol %q", symbol)
	}
	tail := symbol[len(symbol)-15:]

	expiration, err := time.Parse("060102", tail[:6])
	if err != nil {
		return OCCSymbol{}, fmt.Errorf("invalid OCC expiration in %q: %w", symbol, err)
	}

	var put bool
	switch tail[6] {
	case 'P':
		put = true
	case 'C':
	default:
		return OCCSymbol{}, fmt.Errorf("invalid OCC option type in %q", symbol)
	}

	strike, err := strconv.ParseInt(tail[7:], 10, 64)
	if err != nil {
		return OCCSymbol{}, fmt.Errorf("invalid OCC strike in %q: %w", symbol, err)
	}

	return OCCSymbol{
		Root:       symbol[:len(symbol)-15],
		Expiration: expiration,
		Put:        put,
		Strike:     float64(strike) / 1000,
	}, nil
}

// GetSpotPrice gets the spot from the injected source, or else the latest
// trade price of the underlying
func (s *AlpacaMarketDataService) GetSpotPrice(ctx context.Context, symbol string) (float64, error) {
	if s.spot != nil {
		return s.spot.GetSpotPrice(ctx, symbol)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	trade, err := s.client.GetLatestTrade(symbol, marketdata.GetLatestTradeRequest{})
	if err != nil {
		return 0, fmt.Errorf("failed to fetch latest trade: %w", err)
	}
	if trade == nil || trade.Price <= 0 {
		return 0, fmt.Errorf("%w: no trade price for %s", ErrInvalidSpot, symbol)
	}
	return trade.Price, nil
}

// GetExpirations collects the distinct expirations present in the chain
func (s *AlpacaMarketDataService) GetExpirations(ctx context.Context, symbol string) ([]interfaces.Expiration, error) {
	snapshots, err := s.fetchChain(ctx, symbol)
	if err != nil {
		return nil, err
	}

	seen := make(map[time.Time]bool)
	expirations := make([]interfaces.Expiration, 0)
	for occ := range snapshots {
		parsed, err := ParseOCCSymbol(occ)
		if err != nil {
			s.logger.WithError(err).Debug("Skipping unparseable contract")
			continue
		}
		if seen[parsed.Expiration] {
			continue
		}
		seen[parsed.Expiration] = true
		expirations = append(expirations, interfaces.Expiration{
			Date: parsed.Expiration,
			ID:   parsed.Expiration.Format("2006-01-02"),
		})
	}
	sort.Slice(expirations, func(i, j int) bool {
		return expirations[i].Date.Before(expirations[j].Date)
	})
	return expirations, nil
}

// GetPutChain gets the puts expiring on the given date
func (s *AlpacaMarketDataService) GetPutChain(ctx context.Context, symbol string, expiration interfaces.Expiration) ([]interfaces.Quote, error) {
	snapshots, err := s.fetchChain(ctx, symbol)
	if err != nil {
		return nil, err
	}

	want := DateOf(expiration.Date)
	quotes := make([]interfaces.Quote, 0)
	for occ, snap := range snapshots {
		parsed, err := ParseOCCSymbol(occ)
		if err != nil || !parsed.Put || !parsed.Expiration.Equal(want) {
			continue
		}

		q := interfaces.Quote{
			Symbol:            occ,
			Strike:            parsed.Strike,
			ImpliedVolatility: snap.ImpliedVolatility * 100,
		}
		if snap.LatestQuote != nil {
			q.Bid = snap.LatestQuote.BidPrice
			q.Ask = snap.LatestQuote.AskPrice
		}
		if snap.LatestTrade != nil {
			q.LastPrice = snap.LatestTrade.Price
		}
		quotes = append(quotes, q)
	}

	// snapshots arrive as a map; give the chain a stable order
	sort.Slice(quotes, func(i, j int) bool {
		return quotes[i].Strike < quotes[j].Strike
	})

	s.logger.WithFields(logrus.Fields{
		"underlying": symbol,
		"expiration": want.Format("2006-01-02"),
		"puts":       len(quotes),
	}).Debug("Fetched put chain")
	return quotes, nil
}

func (s *AlpacaMarketDataService) fetchChain(ctx context.Context, symbol string) (map[string]marketdata.OptionSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snapshots, err := s.client.GetOptionChain(symbol, marketdata.GetOptionChainRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch option chain: %w", err)
	}
	return snapshots, nil
}
