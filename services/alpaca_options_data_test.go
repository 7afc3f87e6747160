package services

import (
	"context"
	"errors"
	"testing"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

type fakeAlpacaClient struct {
	snapshots map[string]marketdata.OptionSnapshot
	trade     *marketdata.Trade
	err       error
	symbols   []string
}

func (f *fakeAlpacaClient) GetOptionChain(symbol string, req marketdata.GetOptionChainRequest) (map[string]marketdata.OptionSnapshot, error) {
	f.symbols = append(f.symbols, symbol)
	return f.snapshots, f.err
}

func (f *fakeAlpacaClient) GetLatestTrade(symbol string, req marketdata.GetLatestTradeRequest) (*marketdata.Trade, error) {
	f.symbols = append(f.symbols, symbol)
	return f.trade, f.err
}

func TestParseOCCSymbol(t *testing.T) {
	occ, err := ParseOCCSymbol("SPY251020P00570500")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if occ.Root != "SPY" || !occ.Put || occ.Strike != 570.5 || !occ.Expiration.Equal(day(2025, 10, 20)) {
		t.Fatalf("unexpected parse: %+v", occ)
	}

	for _, bad := range []string{"SPY", "SPY251320P00570000", "SPY251020X00570000", "SPY251020P0057000A"} {
		if _, err := ParseOCCSymbol(bad); err == nil {
			t.Errorf("expected an error for %q", bad)
		}
	}
}

func TestAlpacaMarketData_Chain(t *testing.T) {
	client := &fakeAlpacaClient{
		snapshots: map[string]marketdata.OptionSnapshot{
			"SPY251020P00575000": {
				LatestQuote:       &marketdata.OptionQuote{BidPrice: 1.10, AskPrice: 1.15},
				LatestTrade:       &marketdata.OptionTrade{Price: 1.12},
				ImpliedVolatility: 0.21,
			},
			"SPY251020P00570000": {LatestQuote: &marketdata.OptionQuote{BidPrice: 0.60, AskPrice: 0.64}},
			"SPY251020C00570000": {LatestQuote: &marketdata.OptionQuote{BidPrice: 9.00}},
			"SPY251021P00570000": {LatestQuote: &marketdata.OptionQuote{BidPrice: 0.90}},
			"garbage":            {},
		},
		trade: &marketdata.Trade{Price: 580.25},
	}
	svc := newAlpacaMarketDataService(client)

	exps, err := svc.GetExpirations(context.Background(), "SPY")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(exps) != 2 || !exps[0].Date.Equal(day(2025, 10, 20)) || !exps[1].Date.Equal(day(2025, 10, 21)) {
		t.Fatalf("unexpected expirations: %+v", exps)
	}

	puts, err := svc.GetPutChain(context.Background(), "SPY", exps[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(puts) != 2 || puts[0].Strike != 570 || puts[1].Strike != 575 {
		t.Fatalf("expected two puts sorted by strike, got %+v", puts)
	}
	if puts[1].Bid != 1.10 || puts[1].LastPrice != 1.12 || puts[1].ImpliedVolatility < 20.99 || puts[1].ImpliedVolatility > 21.01 {
		t.Fatalf("unexpected put: %+v", puts[1])
	}

	spot, err := svc.GetSpotPrice(context.Background(), "SPY")
	if err != nil || spot != 580.25 {
		t.Fatalf("expected spot 580.25, got %v %v", spot, err)
	}
}

func TestAlpacaMarketData_Errors(t *testing.T) {
	sentinel := errors.New("forbidden")
	svc := newAlpacaMarketDataService(&fakeAlpacaClient{err: sentinel})

	if _, err := svc.GetExpirations(context.Background(), "SPY"); !errors.Is(err, sentinel) {
		t.Fatalf("expected the client error, got %v", err)
	}

	svc = newAlpacaMarketDataService(&fakeAlpacaClient{trade: &marketdata.Trade{}})
	if _, err := svc.GetSpotPrice(context.Background(), "SPY"); !errors.Is(err, ErrInvalidSpot) {
		t.Fatalf("expected ErrInvalidSpot, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := &fakeAlpacaClient{}
	svc = newAlpacaMarketDataService(client)
	if _, err := svc.GetPutChain(ctx, "SPY", expirations(day(2025, 10, 20))[0]); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(client.symbols) != 0 {
		t.Fatalf("cancelled requests must not reach the client")
	}
}

type fixedSpot struct {
	price   float64
	symbols []string
}

func (f *fixedSpot) GetSpotPrice(ctx context.Context, symbol string) (float64, error) {
	f.symbols = append(f.symbols, symbol)
	return f.price, nil
}

func TestAlpacaMarketData_InjectedSpotSource(t *testing.T) {
	client := &fakeAlpacaClient{trade: &marketdata.Trade{Price: 1}}
	spot := &fixedSpot{price: 6003.25}
	svc := newAlpacaMarketDataService(client).WithSpotSource(spot)

	got, err := svc.GetSpotPrice(context.Background(), "^SPX")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 6003.25 {
		t.Fatalf("expected the injected spot 6003.25, got %v", got)
	}
	if len(spot.symbols) != 1 || spot.symbols[0] != "^SPX" {
		t.Fatalf("expected the spot source to be asked for ^SPX, got %v", spot.symbols)
	}
	if len(client.symbols) != 0 {
		t.Fatalf("Alpaca trades must not be used when a spot source is set, saw %v", client.symbols)
	}
}
