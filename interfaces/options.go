package interfaces

import (
	"context"
	"time"
)

// Quote represents one put contract observation for a single expiration
type Quote struct {
	Symbol            string  `json:"symbol,omitempty"` // OCC symbol when the provider supplies one
	Strike            float64 `json:"strike"`
	Bid               float64 `json:"bid"`
	Ask               float64 `json:"ask"`
	LastPrice         float64 `json:"last_price"`
	Volume            int64   `json:"volume"`
	OpenInterest      int64   `json:"open_interest"`
	ImpliedVolatility float64 `json:"implied_volatility"` // percent, e.g. 18.5
}

// Expiration is a listed expiration date plus the provider's identifier for it.
// Date is always midnight UTC of the calendar date.
type Expiration struct {
	Date time.Time `json:"date"`
	ID   string    `json:"id"`
}

// ExpirationChoice is the expiration resolved for a trading-day offset
type ExpirationChoice struct {
	Expiration   Expiration `json:"expiration"`
	TargetDate   time.Time  `json:"target_date"`
	IsExactMatch bool       `json:"is_exact_match"`
}

// SymbolQuote is a snapshot quote for an index or stock
type SymbolQuote struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	DayLow        float64   `json:"day_low"`
	DayHigh       float64   `json:"day_high"`
	Volume        int64     `json:"volume"`
	Timestamp     time.Time `json:"timestamp"`
}

// SpotSource supplies the current price of an underlying
type SpotSource interface {
	GetSpotPrice(ctx context.Context, symbol string) (float64, error)
}

// MarketDataService defines the option chain data a scan needs
type MarketDataService interface {
	SpotSource
	// GetExpirations returns listed expirations sorted ascending by date
	GetExpirations(ctx context.Context, symbol string) ([]Expiration, error)
	// GetPutChain returns the put side of the chain for one expiration
	GetPutChain(ctx context.Context, symbol string, expiration Expiration) ([]Quote, error)
}

// QuoteService defines symbol quote lookups
type QuoteService interface {
	GetQuote(ctx context.Context, symbol string) (*SymbolQuote, error)
}
