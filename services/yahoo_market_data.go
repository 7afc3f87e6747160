package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"spx-premium-scanner/interfaces"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultYahooBaseURL is the public Yahoo Finance query host
const DefaultYahooBaseURL = "https://query2.finance.yahoo.com"

// DefaultYahooCookieURL sets the session cookie that crumbs are issued against
const DefaultYahooCookieURL = "https://fc.yahoo.com"

const yahooUserAgent = "Mozilla/5.0 (compatible; spx-premium-scanner)"

var yahooSymbolAliases = map[string]string{
	"SPX":  "^SPX",
	"VIX":  "^VIX",
	"DJI":  "^DJI",
	"IXIC": "^IXIC",
	"RUT":  "^RUT",
}

// YahooSymbol maps common index tickers to Yahoo's caret form
func YahooSymbol(symbol string) string {
	upper := strings.ToUpper(strings.TrimSpace(symbol))
	if alias, ok := yahooSymbolAliases[upper]; ok {
		return alias
	}
	return upper
}

// IsIndexSymbol reports whether symbol names an index, e.g. SPX or ^VIX
func IsIndexSymbol(symbol string) bool {
	return strings.HasPrefix(YahooSymbol(symbol), "^")
}

// YahooMarketDataService fetches spot, expirations and put chains from Yahoo Finance.
// The v7 endpoints need a session cookie plus a crumb; both are fetched on
// first use and refreshed once when Yahoo answers 401.
type YahooMarketDataService struct {
	baseURL   string
	cookieURL string
	logger    *logrus.Logger
	client    *http.Client

	mu    sync.Mutex
	crumb string
}

// NewYahooMarketDataService creates a Yahoo market data service; empty baseURL uses the public host
func NewYahooMarketDataService(baseURL string) *YahooMarketDataService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}

	// cookiejar.New only fails on a bad PublicSuffixList
	jar, _ := cookiejar.New(nil)

	return &YahooMarketDataService{
		baseURL:   strings.TrimRight(baseURL, "/"),
		cookieURL: DefaultYahooCookieURL,
		logger:    logger,
		client:    &http.Client{Timeout: 30 * time.Second, Jar: jar},
	}
}

// Logger exposes the service logger so callers can adjust its level
func (s *YahooMarketDataService) Logger() *logrus.Logger {
	return s.logger
}

type yahooQuoteResponse struct {
	QuoteResponse struct {
		Result []yahooQuote `json:"result"`
		Error  *yahooError  `json:"error"`
	} `json:"quoteResponse"`
}

type yahooQuote struct {
	Symbol                     string  `json:"symbol"`
	ShortName                  string  `json:"shortName"`
	LongName                   string  `json:"longName"`
	RegularMarketPrice         float64 `json:"regularMarketPrice"`
	RegularMarketChange        float64 `json:"regularMarketChange"`
	RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
	RegularMarketDayLow        float64 `json:"regularMarketDayLow"`
	RegularMarketDayHigh       float64 `json:"regularMarketDayHigh"`
	RegularMarketVolume        int64   `json:"regularMarketVolume"`
	RegularMarketTime          int64   `json:"regularMarketTime"`
}

type yahooOptionsResponse struct {
	OptionChain struct {
		Result []yahooOptionChain `json:"result"`
		Error  *yahooError        `json:"error"`
	} `json:"optionChain"`
}

type yahooOptionChain struct {
	UnderlyingSymbol string            `json:"underlyingSymbol"`
	ExpirationDates  []int64           `json:"expirationDates"`
	Quote            yahooQuote        `json:"quote"`
	Options          []yahooOptionSide `json:"options"`
}

type yahooOptionSide struct {
	ExpirationDate int64              `json:"expirationDate"`
	Puts           []yahooOptionQuote `json:"puts"`
}

type yahooOptionQuote struct {
	ContractSymbol    string  `json:"contractSymbol"`
	Strike            float64 `json:"strike"`
	LastPrice         float64 `json:"lastPrice"`
	Bid               float64 `json:"bid"`
	Ask               float64 `json:"ask"`
	Volume            int64   `json:"volume"`
	OpenInterest      int64   `json:"openInterest"`
	ImpliedVolatility float64 `json:"impliedVolatility"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// GetQuote gets the latest quote for a symbol
func (s *YahooMarketDataService) GetQuote(ctx context.Context, symbol string) (*interfaces.SymbolQuote, error) {
	ySymbol := YahooSymbol(symbol)
	endpoint := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", s.baseURL, url.QueryEscape(ySymbol))

	var resp yahooQuoteResponse
	if err := s.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch quote: %w", err)
	}
	if e := resp.QuoteResponse.Error; e != nil {
		return nil, fmt.Errorf("API error %s: %s", e.Code, e.Description)
	}
	if len(resp.QuoteResponse.Result) == 0 {
		return nil, fmt.Errorf("no quote data for %s", ySymbol)
	}

	q := resp.QuoteResponse.Result[0]
	name := q.LongName
	if name == "" {
		name = q.ShortName
	}
	return &interfaces.SymbolQuote{
		Symbol:        q.Symbol,
		Name:          name,
		Price:         q.RegularMarketPrice,
		Change:        q.RegularMarketChange,
		ChangePercent: q.RegularMarketChangePercent,
		DayLow:        q.RegularMarketDayLow,
		DayHigh:       q.RegularMarketDayHigh,
		Volume:        q.RegularMarketVolume,
		Timestamp:     time.Unix(q.RegularMarketTime, 0),
	}, nil
}

// GetSpotPrice gets the regular market price of the underlying
func (s *YahooMarketDataService) GetSpotPrice(ctx context.Context, symbol string) (float64, error) {
	quote, err := s.GetQuote(ctx, symbol)
	if err != nil {
		return 0, err
	}
	if quote.Price <= 0 {
		return 0, fmt.Errorf("%w: %s reported %v", ErrInvalidSpot, quote.Symbol, quote.Price)
	}
	return quote.Price, nil
}

// GetExpirations lists the expirations Yahoo carries for the underlying
func (s *YahooMarketDataService) GetExpirations(ctx context.Context, symbol string) ([]interfaces.Expiration, error) {
	chain, err := s.fetchOptions(ctx, symbol, "")
	if err != nil {
		return nil, err
	}

	expirations := make([]interfaces.Expiration, 0, len(chain.ExpirationDates))
	for _, ts := range chain.ExpirationDates {
		expirations = append(expirations, interfaces.Expiration{
			Date: DateOf(time.Unix(ts, 0).UTC()),
			ID:   strconv.FormatInt(ts, 10),
		})
	}
	sort.Slice(expirations, func(i, j int) bool {
		return expirations[i].Date.Before(expirations[j].Date)
	})

	s.logger.WithFields(logrus.Fields{
		"symbol": YahooSymbol(symbol),
		"count":  len(expirations),
	}).Debug("Fetched expirations")
	return expirations, nil
}

// GetPutChain gets the puts listed for one expiration
func (s *YahooMarketDataService) GetPutChain(ctx context.Context, symbol string, expiration interfaces.Expiration) ([]interfaces.Quote, error) {
	id := expiration.ID
	if id == "" {
		id = strconv.FormatInt(expiration.Date.Unix(), 10)
	}

	chain, err := s.fetchOptions(ctx, symbol, id)
	if err != nil {
		return nil, err
	}

	quotes := make([]interfaces.Quote, 0)
	for _, side := range chain.Options {
		for _, p := range side.Puts {
			quotes = append(quotes, interfaces.Quote{
				Symbol:            p.ContractSymbol,
				Strike:            p.Strike,
				Bid:               p.Bid,
				Ask:               p.Ask,
				LastPrice:         p.LastPrice,
				Volume:            p.Volume,
				OpenInterest:      p.OpenInterest,
				ImpliedVolatility: p.ImpliedVolatility * 100,
			})
		}
	}

	s.logger.WithFields(logrus.Fields{
		"symbol":     YahooSymbol(symbol),
		"expiration": expiration.Date.Format("2006-01-02"),
		"puts":       len(quotes),
	}).Debug("Fetched put chain")
	return quotes, nil
}

func (s *YahooMarketDataService) fetchOptions(ctx context.Context, symbol, date string) (*yahooOptionChain, error) {
	endpoint := fmt.Sprintf("%s/v7/finance/options/%s", s.baseURL, url.PathEscape(YahooSymbol(symbol)))
	if date != "" {
		endpoint += "?date=" + url.QueryEscape(date)
	}

	var resp yahooOptionsResponse
	if err := s.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch option chain: %w", err)
	}
	if e := resp.OptionChain.Error; e != nil {
		return nil, fmt.Errorf("API error %s: %s", e.Code, e.Description)
	}
	if len(resp.OptionChain.Result) == 0 {
		return nil, fmt.Errorf("no option data for %s", YahooSymbol(symbol))
	}
	return &resp.OptionChain.Result[0], nil
}

func (s *YahooMarketDataService) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	crumb, err := s.sessionCrumb(ctx, false)
	if err != nil {
		return err
	}

	resp, err := s.get(ctx, withCrumb(endpoint, crumb))
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		s.logger.Debug("Yahoo rejected the crumb, refreshing session")
		if crumb, err = s.sessionCrumb(ctx, true); err != nil {
			return err
		}
		if resp, err = s.get(ctx, withCrumb(endpoint, crumb)); err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (s *YahooMarketDataService) get(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", yahooUserAgent)
	req.Header.Set("Accept", "application/json")
	return s.client.Do(req)
}

// sessionCrumb returns the cached crumb, or opens a new session when there is
// none or refresh is set.
func (s *YahooMarketDataService) sessionCrumb(ctx context.Context, refresh bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.crumb != "" && !refresh {
		return s.crumb, nil
	}
	s.crumb = ""

	// The cookie host answers 404 but still sets the session cookie.
	resp, err := s.get(ctx, s.cookieURL)
	if err != nil {
		return "", fmt.Errorf("failed to get Yahoo session cookie: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	resp, err = s.get(ctx, s.baseURL+"/v1/test/getcrumb")
	if err != nil {
		return "", fmt.Errorf("failed to get Yahoo crumb: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}
	crumb := strings.TrimSpace(string(body))
	if crumb == "" || strings.ContainsAny(crumb, "<{") {
		return "", fmt.Errorf("failed to get Yahoo crumb: unexpected body %q", crumb)
	}

	s.crumb = crumb
	s.logger.Debug("Opened Yahoo session")
	return crumb, nil
}

func withCrumb(endpoint, crumb string) string {
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return endpoint + sep + "crumb=" + url.QueryEscape(crumb)
}
