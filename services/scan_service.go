package services

import (
	"context"
	"fmt"
	"spx-premium-scanner/interfaces"
	"time"

	"github.com/sirupsen/logrus"
)

// Recommendation is the outcome presented for a scan
type Recommendation string

const (
	RecommendTrade   Recommendation = "TRADE"
	RecommendNoTrade Recommendation = "NO_TRADE"
)

// ScanSettings are the defaults a ScanService applies to requests
type ScanSettings struct {
	Symbol      string
	Location    *time.Location
	Defaults    QueryDefaults
	ContextSize int
}

// ScanOptions is the loosely specified scan input from the CLI or HTTP API.
// Exactly one of Query, Preset or Filter is used, in that order of precedence;
// with none of them the explicit bounds apply.
type ScanOptions struct {
	Symbol      string   `json:"symbol"`
	Query       string   `json:"query"`
	Preset      string   `json:"preset"`
	Filter      string   `json:"filter"`
	TradingDays *int     `json:"trading_days"`
	MinPremium  *float64 `json:"min_premium"`
	MaxPremium  *float64 `json:"max_premium"`
	MinDistance *float64 `json:"min_distance"`
	MaxDistance *float64 `json:"max_distance"`
	TargetBid   *float64 `json:"target_bid"`
	ContextSize *int     `json:"context_size"`
}

// ScanRequest is a fully resolved scan
type ScanRequest struct {
	Symbol      string
	Label       string
	TradingDays int
	Criteria    ScanCriteria
	TargetBid   *float64
	ContextSize int
}

// ScanReport is what a scan hands to presentation and persistence
type ScanReport struct {
	Symbol         string                       `json:"symbol"`
	Label          string                       `json:"label"`
	TradingDays    int                          `json:"trading_days"`
	Expiration     *interfaces.ExpirationChoice `json:"expiration"`
	Result         *ScanResult                  `json:"result"`
	Safety         *SafetyAssessment            `json:"safety,omitempty"`
	Recommendation Recommendation               `json:"recommendation"`
	Reason         string                       `json:"reason,omitempty"`
	GeneratedAt    time.Time                    `json:"generated_at"`
}

// ChainSnapshot is the market data fetched for one scan
type ChainSnapshot struct {
	Symbol     string                       `json:"symbol"`
	Expiration *interfaces.ExpirationChoice `json:"expiration"`
	Spot       float64                      `json:"spot"`
	Quotes     []interfaces.Quote           `json:"quotes"`
	FetchedAt  time.Time                    `json:"fetched_at"`
}

// ScanService fetches chains and runs scans against them
type ScanService struct {
	data     interfaces.MarketDataService
	calendar interfaces.TradingCalendar
	storage  interfaces.StorageService
	journal  *ScanJournal
	settings ScanSettings
	logger   *logrus.Logger
	now      func() time.Time
}

// NewScanService creates a scan service. storage and journal may be nil.
func NewScanService(
	data interfaces.MarketDataService,
	calendar interfaces.TradingCalendar,
	storage interfaces.StorageService,
	journal *ScanJournal,
	settings ScanSettings,
) *ScanService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if settings.Symbol == "" {
		settings.Symbol = "^SPX"
	}

	return &ScanService{
		data:     data,
		calendar: calendar,
		storage:  storage,
		journal:  journal,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// SetClock replaces the wall clock
func (s *ScanService) SetClock(now func() time.Time) {
	s.now = now
}

// Logger exposes the service logger so callers can adjust its level
func (s *ScanService) Logger() *logrus.Logger {
	return s.logger
}

// Settings returns the service defaults
func (s *ScanService) Settings() ScanSettings {
	return s.settings
}

// BuildRequest validates options and resolves them into a request.
// All input errors surface here, before any market data is fetched.
func (s *ScanService) BuildRequest(opts ScanOptions) (ScanRequest, error) {
	req := ScanRequest{
		Symbol:      opts.Symbol,
		ContextSize: s.settings.ContextSize,
		TargetBid:   opts.TargetBid,
	}
	if req.Symbol == "" {
		req.Symbol = s.settings.Symbol
	}
	if opts.ContextSize != nil {
		if *opts.ContextSize < 0 {
			return ScanRequest{}, fmt.Errorf("%w: context size must be >= 0", ErrInvalidInput)
		}
		req.ContextSize = *opts.ContextSize
	}
	if opts.TargetBid != nil && (!IsFinite(*opts.TargetBid) || *opts.TargetBid <= 0) {
		return ScanRequest{}, fmt.Errorf("%w: target bid must be a positive number", ErrInvalidInput)
	}
	if err := (RangeCriteria{
		MinPremium:  opts.MinPremium,
		MaxPremium:  opts.MaxPremium,
		MinDistance: opts.MinDistance,
		MaxDistance: opts.MaxDistance,
	}).Validate(); err != nil {
		return ScanRequest{}, err
	}

	switch {
	case opts.Query != "":
		q, err := ParseScanQuery(opts.Query, s.settings.Defaults)
		if err != nil {
			return ScanRequest{}, err
		}
		req.TradingDays = q.TradingDays
		req.Criteria = q.Criteria()
		req.Label = opts.Query

	case opts.Preset != "":
		p, err := LookupPreset(opts.Preset)
		if err != nil {
			return ScanRequest{}, err
		}
		rng := RangeCriteria{
			MinPremium:  Bound(p.MinPremium),
			MaxPremium:  opts.MaxPremium,
			MinDistance: Bound(p.MinDistance),
			MaxDistance: opts.MaxDistance,
		}
		if opts.MinPremium != nil {
			rng.MinPremium = opts.MinPremium
		}
		if opts.MinDistance != nil {
			rng.MinDistance = opts.MinDistance
		}
		req.TradingDays = p.TradingDays
		if opts.TradingDays != nil {
			req.TradingDays = *opts.TradingDays
		}
		req.Criteria = NewRangeCriteria(rng)
		req.Label = p.Name

	case opts.Filter != "":
		if opts.TradingDays == nil {
			return ScanRequest{}, ErrMissingTradingDays
		}
		criteria, err := ParseFilter(opts.Filter)
		if err != nil {
			return ScanRequest{}, err
		}
		req.TradingDays = *opts.TradingDays
		req.Criteria = criteria
		req.Label = opts.Filter

	default:
		if opts.TradingDays == nil {
			return ScanRequest{}, ErrMissingTradingDays
		}
		rng := RangeCriteria{
			MinPremium:  opts.MinPremium,
			MaxPremium:  opts.MaxPremium,
			MinDistance: opts.MinDistance,
			MaxDistance: opts.MaxDistance,
		}
		if rng.MinPremium == nil {
			rng.MinPremium = Bound(s.settings.Defaults.MinPremium)
		}
		if rng.MinDistance == nil {
			rng.MinDistance = Bound(s.settings.Defaults.MinDistance)
		}
		req.TradingDays = *opts.TradingDays
		req.Criteria = NewRangeCriteria(rng)
		req.Label = FormatScanQuery(req.TradingDays, rng)
	}

	if req.TradingDays < 0 {
		return ScanRequest{}, fmt.Errorf("%w: trading days must be >= 0", ErrInvalidQuery)
	}
	if req.TargetBid != nil {
		req.Label = fmt.Sprintf("target bid %s, %d trading days", formatPrice(*req.TargetBid), req.TradingDays)
	}
	return req, nil
}

// FetchChain resolves the expiration and fetches spot and puts for it.
// A nil Expiration in the snapshot means nothing is listed for the offset.
func (s *ScanService) FetchChain(ctx context.Context, symbol string, tradingDays int) (*ChainSnapshot, error) {
	if symbol == "" {
		symbol = s.settings.Symbol
	}
	now := s.now().In(s.settings.Location)
	snapshot := &ChainSnapshot{Symbol: symbol, FetchedAt: now, Quotes: []interfaces.Quote{}}

	expirations, err := s.data.GetExpirations(ctx, symbol)
	if err != nil {
		return nil, err
	}

	choice, ok := SelectExpiration(tradingDays, expirations, now, s.calendar)
	if !ok {
		s.logger.WithFields(logrus.Fields{
			"symbol":       symbol,
			"trading_days": tradingDays,
		}).Info("No expiration available")
		return snapshot, nil
	}
	snapshot.Expiration = &choice

	spot, err := s.data.GetSpotPrice(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if !IsFinite(spot) || spot <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpot, spot)
	}
	snapshot.Spot = spot

	quotes, err := s.data.GetPutChain(ctx, symbol, choice.Expiration)
	if err != nil {
		return nil, err
	}
	snapshot.Quotes = quotes

	s.logger.WithFields(logrus.Fields{
		"symbol":     symbol,
		"expiration": choice.Expiration.Date.Format("2006-01-02"),
		"exact":      choice.IsExactMatch,
		"spot":       spot,
		"puts":       len(quotes),
	}).Debug("Fetched chain")
	return snapshot, nil
}

// Run executes a scan. Missing expirations and empty results are reported
// as NO_TRADE, not as errors. Market data errors are returned unchanged.
func (s *ScanService) Run(ctx context.Context, req ScanRequest) (*ScanReport, error) {
	if req.TradingDays < 0 {
		return nil, fmt.Errorf("%w: trading days must be >= 0", ErrInvalidQuery)
	}

	snapshot, err := s.FetchChain(ctx, req.Symbol, req.TradingDays)
	if err != nil {
		return nil, err
	}

	report := &ScanReport{
		Symbol:         snapshot.Symbol,
		Label:          req.Label,
		TradingDays:    req.TradingDays,
		Expiration:     snapshot.Expiration,
		Recommendation: RecommendNoTrade,
		GeneratedAt:    snapshot.FetchedAt,
	}

	if snapshot.Expiration == nil {
		report.Reason = "no expiration available"
		s.record(report)
		return report, nil
	}

	var result ScanResult
	if req.TargetBid != nil {
		result = ScanTargetBid(snapshot.Spot, snapshot.Quotes, *req.TargetBid, req.ContextSize)
	} else {
		result = Scan(snapshot.Spot, snapshot.Quotes, req.Criteria, req.ContextSize)
	}
	report.Result = &result

	if best := result.Best; best != nil && best.Bid > 0 {
		report.Recommendation = RecommendTrade
		safety := AssessSafety(best.DistanceFromSpot, req.TradingDays)
		report.Safety = &safety
	} else {
		report.Reason = "no qualifying strikes"
	}

	s.logger.WithFields(logrus.Fields{
		"label":          report.Label,
		"candidates":     len(result.Candidates),
		"recommendation": report.Recommendation,
	}).Info("Scan complete")

	s.record(report)
	return report, nil
}

// record persists the outline of a report; failures are logged only
func (s *ScanService) record(report *ScanReport) {
	if s.storage != nil {
		if err := s.storage.SaveScanRecord(ScanRecordFromReport(report)); err != nil {
			s.logger.WithError(err).Warn("Failed to save scan record")
		}
	}
	if s.journal != nil {
		if err := s.journal.Record(report); err != nil {
			s.logger.WithError(err).Warn("Failed to write scan journal")
		}
	}
}

// ScanRecordFromReport flattens a report for storage
func ScanRecordFromReport(report *ScanReport) *interfaces.ScanRecord {
	record := &interfaces.ScanRecord{
		Symbol:         report.Symbol,
		Query:          report.Label,
		TradingDays:    report.TradingDays,
		Recommendation: string(report.Recommendation),
	}
	if report.Expiration != nil {
		d := report.Expiration.Expiration.Date
		record.Expiration = &d
		record.ExactMatch = report.Expiration.IsExactMatch
	}
	if r := report.Result; r != nil {
		record.Spot = r.Spot
		record.Candidates = len(r.Candidates)
		if r.Best != nil {
			record.BestStrike = Bound(r.Best.Strike)
			record.BestBid = Bound(r.Best.Bid)
			record.BestDistance = Bound(r.Best.DistanceFromSpot)
		}
	}
	return record
}
