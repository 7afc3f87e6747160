package services

import (
	"math"
	"sort"
	"spx-premium-scanner/interfaces"

	"github.com/shopspring/decimal"
)

// DefaultContextSize is the number of strikes shown on each side of the anchor
const DefaultContextSize = 4

// strikeIncrement is the listing grid used to derive an anchor strike
const strikeIncrement = 5.0

// QualificationStatus annotates a context window row
type QualificationStatus string

const (
	StatusQualifies QualificationStatus = "QUALIFIES"
	StatusPartial   QualificationStatus = "PARTIAL"
	StatusContext   QualificationStatus = "CONTEXT"
	StatusTarget    QualificationStatus = "TARGET"
)

// ScannedQuote is a quote with its distance from spot for the current scan
type ScannedQuote struct {
	interfaces.Quote
	DistanceFromSpot float64 `json:"distance_from_spot"`
}

// ContextEntry is one row of the strike band shown around the selection
type ContextEntry struct {
	ScannedQuote
	Status   QualificationStatus `json:"status"`
	Selected bool                `json:"selected"`
}

// ScanResult is the outcome of one scan
type ScanResult struct {
	Spot          float64        `json:"spot"`
	Criteria      string         `json:"criteria"`
	Candidates    []ScannedQuote `json:"candidates"`
	Best          *ScannedQuote  `json:"best"`
	ContextWindow []ContextEntry `json:"context_window"`
	TargetBid     *float64       `json:"target_bid,omitempty"`
	ExactMatch    bool           `json:"exact_match"`
}

// Scan filters the chain with criteria and ranks candidates by bid, highest
// first, breaking ties on the lower strike. Best is the top candidate that is
// out of the money (distance > 0).
func Scan(spot float64, chain []interfaces.Quote, criteria ScanCriteria, contextSize int) ScanResult {
	scanned := withDistance(spot, chain)

	candidates := make([]ScannedQuote, 0)
	for _, q := range scanned {
		if criteria.Matches(q) {
			candidates = append(candidates, q)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Bid != candidates[j].Bid {
			return candidates[i].Bid > candidates[j].Bid
		}
		return candidates[i].Strike < candidates[j].Strike
	})

	bestIdx := -1
	for i := range candidates {
		if candidates[i].DistanceFromSpot > 0 {
			bestIdx = i
			break
		}
	}

	result := ScanResult{
		Spot:       spot,
		Criteria:   criteria.String(),
		Candidates: candidates,
	}

	var best *ScannedQuote
	if bestIdx >= 0 {
		b := candidates[bestIdx]
		best = &b
		result.Best = best
	}

	window := contextWindow(scanned, best, spot-criteria.MinDistance(), contextSize)
	result.ContextWindow = make([]ContextEntry, len(window))
	for i, q := range window {
		result.ContextWindow[i] = ContextEntry{
			ScannedQuote: q,
			Status:       qualification(criteria, q),
			Selected:     best != nil && sameQuote(q, *best),
		}
	}
	return result
}

// ScanTargetBid selects the quote paying exactly targetBid with the lowest
// strike. Without an exact match it falls back to the positive bid nearest
// the target, ties going to the earlier quote in chain order.
func ScanTargetBid(spot float64, chain []interfaces.Quote, targetBid float64, contextSize int) ScanResult {
	scanned := withDistance(spot, chain)
	target := decimal.NewFromFloat(targetBid)

	exact := make([]ScannedQuote, 0)
	for _, q := range scanned {
		if decimal.NewFromFloat(q.Bid).Equal(target) {
			exact = append(exact, q)
		}
	}
	sort.SliceStable(exact, func(i, j int) bool {
		return exact[i].Strike < exact[j].Strike
	})

	result := ScanResult{
		Spot:       spot,
		Criteria:   "bid = " + target.String(),
		Candidates: exact,
		TargetBid:  &targetBid,
	}

	var best *ScannedQuote
	if len(exact) > 0 {
		b := exact[0]
		best = &b
		result.ExactMatch = true
	} else {
		var bestDiff decimal.Decimal
		for _, q := range scanned {
			if q.Bid <= 0 {
				continue
			}
			diff := decimal.NewFromFloat(q.Bid).Sub(target).Abs()
			if best == nil || diff.LessThan(bestDiff) {
				b := q
				best = &b
				bestDiff = diff
			}
		}
	}
	result.Best = best

	window := contextWindow(scanned, best, spot, contextSize)
	result.ContextWindow = make([]ContextEntry, len(window))
	for i, q := range window {
		status := StatusContext
		if decimal.NewFromFloat(q.Bid).Equal(target) {
			status = StatusTarget
		}
		result.ContextWindow[i] = ContextEntry{
			ScannedQuote: q,
			Status:       status,
			Selected:     best != nil && sameQuote(q, *best),
		}
	}
	return result
}

func withDistance(spot float64, chain []interfaces.Quote) []ScannedQuote {
	scanned := make([]ScannedQuote, len(chain))
	for i, q := range chain {
		scanned[i] = ScannedQuote{Quote: q, DistanceFromSpot: spot - q.Strike}
	}
	return scanned
}

func qualification(criteria ScanCriteria, q ScannedQuote) QualificationStatus {
	if criteria.Matches(q) {
		return StatusQualifies
	}
	if criteria.MatchesPremium(q) || criteria.MatchesDistance(q) {
		return StatusPartial
	}
	return StatusContext
}

func sameQuote(a, b ScannedQuote) bool {
	return a.Strike == b.Strike && a.Symbol == b.Symbol && a.Bid == b.Bid
}

// contextWindow returns min(2*size+1, len(chain)) contiguous quotes in strike
// order, centred on best when present, otherwise on the first strike at or
// above the grid strike below anchorPrice. The band shifts inward at the ends.
func contextWindow(scanned []ScannedQuote, best *ScannedQuote, anchorPrice float64, size int) []ScannedQuote {
	n := len(scanned)
	if n == 0 {
		return []ScannedQuote{}
	}
	if size < 0 {
		size = 0
	}

	byStrike := make([]ScannedQuote, n)
	copy(byStrike, scanned)
	sort.SliceStable(byStrike, func(i, j int) bool {
		return byStrike[i].Strike < byStrike[j].Strike
	})

	anchor := -1
	if best != nil {
		for i, q := range byStrike {
			if sameQuote(q, *best) {
				anchor = i
				break
			}
		}
	}
	if anchor < 0 {
		targetStrike := math.Floor(anchorPrice/strikeIncrement) * strikeIncrement
		for i, q := range byStrike {
			if q.Strike >= targetStrike {
				anchor = i
				break
			}
		}
		if anchor < 0 {
			anchor = n - 1 - size
		}
		if anchor < size {
			anchor = size
		}
		if anchor > n-1 {
			anchor = n - 1
		}
	}

	width := 2*size + 1
	if width > n {
		width = n
	}
	start := anchor - size
	if start < 0 {
		start = 0
	}
	if start+width > n {
		start = n - width
	}
	return byStrike[start : start+width]
}
