package services

import (
	"math"
	"spx-premium-scanner/interfaces"

	"github.com/shopspring/decimal"
)

// BidLevels are the premiums summarised when no target bid is given
var BidLevels = []float64{0.05, 0.10, 0.15, 0.20, 0.25, 0.50, 1.00}

// KeyLevelDistances are the distances below spot reported by the key level view
var KeyLevelDistances = []float64{150, 200, 250, 350}

// BidLevelSummary counts puts paying one premium level
type BidLevelSummary struct {
	Bid      float64       `json:"bid"`
	Count    int           `json:"count"`
	Furthest *ScannedQuote `json:"furthest,omitempty"` // lowest strike at this bid
}

// SummarizeBidLevels groups positive bids by cent and reports each requested level
func SummarizeBidLevels(spot float64, chain []interfaces.Quote, levels []float64) []BidLevelSummary {
	buckets := make(map[string][]ScannedQuote)
	for _, q := range withDistance(spot, chain) {
		if q.Bid <= 0 {
			continue
		}
		key := decimal.NewFromFloat(q.Bid).StringFixed(2)
		buckets[key] = append(buckets[key], q)
	}

	summaries := make([]BidLevelSummary, 0, len(levels))
	for _, level := range levels {
		quotes := buckets[decimal.NewFromFloat(level).StringFixed(2)]
		summary := BidLevelSummary{Bid: level, Count: len(quotes)}
		for i := range quotes {
			if summary.Furthest == nil || quotes[i].Strike < summary.Furthest.Strike {
				q := quotes[i]
				summary.Furthest = &q
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

// KeyLevel is the put listed at a fixed distance below spot
type KeyLevel struct {
	Distance float64 `json:"distance"`
	Strike   float64 `json:"strike"`
	Found    bool    `json:"found"`
	Bid      float64 `json:"bid"`
	// LowestStrike is the lowest strike at or below Strike paying the same
	// positive bid; equal to Strike when no lower strike matches.
	LowestStrike float64 `json:"lowest_strike"`
}

// FindKeyLevels looks up the grid strike floor((spot-d)/5)*5 for each distance
func FindKeyLevels(spot float64, chain []interfaces.Quote, distances []float64) []KeyLevel {
	levels := make([]KeyLevel, 0, len(distances))
	for _, d := range distances {
		strike := math.Floor((spot-d)/strikeIncrement) * strikeIncrement
		level := KeyLevel{Distance: d, Strike: strike, LowestStrike: strike}

		for _, q := range chain {
			if q.Strike == strike {
				level.Found = true
				level.Bid = q.Bid
				break
			}
		}

		if level.Found && level.Bid > 0 {
			bid := decimal.NewFromFloat(level.Bid)
			for _, q := range chain {
				if q.Strike < level.LowestStrike && decimal.NewFromFloat(q.Bid).Equal(bid) {
					level.LowestStrike = q.Strike
				}
			}
		}
		levels = append(levels, level)
	}
	return levels
}
