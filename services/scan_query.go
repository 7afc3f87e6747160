package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// QueryDefaults fill bounds a query leaves out
type QueryDefaults struct {
	MinPremium  float64
	MinDistance float64
}

// DefaultQueryDefaults applies minbid >= 0.10 and distance >= 0
var DefaultQueryDefaults = QueryDefaults{MinPremium: 0.10, MinDistance: 0}

// ScanQuery is a parsed scan request string
type ScanQuery struct {
	TradingDays int
	Range       RangeCriteria
	Legacy      bool
}

// Criteria compiles the query bounds
func (q *ScanQuery) Criteria() ScanCriteria {
	return NewRangeCriteria(q.Range)
}

// ParseScanQuery accepts either
//
//	tradingdays=1 AND minbid>=2.00 AND distance BETWEEN 300 AND 450
//
// or the legacy positional form
//
//	td1 minbid2.00 distance300
//
// tradingdays is mandatory in both. In the legacy form all three tokens are.
func ParseScanQuery(input string, defaults QueryDefaults) (*ScanQuery, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("%w: empty query", ErrMissingTradingDays)
	}

	var (
		q   *ScanQuery
		err error
	)
	if isLegacyQuery(input) {
		q, err = parseLegacyQuery(input)
	} else {
		q, err = parseFlagQuery(input)
	}
	if err != nil {
		return nil, err
	}

	if q.Range.MinPremium == nil {
		q.Range.MinPremium = Bound(defaults.MinPremium)
	}
	if q.Range.MinDistance == nil {
		q.Range.MinDistance = Bound(defaults.MinDistance)
	}
	return q, nil
}

func isLegacyQuery(input string) bool {
	if strings.ContainsAny(input, "=<>") {
		return false
	}
	for _, word := range strings.Fields(input) {
		if strings.EqualFold(word, "between") {
			return false
		}
	}
	return true
}

func resolveQueryField(name string) (string, bool) {
	switch strings.ToLower(name) {
	case "tradingdays", "trading_days":
		return "tradingdays", true
	case "minbid", "min_bid", "bid":
		return "minbid", true
	case "distance", "distance_from_spx":
		return "distance", true
	}
	return name, false
}

func parseFlagQuery(input string) (*ScanQuery, error) {
	expr, err := parseFilterExpression(input, resolveQueryField)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}

	var clauses []*Comparison
	if err := flattenConjunction(expr, &clauses); err != nil {
		return nil, err
	}

	q := &ScanQuery{TradingDays: -1}
	for _, c := range clauses {
		switch c.Field {
		case "tradingdays":
			if c.Op != "=" {
				return nil, fmt.Errorf("%w: tradingdays takes '=', got %q", ErrInvalidQuery, c.Op)
			}
			if q.TradingDays >= 0 {
				return nil, fmt.Errorf("%w: tradingdays given twice", ErrInvalidQuery)
			}
			days, err := tradingDaysValue(c.Value)
			if err != nil {
				return nil, err
			}
			q.TradingDays = days
		case "minbid":
			if err := applyBound(c, &q.Range.MinPremium, &q.Range.MaxPremium); err != nil {
				return nil, err
			}
		case "distance":
			if err := applyBound(c, &q.Range.MinDistance, &q.Range.MaxDistance); err != nil {
				return nil, err
			}
		}
	}

	if q.TradingDays < 0 {
		return nil, ErrMissingTradingDays
	}
	return q, nil
}

func flattenConjunction(expr FilterExpr, out *[]*Comparison) error {
	switch e := expr.(type) {
	case *Comparison:
		*out = append(*out, e)
	case *Logical:
		if e.Op != "AND" {
			return fmt.Errorf("%w: only AND may join query terms", ErrInvalidQuery)
		}
		if err := flattenConjunction(e.Left, out); err != nil {
			return err
		}
		return flattenConjunction(e.Right, out)
	}
	return nil
}

func applyBound(c *Comparison, lower, upper **float64) error {
	switch c.Op {
	case ">=":
		*lower = Bound(c.Value)
	case "<=":
		*upper = Bound(c.Value)
	default:
		return fmt.Errorf("%w: %s takes '>=', '<=' or BETWEEN, got %q", ErrInvalidQuery, c.Field, c.Op)
	}
	return nil
}

func tradingDaysValue(v float64) (int, error) {
	if v < 0 || v != math.Trunc(v) {
		return 0, fmt.Errorf("%w: tradingdays must be a whole number >= 0, got %v", ErrInvalidQuery, v)
	}
	return int(v), nil
}

func parseLegacyQuery(input string) (*ScanQuery, error) {
	q := &ScanQuery{TradingDays: -1, Legacy: true}

	for _, word := range strings.Fields(strings.ToLower(input)) {
		var (
			value string
			dest  **float64
		)
		switch {
		case strings.HasPrefix(word, "minbid"):
			value, dest = strings.TrimPrefix(word, "minbid"), &q.Range.MinPremium
		case strings.HasPrefix(word, "distance"):
			value, dest = strings.TrimPrefix(word, "distance"), &q.Range.MinDistance
		case strings.HasPrefix(word, "td"):
			days, err := strconv.Atoi(strings.TrimPrefix(word, "td"))
			if err != nil || days < 0 {
				return nil, fmt.Errorf("%w: bad trading days token %q", ErrInvalidQuery, word)
			}
			q.TradingDays = days
			continue
		default:
			return nil, fmt.Errorf("%w: unrecognised token %q", ErrInvalidQuery, word)
		}

		v, err := strconv.ParseFloat(strings.TrimPrefix(value, "$"), 64)
		if err != nil || !IsFinite(v) {
			return nil, fmt.Errorf("%w: bad value in %q", ErrInvalidQuery, word)
		}
		*dest = Bound(v)
	}

	var missing []string
	if q.TradingDays < 0 {
		missing = append(missing, "tdN")
	}
	if q.Range.MinPremium == nil {
		missing = append(missing, "minbidX")
	}
	if q.Range.MinDistance == nil {
		missing = append(missing, "distanceN")
	}
	if len(missing) > 0 {
		err := ErrInvalidQuery
		if q.TradingDays < 0 {
			err = ErrMissingTradingDays
		}
		return nil, fmt.Errorf("%w: missing %s", err, strings.Join(missing, ", "))
	}
	return q, nil
}
