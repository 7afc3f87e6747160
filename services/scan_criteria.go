package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ==========================
// Filter fields
// ==========================

type fieldClass int

const (
	classOther fieldClass = iota
	classPremium
	classDistance
)

type filterField struct {
	name  string
	class fieldClass
	value func(q ScannedQuote) float64
}

var filterFields = map[string]filterField{
	"bid":                {"bid", classPremium, func(q ScannedQuote) float64 { return q.Bid }},
	"ask":                {"ask", classOther, func(q ScannedQuote) float64 { return q.Ask }},
	"last":               {"last", classOther, func(q ScannedQuote) float64 { return q.LastPrice }},
	"strike":             {"strike", classOther, func(q ScannedQuote) float64 { return q.Strike }},
	"volume":             {"volume", classOther, func(q ScannedQuote) float64 { return float64(q.Volume) }},
	"open_interest":      {"open_interest", classOther, func(q ScannedQuote) float64 { return float64(q.OpenInterest) }},
	"implied_volatility": {"implied_volatility", classOther, func(q ScannedQuote) float64 { return q.ImpliedVolatility }},
	"distance_from_spx":  {"distance_from_spx", classDistance, func(q ScannedQuote) float64 { return q.DistanceFromSpot }},
	"awayfromstrike":     {"awayfromstrike", classDistance, func(q ScannedQuote) float64 { return math.Abs(q.DistanceFromSpot) }},
}

var filterFieldAliases = map[string]string{
	"lastprice":          "last",
	"last_price":         "last",
	"openinterest":       "open_interest",
	"oi":                 "open_interest",
	"iv":                 "implied_volatility",
	"impliedvolatility":  "implied_volatility",
	"distance":           "distance_from_spx",
	"distance_from_spot": "distance_from_spx",
	"distancefromspx":    "distance_from_spx",
}

func resolveFilterField(name string) (string, bool) {
	name = strings.ToLower(name)
	if alias, ok := filterFieldAliases[name]; ok {
		name = alias
	}
	_, ok := filterFields[name]
	return name, ok
}

// FilterFieldNames lists the canonical filter field names
func FilterFieldNames() []string {
	return []string{"bid", "ask", "last", "strike", "volume", "open_interest", "implied_volatility", "distance_from_spx", "awayfromstrike"}
}

// ==========================
// Expression tree
// ==========================

// FilterExpr is a parsed filter expression
type FilterExpr interface {
	// eval tests q; clauses for which keep returns false count as satisfied
	eval(q ScannedQuote, keep func(*Comparison) bool) bool
	walk(fn func(*Comparison))
	String() string
}

// Comparison is a single "field op value" clause
type Comparison struct {
	Field string
	Op    string
	Value float64
}

func (c *Comparison) eval(q ScannedQuote, keep func(*Comparison) bool) bool {
	if keep != nil && !keep(c) {
		return true
	}
	field, ok := filterFields[c.Field]
	if !ok {
		return false
	}
	v := field.value(q)
	switch c.Op {
	case "=":
		return decimal.NewFromFloat(v).Equal(decimal.NewFromFloat(c.Value))
	case "!=":
		return !decimal.NewFromFloat(v).Equal(decimal.NewFromFloat(c.Value))
	case ">":
		return v > c.Value
	case ">=":
		return v >= c.Value
	case "<":
		return v < c.Value
	case "<=":
		return v <= c.Value
	}
	return false
}

func (c *Comparison) walk(fn func(*Comparison)) { fn(c) }

func (c *Comparison) String() string {
	return fmt.Sprintf("%s %s %s", c.Field, c.Op, strconv.FormatFloat(c.Value, 'f', -1, 64))
}

// Logical joins two expressions with AND or OR
type Logical struct {
	Op    string
	Left  FilterExpr
	Right FilterExpr
}

func (l *Logical) eval(q ScannedQuote, keep func(*Comparison) bool) bool {
	left := l.Left.eval(q, keep)
	if l.Op == "OR" {
		return left || l.Right.eval(q, keep)
	}
	return left && l.Right.eval(q, keep)
}

func (l *Logical) walk(fn func(*Comparison)) {
	l.Left.walk(fn)
	l.Right.walk(fn)
}

func (l *Logical) String() string {
	right := l.Right.String()
	if _, nested := l.Right.(*Logical); nested {
		right = "(" + right + ")"
	}
	return l.Left.String() + " " + l.Op + " " + right
}

// ==========================
// Scan criteria
// ==========================

// RangeCriteria bounds premium and distance; nil bounds are open.
// Absent minimums are treated as 0.
type RangeCriteria struct {
	MinPremium  *float64 `json:"min_premium,omitempty"`
	MaxPremium  *float64 `json:"max_premium,omitempty"`
	MinDistance *float64 `json:"min_distance,omitempty"`
	MaxDistance *float64 `json:"max_distance,omitempty"`
}

// Bound returns a pointer to v for use in RangeCriteria
func Bound(v float64) *float64 {
	return &v
}

// IsFinite reports whether v is neither NaN nor infinite
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Validate rejects non-finite bounds
func (r RangeCriteria) Validate() error {
	for _, b := range []struct {
		name  string
		value *float64
	}{
		{"min premium", r.MinPremium},
		{"max premium", r.MaxPremium},
		{"min distance", r.MinDistance},
		{"max distance", r.MaxDistance},
	} {
		if b.value != nil && !IsFinite(*b.value) {
			return fmt.Errorf("%w: %s must be a finite number, got %v", ErrInvalidInput, b.name, *b.value)
		}
	}
	return nil
}

// ScanCriteria is a predicate over scanned quotes, built from either range
// bounds or a filter expression. Both forms compile to the same tree.
type ScanCriteria struct {
	expr FilterExpr
	rng  *RangeCriteria
}

// NewRangeCriteria compiles range bounds into criteria
func NewRangeCriteria(r RangeCriteria) ScanCriteria {
	minPremium, minDistance := 0.0, 0.0
	if r.MinPremium != nil {
		minPremium = *r.MinPremium
	}
	if r.MinDistance != nil {
		minDistance = *r.MinDistance
	}

	var expr FilterExpr = &Comparison{Field: "bid", Op: ">=", Value: minPremium}
	and := func(c *Comparison) {
		expr = &Logical{Op: "AND", Left: expr, Right: c}
	}
	if r.MaxPremium != nil {
		and(&Comparison{Field: "bid", Op: "<=", Value: *r.MaxPremium})
	}
	and(&Comparison{Field: "distance_from_spx", Op: ">=", Value: minDistance})
	if r.MaxDistance != nil {
		and(&Comparison{Field: "distance_from_spx", Op: "<=", Value: *r.MaxDistance})
	}

	rc := r
	return ScanCriteria{expr: expr, rng: &rc}
}

// ParseFilter parses an expression such as
// "bid >= 0.05 AND distance_from_spx BETWEEN 250 AND 400"
func ParseFilter(input string) (ScanCriteria, error) {
	expr, err := parseFilterExpression(input, resolveFilterField)
	if err != nil {
		return ScanCriteria{}, err
	}
	return ScanCriteria{expr: expr}, nil
}

// Range returns the range bounds when the criteria were built from them
func (c ScanCriteria) Range() (RangeCriteria, bool) {
	if c.rng == nil {
		return RangeCriteria{}, false
	}
	return *c.rng, true
}

// Matches reports whether q satisfies every clause
func (c ScanCriteria) Matches(q ScannedQuote) bool {
	if c.expr == nil {
		return true
	}
	return c.expr.eval(q, nil)
}

// MatchesPremium evaluates only the premium clauses
func (c ScanCriteria) MatchesPremium(q ScannedQuote) bool {
	return c.matchesClass(q, classPremium)
}

// MatchesDistance evaluates only the distance clauses
func (c ScanCriteria) MatchesDistance(q ScannedQuote) bool {
	return c.matchesClass(q, classDistance)
}

func (c ScanCriteria) matchesClass(q ScannedQuote, class fieldClass) bool {
	if c.expr == nil {
		return true
	}
	return c.expr.eval(q, func(cmp *Comparison) bool {
		return filterFields[cmp.Field].class == class
	})
}

// MinDistance is the tightest lower bound placed on distance from spot, or 0
func (c ScanCriteria) MinDistance() float64 {
	if c.rng != nil {
		if c.rng.MinDistance != nil {
			return *c.rng.MinDistance
		}
		return 0
	}

	minDistance := 0.0
	if c.expr != nil {
		c.expr.walk(func(cmp *Comparison) {
			if cmp.Field != "distance_from_spx" {
				return
			}
			switch cmp.Op {
			case ">=", ">", "=":
				minDistance = math.Max(minDistance, cmp.Value)
			}
		})
	}
	return minDistance
}

func (c ScanCriteria) String() string {
	if c.expr == nil {
		return "any"
	}
	return c.expr.String()
}
