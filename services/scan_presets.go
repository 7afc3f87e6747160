package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ScanPreset is a named scan configuration
type ScanPreset struct {
	Name        string  `json:"name"`
	Label       string  `json:"label"`
	TradingDays int     `json:"trading_days"`
	MinDistance float64 `json:"min_distance"`
	MinPremium  float64 `json:"min_premium"`
}

var scanPresets = map[string]ScanPreset{
	"today":    {Name: "today", Label: "0DTE", TradingDays: 0, MinDistance: 200, MinPremium: 0.80},
	"tomorrow": {Name: "tomorrow", Label: "1DTE", TradingDays: 1, MinDistance: 300, MinPremium: 2.00},
}

// LookupPreset finds a preset by name
func LookupPreset(name string) (ScanPreset, error) {
	p, ok := scanPresets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return ScanPreset{}, fmt.Errorf("%w %q (known: %s)", ErrUnknownPreset, name, strings.Join(PresetNames(), ", "))
	}
	return p, nil
}

// PresetNames lists preset names alphabetically
func PresetNames() []string {
	names := make([]string, 0, len(scanPresets))
	for name := range scanPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FormatScanQuery renders bounds in the flag query form accepted by ParseScanQuery
func FormatScanQuery(tradingDays int, r RangeCriteria) string {
	parts := []string{"tradingdays=" + strconv.Itoa(tradingDays)}
	parts = append(parts, formatBounds("minbid", r.MinPremium, r.MaxPremium)...)
	parts = append(parts, formatBounds("distance", r.MinDistance, r.MaxDistance)...)
	return strings.Join(parts, " AND ")
}

func formatBounds(field string, lower, upper *float64) []string {
	num := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	switch {
	case lower != nil && upper != nil:
		return []string{fmt.Sprintf("%s BETWEEN %s AND %s", field, num(*lower), num(*upper))}
	case lower != nil:
		return []string{fmt.Sprintf("%s>=%s", field, num(*lower))}
	case upper != nil:
		return []string{fmt.Sprintf("%s<=%s", field, num(*upper))}
	}
	return nil
}
