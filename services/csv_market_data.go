package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"spx-premium-scanner/interfaces"
	"strconv"
	"strings"
	"time"
)

// CSVMarketDataService serves a chain saved to disk with a fixed spot price.
//
// Expected header (column order is free, names are case-insensitive):
//
//	expiration,strike,bid,ask,last,volume,open_interest,iv
//
// Empty cells read as 0. iv is already a percentage.
type CSVMarketDataService struct {
	path string
	spot float64
}

// NewCSVMarketDataService creates a file-backed market data service
func NewCSVMarketDataService(path string, spot float64) *CSVMarketDataService {
	return &CSVMarketDataService{path: path, spot: spot}
}

// GetSpotPrice returns the configured spot
func (s *CSVMarketDataService) GetSpotPrice(ctx context.Context, symbol string) (float64, error) {
	if !IsFinite(s.spot) || s.spot <= 0 {
		return 0, fmt.Errorf("%w: CSV_SPOT must be set for the csv provider", ErrInvalidSpot)
	}
	return s.spot, nil
}

// GetExpirations lists the distinct expirations in the file
func (s *CSVMarketDataService) GetExpirations(ctx context.Context, symbol string) ([]interfaces.Expiration, error) {
	rows, err := s.load()
	if err != nil {
		return nil, err
	}

	seen := make(map[time.Time]bool)
	expirations := make([]interfaces.Expiration, 0)
	for _, r := range rows {
		if seen[r.expiration] {
			continue
		}
		seen[r.expiration] = true
		expirations = append(expirations, interfaces.Expiration{
			Date: r.expiration,
			ID:   r.expiration.Format("2006-01-02"),
		})
	}
	sort.Slice(expirations, func(i, j int) bool {
		return expirations[i].Date.Before(expirations[j].Date)
	})
	return expirations, nil
}

// GetPutChain returns the rows for one expiration in file order
func (s *CSVMarketDataService) GetPutChain(ctx context.Context, symbol string, expiration interfaces.Expiration) ([]interfaces.Quote, error) {
	rows, err := s.load()
	if err != nil {
		return nil, err
	}

	want := DateOf(expiration.Date)
	quotes := make([]interfaces.Quote, 0)
	for _, r := range rows {
		if r.expiration.Equal(want) {
			quotes = append(quotes, r.quote)
		}
	}
	return quotes, nil
}

type csvChainRow struct {
	expiration time.Time
	quote      interfaces.Quote
}

func (s *CSVMarketDataService) load() ([]csvChainRow, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open chain file: %w", err)
	}
	defer f.Close()
	return readChainCSV(f)
}

func readChainCSV(r io.Reader) ([]csvChainRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read chain header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"expiration", "strike", "bid"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("chain file is missing the %q column", required)
		}
	}

	var rows []csvChainRow
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read chain line %d: %w", line, err)
		}

		cell := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		num := func(name string) (float64, error) {
			v := cell(name)
			if v == "" {
				return 0, nil
			}
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || !IsFinite(f) {
				return 0, fmt.Errorf("line %d: bad %s %q", line, name, v)
			}
			return f, nil
		}

		expiration, err := time.Parse("2006-01-02", cell("expiration"))
		if err != nil {
			return nil, fmt.Errorf("line %d: bad expiration %q", line, cell("expiration"))
		}

		var q interfaces.Quote
		var volume, openInterest float64
		for _, field := range []struct {
			name string
			dest *float64
		}{
			{"strike", &q.Strike},
			{"bid", &q.Bid},
			{"ask", &q.Ask},
			{"last", &q.LastPrice},
			{"iv", &q.ImpliedVolatility},
			{"volume", &volume},
			{"open_interest", &openInterest},
		} {
			v, err := num(field.name)
			if err != nil {
				return nil, err
			}
			*field.dest = v
		}
		q.Volume = int64(volume)
		q.OpenInterest = int64(openInterest)

		rows = append(rows, csvChainRow{expiration: expiration, quote: q})
	}
	return rows, nil
}
