package services

import (
	"context"
	"fmt"
	"sort"
	"spx-premium-scanner/interfaces"
	"sync"
	"time"
)

// fakeMarketData serves fixed chains and counts calls
type fakeMarketData struct {
	spot        float64
	spotErr     error
	expirations []interfaces.Expiration
	expErr      error
	chains      map[string][]interfaces.Quote
	chainErr    error

	mu    sync.Mutex
	calls map[string]int
}

func (f *fakeMarketData) count(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[name]++
}

func (f *fakeMarketData) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeMarketData) GetSpotPrice(ctx context.Context, symbol string) (float64, error) {
	f.count("spot")
	return f.spot, f.spotErr
}

func (f *fakeMarketData) GetExpirations(ctx context.Context, symbol string) ([]interfaces.Expiration, error) {
	f.count("expirations")
	return f.expirations, f.expErr
}

func (f *fakeMarketData) GetPutChain(ctx context.Context, symbol string, exp interfaces.Expiration) ([]interfaces.Quote, error) {
	f.count("chain")
	if f.chainErr != nil {
		return nil, f.chainErr
	}
	return f.chains[exp.Date.Format("2006-01-02")], nil
}

// memoryStorage is an in-memory StorageService
type memoryStorage struct {
	mu      sync.Mutex
	orders  map[string]*interfaces.Order
	records []*interfaces.ScanRecord
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{orders: make(map[string]*interfaces.Order)}
}

func (m *memoryStorage) SaveOrder(order *interfaces.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *order
	m.orders[order.ID] = &copied
	return nil
}

func (m *memoryStorage) GetOrder(orderID string) (*interfaces.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %s not found", orderID)
	}
	copied := *o
	return &copied, nil
}

func (m *memoryStorage) GetOrders(filter interfaces.OrderFilter) ([]*interfaces.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	statuses := filter.Statuses()
	var out []*interfaces.Order
	for _, o := range m.orders {
		keep := statuses == nil
		for _, s := range statuses {
			if o.Status == s {
				keep = true
			}
		}
		if keep {
			copied := *o
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func (m *memoryStorage) UpdateOrderStatus(orderID string, status interfaces.OrderStatus) (*interfaces.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %s not found", orderID)
	}
	o.Status = status
	copied := *o
	return &copied, nil
}

func (m *memoryStorage) SaveScanRecord(record *interfaces.ScanRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	record.ID = uint(len(m.records) + 1)
	m.records = append(m.records, record)
	return nil
}

func (m *memoryStorage) GetScanRecords(limit int) ([]*interfaces.ScanRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*interfaces.ScanRecord, 0, len(m.records))
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

func (m *memoryStorage) Close() error { return nil }

// weekdayCalendar treats every weekday as a trading day
type weekdayCalendar struct{}

func (weekdayCalendar) IsTradingDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}
