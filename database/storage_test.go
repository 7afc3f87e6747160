package database

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"spx-premium-scanner/interfaces"
)

func newTestStorage(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testOrder(id string, strike float64, status interfaces.OrderStatus, submitted time.Time) *interfaces.Order {
	return &interfaces.Order{
		ID:          id,
		Symbol:      "SPX",
		Type:        "PUT",
		Side:        "SELL",
		Strike:      strike,
		Expiration:  time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
		Quantity:    1,
		LimitPrice:  0.85,
		Status:      status,
		Source:      "test",
		SubmittedAt: submitted,
	}
}

func TestSaveOrderUpserts(t *testing.T) {
	s := newTestStorage(t)
	now := time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC)

	if err := s.SaveOrder(testOrder("a", 5800, interfaces.OrderPending, now)); err != nil {
		t.Fatalf("SaveOrder: %v", err)
	}
	updated := testOrder("a", 5750, interfaces.OrderOpen, now)
	if err := s.SaveOrder(updated); err != nil {
		t.Fatalf("SaveOrder update: %v", err)
	}

	got, err := s.GetOrder("a")
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if got.Strike != 5750 || got.Status != interfaces.OrderOpen {
		t.Errorf("got strike %v status %s, want 5750 OPEN", got.Strike, got.Status)
	}

	all, err := s.GetOrders(interfaces.OrderFilterAll)
	if err != nil {
		t.Fatalf("GetOrders: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("got %d orders after upsert, want 1", len(all))
	}
}

func TestGetOrderNotFound(t *testing.T) {
	s := newTestStorage(t)
	_, err := s.GetOrder("missing")
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("got %v, want ErrOrderNotFound", err)
	}
	if _, err := s.UpdateOrderStatus("missing", interfaces.OrderFilled); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("UpdateOrderStatus: got %v, want ErrOrderNotFound", err)
	}
}

func TestGetOrdersFilter(t *testing.T) {
	s := newTestStorage(t)
	base := time.Date(2025, 3, 3, 15, 0, 0, 0, time.UTC)
	orders := []*interfaces.Order{
		testOrder("p", 5800, interfaces.OrderPending, base),
		testOrder("o", 5790, interfaces.OrderOpen, base.Add(time.Minute)),
		testOrder("f", 5780, interfaces.OrderFilled, base.Add(2*time.Minute)),
		testOrder("c", 5770, interfaces.OrderCancelled, base.Add(3*time.Minute)),
	}
	for _, o := range orders {
		if err := s.SaveOrder(o); err != nil {
			t.Fatalf("SaveOrder %s: %v", o.ID, err)
		}
	}

	tests := []struct {
		filter interfaces.OrderFilter
		want   []string
	}{
		{interfaces.OrderFilterAll, []string{"c", "f", "o", "p"}},
		{interfaces.OrderFilterOpen, []string{"o", "p"}},
		{interfaces.OrderFilterClosed, []string{"c", "f"}},
		{"", []string{"c", "f", "o", "p"}},
	}
	for _, tt := range tests {
		got, err := s.GetOrders(tt.filter)
		if err != nil {
			t.Fatalf("GetOrders(%q): %v", tt.filter, err)
		}
		if len(got) != len(tt.want) {
			t.Fatalf("GetOrders(%q): got %d orders, want %d", tt.filter, len(got), len(tt.want))
		}
		for i, id := range tt.want {
			if got[i].ID != id {
				t.Errorf("GetOrders(%q)[%d] = %s, want %s", tt.filter, i, got[i].ID, id)
			}
		}
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	s := newTestStorage(t)
	if err := s.SaveOrder(testOrder("a", 5800, interfaces.OrderPending, time.Now())); err != nil {
		t.Fatalf("SaveOrder: %v", err)
	}

	if _, err := s.UpdateOrderStatus("a", "EXPIRED"); err == nil {
		t.Error("expected error for unknown status")
	}

	filled, err := s.UpdateOrderStatus("a", interfaces.OrderFilled)
	if err != nil {
		t.Fatalf("UpdateOrderStatus: %v", err)
	}
	if filled.ClosedAt == nil {
		t.Fatal("ClosedAt not set on fill")
	}

	stored, err := s.GetOrder("a")
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if stored.Status != interfaces.OrderFilled || stored.ClosedAt == nil {
		t.Errorf("stored order = %s closed %v, want FILLED with ClosedAt", stored.Status, stored.ClosedAt)
	}

	reopened, err := s.UpdateOrderStatus("a", interfaces.OrderOpen)
	if err != nil {
		t.Fatalf("UpdateOrderStatus reopen: %v", err)
	}
	if reopened.ClosedAt != nil {
		t.Error("ClosedAt should be cleared when the order reopens")
	}
}

func TestScanRecordsNewestFirst(t *testing.T) {
	s := newTestStorage(t)
	strike := 5800.0
	for i, rec := range []string{"NO_TRADE", "TRADE", "TRADE"} {
		r := &interfaces.ScanRecord{
			Symbol:         "SPX",
			Query:          "bid >= 0.5",
			TradingDays:    i,
			Spot:           6000,
			Recommendation: rec,
		}
		if rec == "TRADE" {
			r.BestStrike = &strike
		}
		if err := s.SaveScanRecord(r); err != nil {
			t.Fatalf("SaveScanRecord: %v", err)
		}
		if r.ID == 0 {
			t.Fatal("SaveScanRecord did not assign an ID")
		}
	}

	all, err := s.GetScanRecords(0)
	if err != nil {
		t.Fatalf("GetScanRecords: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d records, want 3", len(all))
	}
	if all[0].TradingDays != 2 || all[2].TradingDays != 0 {
		t.Errorf("records not newest first: %d..%d", all[0].TradingDays, all[2].TradingDays)
	}
	if all[0].BestStrike == nil || *all[0].BestStrike != 5800 {
		t.Errorf("best strike not round-tripped: %v", all[0].BestStrike)
	}
	if all[2].BestStrike != nil {
		t.Errorf("NO_TRADE record has best strike %v", *all[2].BestStrike)
	}

	limited, err := s.GetScanRecords(2)
	if err != nil {
		t.Fatalf("GetScanRecords(2): %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("got %d records with limit 2, want 2", len(limited))
	}
}
