package services

import (
	"errors"
	"math"
	"spx-premium-scanner/interfaces"
	"testing"
	"time"
)

func TestOrderTicket_Preview(t *testing.T) {
	tests := []struct {
		symbol   string
		strike   float64
		limit    float64
		quantity int
		want     string
	}{
		{"^SPX", 5750, 1.00, 1, "SELL 1 SPX 5750P LIMIT 1.00 Credit $100.00"},
		{"spx", 5802.5, 0.85, 3, "SELL 3 SPX 5802.5P LIMIT 0.85 Credit $255.00"},
		{"SPY", 570, 0.07, 10, "SELL 10 SPY 570P LIMIT 0.07 Credit $70.00"},
	}

	exp := time.Date(2025, time.March, 3, 16, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		ticket, err := NewOrderTicket(tt.symbol, tt.strike, tt.limit, tt.quantity, exp)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := ticket.Preview(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
		if !ticket.Expiration.Equal(day(2025, 3, 3)) {
			t.Errorf("expected the expiration date only, got %v", ticket.Expiration)
		}
	}
}

func TestNewOrderTicket_Invalid(t *testing.T) {
	exp := day(2025, 3, 3)
	tests := []struct {
		name     string
		strike   float64
		limit    float64
		quantity int
		exp      time.Time
	}{
		{"zero strike", 0, 1, 1, exp},
		{"zero limit", 5750, 0, 1, exp},
		{"zero quantity", 5750, 1, 0, exp},
		{"no expiration", 5750, 1, 1, time.Time{}},
		{"NaN limit", 5750, math.NaN(), 1, exp},
		{"infinite strike", math.Inf(1), 1, 1, exp},
	}

	for _, tt := range tests {
		if _, err := NewOrderTicket("^SPX", tt.strike, tt.limit, tt.quantity, tt.exp); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", tt.name, err)
		}
	}
}

func TestOrderLog_RecordListUpdate(t *testing.T) {
	storage := newMemoryStorage()
	orders := NewOrderLog(storage)
	clock := day(2025, 3, 3).Add(15 * time.Hour)
	orders.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	var ids []string
	for _, strike := range []float64{5750, 5800, 5850} {
		ticket, err := NewOrderTicket("^SPX", strike, 1, 1, day(2025, 3, 3))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		order, err := orders.Record(ticket, "today")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if order.Status != interfaces.OrderPending || order.Side != "SELL" || order.Type != "PUT" || order.ID == "" {
			t.Fatalf("unexpected order: %+v", order)
		}
		ids = append(ids, order.ID)
	}

	if _, err := orders.UpdateStatus(ids[0], interfaces.OrderFilled); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := orders.UpdateStatus(ids[1], interfaces.OrderCancelled); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := orders.UpdateStatus(ids[2], "DONE"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	open, summary, err := orders.List(interfaces.OrderFilterOpen)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(open) != 1 || open[0].ID != ids[2] {
		t.Fatalf("expected one open order, got %+v", open)
	}
	want := interfaces.OrderSummary{Open: 1, Filled: 1, Cancelled: 1, Total: 3}
	if summary != want {
		t.Fatalf("expected %+v, got %+v", want, summary)
	}

	closed, _, _ := orders.List(interfaces.OrderFilterClosed)
	if len(closed) != 2 {
		t.Fatalf("expected two closed orders, got %d", len(closed))
	}
}

func TestParseOrderFilterAndStatus(t *testing.T) {
	if f, err := ParseOrderFilter(""); err != nil || f != interfaces.OrderFilterAll {
		t.Fatalf("expected all, got %q %v", f, err)
	}
	if f, err := ParseOrderFilter(" OPEN "); err != nil || f != interfaces.OrderFilterOpen {
		t.Fatalf("expected open, got %q %v", f, err)
	}
	if _, err := ParseOrderFilter("pending"); !IsInputError(err) {
		t.Fatalf("expected an input error, got %v", err)
	}

	if s, err := ParseOrderStatus("canceled"); err != nil || s != interfaces.OrderCancelled {
		t.Fatalf("expected CANCELLED, got %q %v", s, err)
	}
	if s, err := ParseOrderStatus("filled"); err != nil || s != interfaces.OrderFilled {
		t.Fatalf("expected FILLED, got %q %v", s, err)
	}
	if _, err := ParseOrderStatus("closed"); !IsInputError(err) {
		t.Fatalf("expected an input error, got %v", err)
	}
}
