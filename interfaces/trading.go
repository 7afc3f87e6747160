package interfaces

import (
	"time"
)

// TradingCalendar reports whether the exchange is open on a calendar date
type TradingCalendar interface {
	IsTradingDay(date time.Time) bool
}

// StorageService defines the interface for local data persistence
type StorageService interface {
	SaveOrder(order *Order) error
	GetOrder(orderID string) (*Order, error)
	GetOrders(filter OrderFilter) ([]*Order, error)
	UpdateOrderStatus(orderID string, status OrderStatus) (*Order, error)
	SaveScanRecord(record *ScanRecord) error
	GetScanRecords(limit int) ([]*ScanRecord, error)
	Close() error
}

// OrderStatus is the lifecycle state of a logged order
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderOpen      OrderStatus = "OPEN"
	OrderFilled    OrderStatus = "FILLED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// IsOpen reports whether the order is still working
func (s OrderStatus) IsOpen() bool {
	return s == OrderPending || s == OrderOpen
}

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderOpen, OrderFilled, OrderCancelled:
		return true
	}
	return false
}

// OrderFilter selects orders by lifecycle group
type OrderFilter string

const (
	OrderFilterAll    OrderFilter = "all"
	OrderFilterOpen   OrderFilter = "open"
	OrderFilterClosed OrderFilter = "closed"
)

// Statuses returns the statuses covered by the filter; nil means every status
func (f OrderFilter) Statuses() []OrderStatus {
	switch f {
	case OrderFilterOpen:
		return []OrderStatus{OrderPending, OrderOpen}
	case OrderFilterClosed:
		return []OrderStatus{OrderFilled, OrderCancelled}
	}
	return nil
}

// Order is one entry of the order log
type Order struct {
	ID          string      `json:"id"`
	Symbol      string      `json:"symbol"`
	Type        string      `json:"type"` // "PUT"
	Side        string      `json:"side"` // "SELL"
	Strike      float64     `json:"strike"`
	Expiration  time.Time   `json:"expiration"`
	Quantity    int         `json:"quantity"`
	LimitPrice  float64     `json:"limit_price"`
	Status      OrderStatus `json:"status"`
	Source      string      `json:"source,omitempty"` // query or preset that produced the order
	SubmittedAt time.Time   `json:"submitted_at"`
	ClosedAt    *time.Time  `json:"closed_at,omitempty"`
}

// OrderSummary counts orders by lifecycle group
type OrderSummary struct {
	Open      int `json:"open"`
	Filled    int `json:"filled"`
	Cancelled int `json:"cancelled"`
	Total     int `json:"total"`
}

// SummarizeOrders counts orders by status
func SummarizeOrders(orders []*Order) OrderSummary {
	var summary OrderSummary
	for _, o := range orders {
		switch {
		case o.Status.IsOpen():
			summary.Open++
		case o.Status == OrderFilled:
			summary.Filled++
		case o.Status == OrderCancelled:
			summary.Cancelled++
		}
		summary.Total++
	}
	return summary
}

// ScanRecord is the persisted outline of one completed scan
type ScanRecord struct {
	ID             uint       `json:"id"`
	Symbol         string     `json:"symbol"`
	Query          string     `json:"query"`
	TradingDays    int        `json:"trading_days"`
	Expiration     *time.Time `json:"expiration,omitempty"`
	ExactMatch     bool       `json:"exact_match"`
	Spot           float64    `json:"spot"`
	Candidates     int        `json:"candidates"`
	BestStrike     *float64   `json:"best_strike,omitempty"`
	BestBid        *float64   `json:"best_bid,omitempty"`
	BestDistance   *float64   `json:"best_distance,omitempty"`
	Recommendation string     `json:"recommendation"`
	CreatedAt      time.Time  `json:"created_at"`
}
