package services

import (
	"errors"
	"fmt"
	"spx-premium-scanner/interfaces"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// contractMultiplier is the index option multiplier
var contractMultiplier = decimal.NewFromInt(100)

// OrderTicket is a short put limit order ready to be logged
type OrderTicket struct {
	Symbol     string          `json:"symbol"`
	Strike     float64         `json:"strike"`
	Expiration time.Time       `json:"expiration"`
	Quantity   int             `json:"quantity"`
	LimitPrice decimal.Decimal `json:"limit_price"`
}

// NewOrderTicket validates and builds a ticket
func NewOrderTicket(symbol string, strike, limitPrice float64, quantity int, expiration time.Time) (OrderTicket, error) {
	switch {
	case !IsFinite(strike) || !IsFinite(limitPrice):
		return OrderTicket{}, fmt.Errorf("%w: strike and limit price must be finite numbers", ErrInvalidInput)
	case strike <= 0:
		return OrderTicket{}, fmt.Errorf("%w: strike must be positive", ErrInvalidInput)
	case limitPrice <= 0:
		return OrderTicket{}, fmt.Errorf("%w: limit price must be positive", ErrInvalidInput)
	case quantity < 1:
		return OrderTicket{}, fmt.Errorf("%w: quantity must be at least 1", ErrInvalidInput)
	case expiration.IsZero():
		return OrderTicket{}, fmt.Errorf("%w: expiration is required", ErrInvalidInput)
	}
	return OrderTicket{
		Symbol:     DisplaySymbol(symbol),
		Strike:     strike,
		Expiration: DateOf(expiration),
		Quantity:   quantity,
		LimitPrice: decimal.NewFromFloat(limitPrice),
	}, nil
}

// TicketFromReport builds a one-lot ticket at the best strike's bid
func TicketFromReport(report *ScanReport) (OrderTicket, error) {
	if report.Recommendation != RecommendTrade || report.Result == nil || report.Result.Best == nil || report.Expiration == nil {
		return OrderTicket{}, errors.New("scan produced no tradeable strike")
	}
	best := report.Result.Best
	return NewOrderTicket(report.Symbol, best.Strike, best.Bid, 1, report.Expiration.Expiration.Date)
}

// Credit is the premium collected: limit x 100 x quantity
func (t OrderTicket) Credit() decimal.Decimal {
	return t.LimitPrice.Mul(contractMultiplier).Mul(decimal.NewFromInt(int64(t.Quantity)))
}

// Preview renders e.g. "SELL 1 SPX 5750P LIMIT 1.00 Credit $100.00"
func (t OrderTicket) Preview() string {
	return fmt.Sprintf("SELL %d %s %sP LIMIT %s Credit $%s",
		t.Quantity,
		t.Symbol,
		strconv.FormatFloat(t.Strike, 'f', -1, 64),
		t.LimitPrice.StringFixed(2),
		t.Credit().StringFixed(2),
	)
}

// Order converts the ticket into a pending order log entry
func (t OrderTicket) Order(source string, submittedAt time.Time) *interfaces.Order {
	return &interfaces.Order{
		ID:          uuid.NewString(),
		Symbol:      t.Symbol,
		Type:        "PUT",
		Side:        "SELL",
		Strike:      t.Strike,
		Expiration:  t.Expiration,
		Quantity:    t.Quantity,
		LimitPrice:  t.LimitPrice.InexactFloat64(),
		Status:      interfaces.OrderPending,
		Source:      source,
		SubmittedAt: submittedAt,
	}
}

// DisplaySymbol strips Yahoo's caret, ^SPX -> SPX
func DisplaySymbol(symbol string) string {
	return strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(symbol)), "^")
}

func formatPrice(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// OrderLog records tickets in storage and reads them back
type OrderLog struct {
	storage interfaces.StorageService
	logger  *logrus.Logger
	now     func() time.Time
}

// NewOrderLog creates an order log over storage
func NewOrderLog(storage interfaces.StorageService) *OrderLog {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return &OrderLog{storage: storage, logger: logger, now: time.Now}
}

// Logger exposes the order log logger so callers can adjust its level
func (l *OrderLog) Logger() *logrus.Logger {
	return l.logger
}

// Record stores a ticket as a PENDING order
func (l *OrderLog) Record(ticket OrderTicket, source string) (*interfaces.Order, error) {
	order := ticket.Order(source, l.now())
	if err := l.storage.SaveOrder(order); err != nil {
		return nil, err
	}

	l.logger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"preview":  ticket.Preview(),
	}).Info("Order recorded")
	return order, nil
}

// List returns orders matching filter plus counts across every order
func (l *OrderLog) List(filter interfaces.OrderFilter) ([]*interfaces.Order, interfaces.OrderSummary, error) {
	all, err := l.storage.GetOrders(interfaces.OrderFilterAll)
	if err != nil {
		return nil, interfaces.OrderSummary{}, err
	}
	summary := interfaces.SummarizeOrders(all)
	if filter == interfaces.OrderFilterAll {
		return all, summary, nil
	}

	orders, err := l.storage.GetOrders(filter)
	if err != nil {
		return nil, interfaces.OrderSummary{}, err
	}
	return orders, summary, nil
}

// UpdateStatus moves an order to a new status
func (l *OrderLog) UpdateStatus(orderID string, status interfaces.OrderStatus) (*interfaces.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", ErrInvalidInput, status)
	}
	order, err := l.storage.UpdateOrderStatus(orderID, status)
	if err != nil {
		return nil, err
	}

	l.logger.WithFields(logrus.Fields{
		"order_id": orderID,
		"status":   status,
	}).Info("Order status updated")
	return order, nil
}

// ParseOrderFilter accepts all, open or closed; empty means all
func ParseOrderFilter(s string) (interfaces.OrderFilter, error) {
	switch f := interfaces.OrderFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return interfaces.OrderFilterAll, nil
	case interfaces.OrderFilterAll, interfaces.OrderFilterOpen, interfaces.OrderFilterClosed:
		return f, nil
	}
	return "", fmt.Errorf("%w: order filter must be all, open or closed", ErrInvalidInput)
}

// ParseOrderStatus accepts a status name in any case
func ParseOrderStatus(s string) (interfaces.OrderStatus, error) {
	status := interfaces.OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	if status == "CANCELED" {
		status = interfaces.OrderCancelled
	}
	if !status.Valid() {
		return "", fmt.Errorf("%w: unknown order status %q", ErrInvalidInput, s)
	}
	return status, nil
}
