package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"spx-premium-scanner/interfaces"
	"spx-premium-scanner/models"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrOrderNotFound is returned when no order carries the requested ID
var ErrOrderNotFound = errors.New("order not found")

// LocalStorage implements the StorageService interface using SQLite
type LocalStorage struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewLocalStorage creates a new local storage service
func NewLocalStorage(dbPath string) (*LocalStorage, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.DBOrder{},
		&models.DBScanRecord{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return &LocalStorage{
		db:     db,
		logger: logger,
	}, nil
}

// Logger exposes the storage logger so callers can adjust its level
func (s *LocalStorage) Logger() *logrus.Logger {
	return s.logger
}

// SaveOrder inserts or updates an order keyed by its order ID
func (s *LocalStorage) SaveOrder(order *interfaces.Order) error {
	var existing models.DBOrder
	err := s.db.Where("order_id = ?", order.ID).First(&existing).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up order: %w", err)
	}

	dbOrder := toDBOrder(order)
	dbOrder.Model = existing.Model

	if err := s.db.Save(dbOrder).Error; err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"strike":   order.Strike,
		"status":   order.Status,
	}).Info("Order saved")
	return nil
}

// GetOrder retrieves an order by ID
func (s *LocalStorage) GetOrder(orderID string) (*interfaces.Order, error) {
	var dbOrder models.DBOrder

	err := s.db.Where("order_id = ?", orderID).First(&dbOrder).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return fromDBOrder(&dbOrder), nil
}

// GetOrders retrieves orders in a lifecycle group, newest first
func (s *LocalStorage) GetOrders(filter interfaces.OrderFilter) ([]*interfaces.Order, error) {
	var dbOrders []*models.DBOrder

	query := s.db.Model(&models.DBOrder{})
	if statuses := filter.Statuses(); statuses != nil {
		names := make([]string, len(statuses))
		for i, st := range statuses {
			names[i] = string(st)
		}
		query = query.Where("status IN ?", names)
	}

	if err := query.Order("submitted_at DESC").Find(&dbOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}

	orders := make([]*interfaces.Order, len(dbOrders))
	for i, dbOrder := range dbOrders {
		orders[i] = fromDBOrder(dbOrder)
	}
	return orders, nil
}

// UpdateOrderStatus moves an order to a new status, stamping ClosedAt when it leaves the open group
func (s *LocalStorage) UpdateOrderStatus(orderID string, status interfaces.OrderStatus) (*interfaces.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid order status %q", status)
	}

	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}

	order.Status = status
	if status.IsOpen() {
		order.ClosedAt = nil
	} else if order.ClosedAt == nil {
		now := time.Now()
		order.ClosedAt = &now
	}

	if err := s.SaveOrder(order); err != nil {
		return nil, err
	}
	return order, nil
}

// SaveScanRecord stores the outline of a completed scan
func (s *LocalStorage) SaveScanRecord(record *interfaces.ScanRecord) error {
	dbRecord := &models.DBScanRecord{
		Symbol:         record.Symbol,
		Query:          record.Query,
		TradingDays:    record.TradingDays,
		Expiration:     record.Expiration,
		ExactMatch:     record.ExactMatch,
		Spot:           record.Spot,
		Candidates:     record.Candidates,
		BestStrike:     record.BestStrike,
		BestBid:        record.BestBid,
		BestDistance:   record.BestDistance,
		Recommendation: record.Recommendation,
	}

	if err := s.db.Create(dbRecord).Error; err != nil {
		return fmt.Errorf("failed to save scan record: %w", err)
	}

	record.ID = dbRecord.ID
	record.CreatedAt = dbRecord.CreatedAt
	return nil
}

// GetScanRecords returns the most recent scan records; limit <= 0 returns all
func (s *LocalStorage) GetScanRecords(limit int) ([]*interfaces.ScanRecord, error) {
	var dbRecords []*models.DBScanRecord

	query := s.db.Model(&models.DBScanRecord{}).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&dbRecords).Error; err != nil {
		return nil, fmt.Errorf("failed to get scan records: %w", err)
	}

	records := make([]*interfaces.ScanRecord, len(dbRecords))
	for i, r := range dbRecords {
		records[i] = &interfaces.ScanRecord{
			ID:             r.ID,
			Symbol:         r.Symbol,
			Query:          r.Query,
			TradingDays:    r.TradingDays,
			Expiration:     r.Expiration,
			ExactMatch:     r.ExactMatch,
			Spot:           r.Spot,
			Candidates:     r.Candidates,
			BestStrike:     r.BestStrike,
			BestBid:        r.BestBid,
			BestDistance:   r.BestDistance,
			Recommendation: r.Recommendation,
			CreatedAt:      r.CreatedAt,
		}
	}
	return records, nil
}

// Close closes the underlying database connection
func (s *LocalStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.Close()
}

func toDBOrder(order *interfaces.Order) *models.DBOrder {
	return &models.DBOrder{
		OrderID:     order.ID,
		Symbol:      order.Symbol,
		Type:        order.Type,
		Side:        order.Side,
		Strike:      order.Strike,
		Expiration:  order.Expiration,
		Quantity:    order.Quantity,
		LimitPrice:  order.LimitPrice,
		Status:      string(order.Status),
		Source:      order.Source,
		SubmittedAt: order.SubmittedAt,
		ClosedAt:    order.ClosedAt,
	}
}

func fromDBOrder(dbOrder *models.DBOrder) *interfaces.Order {
	return &interfaces.Order{
		ID:          dbOrder.OrderID,
		Symbol:      dbOrder.Symbol,
		Type:        dbOrder.Type,
		Side:        dbOrder.Side,
		Strike:      dbOrder.Strike,
		Expiration:  dbOrder.Expiration,
		Quantity:    dbOrder.Quantity,
		LimitPrice:  dbOrder.LimitPrice,
		Status:      interfaces.OrderStatus(dbOrder.Status),
		Source:      dbOrder.Source,
		SubmittedAt: dbOrder.SubmittedAt,
		ClosedAt:    dbOrder.ClosedAt,
	}
}
