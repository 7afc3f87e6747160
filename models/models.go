package models

import (
	"time"

	"gorm.io/gorm"
)

// DBOrder represents a logged option order in the database
type DBOrder struct {
	gorm.Model
	OrderID     string `gorm:"uniqueIndex"`
	Symbol      string `gorm:"index"`
	Type        string
	Side        string
	Strike      float64
	Expiration  time.Time `gorm:"index"`
	Quantity    int
	LimitPrice  float64
	Status      string `gorm:"index"`
	Source      string
	SubmittedAt time.Time
	ClosedAt    *time.Time
}

// DBScanRecord represents a completed scan for audit/analysis
type DBScanRecord struct {
	gorm.Model
	Symbol         string `gorm:"index"`
	Query          string
	TradingDays    int
	Expiration     *time.Time
	ExactMatch     bool
	Spot           float64
	Candidates     int
	BestStrike     *float64
	BestBid        *float64
	BestDistance   *float64
	Recommendation string `gorm:"index"`
}

// TableName overrides
func (DBOrder) TableName() string {
	return "orders"
}

func (DBScanRecord) TableName() string {
	return "scan_records"
}
