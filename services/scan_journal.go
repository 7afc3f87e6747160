package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ScanJournal keeps a JSON file per day listing every scan run
type ScanJournal struct {
	logger     *logrus.Logger
	logDir     string
	mu         sync.Mutex
	currentLog *DailyScanLog
}

// DailyScanLog represents a day's worth of scans
type DailyScanLog struct {
	Date    string             `json:"date"`
	Summary ScanJournalSummary `json:"summary"`
	Entries []ScanJournalEntry `json:"entries"`
}

// ScanJournalSummary provides high-level counts for the day
type ScanJournalSummary struct {
	Scans          int `json:"scans"`
	TradeSignals   int `json:"trade_signals"`
	NoTradeSignals int `json:"no_trade_signals"`
}

// ScanJournalEntry is one scan outcome
type ScanJournalEntry struct {
	Timestamp      time.Time      `json:"timestamp"`
	Symbol         string         `json:"symbol"`
	Label          string         `json:"label"`
	TradingDays    int            `json:"trading_days"`
	Expiration     string         `json:"expiration,omitempty"`
	ExactMatch     bool           `json:"exact_match"`
	Spot           float64        `json:"spot,omitempty"`
	Candidates     int            `json:"candidates"`
	BestStrike     float64        `json:"best_strike,omitempty"`
	BestBid        float64        `json:"best_bid,omitempty"`
	BestDistance   float64        `json:"best_distance,omitempty"`
	Safety         SafetyLevel    `json:"safety,omitempty"`
	Recommendation Recommendation `json:"recommendation"`
	Reason         string         `json:"reason,omitempty"`
}

// NewScanJournal creates a journal writing into logDir
func NewScanJournal(logDir string) *ScanJournal {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if err := os.MkdirAll(logDir, 0755); err != nil {
		logger.WithError(err).Error("Failed to create scan journal directory")
	}

	return &ScanJournal{
		logger: logger,
		logDir: logDir,
	}
}

// Logger exposes the journal logger so callers can adjust its level
func (j *ScanJournal) Logger() *logrus.Logger {
	return j.logger
}

// Record appends a report to the journal for the report's date
func (j *ScanJournal) Record(report *ScanReport) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	date := report.GeneratedAt.Format("2006-01-02")
	current := j.currentLog
	if current == nil || current.Date != date {
		log, err := j.readLog(date)
		if errors.Is(err, os.ErrNotExist) {
			log = &DailyScanLog{Date: date, Entries: make([]ScanJournalEntry, 0)}
		} else if err != nil {
			return err
		}
		current = log
	}

	entry := ScanJournalEntry{
		Timestamp:      report.GeneratedAt,
		Symbol:         report.Symbol,
		Label:          report.Label,
		TradingDays:    report.TradingDays,
		Recommendation: report.Recommendation,
		Reason:         report.Reason,
	}
	if report.Expiration != nil {
		entry.Expiration = report.Expiration.Expiration.Date.Format("2006-01-02")
		entry.ExactMatch = report.Expiration.IsExactMatch
	}
	if r := report.Result; r != nil {
		entry.Spot = r.Spot
		entry.Candidates = len(r.Candidates)
		if r.Best != nil {
			entry.BestStrike = r.Best.Strike
			entry.BestBid = r.Best.Bid
			entry.BestDistance = r.Best.DistanceFromSpot
		}
	}
	if report.Safety != nil {
		entry.Safety = report.Safety.Level
	}

	// the in-memory day only changes once the file is written
	updated := *current
	updated.Entries = make([]ScanJournalEntry, 0, len(current.Entries)+1)
	updated.Entries = append(updated.Entries, current.Entries...)
	updated.Entries = append(updated.Entries, entry)
	updated.Summary.Scans++
	if report.Recommendation == RecommendTrade {
		updated.Summary.TradeSignals++
	} else {
		updated.Summary.NoTradeSignals++
	}

	if err := j.saveLog(&updated); err != nil {
		return err
	}
	j.currentLog = &updated

	j.logger.WithFields(logrus.Fields{
		"label":          report.Label,
		"recommendation": report.Recommendation,
	}).Debug("Scan journaled")
	return nil
}

// GetCurrentLog returns the most recently written day
func (j *ScanJournal) GetCurrentLog() (*DailyScanLog, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.currentLog == nil {
		return nil, fmt.Errorf("no scans journaled yet")
	}
	copied := *j.currentLog
	copied.Entries = append([]ScanJournalEntry(nil), j.currentLog.Entries...)
	return &copied, nil
}

// GetLogForDate reads the journal for a YYYY-MM-DD date
func (j *ScanJournal) GetLogForDate(date string) (*DailyScanLog, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	log, err := j.readLog(date)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no scan journal for %s", date)
	}
	return log, err
}

// ListAvailableLogs returns journal dates, newest first
func (j *ScanJournal) ListAvailableLogs() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(j.logDir, "scans_*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list journals: %w", err)
	}

	dates := make([]string, 0, len(files))
	for _, f := range files {
		name := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(f), "scans_"), ".json")
		dates = append(dates, name)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

func (j *ScanJournal) logPath(date string) string {
	return filepath.Join(j.logDir, fmt.Sprintf("scans_%s.json", date))
}

func (j *ScanJournal) readLog(date string) (*DailyScanLog, error) {
	data, err := os.ReadFile(j.logPath(date))
	if err != nil {
		return nil, err
	}

	var log DailyScanLog
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("failed to parse scan journal: %w", err)
	}
	return &log, nil
}

func (j *ScanJournal) saveLog(log *DailyScanLog) error {
	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scan journal: %w", err)
	}
	if err := os.WriteFile(j.logPath(log.Date), data, 0644); err != nil {
		return fmt.Errorf("failed to write scan journal: %w", err)
	}
	return nil
}
