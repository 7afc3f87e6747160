package services

import (
	"os"
	"path/filepath"
	"reflect"
	"spx-premium-scanner/interfaces"
	"testing"
	"time"
)

func journalReport(at time.Time, rec Recommendation) *ScanReport {
	report := &ScanReport{
		Symbol:         "^SPX",
		Label:          "today",
		Recommendation: rec,
		GeneratedAt:    at,
		Expiration: &interfaces.ExpirationChoice{
			Expiration:   interfaces.Expiration{Date: DateOf(at)},
			IsExactMatch: true,
		},
	}
	if rec == RecommendTrade {
		best := scanned(5800, 0.85, 200)
		report.Result = &ScanResult{Spot: 6000, Candidates: []ScannedQuote{best}, Best: &best}
		report.Safety = &SafetyAssessment{Level: SafetyModerate}
	} else {
		report.Reason = "no qualifying strikes"
	}
	return report
}

func TestScanJournal_RecordAndRead(t *testing.T) {
	dir := t.TempDir()
	journal := NewScanJournal(dir)

	first := time.Date(2025, time.March, 3, 14, 40, 0, 0, time.UTC)
	if err := journal.Record(journalReport(first, RecommendTrade)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := journal.Record(journalReport(first.Add(time.Hour), RecommendNoTrade)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := journal.Record(journalReport(first.AddDate(0, 0, 1), RecommendNoTrade)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	current, err := journal.GetCurrentLog()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if current.Date != "2025-03-04" || current.Summary.Scans != 1 {
		t.Fatalf("unexpected current log: %+v", current)
	}

	// A fresh journal over the same directory sees the persisted files.
	reopened := NewScanJournal(dir)
	log, err := reopened.GetLogForDate("2025-03-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := ScanJournalSummary{Scans: 2, TradeSignals: 1, NoTradeSignals: 1}
	if log.Summary != want {
		t.Fatalf("expected %+v, got %+v", want, log.Summary)
	}
	entry := log.Entries[0]
	if entry.BestStrike != 5800 || entry.Safety != SafetyModerate || entry.Expiration != "2025-03-03" || !entry.ExactMatch {
		t.Fatalf("unexpected entry: %+v", entry)
	}

	dates, err := reopened.ListAvailableLogs()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(dates, []string{"2025-03-04", "2025-03-03"}) {
		t.Fatalf("unexpected dates: %v", dates)
	}
}

func TestScanJournal_AppendsToExistingDay(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2025, time.March, 3, 14, 40, 0, 0, time.UTC)

	if err := NewScanJournal(dir).Record(journalReport(at, RecommendTrade)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second := NewScanJournal(dir)
	if err := second.Record(journalReport(at.Add(time.Minute), RecommendTrade)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log, err := second.GetLogForDate("2025-03-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(log.Entries) != 2 || log.Summary.TradeSignals != 2 {
		t.Fatalf("expected both entries, got %+v", log)
	}
}

func TestScanJournal_Errors(t *testing.T) {
	journal := NewScanJournal(t.TempDir())

	if _, err := journal.GetCurrentLog(); err == nil {
		t.Fatalf("expected an error before any scan")
	}
	if _, err := journal.GetLogForDate("03/03/2025"); err == nil {
		t.Fatalf("expected an error for a malformed date")
	}
	if _, err := journal.GetLogForDate("2025-03-03"); err == nil {
		t.Fatalf("expected an error for a missing day")
	}
}

func TestScanJournal_FailedWriteLeavesDayUnchanged(t *testing.T) {
	dir := t.TempDir()
	journal := NewScanJournal(dir)
	at := time.Date(2025, time.March, 3, 14, 40, 0, 0, time.UTC)

	if err := journal.Record(journalReport(at, RecommendTrade)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// a directory in place of the day's file makes the write fail
	path := filepath.Join(dir, "scans_2025-03-03.json")
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := os.Mkdir(path, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := journal.Record(journalReport(at.Add(time.Minute), RecommendNoTrade)); err == nil {
		t.Fatalf("expected the write to fail")
	}

	current, err := journal.GetCurrentLog()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(current.Entries) != 1 || current.Summary.Scans != 1 || current.Summary.NoTradeSignals != 0 {
		t.Fatalf("failed scan must not be kept in memory, got %+v", current)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	third := at.Add(2 * time.Minute)
	if err := journal.Record(journalReport(third, RecommendTrade)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log, err := journal.GetLogForDate("2025-03-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(log.Entries) != 2 || log.Summary.Scans != 2 || log.Summary.TradeSignals != 2 || log.Summary.NoTradeSignals != 0 {
		t.Fatalf("expected only the two written scans, got %+v", log)
	}
	if !log.Entries[1].Timestamp.Equal(third) {
		t.Fatalf("expected the last entry at %v, got %v", third, log.Entries[1].Timestamp)
	}
}
