package services

import (
	"testing"
	"time"
)

func TestHolidaysForYear_2025(t *testing.T) {
	want := []time.Time{
		day(2025, 1, 1), day(2025, 1, 20), day(2025, 2, 17), day(2025, 4, 18), day(2025, 5, 26),
		day(2025, 6, 19), day(2025, 7, 4), day(2025, 9, 1), day(2025, 11, 27), day(2025, 12, 25),
	}

	got := HolidaysForYear(2025)
	if len(got) != len(want) {
		t.Fatalf("expected %d holidays, got %d: %v", len(want), len(got), got)
	}
	for i, h := range got {
		if !h.Date.Equal(want[i]) {
			t.Errorf("holiday %d (%s): expected %s, got %s", i, h.Name, want[i].Format("2006-01-02"), h.Date.Format("2006-01-02"))
		}
	}
}

func TestHolidaysForYear_Observance(t *testing.T) {
	tests := []struct {
		name string
		date time.Time
		open bool
	}{
		{"july 4 on saturday observed friday", day(2026, 7, 3), false},
		{"saturday itself is a weekend", day(2026, 7, 4), false},
		{"christmas on sunday observed monday", day(2022, 12, 26), false},
		{"saturday new year not observed", day(2021, 12, 31), true},
		{"juneteenth before 2022 is a trading day", day(2021, 6, 18), true},
		{"good friday 2026", day(2026, 4, 3), false},
		{"thanksgiving 2026", day(2026, 11, 26), false},
		{"day after thanksgiving", day(2026, 11, 27), true},
		{"ordinary tuesday", day(2026, 10, 20), true},
		{"sunday", day(2026, 10, 18), false},
	}

	cal := NewNYSECalendar(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cal.IsTradingDay(tt.date); got != tt.open {
				t.Fatalf("IsTradingDay(%s) = %v, want %v", tt.date.Format("2006-01-02"), got, tt.open)
			}
		})
	}
}

func TestNYSECalendar_ExtraClosures(t *testing.T) {
	closures, err := ParseDates("2025-01-09, 2025-03-05")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cal := NewNYSECalendar(closures)
	if cal.IsTradingDay(time.Date(2025, time.January, 9, 14, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected configured closure to be closed")
	}

	holidays := cal.Holidays(2025)
	if len(holidays) != 12 {
		t.Fatalf("expected 12 closures, got %d", len(holidays))
	}
	for i := 1; i < len(holidays); i++ {
		if holidays[i].Date.Before(holidays[i-1].Date) {
			t.Fatalf("holidays not sorted at %d", i)
		}
	}
}

func TestParseDates_Invalid(t *testing.T) {
	if _, err := ParseDates("2025-13-01"); err == nil {
		t.Fatalf("expected an error for a bad date")
	}
	dates, err := ParseDates("")
	if err != nil || len(dates) != 0 {
		t.Fatalf("expected no dates, got %v err=%v", dates, err)
	}
}
