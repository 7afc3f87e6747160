package services

import (
	"spx-premium-scanner/interfaces"
	"testing"
	"time"
)

type countingCalendar struct {
	closed map[time.Time]bool
	calls  int
	never  bool
}

func (c *countingCalendar) IsTradingDay(t time.Time) bool {
	c.calls++
	if c.never {
		return false
	}
	d := DateOf(t)
	if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		return false
	}
	return !c.closed[d]
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func expirations(dates ...time.Time) []interfaces.Expiration {
	out := make([]interfaces.Expiration, len(dates))
	for i, d := range dates {
		out[i] = interfaces.Expiration{Date: d, ID: d.Format("2006-01-02")}
	}
	return out
}

func TestSelectExpiration_SameDay(t *testing.T) {
	cal := &countingCalendar{}
	today := time.Date(2025, time.March, 3, 10, 15, 0, 0, time.UTC)

	choice, ok := SelectExpiration(0, expirations(day(2025, 3, 3), day(2025, 3, 4)), today, cal)
	if !ok {
		t.Fatalf("expected same-day expiration")
	}
	if !choice.Expiration.Date.Equal(day(2025, 3, 3)) || !choice.IsExactMatch {
		t.Fatalf("unexpected choice: %+v", choice)
	}
	if cal.calls != 0 {
		t.Fatalf("same-day selection consulted the calendar %d times", cal.calls)
	}
}

func TestSelectExpiration_SameDayNotListed(t *testing.T) {
	cal := &countingCalendar{}
	today := day(2025, 3, 3)

	if _, ok := SelectExpiration(0, expirations(day(2025, 3, 4)), today, cal); ok {
		t.Fatalf("expected no expiration when today is not listed")
	}
	if cal.calls != 0 {
		t.Fatalf("same-day selection consulted the calendar %d times", cal.calls)
	}
}

func TestSelectExpiration_SkipsHoliday(t *testing.T) {
	today := day(2025, 3, 3) // Monday
	available := expirations(day(2025, 3, 4), day(2025, 3, 5), day(2025, 3, 6), day(2025, 3, 7), day(2025, 3, 10))

	open := &countingCalendar{}
	choice, ok := SelectExpiration(3, available, today, open)
	if !ok || !choice.TargetDate.Equal(day(2025, 3, 6)) {
		t.Fatalf("expected target 2025-03-06 without holidays, got %+v ok=%v", choice, ok)
	}

	withHoliday := &countingCalendar{closed: map[time.Time]bool{day(2025, 3, 5): true}}
	choice, ok = SelectExpiration(3, available, today, withHoliday)
	if !ok {
		t.Fatalf("expected an expiration")
	}
	if !choice.TargetDate.Equal(day(2025, 3, 7)) {
		t.Fatalf("expected the holiday to push the target to 2025-03-07, got %s", choice.TargetDate.Format("2006-01-02"))
	}
	if !choice.IsExactMatch || !choice.Expiration.Date.Equal(day(2025, 3, 7)) {
		t.Fatalf("unexpected choice: %+v", choice)
	}
}

func TestSelectExpiration_FallsBackToNextListed(t *testing.T) {
	today := day(2025, 3, 3)
	available := expirations(day(2025, 3, 12), day(2025, 3, 4), day(2025, 3, 10))

	choice, ok := SelectExpiration(3, available, today, &countingCalendar{})
	if !ok {
		t.Fatalf("expected an expiration")
	}
	if !choice.Expiration.Date.Equal(day(2025, 3, 10)) {
		t.Fatalf("expected 2025-03-10, got %s", choice.Expiration.Date.Format("2006-01-02"))
	}
	if choice.IsExactMatch {
		t.Fatalf("fallback must not be marked exact")
	}
}

func TestSelectExpiration_NothingOnOrAfterTarget(t *testing.T) {
	today := day(2025, 3, 3)
	if _, ok := SelectExpiration(2, expirations(day(2025, 3, 4)), today, &countingCalendar{}); ok {
		t.Fatalf("expected no expiration")
	}
}

func TestSelectExpiration_WalkIsBounded(t *testing.T) {
	cal := &countingCalendar{never: true}
	if _, ok := SelectExpiration(1, expirations(day(2026, 3, 3)), day(2025, 3, 3), cal); ok {
		t.Fatalf("expected no expiration from an all-closed calendar")
	}
	if cal.calls != MaxTradingDayWalk {
		t.Fatalf("expected the walk to stop after %d days, got %d", MaxTradingDayWalk, cal.calls)
	}
}

func TestSelectExpiration_Negative(t *testing.T) {
	if _, ok := SelectExpiration(-1, expirations(day(2025, 3, 3)), day(2025, 3, 3), &countingCalendar{}); ok {
		t.Fatalf("expected negative offsets to be rejected")
	}
}

func TestSelectExpiration_UsesLocalDate(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 21:30 in New York is already the next day in UTC.
	now := time.Date(2025, time.March, 3, 21, 30, 0, 0, ny)

	choice, ok := SelectExpiration(0, expirations(day(2025, 3, 3), day(2025, 3, 4)), now, &countingCalendar{})
	if !ok || !choice.Expiration.Date.Equal(day(2025, 3, 3)) {
		t.Fatalf("expected the New York calendar date, got %+v ok=%v", choice, ok)
	}
}
