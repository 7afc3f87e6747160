package services

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Holiday is a full-day market closure
type Holiday struct {
	Date time.Time `json:"date"`
	Name string    `json:"name"`
}

// NYSECalendar is a trading calendar with weekend closures, rule-based US
// market holidays for any year, and optional configured extra closures.
type NYSECalendar struct {
	extra map[time.Time]string
}

// NewNYSECalendar creates a calendar; extraClosures are added on top of the rule-based holidays
func NewNYSECalendar(extraClosures []time.Time) *NYSECalendar {
	extra := make(map[time.Time]string, len(extraClosures))
	for _, d := range extraClosures {
		extra[DateOf(d)] = "Market Closure"
	}
	return &NYSECalendar{extra: extra}
}

// IsTradingDay reports whether the market is open on the calendar date of t
func (c *NYSECalendar) IsTradingDay(t time.Time) bool {
	date := DateOf(t)
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	if _, ok := c.extra[date]; ok {
		return false
	}
	for _, h := range HolidaysForYear(date.Year()) {
		if h.Date.Equal(date) {
			return false
		}
	}
	return true
}

// Holidays lists the closures for a year, including configured extras, sorted by date
func (c *NYSECalendar) Holidays(year int) []Holiday {
	holidays := HolidaysForYear(year)
	for d, name := range c.extra {
		if d.Year() == year {
			holidays = append(holidays, Holiday{Date: d, Name: name})
		}
	}
	sort.Slice(holidays, func(i, j int) bool {
		return holidays[i].Date.Before(holidays[j].Date)
	})
	return holidays
}

// HolidaysForYear computes the observed US equity market holidays for a year.
// Saturday holidays are observed the Friday before, except New Year's Day;
// Sunday holidays are observed the Monday after.
func HolidaysForYear(year int) []Holiday {
	holidays := []Holiday{
		{Date: observed(civilDate(year, time.January, 1), false), Name: "New Year's Day"},
		{Date: nthWeekday(year, time.January, time.Monday, 3), Name: "Martin Luther King Jr. Day"},
		{Date: nthWeekday(year, time.February, time.Monday, 3), Name: "Presidents' Day"},
		{Date: easterSunday(year).AddDate(0, 0, -2), Name: "Good Friday"},
		{Date: lastWeekday(year, time.May, time.Monday), Name: "Memorial Day"},
	}
	if year >= 2022 {
		holidays = append(holidays, Holiday{Date: observed(civilDate(year, time.June, 19), true), Name: "Juneteenth"})
	}
	holidays = append(holidays,
		Holiday{Date: observed(civilDate(year, time.July, 4), true), Name: "Independence Day"},
		Holiday{Date: nthWeekday(year, time.September, time.Monday, 1), Name: "Labor Day"},
		Holiday{Date: nthWeekday(year, time.November, time.Thursday, 4), Name: "Thanksgiving Day"},
		Holiday{Date: observed(civilDate(year, time.December, 25), true), Name: "Christmas Day"},
	)

	// A Saturday New Year's Day has no observed weekday.
	kept := holidays[:0]
	for _, h := range holidays {
		if h.Date.Year() == year && h.Date.Weekday() != time.Saturday {
			kept = append(kept, h)
		}
	}
	return kept
}

// DateOf returns midnight UTC of t's calendar date in t's own location
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return civilDate(y, m, d)
}

// ParseDates parses a comma separated list of YYYY-MM-DD dates
func ParseDates(list string) ([]time.Time, error) {
	var dates []time.Time
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := time.Parse("2006-01-02", part)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", part, err)
		}
		dates = append(dates, d)
	}
	return dates, nil
}

func civilDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func observed(d time.Time, shiftSaturday bool) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		if shiftSaturday {
			return d.AddDate(0, 0, -1)
		}
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}

func nthWeekday(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	first := civilDate(year, month, 1)
	offset := (int(weekday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+7*(n-1))
}

func lastWeekday(year int, month time.Month, weekday time.Weekday) time.Time {
	last := civilDate(year, month+1, 1).AddDate(0, 0, -1)
	offset := (int(last.Weekday()) - int(weekday) + 7) % 7
	return last.AddDate(0, 0, -offset)
}

// easterSunday uses the anonymous Gregorian algorithm
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return civilDate(year, time.Month(month), day)
}
