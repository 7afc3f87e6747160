package services

import (
	"spx-premium-scanner/interfaces"
	"time"
)

// MaxTradingDayWalk bounds the forward walk in calendar days
const MaxTradingDayWalk = 365

// SelectExpiration resolves which listed expiration to trade.
//
// Parameters:
//   - tradingDaysOut: 0 for same-day, otherwise trading days after today
//   - available: listed expirations (any order)
//   - today: the current date in the market time zone
//   - calendar: trading-day predicate
//
// Returns the choice and true, or false when nothing suitable is listed.
// Not finding an expiration is a normal outcome.
func SelectExpiration(tradingDaysOut int, available []interfaces.Expiration, today time.Time, calendar interfaces.TradingCalendar) (interfaces.ExpirationChoice, bool) {
	if tradingDaysOut < 0 {
		return interfaces.ExpirationChoice{}, false
	}

	today = DateOf(today)
	if tradingDaysOut == 0 {
		return sameDayExpiration(available, today)
	}

	target, ok := NthTradingDayAfter(today, tradingDaysOut, calendar)
	if !ok {
		return interfaces.ExpirationChoice{}, false
	}

	var (
		best  interfaces.Expiration
		found bool
	)
	for _, exp := range available {
		date := DateOf(exp.Date)
		if date.Before(target) {
			continue
		}
		if !found || date.Before(DateOf(best.Date)) {
			best = exp
			found = true
		}
	}
	if !found {
		return interfaces.ExpirationChoice{}, false
	}

	return interfaces.ExpirationChoice{
		Expiration:   best,
		TargetDate:   target,
		IsExactMatch: DateOf(best.Date).Equal(target),
	}, true
}

func sameDayExpiration(available []interfaces.Expiration, today time.Time) (interfaces.ExpirationChoice, bool) {
	for _, exp := range available {
		if DateOf(exp.Date).Equal(today) {
			return interfaces.ExpirationChoice{
				Expiration:   exp,
				TargetDate:   today,
				IsExactMatch: true,
			}, true
		}
	}
	return interfaces.ExpirationChoice{}, false
}

// NthTradingDayAfter walks forward from the day after start and returns the
// n-th trading day. It gives up after MaxTradingDayWalk calendar days.
func NthTradingDayAfter(start time.Time, n int, calendar interfaces.TradingCalendar) (time.Time, bool) {
	day := DateOf(start)
	count := 0
	for walked := 0; walked < MaxTradingDayWalk; walked++ {
		day = day.AddDate(0, 0, 1)
		if !calendar.IsTradingDay(day) {
			continue
		}
		count++
		if count == n {
			return day, true
		}
	}
	return time.Time{}, false
}
