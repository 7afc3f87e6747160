package services

import (
	"context"
	"fmt"
	"spx-premium-scanner/interfaces"
	"time"

	"github.com/sirupsen/logrus"
)

// AlertSlot is a wall-clock time in the market time zone at which a preset runs
type AlertSlot struct {
	Hour   int    `json:"hour"`
	Minute int    `json:"minute"`
	Preset string `json:"preset"`
}

func (s AlertSlot) String() string {
	return fmt.Sprintf("%02d:%02d %s", s.Hour, s.Minute, s.Preset)
}

// DefaultAlertSlots run the same-day scan after the open and the next-day scan before the close
var DefaultAlertSlots = []AlertSlot{
	{Hour: 9, Minute: 40, Preset: "today"},
	{Hour: 15, Minute: 50, Preset: "tomorrow"},
}

// AlertScheduler fires preset scans at fixed times on trading days
type AlertScheduler struct {
	scans    *ScanService
	calendar interfaces.TradingCalendar
	location *time.Location
	slots    []AlertSlot
	interval time.Duration
	logger   *logrus.Logger

	firedDate string
	fired     map[string]bool
}

// NewAlertScheduler creates a scheduler; nil slots uses DefaultAlertSlots
func NewAlertScheduler(scans *ScanService, calendar interfaces.TradingCalendar, location *time.Location, slots []AlertSlot) *AlertScheduler {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if slots == nil {
		slots = DefaultAlertSlots
	}
	if location == nil {
		location = time.UTC
	}

	return &AlertScheduler{
		scans:    scans,
		calendar: calendar,
		location: location,
		slots:    slots,
		interval: 20 * time.Second,
		logger:   logger,
		fired:    make(map[string]bool),
	}
}

// Logger exposes the scheduler logger so callers can adjust its level
func (a *AlertScheduler) Logger() *logrus.Logger {
	return a.logger
}

// Run checks the clock until ctx is cancelled
func (a *AlertScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.logger.WithField("slots", a.slots).Info("Alert scheduler started")

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Alert scheduler stopped")
			return
		case now := <-ticker.C:
			for _, slot := range a.DueSlots(now) {
				a.fire(ctx, slot)
			}
		}
	}
}

// DueSlots returns the slots whose minute is now, once per slot per trading day
func (a *AlertScheduler) DueSlots(now time.Time) []AlertSlot {
	local := now.In(a.location)
	if !a.calendar.IsTradingDay(local) {
		return nil
	}

	date := local.Format("2006-01-02")
	if date != a.firedDate {
		a.firedDate = date
		a.fired = make(map[string]bool)
	}

	var due []AlertSlot
	for _, slot := range a.slots {
		if local.Hour() != slot.Hour || local.Minute() != slot.Minute {
			continue
		}
		key := slot.String()
		if a.fired[key] {
			continue
		}
		a.fired[key] = true
		due = append(due, slot)
	}
	return due
}

func (a *AlertScheduler) fire(ctx context.Context, slot AlertSlot) {
	logger := a.logger.WithField("slot", slot.String())

	req, err := a.scans.BuildRequest(ScanOptions{Preset: slot.Preset})
	if err != nil {
		logger.WithError(err).Error("Invalid scheduled scan")
		return
	}

	report, err := a.scans.Run(ctx, req)
	if err != nil {
		logger.WithError(err).Error("Scheduled scan failed")
		return
	}

	fields := logrus.Fields{"recommendation": report.Recommendation}
	if report.Result != nil && report.Result.Best != nil {
		fields["strike"] = report.Result.Best.Strike
		fields["bid"] = report.Result.Best.Bid
	}
	logger.WithFields(fields).Info("Scheduled scan complete")
}
