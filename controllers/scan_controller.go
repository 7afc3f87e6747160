package controllers

import (
	"context"
	"errors"
	"net/http"
	"spx-premium-scanner/database"
	"spx-premium-scanner/interfaces"
	"spx-premium-scanner/services"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ScanController handles scan and chain analysis endpoints
type ScanController struct {
	scans   *services.ScanService
	quotes  interfaces.QuoteService
	storage interfaces.StorageService
	logger  *logrus.Logger
}

// NewScanController creates a new scan controller; quotes and storage may be nil
func NewScanController(scans *services.ScanService, quotes interfaces.QuoteService, storage interfaces.StorageService) *ScanController {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return &ScanController{
		scans:   scans,
		quotes:  quotes,
		storage: storage,
		logger:  logger,
	}
}

// Logger exposes the controller logger so callers can adjust its level
func (sc *ScanController) Logger() *logrus.Logger {
	return sc.logger
}

// errorStatus maps an error to an HTTP status: caller input 400, unknown
// records 404, cancelled requests 504, anything from a collaborator 502.
func errorStatus(err error) int {
	switch {
	case services.IsInputError(err):
		return http.StatusBadRequest
	case errors.Is(err, database.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

// HandleScan runs a scan described by the request body.
// POST /api/v1/scans
func (sc *ScanController) HandleScan(c *gin.Context) {
	var opts services.ScanOptions
	if err := c.ShouldBindJSON(&opts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := sc.scans.BuildRequest(opts)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := sc.scans.Run(c.Request.Context(), req)
	if err != nil {
		sc.logger.WithError(err).WithField("label", req.Label).Error("Scan failed")
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{"report": report, "refresh": opts}
	if ticket, err := services.TicketFromReport(report); err == nil {
		resp["order_preview"] = ticket.Preview()
	}
	c.JSON(http.StatusOK, resp)
}

// HandleScanHistory returns stored scan records.
// GET /api/v1/scans/history?limit=N
func (sc *ScanController) HandleScanHistory(c *gin.Context) {
	if sc.storage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage not configured"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a number"})
		return
	}

	records, err := sc.storage.GetScanRecords(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"count":   len(records),
	})
}

// HandleListPresets returns the named scan presets.
// GET /api/v1/scans/presets
func (sc *ScanController) HandleListPresets(c *gin.Context) {
	presets := make([]services.ScanPreset, 0)
	for _, name := range services.PresetNames() {
		p, _ := services.LookupPreset(name)
		presets = append(presets, p)
	}
	c.JSON(http.StatusOK, gin.H{"presets": presets})
}

func (sc *ScanController) fetchSnapshot(c *gin.Context) (*services.ChainSnapshot, bool) {
	days, err := strconv.Atoi(c.Query("trading_days"))
	if err != nil || days < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "trading_days must be a whole number >= 0"})
		return nil, false
	}

	snapshot, err := sc.scans.FetchChain(c.Request.Context(), c.Query("symbol"), days)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return nil, false
	}
	return snapshot, true
}

// HandleBidLevels summarises puts at fixed bid levels, plus the strike
// closest to an optional target bid.
// GET /api/v1/analysis/bids?trading_days=N&target=X
func (sc *ScanController) HandleBidLevels(c *gin.Context) {
	var target float64
	if raw := c.Query("target"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || !services.IsFinite(v) || v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "target must be a positive number"})
			return
		}
		target = v
	}

	snapshot, ok := sc.fetchSnapshot(c)
	if !ok {
		return
	}

	resp := gin.H{"expiration": snapshot.Expiration, "spot": snapshot.Spot}
	if snapshot.Expiration != nil {
		resp["levels"] = services.SummarizeBidLevels(snapshot.Spot, snapshot.Quotes, services.BidLevels)
		if target > 0 {
			result := services.ScanTargetBid(snapshot.Spot, snapshot.Quotes, target, sc.scans.Settings().ContextSize)
			resp["target"] = result
		}
	}
	c.JSON(http.StatusOK, resp)
}

// HandleKeyLevels reports bids at fixed distances below spot.
// GET /api/v1/analysis/levels?trading_days=N
func (sc *ScanController) HandleKeyLevels(c *gin.Context) {
	snapshot, ok := sc.fetchSnapshot(c)
	if !ok {
		return
	}

	resp := gin.H{"expiration": snapshot.Expiration, "spot": snapshot.Spot}
	if snapshot.Expiration != nil {
		resp["levels"] = services.FindKeyLevels(snapshot.Spot, snapshot.Quotes, services.KeyLevelDistances)
	}
	c.JSON(http.StatusOK, resp)
}

// HandleGetQuote returns a symbol quote.
// GET /api/v1/quote/:symbol
func (sc *ScanController) HandleGetQuote(c *gin.Context) {
	if sc.quotes == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "quotes not available for this data provider"})
		return
	}

	symbol := c.Param("symbol")
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol required"})
		return
	}

	start := time.Now()
	quote, err := sc.quotes.GetQuote(c.Request.Context(), symbol)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"quote":         quote,
		"query_time_ms": time.Since(start).Milliseconds(),
	})
}
