package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SetupRouter registers every API route. journal may be nil.
func SetupRouter(scans *ScanController, orders *OrderController, journal *JournalController) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(scans))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().UTC(),
		})
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/scans", scans.HandleScan)
		v1.POST("/scans/refresh", scans.HandleScan)
		v1.GET("/scans/history", scans.HandleScanHistory)
		v1.GET("/scans/presets", scans.HandleListPresets)

		v1.GET("/analysis/bids", scans.HandleBidLevels)
		v1.GET("/analysis/levels", scans.HandleKeyLevels)

		v1.GET("/quote/:symbol", scans.HandleGetQuote)

		v1.GET("/orders", orders.HandleGetOrders)
		v1.POST("/orders", orders.HandleRecordOrder)
		v1.PATCH("/orders/:id", orders.HandleUpdateOrderStatus)

		if journal != nil {
			v1.GET("/journal", journal.HandleGetCurrentJournal)
			v1.GET("/journal/dates", journal.HandleListJournals)
			v1.GET("/journal/:date", journal.HandleGetJournalByDate)
		}
	}

	return router
}

func requestLogger(sc *ScanController) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		sc.logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("HTTP request")
	}
}
