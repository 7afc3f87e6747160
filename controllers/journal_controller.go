package controllers

import (
	"net/http"
	"spx-premium-scanner/services"

	"github.com/gin-gonic/gin"
)

// JournalController serves the daily scan journal
type JournalController struct {
	journal *services.ScanJournal
}

// NewJournalController creates a new journal controller
func NewJournalController(journal *services.ScanJournal) *JournalController {
	return &JournalController{
		journal: journal,
	}
}

// HandleGetCurrentJournal returns the most recently written day
func (jc *JournalController) HandleGetCurrentJournal(c *gin.Context) {
	log, err := jc.journal.GetCurrentLog()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, log)
}

// HandleGetJournalByDate returns the journal for a specific date
func (jc *JournalController) HandleGetJournalByDate(c *gin.Context) {
	date := c.Param("date")

	log, err := jc.journal.GetLogForDate(date)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, log)
}

// HandleListJournals returns the dates that have a journal
func (jc *JournalController) HandleListJournals(c *gin.Context) {
	dates, err := jc.journal.ListAvailableLogs()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"dates": dates,
		"count": len(dates),
	})
}
