package controllers

import (
	"net/http"
	"spx-premium-scanner/services"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// OrderController handles the order log
type OrderController struct {
	orders *services.OrderLog
	scans  *services.ScanService
	logger *logrus.Logger
}

// NewOrderController creates a new order controller
func NewOrderController(orders *services.OrderLog, scans *services.ScanService) *OrderController {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return &OrderController{
		orders: orders,
		scans:  scans,
		logger: logger,
	}
}

// Logger exposes the controller logger so callers can adjust its level
func (oc *OrderController) Logger() *logrus.Logger {
	return oc.logger
}

// RecordOrderRequest records either an explicit strike or the best strike of a fresh scan
type RecordOrderRequest struct {
	Symbol     string               `json:"symbol"`
	Strike     float64              `json:"strike"`
	LimitPrice float64              `json:"limit_price"`
	Expiration string               `json:"expiration"` // YYYY-MM-DD
	Quantity   int                  `json:"quantity"`
	Source     string               `json:"source"`
	Scan       *services.ScanOptions `json:"scan,omitempty"`
}

// UpdateOrderStatusRequest moves an order to a new status
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// HandleGetOrders lists orders.
// GET /api/v1/orders?filter=all|open|closed
func (oc *OrderController) HandleGetOrders(c *gin.Context) {
	filter, err := services.ParseOrderFilter(c.Query("filter"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orders, summary, err := oc.orders.List(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"filter":  filter,
		"orders":  orders,
		"summary": summary,
	})
}

// HandleRecordOrder writes a PENDING order to the log.
// POST /api/v1/orders
func (oc *OrderController) HandleRecordOrder(c *gin.Context) {
	var req RecordOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		ticket services.OrderTicket
		source = req.Source
		err    error
	)
	if req.Scan != nil {
		scanReq, err := oc.scans.BuildRequest(*req.Scan)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		report, err := oc.scans.Run(c.Request.Context(), scanReq)
		if err != nil {
			c.JSON(errorStatus(err), gin.H{"error": err.Error()})
			return
		}
		ticket, err = services.TicketFromReport(report)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "report": report})
			return
		}
		if source == "" {
			source = report.Label
		}
	} else {
		expiration, perr := time.Parse("2006-01-02", req.Expiration)
		if perr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "expiration must be YYYY-MM-DD"})
			return
		}
		quantity := req.Quantity
		if quantity == 0 {
			quantity = 1
		}
		symbol := req.Symbol
		if symbol == "" {
			symbol = oc.scans.Settings().Symbol
		}
		ticket, err = services.NewOrderTicket(symbol, req.Strike, req.LimitPrice, quantity, expiration)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	order, err := oc.orders.Record(ticket, source)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order":   order,
		"preview": ticket.Preview(),
	})
}

// HandleUpdateOrderStatus changes an order's status.
// PATCH /api/v1/orders/:id
func (oc *OrderController) HandleUpdateOrderStatus(c *gin.Context) {
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, err := services.ParseOrderStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := oc.orders.UpdateStatus(c.Param("id"), status)
	if err != nil {
		code := errorStatus(err)
		if code == http.StatusBadGateway {
			code = http.StatusInternalServerError
		}
		c.JSON(code, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, order)
}
