package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/service"
)

type OrderHandler struct {
	lookup *service.OrderLookup
}

func NewOrderHandler(lookup *service.OrderLookup) *OrderHandler {
	return &OrderHandler{lookup: lookup}
}

// GetOrderContext returns the validation payload the agent would receive.
func (h *OrderHandler) GetOrderContext(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || orderID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order id must be a positive number"})
		return
	}
	c.JSON(http.StatusOK, h.lookup.ResolveOrder(c.Request.Context(), orderID))
}
