package interfaces

import (
	"context"

	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/models"
)

// OrderStore reads the order tables. GetOrder returns models.ErrOrderNotFound
// for unknown ids.
type OrderStore interface {
	GetOrder(ctx context.Context, orderID int64) (*models.OrderMaster, []models.OrderItem, error)
	GetOrderSummaries(ctx context.Context, orderIDs []int64) (map[int64]models.OrderSummary, error)
}
