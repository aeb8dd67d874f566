package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/interfaces"
	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/models"
	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/telemetry"
)

const (
	dateLayout = "2006-01-02"

	// futureDeliveryBackdate is how far before now a future delivery date is moved.
	futureDeliveryBackdate = 7 * 24 * time.Hour
)

// OrderLookup builds the validation context for the decision agent and
// hydrates claim listings with order details.
type OrderLookup struct {
	orders interfaces.OrderStore
	claims interfaces.ClaimRepository
	now    func() time.Time
}

func NewOrderLookup(orders interfaces.OrderStore, claims interfaces.ClaimRepository) *OrderLookup {
	return &OrderLookup{orders: orders, claims: claims, now: time.Now}
}

// ResolveOrder returns the order, its items and prior claims. Any lookup
// failure yields the empty context so the agent can see that data is missing.
func (l *OrderLookup) ResolveOrder(ctx context.Context, orderID int64) models.OrderContext {
	ctx, span := telemetry.Tracer.Start(ctx, "order_lookup.resolve")
	defer span.End()
	span.SetAttributes(attribute.Int64("order_id", orderID))

	var (
		order *models.OrderMaster
		items []models.OrderItem
		prior []models.Claim
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		order, items, err = l.orders.GetOrder(gctx, orderID)
		return err
	})
	g.Go(func() error {
		claims, err := l.claims.ListForOrder(gctx, orderID)
		if err != nil {
			telemetry.Logger.Warn("Prior claim lookup failed", zap.Int64("order_id", orderID), zap.Error(err))
			return nil
		}
		prior = claims
		return nil
	})

	if err := g.Wait(); err != nil || order == nil {
		if errors.Is(err, models.ErrOrderNotFound) {
			telemetry.Logger.Info("Order not found", zap.Int64("order_id", orderID))
		} else {
			telemetry.Logger.Warn("Order lookup failed", zap.Int64("order_id", orderID), zap.Error(err))
		}
		span.SetAttributes(attribute.Bool("order.found", false))
		return models.EmptyOrderContext()
	}
	span.SetAttributes(attribute.Bool("order.found", true))

	normalized := l.normalizeDeliveryDate(*order)
	if items == nil {
		items = []models.OrderItem{}
	}
	if prior == nil {
		prior = []models.Claim{}
	}
	return models.OrderContext{Order: &normalized, Items: items, PriorClaims: prior}
}

// normalizeDeliveryDate moves a delivery date that lies in the future to
// seven days before now. Only the in-memory copy is changed.
func (l *OrderLookup) normalizeDeliveryDate(order models.OrderMaster) models.OrderMaster {
	if order.DeliveryDate == "" {
		return order
	}
	delivered, err := parseDeliveryDate(order.DeliveryDate)
	if err != nil {
		telemetry.Logger.Warn("Unparseable delivery date",
			zap.Int64("order_id", order.OrderID),
			zap.String("delivery_date", order.DeliveryDate),
		)
		return order
	}

	now := l.now()
	if !delivered.After(now) {
		return order
	}
	corrected := now.Add(-futureDeliveryBackdate).Format(dateLayout)
	telemetry.Logger.Warn("Delivery date in the future, backdating for decision context",
		zap.Int64("order_id", order.OrderID),
		zap.String("recorded", order.DeliveryDate),
		zap.String("corrected", corrected),
	)
	order.DeliveryDate = corrected
	return order
}

func parseDeliveryDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// Hydrate attaches order totals and item summaries to claims. On failure
// the claims are returned as they came in.
func (l *OrderLookup) Hydrate(ctx context.Context, claims []models.Claim) []models.Claim {
	if len(claims) == 0 {
		return claims
	}
	ctx, span := telemetry.Tracer.Start(ctx, "order_lookup.hydrate")
	defer span.End()

	seen := make(map[int64]struct{}, len(claims))
	ids := make([]int64, 0, len(claims))
	for _, c := range claims {
		if _, ok := seen[c.OrderID]; ok {
			continue
		}
		seen[c.OrderID] = struct{}{}
		ids = append(ids, c.OrderID)
	}

	summaries, err := l.orders.GetOrderSummaries(ctx, ids)
	if err != nil {
		telemetry.Logger.Warn("Hydration failed, returning basic claims", zap.Int("orders", len(ids)), zap.Error(err))
		return claims
	}

	out := make([]models.Claim, len(claims))
	copy(out, claims)
	for i := range out {
		summary, ok := summaries[out[i].OrderID]
		if !ok {
			continue
		}
		out[i].OrderAmount = models.Float64(summary.TotalAmount)
		out[i].ItemsDetail = itemsDetail(summary.Items)
	}
	return out
}

func itemsDetail(items []models.OrderItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%dx %s", item.Quantity, item.ProductName))
	}
	return strings.Join(parts, ", ")
}
