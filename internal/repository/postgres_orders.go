package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/models"
)

const dateLayout = "2006-01-02"

type PostgresOrderStore struct {
	db *sql.DB
}

func NewPostgresOrderStore(db *sql.DB) *PostgresOrderStore {
	return &PostgresOrderStore{db: db}
}

type orderRow struct {
	order        models.OrderMaster
	deliveryDate sql.NullTime
	productName  sql.NullString
	quantity     sql.NullInt64
	pricePerUnit sql.NullFloat64
}

const orderWithItemsQuery = `
	SELECT m.order_id, m.customer_id, m.delivery_status, m.payment_status, m.total_amount, m.delivery_date,
		i.product_name, i.quantity, i.price_per_unit
	FROM order_master m
	LEFT JOIN order_items i ON i.order_id = m.order_id
`

// GetOrder loads the order master row and its items in one query.
func (s *PostgresOrderStore) GetOrder(ctx context.Context, orderID int64) (*models.OrderMaster, []models.OrderItem, error) {
	rows, err := s.db.QueryContext(ctx, orderWithItemsQuery+` WHERE m.order_id = $1 ORDER BY i.id`, orderID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var (
		order *models.OrderMaster
		items = []models.OrderItem{}
	)
	for rows.Next() {
		r, err := scanOrderRow(rows)
		if err != nil {
			return nil, nil, err
		}
		if order == nil {
			o := r.order
			order = &o
		}
		if item, ok := r.item(); ok {
			items = append(items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	if order == nil {
		return nil, nil, models.ErrOrderNotFound
	}
	return order, items, nil
}

// GetOrderSummaries batch-loads totals and items for the given orders.
// Unknown ids are absent from the result.
func (s *PostgresOrderStore) GetOrderSummaries(ctx context.Context, orderIDs []int64) (map[int64]models.OrderSummary, error) {
	summaries := make(map[int64]models.OrderSummary, len(orderIDs))
	if len(orderIDs) == 0 {
		return summaries, nil
	}

	rows, err := s.db.QueryContext(ctx, orderWithItemsQuery+` WHERE m.order_id = ANY($1) ORDER BY m.order_id, i.id`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanOrderRow(rows)
		if err != nil {
			return nil, err
		}
		summary, ok := summaries[r.order.OrderID]
		if !ok {
			summary = models.OrderSummary{OrderID: r.order.OrderID, TotalAmount: r.order.TotalAmount}
		}
		if item, ok := r.item(); ok {
			summary.Items = append(summary.Items, item)
		}
		summaries[r.order.OrderID] = summary
	}
	return summaries, rows.Err()
}

// UpsertOrder replaces an order and its items. Used by the seed command.
func (s *PostgresOrderStore) UpsertOrder(ctx context.Context, order models.OrderMaster, items []models.OrderItem) error {
	var deliveryDate sql.NullTime
	if order.DeliveryDate != "" {
		t, err := time.Parse(dateLayout, order.DeliveryDate)
		if err != nil {
			return err
		}
		deliveryDate = sql.NullTime{Time: t, Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO order_master (order_id, customer_id, delivery_status, payment_status, total_amount, delivery_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (order_id) DO UPDATE SET
			customer_id = EXCLUDED.customer_id,
			delivery_status = EXCLUDED.delivery_status,
			payment_status = EXCLUDED.payment_status,
			total_amount = EXCLUDED.total_amount,
			delivery_date = EXCLUDED.delivery_date
	`, order.OrderID, order.CustomerID, order.DeliveryStatus, order.PaymentStatus, order.TotalAmount, deliveryDate); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, order.OrderID); err != nil {
		return err
	}
	for _, item := range items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_name, quantity, price_per_unit)
			VALUES ($1, $2, $3, $4)
		`, order.OrderID, item.ProductName, item.Quantity, item.PricePerUnit); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func scanOrderRow(rows *sql.Rows) (orderRow, error) {
	var r orderRow
	err := rows.Scan(&r.order.OrderID, &r.order.CustomerID, &r.order.DeliveryStatus, &r.order.PaymentStatus,
		&r.order.TotalAmount, &r.deliveryDate, &r.productName, &r.quantity, &r.pricePerUnit)
	if err != nil {
		return r, err
	}
	if r.deliveryDate.Valid {
		r.order.DeliveryDate = r.deliveryDate.Time.Format(dateLayout)
	}
	return r, nil
}

func (r orderRow) item() (models.OrderItem, bool) {
	if !r.productName.Valid {
		return models.OrderItem{}, false
	}
	return models.OrderItem{
		ProductName:  r.productName.String,
		Quantity:     int(r.quantity.Int64),
		PricePerUnit: r.pricePerUnit.Float64,
	}, true
}
