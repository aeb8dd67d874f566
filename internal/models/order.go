package models

type OrderMaster struct {
	OrderID        int64   `json:"order_id" yaml:"order_id"`
	CustomerID     int64   `json:"customer_id" yaml:"customer_id"`
	DeliveryStatus string  `json:"delivery_status" yaml:"delivery_status"`
	PaymentStatus  string  `json:"payment_status" yaml:"payment_status"`
	TotalAmount    float64 `json:"total_amount" yaml:"total_amount"`
	DeliveryDate   string  `json:"delivery_date,omitempty" yaml:"delivery_date"`
}

type OrderItem struct {
	ProductName  string  `json:"product_name" yaml:"product_name"`
	Quantity     int     `json:"quantity" yaml:"quantity"`
	PricePerUnit float64 `json:"price_per_unit" yaml:"price_per_unit"`
}

// OrderSummary is the slice of an order used to hydrate claim listings.
type OrderSummary struct {
	OrderID     int64
	TotalAmount float64
	Items       []OrderItem
}

// OrderContext is the validation payload handed to the decision agent.
// Order is nil when the lookup failed.
type OrderContext struct {
	Order       *OrderMaster `json:"order_master"`
	Items       []OrderItem  `json:"order_items"`
	PriorClaims []Claim      `json:"prior_claims"`
}

// EmptyOrderContext is returned whenever the order cannot be resolved.
func EmptyOrderContext() OrderContext {
	return OrderContext{Items: []OrderItem{}, PriorClaims: []Claim{}}
}
