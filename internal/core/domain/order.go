package domain

import "time"

type OrderStatus string

const (
	OrderStatusConfirmed OrderStatus = "confirmed"
)

// OrderItem is one line of an order: a quantity of one item fulfilled from
// one warehouse.
type OrderItem struct {
	ItemID      string `json:"item_id"`
	WarehouseID string `json:"warehouse_id"`
	Quantity    int    `json:"quantity"`
}

// OrderIntent is the queue message payload. OrderID is assigned by intake
// before the message is enqueued and acts as the idempotency key: every
// redelivery of the same intent carries the same OrderID.
type OrderIntent struct {
	OrderID    string      `json:"order_id"`
	CustomerID string      `json:"customer_id"`
	Items      []OrderItem `json:"items"`
}

// OrderRecord is the committed form of an intent. Its existence in the
// ledger is the durable proof that the intent was applied.
type OrderRecord struct {
	OrderID     string      `json:"order_id"`
	CustomerID  string      `json:"customer_id"`
	WarehouseID string      `json:"warehouse_id"`
	Status      OrderStatus `json:"status"`
	Items       []OrderItem `json:"items"`
	CreatedAt   time.Time   `json:"created_at"`
}
