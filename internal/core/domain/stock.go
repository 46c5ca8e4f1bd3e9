package domain

import "errors"

var (
	// ErrAlreadyApplied is returned by the ledger when an order record for
	// the intent's order id already exists. Duplicate deliveries hit this.
	ErrAlreadyApplied = errors.New("order already applied")

	// ErrInsufficientStock is returned by the ledger when any line item of
	// an intent cannot be covered. No partial decrement is ever committed.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// StockLevel is one (warehouse, item) quantity. The authoritative copy lives
// in the ledger and is only mutated under a row lock; the copy in the
// inventory cache is advisory and may briefly lag behind it.
type StockLevel struct {
	WarehouseID string
	ItemID      string
	Quantity    int
}
