package port

import (
	"context"

	"github.com/swiftkart/dispatch/internal/core/domain"
)

// Ledger is the authoritative, transactional store of stock and orders.
type Ledger interface {
	// FulfillOrder applies the whole intent in a single atomic transaction:
	// it returns domain.ErrAlreadyApplied without mutating anything when a
	// record for intent.OrderID already exists, decrements every line item
	// all-or-nothing otherwise, and inserts exactly one order record. On
	// success it returns the post-decrement stock levels so callers can
	// refresh the inventory cache.
	FulfillOrder(ctx context.Context, intent domain.OrderIntent) ([]domain.StockLevel, error)

	// OrdersByCustomer returns a customer's committed orders, newest first.
	OrdersByCustomer(ctx context.Context, customerID string) ([]domain.OrderRecord, error)
}
